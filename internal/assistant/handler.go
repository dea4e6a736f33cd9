package assistant

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Greeting is sent when a chat socket opens.
const Greeting = "Hello! I am the Aadhaar Seva assistant. Ask me about booking, documents or tracking."

// MaxMessageBytes bounds a single chat message.
const MaxMessageBytes = 4 << 10

const (
	writeWait   = 10 * time.Second
	idleTimeout = 5 * time.Minute
)

// InboundMessage is what the chat client sends.
type InboundMessage struct {
	Type string `json:"type"` // "message" or "ping"
	Text string `json:"text"`
}

// OutboundMessage is what the assistant sends back.
type OutboundMessage struct {
	Type  string `json:"type"` // "message", "pong" or "error"
	Role  string `json:"role,omitempty"`
	Topic string `json:"topic,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Handler serves the assistant over plain HTTP and a WebSocket.
type Handler struct {
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewHandler creates an assistant handler. Socket upgrades are accepted
// from allowedOrigins; an empty list allows same-origin requests only.
func NewHandler(allowedOrigins []string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = true
	}
	h := &Handler{logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(allowed) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		}
	}
	return h
}

// Routes mounts the assistant endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/assistant/messages", h.Message)
	r.Get("/assistant/ws", h.HandleWebSocket)
}

// Message handles POST /api/assistant/messages.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var in InboundMessage
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		httpx.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if len(text) > MaxMessageBytes {
		httpx.Error(w, "message is too long", http.StatusRequestEntityTooLarge)
		return
	}
	answer := AnswerFor(text)
	httpx.WriteJSON(w, http.StatusOK, OutboundMessage{Type: "message", Role: "assistant", Topic: answer.Topic, Text: answer.Text})
}

// HandleWebSocket upgrades to a WebSocket and answers each text message.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("assistant: upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxMessageBytes + 512)

	send := func(msg OutboundMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	if err := send(OutboundMessage{Type: "message", Role: "assistant", Topic: "greeting", Text: Greeting}); err != nil {
		return
	}
	h.logger.Debug("assistant: connection opened", "remote", r.RemoteAddr)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("assistant: connection closed", "error", err)
			return
		}

		var out OutboundMessage
		switch {
		case msg.Type == "ping":
			out = OutboundMessage{Type: "pong"}
		case msg.Type != "" && msg.Type != "message":
			out = OutboundMessage{Type: "error", Text: "unsupported message type"}
		case strings.TrimSpace(msg.Text) == "":
			continue
		default:
			answer := AnswerFor(msg.Text)
			out = OutboundMessage{Type: "message", Role: "assistant", Topic: answer.Topic, Text: answer.Text}
		}
		if err := send(out); err != nil {
			h.logger.Debug("assistant: write failed", "error", err)
			return
		}
	}
}
