// Package httpx holds the small JSON response helpers shared by the API handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// MaxBodyBytes caps request bodies decoded by DecodeJSON. Face images arrive
// base64 encoded, so the limit is generous.
const MaxBodyBytes = 8 << 20

// WriteJSON writes payload as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, msg string, status int) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// DecodeJSON decodes the request body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
