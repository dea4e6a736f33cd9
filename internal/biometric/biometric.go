// Package biometric decides whether live face captures match the embedding
// stored for an account.
package biometric

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// EmbeddingSize is the descriptor length produced by the face recognition model.
const EmbeddingSize = 128

var (
	// ErrNoReference is returned when the account has no stored face embedding.
	ErrNoReference = errors.New("no face registered for this account")
	// ErrInvalidReference means the stored embedding is corrupt. It is a data
	// integrity problem, not a failed verification.
	ErrInvalidReference = errors.New("stored face descriptor corrupted")
	// ErrNoValidCapture means every live capture had the wrong length.
	ErrNoValidCapture = errors.New("no valid live capture")
)

// Embedding is a face descriptor.
type Embedding []float64

// Valid reports whether the embedding has the model's dimensionality.
func (e Embedding) Valid() bool {
	return len(e) == EmbeddingSize
}

// Distance is the Euclidean distance between two embeddings. Embeddings of
// different lengths are not comparable and are infinitely far apart.
func Distance(a, b Embedding) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	return floats.Distance(a, b, 2)
}

// ParseStored decodes a stored embedding. Rows hold either a JSON array or a
// JSON string wrapping one.
func ParseStored(raw []byte) (Embedding, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, ErrNoReference
	}

	var emb Embedding
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		trimmed = inner
	}
	if err := json.Unmarshal([]byte(trimmed), &emb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if !emb.Valid() {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidReference, len(emb))
	}
	return emb, nil
}

// Decision is the outcome of comparing live captures with the stored embedding.
type Decision struct {
	Accepted    bool    `json:"accepted"`
	AvgDistance float64 `json:"avg_distance"`
	Confidence  int     `json:"confidence"`
	ValidFrames int     `json:"valid_frames"`
	Threshold   float64 `json:"threshold"`
}

// Message is the text shown to the user for this decision.
func (d Decision) Message() string {
	if d.Accepted {
		return fmt.Sprintf("Face Verified Successfully (Match Confidence: %d%%)", d.Confidence)
	}
	return fmt.Sprintf("Face Verification Failed. (Match Confidence: %d%%)", d.Confidence)
}

// Decide averages the distance of every valid live capture to stored and
// accepts when the average is strictly below threshold. Confidence is for
// display only; the decision uses the raw distance.
func Decide(stored Embedding, live []Embedding, threshold float64) (Decision, error) {
	if stored == nil {
		return Decision{}, ErrNoReference
	}
	if !stored.Valid() {
		return Decision{}, ErrInvalidReference
	}

	var total float64
	valid := 0
	for _, capture := range live {
		if !capture.Valid() {
			continue
		}
		total += Distance(capture, stored)
		valid++
	}
	if valid == 0 {
		return Decision{}, ErrNoValidCapture
	}

	avg := total / float64(valid)
	return Decision{
		Accepted:    avg < threshold,
		AvgDistance: avg,
		Confidence:  Confidence(avg),
		ValidFrames: valid,
		Threshold:   threshold,
	}, nil
}

// Confidence converts a distance into a rounded percentage.
func Confidence(distance float64) int {
	return int(math.Round((1 - distance) * 100))
}
