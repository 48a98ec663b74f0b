// Package responses writes JSON and PDF bodies. Write failures happen after
// the header is sent, so they are logged rather than returned.
package responses

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Message - body of every error response
type Message struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
	Code    string `json:"code,omitempty"` // e.g. WordNotFound
}

func EncodeWriteJSON(w http.ResponseWriter, status int, payload any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Int("status", status).Msg("[ERROR] writing JSON response")
	}
}

func WriteSimpleErrorJSON(w http.ResponseWriter, status int, msg string) {
	EncodeWriteJSON(w, status, Message{Type: "error", Message: msg})
}

func WriteErrorJSON(w http.ResponseWriter, status int, code string, msg string) {
	EncodeWriteJSON(w, status, Message{Type: "error", Message: msg, Code: code})
}
