package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/keyword-rotator/internal/request"
)

// ErrorResponse is the failure envelope written by middleware. It matches the
// shape handlers use so clients see one error format regardless of which layer rejected the call.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
		RequestID: request.ID(r.Context()),
	})
}
