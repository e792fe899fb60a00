package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benvon/keyword-rotator/internal/request"
	"github.com/benvon/keyword-rotator/internal/validation"
	"github.com/go-playground/validator/v10"
)

// maxErrorMessageLength keeps upstream error text from bloating responses
const maxErrorMessageLength = 200

type successEnvelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure can only truncate the body.
	_ = json.NewEncoder(w).Encode(body)
}

// respondJSON writes data in the success envelope
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, status, successEnvelope{
		Success:   true,
		Data:      data,
		Timestamp: timestamp(),
		RequestID: request.ID(r.Context()),
	})
}

// truncateMessage caps message length on a rune boundary
func truncateMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= maxErrorMessageLength {
		return message
	}
	return string(runes[:maxErrorMessageLength]) + "..."
}

// respondError writes the failure envelope. error is the status text, message is for humans.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeEnvelope(w, status, errorEnvelope{
		Error:     http.StatusText(status),
		Message:   truncateMessage(message),
		Timestamp: timestamp(),
		RequestID: request.ID(r.Context()),
	})
}

// decodeAndValidate decodes the JSON body into dst and runs struct validation. An empty
// body leaves dst at its zero value. It writes the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			respondError(w, r, http.StatusBadRequest, fmt.Sprintf("Validation failed: %s", validationErrors[0].Error()))
			return false
		}
		respondError(w, r, http.StatusBadRequest, "Validation failed")
		return false
	}
	return true
}
