// Package httpx carries the HTTP plumbing shared by all handlers:
// middleware, the JSON error envelope and request validation.
package httpx

import (
	"encoding/json"
	"log"
	"net/http"
)

// APIError is the client-facing error envelope. Message carries business and
// not-found errors verbatim; Errors carries field-level validation failures.
type APIError struct {
	Message string       `json:"message,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response encode failed: %v", err)
	}
}

// Error writes a single-message error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, APIError{Message: message})
}

// ValidationFailed writes the field-level validation envelope with 400.
func ValidationFailed(w http.ResponseWriter, errs []FieldError) {
	JSON(w, http.StatusBadRequest, APIError{Errors: errs})
}

// InternalError logs the fault and writes a generic 500 so internals never
// leak to clients.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("internal error: request_id=%s method=%s path=%s error=%v",
		RequestIDFrom(r), r.Method, r.URL.Path, err)
	Error(w, http.StatusInternalServerError, "Erro interno do servidor")
}
