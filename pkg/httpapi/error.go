package httpapi

import (
	"encoding/json"
	"net/http"
)

const RequestIDHeader = "X-Request-Id"

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteValidationError answers 422 with per-field messages.
func WriteValidationError(w http.ResponseWriter, requestID string, fields map[string]string) error {
	return WriteJSON(w, http.StatusUnprocessableEntity, &ErrorEnvelope{
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
		Meta:    RequestMeta(requestID),
		Fields:  fields,
	})
}

func RequestMeta(requestID string) map[string]string {
	if requestID == "" {
		return nil
	}
	return map[string]string{"request_id": requestID}
}

// RequestID returns the id the logging middleware stamped on the response.
func RequestID(w http.ResponseWriter, r *http.Request) string {
	if id := w.Header().Get(RequestIDHeader); id != "" {
		return id
	}
	return r.Header.Get(RequestIDHeader)
}
