package controllers

import (
	"net/http"

	"github.com/iota-uz/orgtree/pkg/httpapi"
)

func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta := map[string]string{
			"path": r.URL.Path,
		}
		if requestID := httpapi.RequestID(w, r); requestID != "" {
			meta["request_id"] = requestID
		}
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "not found", meta)
	}
}

func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta := map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
		}
		if requestID := httpapi.RequestID(w, r); requestID != "" {
			meta["request_id"] = requestID
		}
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", meta)
	}
}
