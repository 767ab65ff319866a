package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ContextKey string

const RequestIDContextKey ContextKey = "request_id"

const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

// GetRequestID returns the ID stored by RequestID, or "".
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDContextKey).(string)
	return id
}

// sanitizeRequestID keeps [A-Za-z0-9._-] so a client ID is safe to echo in
// headers and logs.
func sanitizeRequestID(id string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return c
		case c == '-' || c == '_' || c == '.':
			return c
		}
		return -1
	}, id)
}

// RequestID tags each request with an ID, reusing a client-supplied
// X-Request-ID when anything survives sanitizing, and echoes it back.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if len(id) > maxRequestIDLength {
				id = id[:maxRequestIDLength]
			}
			if id = sanitizeRequestID(id); id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), RequestIDContextKey, id)))
		})
	}
}
