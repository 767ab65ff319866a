package middleware

import (
	"fmt"
	"net/http"
)

// BodySizeLimit caps request bodies at maxBytes. A declared Content-Length
// over the cap is refused before the handler runs, through onTooLarge when it
// is set. Other bodies are wrapped in http.MaxBytesReader, so a handler that
// reads past the cap gets *http.MaxBytesError.
func BodySizeLimit(maxBytes int64, onTooLarge RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				if onTooLarge != nil {
					onTooLarge(w, r)
				} else {
					http.Error(w, fmt.Sprintf("request body exceeds %d bytes", maxBytes), http.StatusRequestEntityTooLarge)
				}
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
