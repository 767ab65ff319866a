package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// requestDecoder decodes and validates request bodies.
// It provides a fluent interface for common request handling patterns.
type requestDecoder struct {
	r          *http.Request
	w          http.ResponseWriter
	server     *Server
	err        error
	statusCode int
	kind       string
}

// NewRequestDecoder creates a new request decoder for the given request.
func (s *Server) NewRequestDecoder(w http.ResponseWriter, r *http.Request) *requestDecoder {
	return &requestDecoder{
		r:      r,
		w:      w,
		server: s,
	}
}

// DecodeJSON decodes the request body into the provided struct.
// Returns the decoder for chaining; finish the chain with RespondError.
func (rd *requestDecoder) DecodeJSON(v any) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	if err := json.NewDecoder(rd.r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rd.fail(http.StatusRequestEntityTooLarge, KindValidation,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return rd
		}
		// The decoder error may quote body bytes, which can be secret.
		rd.fail(http.StatusBadRequest, KindValidation, errors.New("invalid request body"))
	}
	return rd
}

// Validate runs a validation function over the decoded request.
// Returns the decoder for chaining.
func (rd *requestDecoder) Validate(validate func() error) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	if err := validate(); err != nil {
		rd.fail(http.StatusBadRequest, KindValidation, err)
	}
	return rd
}

// RequirePassphrase applies word-list enforcement to passphrase when the
// server was configured with it.
func (rd *requestDecoder) RequirePassphrase(passphrase string) *requestDecoder {
	if rd.err != nil || !rd.server.enforceWordlist || rd.server.wordlist == nil {
		return rd
	}
	if !rd.server.wordlist.Validate(passphrase).Valid {
		// Never echo which words were rejected.
		rd.fail(http.StatusBadRequest, KindWeakPassphrase, errors.New("passphrase failed word list validation"))
	}
	return rd
}

func (rd *requestDecoder) fail(status int, kind string, err error) {
	rd.err = err
	rd.statusCode = status
	rd.kind = kind
}

// RespondError sends the error response and returns true if there was an error.
// Returns false if no error occurred.
func (rd *requestDecoder) RespondError() bool {
	if rd.err == nil {
		return false
	}
	rd.server.respondError(rd.w, rd.statusCode, rd.err.Error(), rd.kind)
	return true
}

// methodRouter routes requests based on HTTP method.
// Provides a cleaner alternative to switch statements for method routing.
type methodRouter struct {
	w       http.ResponseWriter
	r       *http.Request
	server  *Server
	handled bool
	allowed []string
}

// NewMethodRouter creates a new method router.
func (s *Server) NewMethodRouter(w http.ResponseWriter, r *http.Request) *methodRouter {
	return &methodRouter{
		w:      w,
		r:      r,
		server: s,
	}
}

// Get handles GET requests with the provided handler.
func (mr *methodRouter) Get(handler func()) *methodRouter {
	return mr.handle(http.MethodGet, handler)
}

// Post handles POST requests with the provided handler.
func (mr *methodRouter) Post(handler func()) *methodRouter {
	return mr.handle(http.MethodPost, handler)
}

func (mr *methodRouter) handle(method string, handler func()) *methodRouter {
	mr.allowed = append(mr.allowed, method)
	if !mr.handled && mr.r.Method == method {
		handler()
		mr.handled = true
	}
	return mr
}

// NotAllowed sends a 405 response if no method matched.
func (mr *methodRouter) NotAllowed() {
	if mr.handled {
		return
	}
	for i, m := range mr.allowed {
		if i == 0 {
			mr.w.Header().Set("Allow", m)
		} else {
			mr.w.Header().Add("Allow", m)
		}
	}
	mr.server.respondError(mr.w, http.StatusMethodNotAllowed, "Method not allowed", KindMethodNotAllowed)
}
