package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
	"github.com/dd0wney/seedvault/pkg/logging"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, kind string) {
	s.respondJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

// statusForError maps a crypto core error to an HTTP status. Malformed input
// is checked first so that a legacy decode failure, which arrives wrapped in
// DecryptionFailed, is still reported as a client error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, cryptoerr.ErrMalformedContainer),
		errors.Is(err, cryptoerr.ErrKeyDerivationFailed):
		return http.StatusBadRequest
	case errors.Is(err, cryptoerr.ErrIntegrityViolation),
		errors.Is(err, cryptoerr.ErrAuthenticationFailed),
		errors.Is(err, cryptoerr.ErrDecryptionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondCryptoError reports a failed vault operation. The body carries only
// the error text and kind; the core never puts secrets in either.
func (s *Server) respondCryptoError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusForError(err)
	kind := KindInternal
	if k := cryptoerr.KindOf(err); k != 0 {
		kind = k.String()
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("operation failed",
			logging.Operation(op),
			logging.Error(err),
			logging.RequestID(requestID(r)))
		message = op + " failed"
	}
	s.respondError(w, status, message, kind)
}
