package api

import (
	"net/http"

	"github.com/dd0wney/seedvault/pkg/validation"
)

// requireWordlist writes a 404 and returns false when no word list is loaded.
func (s *Server) requireWordlist(w http.ResponseWriter) bool {
	if s.wordlist == nil {
		s.respondError(w, http.StatusNotFound, "word list not loaded", KindNotFound)
		return false
	}
	return true
}

func (s *Server) handlePassphraseValidate(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		if !s.requireWordlist(w) {
			return
		}

		var req PassphraseValidateRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidatePassphraseValidateRequest(&req) }).
			RespondError() {
			return
		}

		result := s.wordlist.Validate(req.Passphrase)
		s.respondJSON(w, http.StatusOK, PassphraseValidateResponse{
			ValidationResult: result,
			EntropyBits:      s.wordlist.Entropy(len(result.ValidWords)),
		})
	}).NotAllowed()
}

func (s *Server) handlePassphraseGenerate(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		if !s.requireWordlist(w) {
			return
		}

		var req PassphraseGenerateRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidatePassphraseGenerateRequest(&req) }).
			RespondError() {
			return
		}

		passphrase, err := s.wordlist.Generate(req.Words)
		if err != nil {
			s.respondCryptoError(w, r, "generate_passphrase", err)
			return
		}
		s.respondJSON(w, http.StatusOK, PassphraseGenerateResponse{
			Passphrase:  passphrase,
			Words:       req.Words,
			EntropyBits: s.wordlist.Entropy(req.Words),
		})
	}).NotAllowed()
}
