package api

import (
	"net/http"

	"github.com/dd0wney/seedvault/pkg/kdf"
	"github.com/dd0wney/seedvault/pkg/validation"
	"github.com/dd0wney/seedvault/pkg/vault"
)

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req EncryptRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidateEncryptRequest(&req) }).
			RequirePassphrase(req.Passphrase).
			RespondError() {
			return
		}

		encoded, err := s.vault.Encrypt(req.Content, req.Passphrase, req.Password)
		if err != nil {
			s.respondCryptoError(w, r, vault.OpEncrypt, err)
			return
		}
		s.respondJSON(w, http.StatusOK, ContainerResponse{Container: encoded})
	}).NotAllowed()
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req DecryptRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidateDecryptRequest(&req) }).
			RespondError() {
			return
		}

		content, err := s.vault.Decrypt(req.Container, req.Passphrase, req.Password)
		if err != nil {
			s.respondCryptoError(w, r, vault.OpDecrypt, err)
			return
		}
		s.respondJSON(w, http.StatusOK, ContentResponse{Content: content})
	}).NotAllowed()
}

func (s *Server) handleAdvancedEncrypt(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req AdvancedEncryptRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidateAdvancedEncryptRequest(&req) }).
			RequirePassphrase(req.Passphrase).
			RespondError() {
			return
		}

		result, err := s.vault.EncryptAdvanced(vault.AdvancedRequest{
			Content:    req.Content,
			Passphrase: req.Passphrase,
			Password:   req.Password,
			Derivation: kdf.Algorithm(req.Derivation),
			Iterations: req.Iterations,
		})
		if err != nil {
			s.respondCryptoError(w, r, vault.OpEncryptAdvanced, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}).NotAllowed()
}

func (s *Server) handleAdvancedDecrypt(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req DecryptRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidateDecryptRequest(&req) }).
			RespondError() {
			return
		}

		content, err := s.vault.DecryptAdvanced(req.Container, req.Passphrase, req.Password)
		if err != nil {
			s.respondCryptoError(w, r, vault.OpDecryptAdvanced, err)
			return
		}
		s.respondJSON(w, http.StatusOK, ContentResponse{Content: content})
	}).NotAllowed()
}
