package api

import (
	"net/http"

	"github.com/dd0wney/seedvault/pkg/validation"
	"github.com/dd0wney/seedvault/pkg/vault"
)

// decodeContainer reads a {container} body. It returns false once an error
// response has been written.
func (s *Server) decodeContainer(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req ContainerRequest
	if s.NewRequestDecoder(w, r).
		DecodeJSON(&req).
		Validate(func() error { return validation.ValidateContainerRequest(&req) }).
		RespondError() {
		return "", false
	}
	return req.Container, true
}

// handleIntegrityVerify reports a digest mismatch in the body with 200; only
// unparsable containers are errors.
func (s *Server) handleIntegrityVerify(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		encoded, ok := s.decodeContainer(w, r)
		if !ok {
			return
		}

		result, err := s.vault.VerifyIntegrity(encoded)
		if err != nil {
			s.respondCryptoError(w, r, vault.OpVerifyIntegrity, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}).NotAllowed()
}

func (s *Server) handleIntegrityInfo(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		encoded, ok := s.decodeContainer(w, r)
		if !ok {
			return
		}

		info, err := s.vault.GetIntegrityInfo(encoded)
		if err != nil {
			s.respondCryptoError(w, r, vault.OpGetIntegrityInfo, err)
			return
		}
		s.respondJSON(w, http.StatusOK, info)
	}).NotAllowed()
}

func (s *Server) handleIntegrityExport(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		encoded, ok := s.decodeContainer(w, r)
		if !ok {
			return
		}

		report, err := s.vault.ExportIntegrityReport(encoded)
		if err != nil {
			s.respondCryptoError(w, r, vault.OpExportIntegrityReport, err)
			return
		}
		s.respondJSON(w, http.StatusOK, ReportResponse{Report: report})
	}).NotAllowed()
}
