package api

import (
	"net/http"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Get(func() {
		if s.version != "" {
			w.Header().Set("X-Seedvault-Version", s.version)
		}
		s.healthChecker.HTTPHandler()(w, r)
	}).NotAllowed()
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Get(func() {
		s.metricsRegistry.UpdateSystemMetrics(s.startTime)
		s.metricsRegistry.Handler().ServeHTTP(w, r)
	}).NotAllowed()
}
