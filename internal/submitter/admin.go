// internal/submitter/admin.go
package submitter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// adminServer serves the operator-facing endpoints: health, metrics, and
// journal lookups by address. It listens on a local address and carries
// no end-user traffic.
type adminServer struct {
	server *http.Server
}

func (s *Service) startAdminServer(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(httprate.LimitByIP(s.cfg.Admin.RateLimit, 1*time.Minute))

	r.Method(http.MethodGet, "/healthz", s.health.Handler())
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/submissions/{address}", s.handleGetSubmission)

	s.admin = &adminServer{
		server: &http.Server{
			Addr:    s.cfg.Admin.Addr,
			Handler: r,
		},
	}

	go func() {
		s.logger.Info("Admin server listening", "addr", s.cfg.Admin.Addr)
		if err := s.admin.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Admin server failed")
		}
	}()
	return nil
}

func (s *Service) stopAdminServer(ctx context.Context) {
	if s.admin == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.admin.server.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Error("Error shutting down admin server")
	}
}

// handleGetSubmission returns the journaled lifecycle entry for an address
func (s *Service) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	if s.journal == nil {
		http.Error(w, "journal not configured", http.StatusNotImplemented)
		return
	}

	entry, err := s.journal.Get(r.Context(), address)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			http.Error(w, "submission not found", http.StatusNotFound)
			return
		}
		s.logger.WithError(err).Error("Journal lookup failed", "address", address)
		http.Error(w, "journal lookup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		s.logger.WithError(err).Error("Failed to encode submission entry")
	}
}
