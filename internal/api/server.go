// Package api exposes the reminder platform over HTTP: reminder CRUD, the
// notification disable endpoint, the failure-queue view, and health checks.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reminderd/internal/config"
)

// Server wraps the chi router and the underlying http.Server.
type Server struct {
	cfg  config.ServerConfig
	log  *slog.Logger
	http *http.Server
}

// NewServer builds the full middleware chain and route table.
func NewServer(cfg config.ServerConfig, handler *ReminderHandler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(recoverer(log))
	r.Use(requestIDMiddleware)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	handler.RegisterRoutes(r)

	return &Server{
		cfg: cfg,
		log: log,
		http: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// filtered out so a graceful shutdown reads as a clean exit.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
