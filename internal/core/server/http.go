// Package server provides HTTP server lifecycle management.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/api"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/auth"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/config"
)

// HTTPServer manages HTTP server lifecycle.
type HTTPServer struct {
	server *http.Server
	config *config.ReportAPIConfig
}

// NewHTTPServer creates the HTTP server with auth middleware and routes.
func NewHTTPServer(cfg *config.ReportAPIConfig, service *api.ReportAPIService, authenticator *auth.Authenticator) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	// Health endpoint is unauthenticated for load balancer probes
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authenticator.Middleware())

		r.Route("/forms", func(r chi.Router) {
			r.Get("/", service.ListForms)
			r.Route("/{formID}", func(r chi.Router) {
				r.Get("/", service.GetForm)
				r.Get("/fields", service.GetFormFields)
				r.Get("/fields/{fieldID}/values", service.GetFieldValues)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Post("/evaluate", service.EvaluateReport)
			r.Post("/validate-logic", service.ValidateLogic)

			r.Get("/", service.ListReports)
			r.Post("/", service.CreateReport)
			r.Get("/{reportID}", service.GetReport)
			r.Put("/{reportID}", service.UpdateReport)
			r.Delete("/{reportID}", service.DeleteReport)
		})
	})

	return &HTTPServer{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		config: cfg,
	}, nil
}

// Start binds the listener and serves HTTP requests until Shutdown.
func (s *HTTPServer) Start(ctx context.Context) error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve on %s: %w", s.server.Addr, err)
	}
	return nil
}

// Shutdown gracefully stops the server with a 30-second timeout.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.server.Close()
		return fmt.Errorf("graceful shutdown failed, forced close: %w", err)
	}
	return nil
}
