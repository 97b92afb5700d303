// Package router assembles the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vitalcred/clinic-platform/internal/http/handlers"
	httpmiddleware "github.com/vitalcred/clinic-platform/internal/http/middleware"
	"github.com/vitalcred/clinic-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Integration        *handlers.ClinicIntegrationHandler
	SessionSecret      string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimitRPS throttles the clinic API per IP. Zero disables it.
	RateLimitRPS   int
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Get("/health", handlers.HealthHandler{}.Check)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Clinic API (session-scoped)
	if cfg.Integration != nil {
		r.Route("/api/clinics/{clinicID}", func(api chi.Router) {
			if cfg.RateLimitRPS > 0 {
				api.Use(httpmiddleware.RateLimit(float64(cfg.RateLimitRPS), cfg.RateLimitBurst))
			}
			api.Use(httpmiddleware.SessionAuth(cfg.SessionSecret))
			api.Use(httpmiddleware.ClinicContext)
			api.Get("/schedule", cfg.Integration.GetSchedule)
			api.Get("/patients", cfg.Integration.GetPatients)
			api.Post("/integration/reload", cfg.Integration.ReloadIntegration)
		})
	}

	return r
}
