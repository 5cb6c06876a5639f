// Package api assembles the trust boundary into an HTTP surface. Every
// inbound request passes the rate limiter first, then authentication,
// then, for resource-scoped routes, the ownership guard. Inbound
// webhook events skip user authentication and are signature-verified
// instead.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/schedly/trustgate/internal/auth"
	"github.com/schedly/trustgate/internal/authz"
	"github.com/schedly/trustgate/internal/events"
	"github.com/schedly/trustgate/internal/ratelimit"
	"github.com/schedly/trustgate/internal/store"
	"github.com/schedly/trustgate/internal/webhook"
)

// RateLimitRule is one per-route-group limit.
type RateLimitRule struct {
	MaxRequests int
	Window      time.Duration
}

// Config holds the API server configuration.
type Config struct {
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// APIRate applies to general traffic, WebhookRate to the inbound
	// event endpoint (typically stricter).
	APIRate     RateLimitRule
	WebhookRate RateLimitRule

	Webhook webhook.Config
}

// Server is the HTTP front of the trust boundary.
type Server struct {
	config        Config
	limiter       *ratelimit.Limiter
	authenticator *auth.Authenticator
	guard         *authz.Guard
	store         store.Store
	hub           *events.Hub
	logger        *slog.Logger
	server        *http.Server
	startedAt     time.Time
}

// New wires the components into a server instance.
func New(
	config Config,
	limiter *ratelimit.Limiter,
	authenticator *auth.Authenticator,
	guard *authz.Guard,
	st store.Store,
	hub *events.Hub,
	logger *slog.Logger,
) *Server {
	if config.APIRate.MaxRequests == 0 {
		config.APIRate = RateLimitRule{MaxRequests: ratelimit.DefaultMaxRequests, Window: ratelimit.DefaultWindow}
	}
	if config.WebhookRate.MaxRequests == 0 {
		config.WebhookRate = config.APIRate
	}
	return &Server{
		config:        config,
		limiter:       limiter,
		authenticator: authenticator,
		guard:         guard,
		store:         st,
		hub:           hub,
		logger:        logger,
		startedAt:     time.Now(),
	}
}

// Start runs the HTTP server until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("trust gateway starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("trust gateway shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint, still rate limited.
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware(s.config.APIRate))
		r.Get("/healthz", s.handleHealthz)
	})

	// Inbound events: signature-verified, no user authentication.
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware(s.config.WebhookRate))
		r.Post("/webhook/{source}", webhook.NewHandler(s.config.Webhook, s.hub, s.logger).ServeHTTP)
	})

	// Authenticated API.
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware(s.config.APIRate))
		r.Use(s.authMiddleware)
		r.Get("/appointments/{appointmentID}", s.handleGetAppointment)
		r.Get("/tenants/me", s.handleTenantMe)
		r.Get("/events", s.handleEvents)
		r.Post("/notifications", s.handleNotify)
		r.Post("/assistant/messages", s.handleAssistantMessage)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}
