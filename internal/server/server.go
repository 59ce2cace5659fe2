package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/channel"
	"github.com/nerdintosubs/hiring-agent/internal/config"
	"github.com/nerdintosubs/hiring-agent/internal/logger"
	"github.com/nerdintosubs/hiring-agent/internal/recaptcha"
	"github.com/nerdintosubs/hiring-agent/internal/server/middleware"
	"github.com/nerdintosubs/hiring-agent/internal/server/ratelimit"
	"github.com/nerdintosubs/hiring-agent/internal/store"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Route role groups.
var (
	employerRoles = []string{middleware.RoleEmployer, middleware.RoleRecruiter, middleware.RoleAdmin}
	staffRoles    = []string{middleware.RoleRecruiter, middleware.RoleAdmin}
	serviceRoles  = []string{middleware.RoleService, middleware.RoleAdmin}
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	settings    *config.Settings
	store       *store.Store
	processor   *channel.Processor
	verifier    *recaptcha.Verifier
	auth        *middleware.Authenticator
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// Config holds server dependencies. Store and Settings are required.
type Config struct {
	Settings *config.Settings
	Store    *store.Store
	Logger   *slog.Logger
	// Limiter defaults to one built from the RATE_LIMIT_* environment.
	Limiter *ratelimit.Limiter
	// Verifier defaults to the production reCAPTCHA endpoint.
	Verifier *recaptcha.Verifier
	Metrics  *Metrics
	Now      func() time.Time
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Settings == nil || cfg.Store == nil {
		return nil, fmt.Errorf("server requires settings and a store")
	}

	s := &Server{
		settings:    cfg.Settings,
		store:       cfg.Store,
		logger:      cfg.Logger,
		rateLimiter: cfg.Limiter,
		verifier:    cfg.Verifier,
		metrics:     cfg.Metrics,
		now:         cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}
	if s.verifier == nil {
		s.verifier = recaptcha.NewVerifier(cfg.Settings.RecaptchaSecret, cfg.Settings.RecaptchaMinScore)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.processor = channel.NewProcessor(cfg.Store, channel.Config{
		MaxRetries:     cfg.Settings.WebhookMaxRetries,
		BackoffSeconds: cfg.Settings.WebhookRetryBackoffSeconds,
	}, s.logger)

	s.jwtService = NewJWTService(&cfg.Settings.JWT)
	s.auth = middleware.NewAuthenticator(cfg.Settings.AuthEnabled, s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()

	// Probes
	s.route(mux, "GET /health", s.handleHealth)
	s.route(mux, "GET /health/ready", s.handleReady)
	s.route(mux, "GET /metrics", s.metrics.Handler().ServeHTTP)

	// Employer intake and pipeline
	s.route(mux, "POST /employers/intake", s.handleEmployerIntake, employerRoles...)
	s.route(mux, "GET /jobs/{id}/pipeline", s.handlePipeline, employerRoles...)
	s.route(mux, "POST /candidates/ingest", s.handleCandidateIngest, staffRoles...)
	s.route(mux, "POST /screening/run", s.handleScreeningRun, staffRoles...)
	s.route(mux, "POST /interviews/schedule", s.handleInterviewSchedule, staffRoles...)
	s.route(mux, "POST /shortlist/generate", s.handleShortlistGenerate, staffRoles...)
	s.route(mux, "POST /offers/create", s.handleOfferCreate, staffRoles...)
	s.route(mux, "POST /applications/{id}/stage", s.handleStageTransition, staffRoles...)
	s.route(mux, "GET /applications/{id}/audit", s.handleAuditLedger, staffRoles...)

	// Leads
	s.route(mux, "POST /leads/manual", s.handleCreateManualLead, staffRoles...)
	s.route(mux, "GET /leads/manual", s.handleListManualLeads, staffRoles...)
	s.route(mux, "POST /leads/website", s.handleCreateWebsiteLead)
	s.route(mux, "GET /leads/website", s.handleListWebsiteLeads, staffRoles...)
	s.route(mux, "POST /leads/website/{id}/contact", s.handleMarkWebsiteLeadContacted, staffRoles...)
	s.route(mux, "POST /events/website", s.handleRecordWebsiteEvent)
	s.route(mux, "GET /funnel/website/summary", s.handleWebsiteFunnelSummary, staffRoles...)

	// Channel webhooks
	s.route(mux, "POST /webhooks/whatsapp", s.webhookHandler(channel.WhatsApp, cfg.Settings.WhatsAppWebhookSecret), serviceRoles...)
	s.route(mux, "POST /webhooks/telephony", s.webhookHandler(channel.Telephony, cfg.Settings.TelephonyWebhookSecret), serviceRoles...)
	s.route(mux, "GET /webhooks/deliveries", s.handleListWebhookDeliveries, serviceRoles...)

	// First-10 campaigns
	s.route(mux, "POST /campaigns/first-10/bootstrap", s.handleBootstrapCampaign, staffRoles...)
	s.route(mux, "POST /campaigns/{id}/events", s.handleLogCampaignEvent, staffRoles...)
	s.route(mux, "GET /campaigns/{id}/progress", s.handleCampaignProgress, staffRoles...)

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		s.errorResponse(w, http.StatusNotFound, "not found")
	})

	s.handler = s.withRequestID(s.withLogging(s.withCORS(s.withRateLimit(mux))))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Settings.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		s.rateLimiter.Stop()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// route registers h under pattern, behind a role check unless roles is empty.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc, roles ...string) {
	var handler http.Handler = h
	if len(roles) > 0 {
		handler = s.auth.Require(roles...)(handler)
	}
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
			info.route = pattern
		}
		handler.ServeHTTP(w, r)
	}))
}

// requestInfoKey carries per-request facts back out to the logging middleware.
type requestInfoKey struct{}

type requestInfo struct {
	route string
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// withRequestID propagates or assigns the X-Request-ID header.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(logger.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = logger.NewRequestID()
		}
		w.Header().Set(logger.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// withLogging logs and measures every request
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{route: "unmatched"}
		rec := &statusRecorder{ResponseWriter: w}
		r = r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info))

		defer func() {
			elapsed := time.Since(start)
			if p := recover(); p != nil {
				logger.FromContext(r.Context(), s.logger).Error("request_failed",
					"method", r.Method, "path", r.URL.Path, "panic", fmt.Sprint(p))
				if rec.status == 0 {
					s.errorResponse(rec, http.StatusInternalServerError, "internal server error")
				}
			}
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			s.metrics.ObserveRequest(info.route, r.Method, rec.status, elapsed)
			logger.FromContext(r.Context(), s.logger).Info("request_complete",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"latency_ms", float64(elapsed.Microseconds())/1000)
		}()

		next.ServeHTTP(rec, r)
	})
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientIP(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client identifier from RemoteAddr.
// Forwarded headers are not trusted.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error": "rate limit exceeded",
		"limit": info.Limit,
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		seconds = max(seconds, 1)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	logger.FromContext(r.Context(), s.logger).Warn("rate limit exceeded",
		"client", clientIP(r), "path", r.URL.Path, "limit", info.Limit)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to its status. Unexpected errors are logged and hidden.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	var misconfigured *ErrMisconfigured
	if status == http.StatusInternalServerError && !errors.As(err, &misconfigured) {
		logger.FromContext(r.Context(), s.logger).Error("request failed", "path", r.URL.Path, "error", err)
		message = "internal server error"
	}
	s.errorResponse(w, status, message)
}

// decodeJSON reads the body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrBadRequest{Message: "request body is required"}
		}
		return &ErrBadRequest{Message: "invalid request body: " + err.Error()}
	}
	return types.Validate(dst)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether persistence is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		logger.FromContext(r.Context(), s.logger).Warn("readiness check failed", "error", err)
		s.errorResponse(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}
