// Package server provides the HTTP JSON API for interview sessions, match
// scores and assessment accuracy.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/accuracy"
	"github.com/jonathan/internx-match/internal/interview"
	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/matching"
	"github.com/jonathan/internx-match/internal/server/middleware"
	"github.com/jonathan/internx-match/internal/server/ratelimit"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
)

// SessionService is the interview session lifecycle.
type SessionService interface {
	StartOrResume(ctx context.Context, caller types.Caller, meta types.SessionMetadata) (*types.InterviewSession, bool, error)
	Restart(ctx context.Context, caller types.Caller, sessionID uuid.UUID) (*types.InterviewSession, error)
	Complete(ctx context.Context, caller types.Caller, sessionID uuid.UUID, inputs []types.ResponseInput) (*types.InterviewSession, error)
	Rescore(ctx context.Context, caller types.Caller) (*types.InterviewSession, error)
	ListByType(ctx context.Context, caller types.Caller, interviewType string) ([]types.InterviewSession, error)
	Latest(ctx context.Context, caller types.Caller) (*types.InterviewSession, error)
}

// MatchService computes and lists personalized match scores.
type MatchService interface {
	ComputeForAll(ctx context.Context, caller types.Caller, candidateID *uuid.UUID) (*matching.Summary, error)
	List(ctx context.Context, caller types.Caller, candidateID *uuid.UUID) ([]types.PersonalizedScore, error)
}

// AccuracyService records validations and reports accuracy.
type AccuracyService interface {
	Record(ctx context.Context, caller types.Caller, req *types.RecordValidationRequest) (*types.ValidationRecord, error)
	List(ctx context.Context, caller types.Caller, filter types.ValidationFilter) ([]types.ValidationRecord, error)
	Metrics(ctx context.Context, caller types.Caller, period int, category string) (*types.AccuracyReport, error)
	SubmitFeedback(ctx context.Context, caller types.Caller, req *types.FeedbackRequest) (*types.FeedbackEntry, error)
	ListFeedback(ctx context.Context, caller types.Caller, period int) ([]types.FeedbackEntry, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ SessionService  = (*interview.Manager)(nil)
	_ MatchService    = (*matching.Service)(nil)
	_ AccuracyService = (*accuracy.Aggregator)(nil)
)

// Config holds server configuration.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	RateLimit       *ratelimit.Config
}

// Deps are the services the handlers call into.
type Deps struct {
	Sessions SessionService
	Matches  MatchService
	Accuracy AccuracyService
	Health   Pinger
	Tokens   middleware.TokenValidator
	Logger   *zap.Logger
}

// Server represents the HTTP server.
type Server struct {
	httpServer      *http.Server
	sessions        SessionService
	matches         MatchService
	accuracy        AccuracyService
	health          Pinger
	rateLimiter     *ratelimit.Limiter
	allowedOrigins  []string
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// New creates a server and registers its routes.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Sessions == nil || deps.Matches == nil || deps.Accuracy == nil {
		return nil, errors.New("server: session, match and accuracy services are required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("server: a token validator is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		sessions:        deps.Sessions,
		matches:         deps.Matches,
		accuracy:        deps.Accuracy,
		health:          deps.Health,
		rateLimiter:     ratelimit.NewLimiter(cfg.RateLimit),
		allowedOrigins:  cfg.AllowedOrigins,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logging.OrNop(deps.Logger).Named("server"),
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /sessions/start", s.handleStartSession)
	api.HandleFunc("POST /sessions/{id}/restart", s.handleRestartSession)
	api.HandleFunc("POST /sessions/{id}/complete", s.handleCompleteSession)
	api.HandleFunc("POST /sessions/rescore", s.handleRescoreSession)
	api.HandleFunc("GET /sessions", s.handleListSessions)
	api.HandleFunc("GET /sessions/latest", s.handleLatestSession)

	api.HandleFunc("POST /match-scores/recompute", s.handleRecompute)
	api.HandleFunc("GET /match-scores", s.handleListMatchScores)

	api.HandleFunc("POST /accuracy/validations", s.handleRecordValidation)
	api.HandleFunc("GET /accuracy/validations", s.handleListValidations)
	api.HandleFunc("GET /accuracy/metrics", s.handleMetrics)
	api.HandleFunc("POST /accuracy/feedback", s.handleSubmitFeedback)
	api.HandleFunc("GET /accuracy/feedback", s.handleListFeedback)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/", middleware.AuthMiddleware(deps.Tokens)(api))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	defer s.rateLimiter.Stop()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers for the configured origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// withRateLimit rejects clients over their limit with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs every request with its status and latency.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Duration("latency", m.Duration),
			zap.String("client_ip", clientID(r)),
		}
		switch {
		case m.Code >= 500:
			s.logger.Error("server error", fields...)
		case m.Code >= 400:
			s.logger.Warn("client error", fields...)
		default:
			s.logger.Debug("request processed", fields...)
		}
	})
}

// handleHealth reports liveness and, when a store is wired, its reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps a service error onto its status and logs server-side failures.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	s.errorResponse(w, status, clientMessage(err, status))
}

// clientID identifies the client by remote IP.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	s.logger.Warn("rate limit exceeded",
		zap.String("client_ip", clientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
