package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-oauth1-login/auth"
	"github.com/jrsteele09/go-oauth1-login/internal/config"
	"github.com/jrsteele09/go-oauth1-login/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type route struct {
	method  string
	pattern string
}

type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	router       chi.Router
	routes       []route
	config       config.Config
	auth         *auth.Service
	metrics      metrics.MetricsCollector
	gatherer     prometheus.Gatherer
	startLimiter *StartRateLimiter
}

type Option func(*Server)

// WithMetrics records HTTP statuses on m and serves gatherer on /metrics.
func WithMetrics(m metrics.MetricsCollector, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithStartRateLimiter replaces the limiter built from configuration.
func WithStartRateLimiter(l *StartRateLimiter) Option {
	return func(s *Server) {
		s.startLimiter = l
	}
}

func New(cfg config.Config, authService *auth.Service, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if authService == nil {
		return nil, errors.New("[Server New] auth service is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		router:  chi.NewRouter(),
		config:  cfg,
		auth:    authService,
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.startLimiter == nil {
		s.startLimiter = NewStartRateLimiter(cfg.GetStartRatePerMinute())
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

// StartLimiter returns the limiter guarding the start route so the caller can
// run its cleanup loop.
func (s *Server) StartLimiter() *StartRateLimiter {
	return s.startLimiter
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(method, pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, route{method: method, pattern: pattern})
	s.router.Method(method, pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, rt := range s.routes {
		log.Debug().Msg(colourRoute(rt.method, rt.pattern))
	}
}

func colourRoute(method, path string) string {
	colour, ok := methodColors[method]
	if !ok {
		colour = Gray
	}
	return fmt.Sprintf("[%s %-7s%s] %s", colour, method, ResetColor, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
