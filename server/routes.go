package server

import (
	"net/http"

	"github.com/jrsteele09/go-oauth1-login/internal/metrics"
)

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc(http.MethodGet, RouteAuthStart, ChainMiddleware(s.StartHandler(), s.APIMiddleware(s.startLimiter.Middleware)...))
	s.RegisterRouteFunc(http.MethodGet, RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))

	// SESSION
	s.RegisterRouteFunc(http.MethodGet, RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc(http.MethodPost, RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc(http.MethodOptions, RouteAuthMe, ChainMiddleware(noContent, s.CorsMiddleware))
	s.RegisterRouteFunc(http.MethodOptions, RouteAuthLogout, ChainMiddleware(noContent, s.CorsMiddleware))

	// OPERATIONS
	s.RegisterRouteFunc(http.MethodGet, RouteHealth, s.HealthHandler())
	if s.gatherer != nil {
		s.RegisterRouteFunc(http.MethodGet, RouteMetrics, metrics.Handler(s.gatherer).ServeHTTP)
	}
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
