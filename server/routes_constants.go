package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Login flow
	RouteAuthStart    = "/auth/start"
	RouteAuthCallback = "/auth/callback"

	// Session
	RouteAuthMe     = "/auth/me"
	RouteAuthLogout = "/auth/logout"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
