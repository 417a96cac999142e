package server

// Server-only routes. The API routes shared with the client live in authmodel.
const (
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
