package server

import (
	"net/http"

	"github.com/clingclang/clingclang/authmodel"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())

	// AUTH
	s.RegisterRouteHandler("POST "+authmodel.RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+authmodel.RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+authmodel.RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+authmodel.RouteAuthLogoutAllDevices, ChainMiddleware(s.LogoutAllDevicesHandler(), s.APIMiddleware(s.RequireAuth())...))

	// USERS
	s.RegisterRouteHandler("GET "+authmodel.RouteUsersMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+authmodel.RouteUsersMeLocation, ChainMiddleware(s.GetLocationHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+authmodel.RouteUsersMeLocation, ChainMiddleware(s.PutLocationHandler(), s.APIMiddleware(s.RequireAuth())...))

	// ADMIN
	s.RegisterRouteHandler("GET "+authmodel.RouteAdminStats, ChainMiddleware(s.AdminStatsHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())...))

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
}
