// Package server is the reference ClingClang API: the login, refresh and
// logout endpoints the client pipeline talks to, plus a few protected
// resources behind them.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clingclang/clingclang/internal/config"
	"github.com/clingclang/clingclang/token"
	"github.com/clingclang/clingclang/token/refresh"
	"github.com/clingclang/clingclang/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Server
type Repos struct {
	Users         users.UserRepo // Repository for user accounts
	RefreshTokens refresh.Repo   // Repository for refresh token metadata
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	repos   Repos
	tokens  *token.Manager
	refresh *refresh.Manager
	logger  zerolog.Logger
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithLogger sets the server logger
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTokenManager replaces the access token manager built from config
func WithTokenManager(tokens *token.Manager) ServerOption {
	return func(s *Server) {
		s.tokens = tokens
	}
}

func New(cfg config.Config, repos Repos, options ...ServerOption) (*Server, error) {
	if repos.Users == nil {
		return nil, fmt.Errorf("[Server New] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, fmt.Errorf("[Server New] RefreshTokens repo is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		repos:   repos,
		refresh: refresh.NewManager(repos.RefreshTokens, cfg),
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.tokens == nil {
		signer, err := token.NewHMACSigner(cfg.GetJWTSecret())
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to create token signer: %w", err)
		}
		s.tokens = token.New(signer,
			token.WithIssuer(cfg.GetIssuer()),
			token.WithAccessTokenExpiry(cfg.GetAccessTokenExpiry()),
		)
	}

	// Bootstrap: ensure the admin and demo accounts exist
	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// RunMaintenance drops expired refresh tokens and revocations every interval
// until ctx ends.
func (s *Server) RunMaintenance(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Server) cleanup() {
	s.tokens.CleanupRevokedTokens()
	n, err := s.refresh.CleanupExpired()
	if err != nil {
		s.logger.Error().Err(err).Msg("refresh token cleanup failed")
		return
	}
	if n > 0 {
		s.logger.Debug().Int("removed", n).Msg("expired refresh tokens removed")
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	s.logger.Info().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
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
