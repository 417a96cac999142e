package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/clingclang/clingclang/authmodel"
	"github.com/clingclang/clingclang/token"
	"github.com/clingclang/clingclang/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
)

// claimsFromContext returns the claims RequireAuth stored for this request
func claimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims, ok
}

// bearerToken extracts the token from an "Authorization: Bearer" header
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth is middleware that validates a Bearer access token. Every
// failure, including expiry and revocation, answers with the expired
// authorization message the client refreshes on.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, err := s.tokens.Inspect(bearerToken(r))
			if err != nil {
				s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("access token rejected")
				writeJSON(w, http.StatusUnauthorized, authmodel.MessageResponse{
					Message: authmodel.MessageAuthExpired,
					Code:    authmodel.CodeAuthTokenExpired,
				})
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAdmin is middleware that validates the admin role.
// Should be chained after RequireAuth to ensure claims are present
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFromContext(r.Context())
			if !ok || claims.Role != users.RoleAdmin {
				writeJSON(w, http.StatusForbidden, authmodel.MessageResponse{Message: authmodel.MessageForbidden})
				return
			}
			next(w, r)
		}
	}
}
