// Package authmodel holds the wire contract between the ClingClang client and
// its API: routes, payloads and the literal server messages the client keys on.
package authmodel

import (
	"strings"

	"github.com/clingclang/clingclang/users"
	"github.com/pkg/errors"
)

// Route path constants
const (
	RouteAuthLogin            = "/api/auth/login"
	RouteAuthRefresh          = "/api/auth/refresh"
	RouteAuthLogout           = "/api/auth/logout"
	RouteAuthLogoutAllDevices = "/api/auth/logout-from-all-devices"
	RouteUsersMe              = "/api/users/me"
	RouteUsersMeLocation      = "/api/users/me/location"
	RouteAdminStats           = "/api/admin/stats"
)

// RefreshCookieName is the HttpOnly cookie carrying the refresh token. The
// client never reads it; the cookie jar sends it back to the refresh endpoint.
const RefreshCookieName = "refreshToken"

// Server messages. MessageAuthExpired is the server's contract for "the access
// token is missing, invalid or expired" and must match byte for byte.
const (
	MessageAuthExpired      = "Brak autoryzacji."
	MessageForbidden        = "Brak uprawnień."
	MessageInvalidLogin     = "Nieprawidłowy login lub hasło."
	MessageUserBlocked      = "Konto zostało zablokowane."
	MessageRefreshInvalid   = "Sesja wygasła. Zaloguj się ponownie."
	MessageLoggedIn         = "Zalogowano pomyślnie."
	MessageLoggedOut        = "Wylogowano pomyślnie."
	MessageLoggedOutAll     = "Wylogowano ze wszystkich urządzeń."
	MessageTokenRefreshed   = "Token odświeżony."
	MessageServerTimeout    = "Serwer nie odpowiada. Spróbuj ponownie później."
	MessageLocationNotFound = "Nie ustawiono lokalizacji."
	MessageInvalidInput     = "Nieprawidłowe dane."
)

// CodeAuthTokenExpired is the machine-readable equivalent of MessageAuthExpired.
const CodeAuthTokenExpired = "AUTH_TOKEN_EXPIRED"

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	NicknameOrEmail string `json:"nicknameOrEmail"`
	Password        string `json:"password"`
}

// Validate reports the fields a login cannot proceed without.
func (r LoginRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.NicknameOrEmail) == "" {
		missing = append(missing, "nicknameOrEmail")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// TokenResponse is returned by the login and refresh endpoints. User is always
// present on login and optional on refresh.
type TokenResponse struct {
	Message     string         `json:"message"`
	AccessToken string         `json:"accessToken"`
	User        *users.Profile `json:"user,omitempty"`
}

// MessageResponse is the body of every error and of plain acknowledgements.
// Code is only set where the server offers a machine-readable reason.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is a MessageResponse with per-field problems, sent for
// malformed request bodies.
type ErrorResponse struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}
