package server

import (
	"net/http"
	"time"

	"github.com/clingclang/clingclang/authmodel"
	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/users"
)

// HealthHandler reports liveness
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// issueTokens creates an access token and a new device refresh token for user
// and writes the token response.
func (s *Server) issueTokens(w http.ResponseWriter, r *http.Request, user *users.User, refreshToken, message string) {
	accessToken, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to create access token")
		writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	s.setRefreshCookie(w, r, refreshToken)

	profile := user.Profile()
	writeJSON(w, http.StatusOK, authmodel.TokenResponse{
		Message:     message,
		AccessToken: accessToken,
		User:        &profile,
	})
}

// authenticate checks a password login. Unknown accounts and wrong passwords
// are both ErrInvalidCredentials.
func (s *Server) authenticate(nicknameOrEmail, password string) (*users.User, error) {
	user, err := s.repos.Users.GetByNicknameOrEmail(nicknameOrEmail)
	if err != nil || !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Blocked {
		return nil, apperrors.ErrUserBlocked
	}
	return user, nil
}

// activeUser loads a user that may still hold a session
func (s *Server) activeUser(userID string) (*users.User, error) {
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[server activeUser] %s", userID)
	}
	if user.Blocked {
		return nil, apperrors.ErrUserBlocked
	}
	return user, nil
}

// LoginHandler authenticates a nickname or email and password
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, authmodel.ErrorResponse{Message: authmodel.MessageInvalidInput, Errors: []string{err.Error()}})
			return
		}
		if err := req.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, authmodel.ErrorResponse{Message: authmodel.MessageInvalidInput, Errors: []string{err.Error()}})
			return
		}

		user, err := s.authenticate(req.NicknameOrEmail, req.Password)
		switch {
		case apperrors.Is(err, apperrors.ErrUserBlocked):
			writeMessage(w, http.StatusForbidden, authmodel.MessageUserBlocked)
			return
		case err != nil:
			s.logger.Info().Str("login", req.NicknameOrEmail).Msg("failed login attempt")
			writeMessage(w, http.StatusUnauthorized, authmodel.MessageInvalidLogin)
			return
		}

		refreshToken, err := s.refresh.Create(user.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to create refresh token")
			writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}

		user.LastLogin = time.Now()
		if err := s.repos.Users.Upsert(user); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
		}

		s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
		s.issueTokens(w, r, user, refreshToken, authmodel.MessageLoggedIn)
	}
}

// RefreshHandler swaps the refresh cookie for a new access token. The refresh
// token is rotated on every use.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, next, err := s.refresh.Rotate(refreshCookieValue(r))
		if err != nil {
			s.logger.Debug().Err(err).Msg("refresh rejected")
			s.clearRefreshCookie(w, r)
			writeMessage(w, http.StatusUnauthorized, authmodel.MessageRefreshInvalid)
			return
		}

		user, err := s.activeUser(stored.UserID)
		if err != nil {
			_, _ = s.refresh.DeleteAllForUser(stored.UserID)
			s.clearRefreshCookie(w, r)
			message := authmodel.MessageRefreshInvalid
			if apperrors.Is(err, apperrors.ErrUserBlocked) {
				message = authmodel.MessageUserBlocked
			}
			writeMessage(w, http.StatusUnauthorized, message)
			return
		}

		s.issueTokens(w, r, user, next, authmodel.MessageTokenRefreshed)
	}
}

// LogoutHandler ends this device's session: the presented access token is
// revoked and the device's refresh token deleted.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		if err := s.tokens.RevokeAccessToken(claims); err != nil {
			s.logger.Error().Err(err).Msg("failed to revoke access token")
		}
		if rt := refreshCookieValue(r); rt != "" {
			if err := s.refresh.Delete(rt); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
				s.logger.Error().Err(err).Msg("failed to delete refresh token")
			}
		}
		s.clearRefreshCookie(w, r)
		s.logger.Info().Str("user_id", claims.Subject).Msg("user logged out")
		writeMessage(w, http.StatusOK, authmodel.MessageLoggedOut)
	}
}

// LogoutAllDevicesHandler deletes every refresh token of the user and
// refuses all access tokens issued to them so far.
func (s *Server) LogoutAllDevicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		n, err := s.refresh.DeleteAllForUser(claims.Subject)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", claims.Subject).Msg("failed to delete refresh tokens")
			writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}
		if err := s.tokens.RevokeUser(claims.Subject); err != nil {
			s.logger.Error().Err(err).Str("user_id", claims.Subject).Msg("failed to revoke access tokens")
		}
		s.clearRefreshCookie(w, r)
		s.logger.Info().Str("user_id", claims.Subject).Int("devices", n).Msg("user logged out from all devices")
		writeMessage(w, http.StatusOK, authmodel.MessageLoggedOutAll)
	}
}

// currentUser loads the account behind the request's claims. It writes the
// error response itself and returns nil when there is none to serve.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) *users.User {
	claims, _ := claimsFromContext(r.Context())
	user, err := s.activeUser(claims.Subject)
	switch {
	case apperrors.Is(err, apperrors.ErrUserBlocked):
		writeMessage(w, http.StatusForbidden, authmodel.MessageUserBlocked)
		return nil
	case err != nil:
		writeJSON(w, http.StatusUnauthorized, authmodel.MessageResponse{Message: authmodel.MessageAuthExpired, Code: authmodel.CodeAuthTokenExpired})
		return nil
	}
	return user
}

// MeHandler returns the caller's profile
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(w, r)
		if user == nil {
			return
		}
		writeJSON(w, http.StatusOK, user.Profile())
	}
}

// GetLocationHandler returns the caller's location, 404 when none is set
func (s *Server) GetLocationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(w, r)
		if user == nil {
			return
		}
		if user.Location == nil {
			writeMessage(w, http.StatusNotFound, authmodel.MessageLocationNotFound)
			return
		}
		writeJSON(w, http.StatusOK, user.Location)
	}
}

// PutLocationHandler saves the caller's location
func (s *Server) PutLocationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(w, r)
		if user == nil {
			return
		}

		var loc users.Location
		if err := decodeJSON(r, &loc); err != nil {
			writeJSON(w, http.StatusBadRequest, authmodel.ErrorResponse{Message: authmodel.MessageInvalidInput, Errors: []string{err.Error()}})
			return
		}
		if err := loc.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, authmodel.ErrorResponse{Message: authmodel.MessageInvalidInput, Errors: []string{err.Error()}})
			return
		}

		if err := s.repos.Users.SetLocation(user.ID, &loc); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to save location")
			writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}
		writeJSON(w, http.StatusOK, loc)
	}
}
