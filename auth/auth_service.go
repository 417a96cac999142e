// Package auth is the client-side authentication API: login, logout and
// session restore on top of the request pipeline.
package auth

import (
	"context"
	"net/http"

	"github.com/clingclang/clingclang/apiclient"
	"github.com/clingclang/clingclang/authmodel"
	"github.com/clingclang/clingclang/events"
	"github.com/clingclang/clingclang/session"
	"github.com/clingclang/clingclang/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service performs the authentication calls and keeps the session store and
// the event bus in step with them.
type Service struct {
	client *apiclient.Client
	store  *session.Store
	bus    *events.Bus
	logger zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the service logger
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service. The client, store and bus must be the ones
// the rest of the application shares.
func NewService(client *apiclient.Client, store *session.Store, bus *events.Bus, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[auth NewService] api client is required")
	}
	if store == nil {
		return nil, errors.New("[auth NewService] session store is required")
	}
	if bus == nil {
		return nil, errors.New("[auth NewService] event bus is required")
	}

	s := &Service{
		client: client,
		store:  store,
		bus:    bus,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login authenticates with a nickname or email and a password. On success the
// session is stored and a login event carries the server's message.
func (s *Service) Login(ctx context.Context, nicknameOrEmail, password string) (users.Profile, error) {
	req := authmodel.LoginRequest{NicknameOrEmail: nicknameOrEmail, Password: password}
	if err := req.Validate(); err != nil {
		return users.Profile{}, errors.Wrap(err, "[auth Login]")
	}

	var tr authmodel.TokenResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, authmodel.RouteAuthLogin, req, &tr); err != nil {
		return users.Profile{}, errors.Wrap(err, "[auth Login]")
	}
	if tr.AccessToken == "" {
		return users.Profile{}, errors.Wrap(ErrMissingAccessKey, "[auth Login]")
	}
	if tr.User == nil {
		return users.Profile{}, errors.Wrap(ErrMissingUser, "[auth Login]")
	}

	if err := s.store.Set(tr.AccessToken, *tr.User); err != nil {
		return users.Profile{}, errors.Wrap(err, "[auth Login] storing session")
	}

	message := tr.Message
	if message == "" {
		message = authmodel.MessageLoggedIn
	}
	s.logger.Info().Str("user_id", tr.User.ID).Msg("logged in")
	s.bus.Emit(events.KindLogin, message, events.SeverityInfo)
	return *tr.User, nil
}

// Logout ends this device's session. The local session is always cleared and
// announced, the server error (if any) is returned for display.
func (s *Service) Logout(ctx context.Context) error {
	return s.logout(ctx, authmodel.RouteAuthLogout, authmodel.MessageLoggedOut)
}

// LogoutFromAllDevices revokes every refresh token of the user, then ends the
// local session the same way Logout does.
func (s *Service) LogoutFromAllDevices(ctx context.Context) error {
	return s.logout(ctx, authmodel.RouteAuthLogoutAllDevices, authmodel.MessageLoggedOutAll)
}

func (s *Service) logout(ctx context.Context, route, fallback string) error {
	if _, ok := s.store.Credential(); !ok {
		return ErrNotLoggedIn
	}

	var ack authmodel.MessageResponse
	callErr := s.client.DoJSON(ctx, http.MethodDelete, route, nil, &ack)
	if callErr != nil {
		s.logger.Warn().Err(callErr).Str("route", route).Msg("server logout failed, clearing local session anyway")
	}

	// A failed refresh inside the call has already cleared and announced.
	_, stillPresent := s.store.Credential()
	if err := s.store.Clear(); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete persisted session")
	}
	if stillPresent {
		message := ack.Message
		if message == "" {
			message = fallback
		}
		s.bus.Emit(events.KindLogout, message, events.SeverityInfo)
	}

	if callErr != nil {
		return errors.Wrap(callErr, "[auth logout]")
	}
	return nil
}

// Restore brings back a session at startup. A session already in the store
// is returned as is; otherwise the refresh cookie is exchanged for a new
// access token. The bool reports whether a session is now present. A failed
// restore emits nothing since no one was logged in.
func (s *Service) Restore(ctx context.Context) (users.Profile, bool, error) {
	if sess, ok := s.store.Session(); ok {
		return sess.Profile, true, nil
	}

	tr, err := s.client.FetchToken(ctx)
	if err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
			s.logger.Debug().Err(err).Msg("no session to restore")
			return users.Profile{}, false, nil
		}
		return users.Profile{}, false, errors.Wrap(err, "[auth Restore]")
	}

	profile := tr.User
	if profile == nil {
		resp, err := s.client.SendAs(ctx, &apiclient.Request{Method: http.MethodGet, Path: authmodel.RouteUsersMe}, tr.AccessToken)
		if err != nil {
			return users.Profile{}, false, errors.Wrap(err, "[auth Restore] fetching profile")
		}
		profile = &users.Profile{}
		if err := resp.DecodeJSON(profile); err != nil {
			return users.Profile{}, false, errors.Wrap(err, "[auth Restore] fetching profile")
		}
	}

	if err := s.store.Set(tr.AccessToken, *profile); err != nil {
		return users.Profile{}, false, errors.Wrap(err, "[auth Restore] storing session")
	}
	s.logger.Info().Str("user_id", profile.ID).Msg("session restored")
	return *profile, true, nil
}

// CurrentUser returns the cached profile without calling the server.
func (s *Service) CurrentUser() (users.Profile, bool) {
	return s.store.Profile()
}

// ErrorMessage picks the text to show for a failed auth call.
func ErrorMessage(err error, fallback string) string {
	if errors.Is(err, ErrNotLoggedIn) {
		return "Nie jesteś zalogowany."
	}
	return apiclient.Message(err, fallback)
}
