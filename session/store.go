// Package session is the single source of truth for "are we logged in, and as
// whom". A Store pairs the access credential with the cached user profile and
// keeps that pair in durable storage so a restart does not force a new login.
package session

import (
	"encoding/json"
	"sync"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session is a credential together with the profile it was issued for.
type Session struct {
	Credential string
	Profile    users.Profile
}

// Store holds the current session. The credential and profile are always set
// and cleared together; readers never observe one without the other.
type Store struct {
	persister Persister
	logger    zerolog.Logger

	mu         sync.RWMutex
	credential string
	profile    users.Profile
	present    bool
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithLogger sets the logger used for persistence warnings
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store and loads whatever session the persister holds.
// A persisted state missing either key, or with an unreadable profile, is
// treated as no session and removed.
func NewStore(persister Persister, options ...StoreOption) (*Store, error) {
	if persister == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "[session NewStore] persister is required")
	}
	s := &Store{
		persister: persister,
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	values, err := persister.Load()
	if apperrors.Is(err, apperrors.ErrCorruptSession) {
		if err := s.discard(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[session NewStore] load")
	}

	credential, hasCredential := values[KeyAccessToken]
	rawUser, hasUser := values[KeyUser]
	if !hasCredential && !hasUser {
		return s, nil
	}

	var profile users.Profile
	if credential == "" || !hasUser || json.Unmarshal([]byte(rawUser), &profile) != nil {
		if err := s.discard(); err != nil {
			return nil, err
		}
		return s, nil
	}

	s.credential, s.profile, s.present = credential, profile, true
	return s, nil
}

func (s *Store) discard() error {
	s.logger.Warn().Err(apperrors.ErrCorruptSession).Msg("discarding persisted session")
	if err := s.persister.Delete(); err != nil {
		return apperrors.Wrapf(err, "[session NewStore] delete corrupt session")
	}
	return nil
}

// Set stores credential and profile together and persists them. Memory is only
// updated once the persister accepted the new state.
func (s *Store) Set(credential string, profile users.Profile) error {
	if credential == "" {
		return apperrors.ErrInvalidCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(credential, profile)
}

// Rotate replaces the credential after a successful refresh. The profile is
// replaced only when the refresh returned one. When the store has been
// cleared in the meantime and no profile is supplied nothing is written and
// Rotate reports false.
func (s *Store) Rotate(credential string, profile *users.Profile) (bool, error) {
	if credential == "" {
		return false, apperrors.ErrInvalidCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case profile != nil:
		return true, s.setLocked(credential, *profile)
	case s.present:
		return true, s.setLocked(credential, s.profile)
	default:
		return false, nil
	}
}

func (s *Store) setLocked(credential string, profile users.Profile) error {
	rawUser, err := json.Marshal(profile)
	if err != nil {
		return apperrors.Wrapf(err, "[session Set] marshal profile")
	}
	if err := s.persister.Save(map[string]string{
		KeyAccessToken: credential,
		KeyUser:        string(rawUser),
	}); err != nil {
		return apperrors.Wrapf(err, "[session Set] persist")
	}
	s.credential, s.profile, s.present = credential, profile, true
	return nil
}

// Credential returns the current access credential.
func (s *Store) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.present
}

// Profile returns the cached profile. It never touches the network.
func (s *Store) Profile() (users.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.present
}

// Session returns credential and profile from one consistent read.
func (s *Store) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present {
		return Session{}, false
	}
	return Session{Credential: s.credential, Profile: s.profile}, true
}

// Clear removes the session. It is safe to call any number of times. The
// in-memory session is dropped even when the persister fails; that failure is
// logged and returned.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential, s.profile, s.present = "", users.Profile{}, false
	if err := s.persister.Delete(); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete persisted session")
		return apperrors.Wrapf(err, "[session Clear] delete")
	}
	return nil
}
