// Package refresh manages the opaque refresh tokens behind the refreshToken
// cookie.
package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/clingclang/clingclang/internal/config"
	apperrors "github.com/clingclang/clingclang/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.TokenConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.TokenConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token for one device of userID and stores it
func (m *Manager) Create(userID string) (string, error) {
	tokenBytes := make([]byte, m.config.GetRefreshTokenLength()) // Configured length (default: 32 bytes = 256 bits)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Validate returns the stored token when it exists and has not expired. An
// expired token is deleted.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRefreshToken, "%v", err)
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, apperrors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// Rotate swaps a valid token for a new one of the same user. The old token
// stops working immediately.
func (m *Manager) Rotate(token string) (*StoredRefreshToken, string, error) {
	rt, err := m.Validate(token)
	if err != nil {
		return nil, "", err
	}
	if err := m.repo.Delete(token); err != nil {
		// Lost a race with a concurrent rotation of the same token.
		return nil, "", apperrors.Wrapf(apperrors.ErrInvalidRefreshToken, "%v", err)
	}
	next, err := m.Create(rt.UserID)
	if err != nil {
		return nil, "", err
	}
	return rt, next, nil
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// DeleteAllForUser removes every token of userID and reports how many
func (m *Manager) DeleteAllForUser(userID string) (int, error) {
	return m.repo.DeleteByUserID(userID)
}

// CleanupExpired deletes every token that has outlived the configured expiry
// and reports how many were removed.
func (m *Manager) CleanupExpired() (int, error) {
	cutoff := NowTimeFunc().Add(-m.config.GetRefreshTokenExpiry())
	n, err := m.repo.DeleteExpired(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return n, nil
}

// Active is the number of stored refresh tokens
func (m *Manager) Active() int {
	return m.repo.Count()
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
