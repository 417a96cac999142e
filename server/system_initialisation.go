package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/users"
)

const (
	DefaultDemoNickname     = "demo"
	generatedPasswordLength = 12
)

// InitialiseSystem creates the admin account and, in DEV, a demo user. It is
// safe to call on every start: existing accounts are left alone. The admin's
// password is logged once when it had to be generated.
func (s *Server) InitialiseSystem() error {
	host := "clingclang.local"
	if u, err := url.Parse(s.config.GetBaseURL()); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	adminNickname := s.config.GetSeedAdminNickname()
	password := s.config.GetSeedAdminPassword()
	generated := password == ""
	if generated {
		password = generateRandomString(generatedPasswordLength)
	}
	created, err := s.ensureUser(adminNickname, fmt.Sprintf("%s@%s", adminNickname, host), password, users.RoleAdmin)
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to create admin: %w", err)
	}
	if created && generated {
		s.logger.Warn().Str("nickname", adminNickname).Str("password", password).Msg("generated admin credentials")
	}

	if s.env == "DEV" {
		if _, err := s.ensureUser(DefaultDemoNickname, DefaultDemoNickname+"@"+host, s.config.GetSeedDemoPassword(), users.RoleUser); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to create demo user: %w", err)
		}
	}
	return nil
}

// ensureUser creates the account unless one with that nickname exists
func (s *Server) ensureUser(nickname, email, password string, role users.RoleType) (bool, error) {
	_, err := s.repos.Users.GetByNicknameOrEmail(nickname)
	if err == nil {
		return false, nil
	}
	if !apperrors.Is(err, apperrors.ErrUserNotFound) {
		return false, err
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return false, err
	}
	user := &users.User{
		Nickname:        nickname,
		Email:           email,
		PasswordHash:    hash,
		Role:            role,
		DateJoined:      time.Now(),
		Verified:        true,
		ProfileComplete: true,
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		return false, err
	}
	s.logger.Info().Str("nickname", nickname).Str("role", string(role)).Msg("seeded account")
	return true, nil
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}
