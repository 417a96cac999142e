// Package token issues and inspects the reference server's JWT access tokens.
package token

import (
	"math"
	"time"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AccessClaims is the verified content of an access token
type AccessClaims struct {
	JTI       string
	Subject   string
	Role      users.RoleType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Manager struct {
	signer            Signer            // Token signing and verification
	issuer            string            // iss claim, checked on inspection
	revokedCache      RevokedTokenCache // Cache for revoked tokens
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		issuer:       "clingclang",
		revokedCache: NewInMemoryRevokedTokenCache(), // Default implementation
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// AccessTokenExpiry is the lifetime of newly issued access tokens
func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

// CreateAccessToken signs a new access token for user
func (m *Manager) CreateAccessToken(user *users.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("[token CreateAccessToken] user is required")
	}
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":  m.issuer,                            // The issuer of the token
		"sub":  user.ID,                             // The user the token acts for
		"role": string(user.Profile().Role),         // Role, checked by RequireAdmin
		"iat":  float64(now.UnixMilli()) / 1000,     // Issued At, millisecond precision for user cutoffs
		"exp":  now.Add(m.accessTokenExpiry).Unix(), // Expiry: when the token will expire
		"jti":  uuid.New().String(),                 // Unique token ID for revocation
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[token CreateAccessToken]")
	}
	return signed, nil
}

// Inspect verifies rawToken and returns its claims. Failures are
// ErrInvalidToken, ErrTokenExpired or ErrTokenRevoked.
func (m *Manager) Inspect(rawToken string) (*AccessClaims, error) {
	if rawToken == "" {
		return nil, apperrors.ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(rawToken, jwt.MapClaims{}, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	if jti == "" || sub == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "token missing jti or sub")
	}

	ac := &AccessClaims{
		JTI:       jti,
		Subject:   sub,
		Role:      users.RoleType(role),
		IssuedAt:  time.UnixMilli(int64(math.Round(iat * 1000))),
		ExpiresAt: time.Unix(int64(exp), 0),
	}
	if m.revokedCache.IsRevoked(ac.JTI, ac.Subject, ac.IssuedAt) {
		return nil, apperrors.ErrTokenRevoked
	}
	return ac, nil
}

// RevokeAccessToken refuses the token with these claims until it expires
func (m *Manager) RevokeAccessToken(claims *AccessClaims) error {
	return m.revokedCache.Add(claims.JTI, claims.ExpiresAt)
}

// RevokeUser refuses every access token issued to userID so far
func (m *Manager) RevokeUser(userID string) error {
	now := m.nowFunc()
	return m.revokedCache.RevokeUserBefore(userID, now, now.Add(m.accessTokenExpiry))
}

// CleanupRevokedTokens drops revocations of tokens that have expired anyway
func (m *Manager) CleanupRevokedTokens() {
	m.revokedCache.Cleanup()
}
