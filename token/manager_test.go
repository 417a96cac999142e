package token_test

import (
	"testing"
	"time"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/token"
	"github.com/clingclang/clingclang/users"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test-secret"

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newManager(t *testing.T, c *clock, options ...token.ManagerOption) *token.Manager {
	t.Helper()
	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)
	options = append([]token.ManagerOption{
		token.WithNowFunc(c.Now),
		token.WithAccessTokenExpiry(15 * time.Minute),
		token.WithIssuer("clingclang-test"),
	}, options...)
	return token.New(signer, options...)
}

func TestNewHMACSigner_RejectsShortSecret(t *testing.T) {
	_, err := token.NewHMACSigner("short")
	require.Error(t, err)
}

func TestCreateAndInspect(t *testing.T) {
	c := &clock{now: time.Now()}
	m := newManager(t, c)
	user := &users.User{ID: "user-1", Nickname: "ania", Role: users.RoleAdmin}

	raw, err := m.CreateAccessToken(user)
	require.NoError(t, err)

	claims, err := m.Inspect(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, users.RoleAdmin, claims.Role)
	require.NotEmpty(t, claims.JTI)
	require.WithinDuration(t, c.now, claims.IssuedAt, time.Millisecond)
	require.WithinDuration(t, c.now.Add(15*time.Minute), claims.ExpiresAt, time.Second)

	other, err := m.CreateAccessToken(user)
	require.NoError(t, err)
	otherClaims, err := m.Inspect(other)
	require.NoError(t, err)
	require.NotEqual(t, claims.JTI, otherClaims.JTI)
}

func TestInspect_Failures(t *testing.T) {
	c := &clock{now: time.Now()}
	m := newManager(t, c)
	raw, err := m.CreateAccessToken(&users.User{ID: "user-1"})
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := m.Inspect("")
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Inspect("not.a.jwt")
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		signer, err := token.NewHMACSigner("another-secret-of-16-bytes")
		require.NoError(t, err)
		other := token.New(signer, token.WithNowFunc(c.Now), token.WithIssuer("clingclang-test"))
		_, err = other.Inspect(raw)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := newManager(t, c, token.WithIssuer("someone-else"))
		_, err := other.Inspect(raw)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := &clock{now: c.now.Add(16 * time.Minute)}
		_, err := newManager(t, later).Inspect(raw)
		require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})
}

func TestRevocation(t *testing.T) {
	c := &clock{now: time.Now()}
	cache := token.NewInMemoryRevokedTokenCache()
	m := newManager(t, c, token.WithRevokedTokenCache(cache))
	user := &users.User{ID: "user-1"}

	first, err := m.CreateAccessToken(user)
	require.NoError(t, err)
	second, err := m.CreateAccessToken(user)
	require.NoError(t, err)

	claims, err := m.Inspect(first)
	require.NoError(t, err)
	require.NoError(t, m.RevokeAccessToken(claims))

	_, err = m.Inspect(first)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	_, err = m.Inspect(second)
	require.NoError(t, err)

	// revoking the user refuses every token issued so far, but not later ones
	c.now = c.now.Add(time.Second)
	require.NoError(t, m.RevokeUser(user.ID))
	_, err = m.Inspect(second)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	c.now = c.now.Add(time.Second)
	third, err := m.CreateAccessToken(user)
	require.NoError(t, err)
	_, err = m.Inspect(third)
	require.NoError(t, err)
}

func TestRevokedTokenCache_Cleanup(t *testing.T) {
	cache := token.NewInMemoryRevokedTokenCache()
	now := time.Now()
	require.NoError(t, cache.Add("expired", now.Add(-time.Minute)))
	require.NoError(t, cache.Add("live", now.Add(time.Minute)))
	require.NoError(t, cache.RevokeUserBefore("gone", now.Add(-time.Hour), now.Add(-time.Minute)))
	require.NoError(t, cache.RevokeUserBefore("kept", now, now.Add(time.Minute)))

	cache.Cleanup()

	require.False(t, cache.IsRevoked("expired", "", now))
	require.True(t, cache.IsRevoked("live", "", now))
	require.False(t, cache.IsRevoked("", "gone", now.Add(-2*time.Hour)))
	require.True(t, cache.IsRevoked("", "kept", now.Add(-time.Second)))
	require.False(t, cache.IsRevoked("", "kept", now.Add(time.Second)))
}
