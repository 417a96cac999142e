package session_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/clingclang/clingclang/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisPersister_SharedSession(t *testing.T) {
	mr := miniredis.RunT(t)

	p, err := session.DialRedisPersister(mr.Addr(), "", 0, "clingclang:session")
	require.NoError(t, err)
	defer p.Close()

	s, err := session.NewStore(p)
	require.NoError(t, err)
	require.NoError(t, s.Set("token-1", testProfile))

	require.Equal(t, "token-1", mr.HGet("clingclang:session", session.KeyAccessToken))

	other, err := session.NewStore(session.NewRedisPersister(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "clingclang:session"))
	require.NoError(t, err)
	profile, ok := other.Profile()
	require.True(t, ok)
	require.Equal(t, testProfile, profile)

	require.NoError(t, s.Clear())
	require.False(t, mr.Exists("clingclang:session"))
	require.NoError(t, s.Clear())
}

func TestDialRedisPersister_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := session.DialRedisPersister(addr, "", 0, "k")
	require.Error(t, err)
}
