package session_test

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/session"
	"github.com/stretchr/testify/require"
)

func TestFilePersister_RoundTripAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first, err := session.NewStore(session.NewFilePersister(path))
	require.NoError(t, err)
	require.NoError(t, first.Set("token-1", testProfile))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := session.NewStore(session.NewFilePersister(path))
	require.NoError(t, err)
	sess, ok := second.Session()
	require.True(t, ok)
	require.Equal(t, "token-1", sess.Credential)
	require.Equal(t, testProfile, sess.Profile)

	require.NoError(t, second.Clear())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, second.Clear())
}

func TestFilePersister_CorruptFileIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := session.NewFilePersister(path).Load()
	require.ErrorIs(t, err, apperrors.ErrCorruptSession)

	s, err := session.NewStore(session.NewFilePersister(path))
	require.NoError(t, err)
	_, ok := s.Session()
	require.False(t, ok)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
