package session_test

import (
	"encoding/json"
	"sync"
	"testing"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/session"
	sessionrepofake "github.com/clingclang/clingclang/session/repofake"
	"github.com/clingclang/clingclang/users"
	"github.com/stretchr/testify/require"
)

var testProfile = users.Profile{ID: "user-1", Nickname: "ania", Role: users.RoleUser, Verified: true}

func newStore(t *testing.T) (*session.Store, *sessionrepofake.FakePersister) {
	t.Helper()
	p := sessionrepofake.NewFakePersister()
	s, err := session.NewStore(p)
	require.NoError(t, err)
	return s, p
}

func TestStore_SetAndRead(t *testing.T) {
	s, p := newStore(t)

	_, ok := s.Credential()
	require.False(t, ok)

	require.NoError(t, s.Set("token-1", testProfile))

	cred, ok := s.Credential()
	require.True(t, ok)
	require.Equal(t, "token-1", cred)

	profile, ok := s.Profile()
	require.True(t, ok)
	require.Equal(t, testProfile, profile)

	values := p.Values()
	require.Equal(t, "token-1", values[session.KeyAccessToken])
	var persisted users.Profile
	require.NoError(t, json.Unmarshal([]byte(values[session.KeyUser]), &persisted))
	require.Equal(t, testProfile, persisted)
}

func TestStore_SetRejectsEmptyCredential(t *testing.T) {
	s, _ := newStore(t)
	require.ErrorIs(t, s.Set("", testProfile), apperrors.ErrInvalidCredential)
	_, ok := s.Session()
	require.False(t, ok)
}

func TestStore_SetPersistFailureLeavesStateUnchanged(t *testing.T) {
	s, p := newStore(t)
	require.NoError(t, s.Set("token-1", testProfile))

	p.Fail(true)
	require.Error(t, s.Set("token-2", users.Profile{ID: "user-2"}))

	sess, ok := s.Session()
	require.True(t, ok)
	require.Equal(t, "token-1", sess.Credential)
	require.Equal(t, "user-1", sess.Profile.ID)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	s, p := newStore(t)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Set("token-1", testProfile))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())

	_, ok := s.Session()
	require.False(t, ok)
	_, ok = s.Profile()
	require.False(t, ok)
	require.Empty(t, p.Values())
}

func TestStore_ClearDropsMemoryEvenWhenPersisterFails(t *testing.T) {
	s, p := newStore(t)
	require.NoError(t, s.Set("token-1", testProfile))

	p.Fail(true)
	require.Error(t, s.Clear())
	_, ok := s.Credential()
	require.False(t, ok)
}

func TestStore_Rotate(t *testing.T) {
	s, _ := newStore(t)

	t.Run("no session and no profile is a no-op", func(t *testing.T) {
		rotated, err := s.Rotate("token-x", nil)
		require.NoError(t, err)
		require.False(t, rotated)
		_, ok := s.Credential()
		require.False(t, ok)
	})

	t.Run("keeps cached profile", func(t *testing.T) {
		require.NoError(t, s.Set("token-1", testProfile))
		rotated, err := s.Rotate("token-2", nil)
		require.NoError(t, err)
		require.True(t, rotated)

		sess, ok := s.Session()
		require.True(t, ok)
		require.Equal(t, "token-2", sess.Credential)
		require.Equal(t, testProfile, sess.Profile)
	})

	t.Run("replaces profile when supplied", func(t *testing.T) {
		updated := testProfile
		updated.ProfileComplete = true
		rotated, err := s.Rotate("token-3", &updated)
		require.NoError(t, err)
		require.True(t, rotated)

		profile, _ := s.Profile()
		require.True(t, profile.ProfileComplete)
	})

	t.Run("empty credential rejected", func(t *testing.T) {
		_, err := s.Rotate("", nil)
		require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
	})
}

func TestNewStore_RestoresPersistedSession(t *testing.T) {
	raw, err := json.Marshal(testProfile)
	require.NoError(t, err)
	p := sessionrepofake.NewFakePersisterWith(map[string]string{
		session.KeyAccessToken: "persisted",
		session.KeyUser:        string(raw),
	})

	s, err := session.NewStore(p)
	require.NoError(t, err)

	sess, ok := s.Session()
	require.True(t, ok)
	require.Equal(t, "persisted", sess.Credential)
	require.Equal(t, testProfile, sess.Profile)
}

func TestNewStore_DiscardsHalfSession(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{name: "token only", values: map[string]string{session.KeyAccessToken: "t"}},
		{name: "user only", values: map[string]string{session.KeyUser: `{"id":"u"}`}},
		{name: "bad user json", values: map[string]string{session.KeyAccessToken: "t", session.KeyUser: "{"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sessionrepofake.NewFakePersisterWith(tt.values)
			s, err := session.NewStore(p)
			require.NoError(t, err)
			_, ok := s.Session()
			require.False(t, ok)
			require.Empty(t, p.Values())
			require.Equal(t, 1, p.Deletes())
		})
	}
}

func TestNewStore_LoadFailure(t *testing.T) {
	p := sessionrepofake.NewFakePersister()
	p.Fail(true)
	_, err := session.NewStore(p)
	require.ErrorIs(t, err, sessionrepofake.ErrFakeFailure)

	_, err = session.NewStore(nil)
	require.Error(t, err)
}

func TestStore_ConcurrentReadersSeeWholeSessions(t *testing.T) {
	s, _ := newStore(t)
	profiles := map[string]string{"token-a": "user-a", "token-b": "user-b"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = s.Set("token-a", users.Profile{ID: "user-a"})
			} else {
				_ = s.Set("token-b", users.Profile{ID: "user-b"})
			}
		}(i)
		go func() {
			defer wg.Done()
			if sess, ok := s.Session(); ok {
				require.Equal(t, profiles[sess.Credential], sess.Profile.ID)
			}
		}()
	}
	wg.Wait()
}
