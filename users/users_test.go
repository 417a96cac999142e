package users_test

import (
	"testing"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/users"
	fakeuserrepo "github.com/clingclang/clingclang/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Sekret123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("Sekret123", hash))
	require.False(t, users.CheckPasswordHash("sekret123", hash))
}

func TestUser_Profile(t *testing.T) {
	u := &users.User{ID: "u1", Nickname: "ania", Email: "ania@example.com", Verified: true}
	p := u.Profile()
	require.Equal(t, users.RoleUser, p.Role)
	require.Equal(t, "ania", p.Nickname)
	require.True(t, p.Verified)
	require.False(t, p.IsAdmin())
}

func TestFakeUserRepo_Lookup(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	u := &users.User{Nickname: "ania", Email: "Ania@Example.com"}
	require.NoError(t, repo.Upsert(u))
	require.NotEmpty(t, u.ID)

	byNick, err := repo.GetByNicknameOrEmail("ania")
	require.NoError(t, err)
	require.Equal(t, u.ID, byNick.ID)

	byEmail, err := repo.GetByNicknameOrEmail("ania@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = repo.GetByNicknameOrEmail("ANIA")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)

	require.NoError(t, repo.SetLocation(u.ID, &users.Location{City: "Kraków"}))
	got, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "Kraków", got.Location.City)

	// returned records are copies
	got.Location.City = "Gdynia"
	again, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "Kraków", again.Location.City)

	n, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestLocation_Validate(t *testing.T) {
	require.NoError(t, users.Location{City: "Poznań", Latitude: 52.4, Longitude: 16.9}.Validate())
	require.Error(t, users.Location{City: " "}.Validate())
	require.Error(t, users.Location{City: "X", Latitude: 91}.Validate())
	require.Error(t, users.Location{City: "X", Longitude: -181}.Validate())
}
