package auth

import (
	"errors"

	apperrors "github.com/clingclang/clingclang/internal/errors"
)

// Default user-facing messages, used when the server response carries none.
const (
	DefaultLoginError   = "Nie udało się zalogować."
	DefaultLogoutError  = "Nie udało się wylogować."
	DefaultRestoreError = "Nie udało się przywrócić sesji."
)

var (
	ErrNotLoggedIn      = apperrors.ErrNoSession
	ErrMissingUser      = errors.New("login response without user")
	ErrMissingAccessKey = errors.New("login response without accessToken")
)
