package refresh

import (
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string), in an HttpOnly
// cookie. All other fields are server-side metadata.
type StoredRefreshToken struct {
	Token  string    // The actual random token string (sent to client)
	UserID string    // Owner of the token
	Iat    time.Time // Issued at time, the start of the expiry window
}

// Repo manages server-side storage of refresh token metadata.
// A user holds one token per logged-in device.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	ListByUserID(userID string) ([]*StoredRefreshToken, error)
	DeleteByUserID(userID string) (int, error)
	DeleteExpired(before time.Time) (int, error) // tokens issued before the cutoff
	Count() int
}
