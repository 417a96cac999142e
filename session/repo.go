package session

// Keys the session is persisted under. They match the browser client's
// localStorage keys so both read the same layout.
const (
	KeyAccessToken = "accessToken"
	KeyUser        = "user"
)

// Persister is durable storage for the session, keyed by KeyAccessToken and
// KeyUser. Load returns an empty map when nothing has been saved.
// Delete must succeed when nothing is stored.
type Persister interface {
	Load() (map[string]string, error)
	Save(values map[string]string) error
	Delete() error
}
