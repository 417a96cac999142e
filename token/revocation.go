package token

import (
	"sync"
	"time"
)

// RevokedTokenCache tracks access tokens that must be refused before they
// expire: single tokens by jti, and every token of a user issued before a
// cutoff.
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	RevokeUserBefore(userID string, cutoff, until time.Time) error
	IsRevoked(jti, userID string, issuedAt time.Time) bool
	Cleanup() // Remove expired entries
}

type userCutoff struct {
	cutoff time.Time
	until  time.Time
}

// InMemoryRevokedTokenCache is a simple in-memory implementation
type InMemoryRevokedTokenCache struct {
	revoked map[string]time.Time
	users   map[string]userCutoff
	now     func() time.Time
	mu      sync.RWMutex
}

func NewInMemoryRevokedTokenCache() *InMemoryRevokedTokenCache {
	return &InMemoryRevokedTokenCache{
		revoked: make(map[string]time.Time),
		users:   make(map[string]userCutoff),
		now:     time.Now,
	}
}

func (c *InMemoryRevokedTokenCache) Add(jti string, exp time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
	return nil
}

// RevokeUserBefore refuses userID's tokens issued at or before cutoff. until
// is when the last of those tokens expires and the entry can be dropped.
func (c *InMemoryRevokedTokenCache) RevokeUserBefore(userID string, cutoff, until time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[userID] = userCutoff{cutoff: cutoff, until: until}
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(jti, userID string, issuedAt time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, exists := c.revoked[jti]; exists {
		return true
	}
	uc, exists := c.users[userID]
	return exists && !issuedAt.After(uc.cutoff)
}

func (c *InMemoryRevokedTokenCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
	for userID, uc := range c.users {
		if now.After(uc.until) {
			delete(c.users, userID)
		}
	}
}
