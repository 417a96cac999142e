package refreshrepofake

import (
	"sort"
	"sync"
	"time"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens map[string]*refresh.StoredRefreshToken
	byUser map[string]map[string]struct{} // user ID to token set
	lock   sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]*refresh.StoredRefreshToken),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(refreshToken *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[refreshToken.Token] = refreshToken
	if tr.byUser[refreshToken.UserID] == nil {
		tr.byUser[refreshToken.UserID] = make(map[string]struct{})
	}
	tr.byUser[refreshToken.UserID][refreshToken.Token] = struct{}{}
	return nil
}

func (tr *FakeRefreshTokenRepo) Delete(token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(tr.tokens, token)
	delete(tr.byUser[rt.UserID], token)
	if len(tr.byUser[rt.UserID]) == 0 {
		delete(tr.byUser, rt.UserID)
	}
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	rt, ok := tr.tokens[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return rt, nil
}

func (tr *FakeRefreshTokenRepo) ListByUserID(userID string) ([]*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tokens := make([]*refresh.StoredRefreshToken, 0, len(tr.byUser[userID]))
	for token := range tr.byUser[userID] {
		tokens = append(tokens, tr.tokens[token])
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Iat.Before(tokens[j].Iat)
	})
	return tokens, nil
}

func (tr *FakeRefreshTokenRepo) DeleteByUserID(userID string) (int, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	n := len(tr.byUser[userID])
	for token := range tr.byUser[userID] {
		delete(tr.tokens, token)
	}
	delete(tr.byUser, userID)
	return n, nil
}

func (tr *FakeRefreshTokenRepo) DeleteExpired(before time.Time) (int, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	n := 0
	for token, rt := range tr.tokens {
		if !rt.Iat.Before(before) {
			continue
		}
		delete(tr.tokens, token)
		delete(tr.byUser[rt.UserID], token)
		if len(tr.byUser[rt.UserID]) == 0 {
			delete(tr.byUser, rt.UserID)
		}
		n++
	}
	return n, nil
}

func (tr *FakeRefreshTokenRepo) Count() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}
