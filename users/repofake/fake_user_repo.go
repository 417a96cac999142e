package fakeuserrepo

import (
	"strings"
	"sync"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/clingclang/clingclang/users"
	"github.com/google/uuid"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo keeps users in memory. It hands out copies so callers never
// share a record with the repo.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // lower-cased email to user id
	nickIds  map[string]string // nickname to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
		nickIds:  make(map[string]string),
	}
}

func clone(u *users.User) *users.User {
	c := *u
	if u.Location != nil {
		loc := *u.Location
		c.Location = &loc
	}
	return &c
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if old, ok := ur.users[user.ID]; ok {
		delete(ur.emailIds, strings.ToLower(old.Email))
		delete(ur.nickIds, old.Nickname)
	}
	ur.users[user.ID] = clone(user)
	if user.Email != "" {
		ur.emailIds[strings.ToLower(user.Email)] = user.ID
	}
	ur.nickIds[user.Nickname] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return clone(user), nil
}

func (ur *FakeUserRepo) GetByNicknameOrEmail(nicknameOrEmail string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.nickIds[nicknameOrEmail]
	if !ok {
		id, ok = ur.emailIds[strings.ToLower(nicknameOrEmail)]
	}
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return clone(ur.users[id]), nil
}

func (ur *FakeUserRepo) SetBlocked(id string, blocked bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.Blocked = blocked
	return nil
}

func (ur *FakeUserRepo) SetLocation(id string, location *users.Location) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if location != nil {
		loc := *location
		location = &loc
	}
	user.Location = location
	return nil
}

func (ur *FakeUserRepo) Count() (int, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users), nil
}
