package sessionrepofake

import (
	"errors"
	"maps"
	"sync"

	"github.com/clingclang/clingclang/session"
)

var _ session.Persister = (*FakePersister)(nil)

// ErrFakeFailure is returned by every operation once Fail(true) is set.
var ErrFakeFailure = errors.New("fake persister failure")

type FakePersister struct {
	values  map[string]string
	fail    bool
	saves   int
	deletes int
	lock    sync.RWMutex
}

func NewFakePersister() *FakePersister {
	return &FakePersister{values: map[string]string{}}
}

// NewFakePersisterWith starts with pre-persisted values, as after a restart.
func NewFakePersisterWith(values map[string]string) *FakePersister {
	return &FakePersister{values: maps.Clone(values)}
}

func (fp *FakePersister) Load() (map[string]string, error) {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	if fp.fail {
		return nil, ErrFakeFailure
	}
	return maps.Clone(fp.values), nil
}

func (fp *FakePersister) Save(values map[string]string) error {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	if fp.fail {
		return ErrFakeFailure
	}
	fp.values = maps.Clone(values)
	fp.saves++
	return nil
}

func (fp *FakePersister) Delete() error {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	if fp.fail {
		return ErrFakeFailure
	}
	fp.values = map[string]string{}
	fp.deletes++
	return nil
}

// Fail makes every following operation return ErrFakeFailure.
func (fp *FakePersister) Fail(fail bool) {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	fp.fail = fail
}

// Values returns a copy of what is currently persisted.
func (fp *FakePersister) Values() map[string]string {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	return maps.Clone(fp.values)
}

func (fp *FakePersister) Saves() int {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	return fp.saves
}

func (fp *FakePersister) Deletes() int {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	return fp.deletes
}
