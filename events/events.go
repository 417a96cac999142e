// Package events is the auth event bus. It decouples the code that notices
// something happened to the session (the request pipeline, login and logout)
// from the code that reacts to it (navigation, alerts).
package events

import (
	"fmt"
	"sync"

	"github.com/clingclang/clingclang/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Kind is the type of an auth event
type Kind string

const (
	KindLogin   Kind = "login"
	KindLogout  Kind = "logout"
	KindTimeout Kind = "timeout" // transport failure, not a session transition
)

// Kinds lists every event kind the bus accepts
var Kinds = []Kind{KindLogin, KindLogout, KindTimeout}

// Valid reports whether k is one of Kinds
func (k Kind) Valid() bool {
	switch k {
	case KindLogin, KindLogout, KindTimeout:
		return true
	}
	return false
}

// Severity tells subscribers how prominently to surface an event
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is a transient notification, delivered at emission time only
type Event struct {
	Kind     Kind
	Message  string
	Severity Severity
}

// Handler receives events of the kind it subscribed to
type Handler func(Event)

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus is a typed publish/subscribe channel for auth events. It is safe for
// concurrent use.
type Bus struct {
	logger zerolog.Logger

	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]subscriber
}

// BusOption defines a function type to modify the Bus instance.
type BusOption func(*Bus)

// WithLogger sets the logger used to report failing subscribers
func WithLogger(logger zerolog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

func NewBus(options ...BusOption) *Bus {
	b := &Bus{
		logger: log.Logger,
		subs:   make(map[Kind][]subscriber),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Subscribe registers fn for events of kind. The returned function removes the
// registration and may be called more than once. Unknown kinds and nil
// handlers are ignored.
func (b *Bus) Subscribe(kind Kind, fn Handler) (unsubscribe func()) {
	if !kind.Valid() || fn == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscriber{id: id, handler: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subs[kind]
	for i, s := range current {
		if s.id == id {
			// Copy so a snapshot held by an in-progress Emit stays intact.
			next := make([]subscriber, 0, len(current)-1)
			next = append(next, current[:i]...)
			b.subs[kind] = append(next, current[i+1:]...)
			return
		}
	}
}

// Emit synchronously calls every subscriber of kind registered when Emit
// started, in registration order. A panicking subscriber is logged and the
// rest still run.
func (b *Bus) Emit(kind Kind, message string, severity Severity) {
	if !kind.Valid() {
		b.logger.Warn().Str("kind", string(kind)).Msg("ignoring unknown auth event kind")
		return
	}

	b.mu.Lock()
	snapshot := b.subs[kind]
	b.mu.Unlock()

	metrics.AuthEvents.WithLabelValues(string(kind)).Inc()
	b.logger.Debug().Str("kind", string(kind)).Str("severity", string(severity)).Int("subscribers", len(snapshot)).Msg("auth event")

	event := Event{Kind: kind, Message: message, Severity: severity}
	for _, s := range snapshot {
		if b.unsubscribed(kind, s.id) {
			continue
		}
		b.deliver(s, event)
	}
}

// unsubscribed reports whether id left while the current emission was running.
func (b *Bus) unsubscribed(kind Kind, id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs[kind] {
		if s.id == id {
			return false
		}
	}
	return true
}

func (b *Bus) deliver(s subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Err(fmt.Errorf("%v", r)).
				Str("kind", string(event.Kind)).
				Uint64("subscriber", s.id).
				Msg("auth event subscriber panicked")
		}
	}()
	s.handler(event)
}

// Subscribers returns how many handlers are registered for kind
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}
