package session

import (
	"context"
	"errors"
	"time"

	"hr-onboarding/internal/auth"
)

// TTL is how long a login stays valid.
const TTL = 6 * time.Hour

// Logger is the slice of the structured logger the store needs.
type Logger interface {
	Warn(message string, fields map[string]any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, map[string]any) {}

// Store is the per-request state container: the current identity plus the
// abuse guard, both backed by one Slot.
//
// A Store is scoped to a single event and is not safe for concurrent use.
type Store struct {
	ctx      context.Context
	slot     Slot
	now      func() time.Time
	logger   Logger
	identity Identity
	guard    *auth.Guard
	degraded bool
}

func NewStore(ctx context.Context, slot Slot, now func() time.Time, logger Logger) *Store {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = nopLogger{}
	}
	s := &Store{ctx: ctx, slot: slot, now: now, logger: logger}
	s.guard = auth.NewGuard(auth.AbuseState{}, now, s.persist)
	return s
}

// Load reads the slot. Malformed or version-mismatched content leaves the
// store anonymous with a fresh guard and returns ErrMalformedSession. An
// invalid identity is dropped, but a valid stored abuse state survives.
func (s *Store) Load() error {
	s.identity = Identity{}
	s.guard = auth.NewGuard(auth.AbuseState{}, s.now, s.persist)

	raw, err := s.slot.Get(s.ctx)
	if err != nil {
		s.logger.Warn("session_slot_read_failed", map[string]any{"error": err.Error()})
		return nil
	}
	if raw == nil {
		return nil
	}

	env, err := Decode(raw)
	if err != nil {
		return err
	}

	if env.Abuse.Valid() {
		s.guard = auth.NewGuard(env.Abuse, s.now, s.persist)
	}
	if env.Identity.Valid(s.now()) {
		s.identity = env.Identity
	}

	return nil
}

// Save replaces the identity and stamps a fresh expiry.
func (s *Store) Save(identity Identity) Identity {
	identity.Authenticated = true
	identity.ExpiresAt = s.now().Add(TTL)
	s.identity = identity
	s.persist()
	return identity
}

// Clear forgets identity and abuse state and deletes the slot.
func (s *Store) Clear() {
	s.identity = Identity{}
	s.guard = auth.NewGuard(auth.AbuseState{}, s.now, s.persist)

	if err := s.slot.Remove(s.ctx); err != nil {
		s.logger.Warn("session_slot_remove_failed", map[string]any{"error": err.Error()})
	}
}

// Current returns the identity if it is still valid right now.
func (s *Store) Current() (Identity, bool) {
	if !s.identity.Valid(s.now()) {
		return Identity{}, false
	}
	return s.identity, true
}

func (s *Store) Guard() *auth.Guard {
	return s.guard
}

// Degraded reports whether a slot write failed during this event.
func (s *Store) Degraded() bool {
	return s.degraded
}

// Envelope is the snapshot that persist writes.
func (s *Store) Envelope() Envelope {
	identity := s.identity
	if !identity.Valid(s.now()) {
		identity = Identity{}
	}
	return Envelope{
		Version:  Version,
		SavedAt:  s.now(),
		Identity: identity,
		Abuse:    s.guard.State(),
	}
}

func (s *Store) persist() {
	if s.degraded {
		return
	}

	data, err := Encode(s.Envelope())
	if err == nil {
		err = s.slot.Set(s.ctx, data)
	}
	if err != nil {
		if !errors.Is(err, ErrStorageUnavailable) {
			err = errors.Join(ErrStorageUnavailable, err)
		}
		s.degraded = true
		s.logger.Warn("session_slot_write_failed", map[string]any{"error": err.Error()})
	}
}
