package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"hr-onboarding/internal/auth"
)

// Version is the only envelope version this build reads or writes.
const Version = 1

// Identity is replaced wholesale on every login, never patched.
type Identity struct {
	Authenticated  bool
	Role           auth.Role
	DisplayName    string
	EmployeeNumber string
	// PinRequired is reserved for a second login step; it is always false today.
	PinRequired bool
	ExpiresAt   time.Time
}

// Valid reports whether the identity may be trusted at now.
func (i Identity) Valid(now time.Time) bool {
	return i.Authenticated && i.ExpiresAt.After(now) && i.Role.Valid()
}

type Envelope struct {
	Version  int
	SavedAt  time.Time
	Identity Identity
	Abuse    auth.AbuseState
}

type wireEnvelope struct {
	Version  int           `json:"version"`
	SavedAt  int64         `json:"savedAt"`
	Identity *wireIdentity `json:"identity"`
	Abuse    *wireAbuse    `json:"abuse"`
}

type wireIdentity struct {
	Authenticated  bool    `json:"authenticated"`
	Role           *string `json:"role"`
	DisplayName    *string `json:"displayName"`
	EmployeeNumber *string `json:"employeeNumber"`
	PinRequired    bool    `json:"pinRequired"`
	ExpiresAt      int64   `json:"expiresAt"`
}

type wireAbuse struct {
	FailureCount  int   `json:"failureCount"`
	CooldownUntil int64 `json:"cooldownUntil"`
}

func Encode(env Envelope) ([]byte, error) {
	wire := wireEnvelope{
		Version:  env.Version,
		SavedAt:  toMillis(env.SavedAt),
		Identity: &wireIdentity{Authenticated: env.Identity.Authenticated, PinRequired: env.Identity.PinRequired},
		Abuse: &wireAbuse{
			FailureCount:  env.Abuse.FailureCount,
			CooldownUntil: toMillis(env.Abuse.CooldownUntil),
		},
	}

	if env.Identity.Authenticated {
		role := string(env.Identity.Role)
		wire.Identity.Role = &role
		wire.Identity.DisplayName = &env.Identity.DisplayName
		wire.Identity.EmployeeNumber = &env.Identity.EmployeeNumber
		wire.Identity.ExpiresAt = toMillis(env.Identity.ExpiresAt)
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses raw slot content. Anything that is not a well-formed
// envelope of the current Version yields ErrMalformedSession.
func Decode(raw []byte) (Envelope, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Envelope{}, ErrMalformedSession
	}

	var wire *wireEnvelope
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if wire == nil {
		return Envelope{}, ErrMalformedSession
	}
	if wire.Version != Version {
		return Envelope{}, fmt.Errorf("%w: version %d", ErrMalformedSession, wire.Version)
	}

	env := Envelope{
		Version: wire.Version,
		SavedAt: fromMillis(wire.SavedAt),
	}

	if wire.Identity != nil {
		env.Identity = Identity{
			Authenticated:  wire.Identity.Authenticated,
			Role:           auth.Role(deref(wire.Identity.Role)),
			DisplayName:    deref(wire.Identity.DisplayName),
			EmployeeNumber: deref(wire.Identity.EmployeeNumber),
			PinRequired:    wire.Identity.PinRequired,
			ExpiresAt:      fromMillis(wire.Identity.ExpiresAt),
		}
	}

	if wire.Abuse != nil {
		env.Abuse = auth.AbuseState{
			FailureCount:  wire.Abuse.FailureCount,
			CooldownUntil: fromMillis(wire.Abuse.CooldownUntil),
		}
		if wire.Abuse.CooldownUntil < 0 {
			// keep the bad value visible so the caller's validity check drops it
			env.Abuse.CooldownUntil = time.UnixMilli(wire.Abuse.CooldownUntil)
		}
	}

	return env, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
