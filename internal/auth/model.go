package auth

import "time"

type Role string

const (
	RoleNone     Role = ""
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Outcome is the result of a credential check. Role is RoleNone when OK is false.
type Outcome struct {
	OK   bool
	Role Role
}

// AbuseState is the consecutive failure counter and the lockout deadline.
// A zero CooldownUntil means no cooldown is active.
type AbuseState struct {
	FailureCount  int
	CooldownUntil time.Time
}

func (s AbuseState) Valid() bool {
	return s.FailureCount >= 0 && (s.CooldownUntil.IsZero() || s.CooldownUntil.UnixMilli() >= 0)
}
