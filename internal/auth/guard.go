package auth

import "time"

const (
	MaxFailures      = 5
	CooldownDuration = 30 * time.Second
)

// Guard counts consecutive failed logins and imposes a timed lockout once
// MaxFailures is reached.
//
// The state lives in the client-held envelope, so anyone who drops the slot
// also drops the lockout. It shapes UI feedback and is not a security control.
type Guard struct {
	state   AbuseState
	now     func() time.Time
	persist func()
}

// NewGuard wraps state. persist is invoked after every mutation; a nil persist
// or now falls back to a no-op and time.Now.
func NewGuard(state AbuseState, now func() time.Time, persist func()) *Guard {
	if now == nil {
		now = time.Now
	}
	if persist == nil {
		persist = func() {}
	}
	if !state.Valid() {
		state = AbuseState{}
	}
	return &Guard{state: state, now: now, persist: persist}
}

func (g *Guard) State() AbuseState {
	return g.state
}

func (g *Guard) IsCoolingDown() bool {
	return g.state.CooldownUntil.After(g.now())
}

func (g *Guard) Remaining() time.Duration {
	remaining := g.state.CooldownUntil.Sub(g.now())
	if g.state.CooldownUntil.IsZero() || remaining < 0 {
		return 0
	}
	return remaining
}

// RecordFailure bumps the counter. On the MaxFailures-th failure the counter
// resets and a cooldown starts; it reports whether that happened.
func (g *Guard) RecordFailure() bool {
	g.state.FailureCount++
	locked := false
	if g.state.FailureCount >= MaxFailures {
		g.state.CooldownUntil = g.now().Add(CooldownDuration)
		g.state.FailureCount = 0
		locked = true
	}
	g.persist()
	return locked
}

func (g *Guard) Reset() {
	g.state = AbuseState{}
	g.persist()
}

// Expire clears a cooldown deadline that has already passed. It reports
// whether anything changed.
func (g *Guard) Expire() bool {
	if g.state.CooldownUntil.IsZero() || g.IsCoolingDown() {
		return false
	}
	g.state.CooldownUntil = time.Time{}
	g.persist()
	return true
}

// Check is the guarded credential check: a cooling-down guard rejects before
// the credentials are looked at, a failure is recorded, a success resets.
func (g *Guard) Check(employeeNumber, password string) (Role, error) {
	if g.IsCoolingDown() {
		return RoleNone, ErrRateLimited{Until: g.state.CooldownUntil}
	}

	outcome := Check(employeeNumber, password)
	if !outcome.OK {
		if g.RecordFailure() {
			return RoleNone, ErrRateLimited{Until: g.state.CooldownUntil}
		}
		return RoleNone, ErrInvalidCredentials
	}

	g.Reset()
	return outcome.Role, nil
}
