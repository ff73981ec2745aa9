package onboarding

import (
	"errors"
	"net/url"
	"time"

	"hr-onboarding/internal/auth"
	"hr-onboarding/internal/router"
	"hr-onboarding/internal/session"
)

type Status string

const (
	StatusOK          Status = "ok"
	StatusInvalid     Status = "invalid"
	StatusRateLimited Status = "rate_limited"
)

// ErrSessionRequired is returned for employee-only actions without a valid
// employee session.
var ErrSessionRequired = errors.New("employee session required")

type LoginInput struct {
	Name           string `json:"name"`
	EmployeeNumber string `json:"empNo"`
	Password       string `json:"password"`
}

// IdentityView is the non-sensitive part of an identity shown on pages.
type IdentityView struct {
	Role           auth.Role `json:"role"`
	DisplayName    string    `json:"displayName"`
	EmployeeNumber string    `json:"employeeNumber"`
	ExpiresAt      int64     `json:"expiresAt"`
}

// LoginState drives the login form: disabled controls and the message box.
type LoginState struct {
	Disabled    bool        `json:"disabled"`
	Message     string      `json:"message"`
	Kind        string      `json:"kind"`
	RemainingMs int64       `json:"remainingMs"`
	Prefill     *LoginInput `json:"prefill,omitempty"`
}

type LoginResult struct {
	Status   Status          `json:"status"`
	Decision router.Decision `json:"decision"`
	Login    LoginState      `json:"login"`
	Identity *IdentityView   `json:"identity,omitempty"`
	// Err carries the taxonomy error behind a non-ok status.
	Err error `json:"-"`
}

type Navigation struct {
	Decision router.Decision `json:"decision"`
	Identity *IdentityView   `json:"identity,omitempty"`
	Login    *LoginState     `json:"login,omitempty"`
	TechInfo *TechInfo       `json:"techInfo,omitempty"`
}

// Controller runs one UI event against a loaded session store.
type Controller struct {
	store  *session.Store
	router *router.Router
	now    func() time.Time
}

func NewController(store *session.Store, r *router.Router, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	if r == nil {
		r = router.New(nil)
	}
	return &Controller{store: store, router: r, now: now}
}

func (c *Controller) Identity() *IdentityView {
	identity, ok := c.store.Current()
	if !ok {
		return nil
	}
	return &IdentityView{
		Role:           identity.Role,
		DisplayName:    identity.DisplayName,
		EmployeeNumber: identity.EmployeeNumber,
		ExpiresAt:      identity.ExpiresAt.UnixMilli(),
	}
}

func (c *Controller) resolve(entry router.Entry, fragment string) router.Decision {
	identity, ok := c.store.Current()
	return c.router.Resolve(entry, fragment, identity.Role, ok)
}

// Navigate handles a hash change or initial load on entry.
func (c *Controller) Navigate(entry router.Entry, fragment string, info RequestInfo) Navigation {
	nav := Navigation{
		Decision: c.resolve(entry, fragment),
		Identity: c.Identity(),
	}

	switch nav.Decision.View {
	case router.Login:
		state := c.loginState()
		nav.Login = &state
	case router.Report:
		techInfo := c.techInfo(info, nav.Decision)
		nav.TechInfo = &techInfo
	}

	return nav
}

// loginState reflects the guard. A cooldown that ran out since the last
// event is cleared and persisted here.
func (c *Controller) loginState() LoginState {
	guard := c.store.Guard()
	if guard.IsCoolingDown() {
		remaining := guard.Remaining()
		return LoginState{
			Disabled:    true,
			Message:     CooldownMessage(remaining),
			Kind:        KindWarn,
			RemainingMs: remaining.Milliseconds(),
		}
	}
	guard.Expire()
	return LoginState{}
}

// Submit runs a login attempt: guard, credential check, then either a saved
// session or a recorded failure.
func (c *Controller) Submit(input LoginInput) LoginResult {
	guard := c.store.Guard()
	if guard.IsCoolingDown() {
		return c.rateLimited(auth.ErrRateLimited{Until: guard.State().CooldownUntil})
	}

	name := auth.SanitizeText(input.Name)
	employeeNumber := auth.SanitizeEmployeeNumber(input.EmployeeNumber)
	password := input.Password

	// all three fields are required; a missing one is not counted as a failure
	if name == "" || employeeNumber == "" || password == "" {
		return c.invalid(auth.ErrInvalidCredentials)
	}

	role, err := guard.Check(employeeNumber, password)
	if err != nil {
		var limited auth.ErrRateLimited
		if errors.As(err, &limited) {
			return c.rateLimited(limited)
		}
		return c.invalid(err)
	}

	c.store.Save(session.Identity{
		Role:           role,
		DisplayName:    name,
		EmployeeNumber: employeeNumber,
	})

	return LoginResult{
		Status:   StatusOK,
		Decision: c.resolve(router.EntryLogin, router.Home(role).Fragment()),
		Identity: c.Identity(),
	}
}

// Bootstrap handles the name, empNo and password query parameters on the
// login entry point. It reports false when there is nothing to do: no
// parameters, or a valid session already exists.
func (c *Controller) Bootstrap(query url.Values) (LoginResult, bool) {
	if _, ok := c.store.Current(); ok {
		return LoginResult{}, false
	}
	if !query.Has("name") && !query.Has("empNo") && !query.Has("password") {
		return LoginResult{}, false
	}

	prefill := LoginInput{
		Name:           auth.SanitizeText(query.Get("name")),
		EmployeeNumber: auth.SanitizeEmployeeNumber(query.Get("empNo")),
		Password:       query.Get("password"),
	}

	var result LoginResult
	if guard := c.store.Guard(); guard.IsCoolingDown() {
		result = c.rateLimited(auth.ErrRateLimited{Until: guard.State().CooldownUntil})
	} else if prefill.Name == "" || prefill.EmployeeNumber == "" || prefill.Password == "" {
		result = c.invalid(auth.ErrInvalidCredentials)
	} else {
		result = c.Submit(prefill)
	}

	if result.Status != StatusOK {
		result.Login.Prefill = &prefill
	}
	return result, true
}

// Logout deletes the envelope and lands on the login view. From the
// employee entry the decision carries the login page Location.
func (c *Controller) Logout(entry router.Entry) router.Decision {
	c.store.Clear()
	return c.router.Resolve(entry, router.Login.Fragment(), auth.RoleNone, false)
}

// Countdown returns the ticker for the login view's cooldown display.
func (c *Controller) Countdown() *router.Countdown {
	return router.NewCountdown(c.store.Guard())
}

func (c *Controller) invalid(err error) LoginResult {
	return LoginResult{
		Status:   StatusInvalid,
		Decision: c.resolve(router.EntryLogin, router.Login.Fragment()),
		Login:    LoginState{Message: msgInvalidCredentials, Kind: KindErr},
		Err:      err,
	}
}

func (c *Controller) rateLimited(err auth.ErrRateLimited) LoginResult {
	remaining := c.store.Guard().Remaining()
	return LoginResult{
		Status:   StatusRateLimited,
		Decision: c.resolve(router.EntryLogin, router.Login.Fragment()),
		Login: LoginState{
			Disabled:    true,
			Message:     CooldownMessage(remaining),
			Kind:        KindWarn,
			RemainingMs: remaining.Milliseconds(),
		},
		Err: err,
	}
}
