package router

import "hr-onboarding/internal/auth"

// Decision is the outcome of one navigation event.
type Decision struct {
	Requested  View   `json:"requested"`
	View       View   `json:"view"`
	Fragment   string `json:"fragment"`
	Redirected bool   `json:"redirected"`
	// Location is set when View lives on the other entry point and the
	// browser has to load that page.
	Location string `json:"location,omitempty"`
	Section  string `json:"section"`
	Nav      string `json:"nav"`
	// ResetStatus asks the page to clear transient status text.
	ResetStatus bool `json:"resetStatus"`
}

type Router struct {
	bindings Bindings
}

func New(bindings Bindings) *Router {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &Router{bindings: bindings}
}

func (r *Router) Bindings() Bindings {
	return r.bindings
}

// Resolve evaluates, in order:
//  1. protected view without a valid session -> Login
//  2. session role does not own the requested branch -> the role's home
//  3. employee session asking for Login -> EmployeeHome
//  4. admin session asking for Login -> AdminHome
//  5. otherwise the requested view
//
// role and authenticated must come from an identity that already passed
// the validity check.
func (r *Router) Resolve(entry Entry, fragment string, role auth.Role, authenticated bool) Decision {
	requested, ok := ParseFragment(fragment)
	if !ok {
		requested = entry.Default()
	}
	authenticated = authenticated && role.Valid()

	view := requested
	switch {
	case requested.Protected() && !authenticated:
		view = Login
	case authenticated && requested.Protected() && !owns(role, requested):
		view = Home(role)
	case authenticated && requested == Login:
		view = Home(role)
	}

	binding := r.bindings.Lookup(view)
	decision := Decision{
		Requested:   requested,
		View:        view,
		Fragment:    view.Fragment(),
		Redirected:  !ok || view != requested,
		Section:     binding.Section,
		Nav:         binding.Nav,
		ResetStatus: view == Report || view == Profile,
	}
	if EntryFor(view) != entry {
		decision.Location = Location(view)
	}
	return decision
}

// Home is the landing view for a role.
func Home(role auth.Role) View {
	switch role {
	case auth.RoleAdmin:
		return AdminHome
	case auth.RoleEmployee:
		return EmployeeHome
	default:
		return Login
	}
}

func owns(role auth.Role, v View) bool {
	switch v.Branch() {
	case BranchAdmin:
		return role == auth.RoleAdmin
	case BranchEmployee:
		return role == auth.RoleEmployee
	default:
		return true
	}
}
