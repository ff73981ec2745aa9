package router

// Entry is one of the two pages the views are served from.
type Entry string

const (
	// EntryLogin hosts the login form and the admin home.
	EntryLogin Entry = "login"
	// EntryEmployee is the employee area with its sub views.
	EntryEmployee Entry = "employee"
)

// Path is where the entry point is mounted.
func (e Entry) Path() string {
	if e == EntryEmployee {
		return "/employee/"
	}
	return "/"
}

// Default is the view an unknown or empty fragment lands on.
func (e Entry) Default() View {
	if e == EntryEmployee {
		return EmployeeHome
	}
	return Login
}

// EntryFor returns the entry point that serves v.
func EntryFor(v View) Entry {
	if v.Branch() == BranchEmployee {
		return EntryEmployee
	}
	return EntryLogin
}

// Location is the URL that shows v, relative to the site root.
func Location(v View) string {
	return EntryFor(v).Path() + v.Fragment()
}
