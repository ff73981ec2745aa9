package router

// Binding is how one view is presented: the section that becomes visible and
// the navigation key marked aria-current.
type Binding struct {
	Section string `json:"section"`
	Nav     string `json:"nav"`
}

// Bindings maps logical views to presentation elements.
type Bindings map[View]Binding

// DefaultBindings matches the markup shipped in web/static.
func DefaultBindings() Bindings {
	return Bindings{
		Login:        {Section: "view-login", Nav: "login"},
		AdminHome:    {Section: "view-admin", Nav: "admin"},
		EmployeeHome: {Section: "route-home", Nav: "home"},
		Tasks:        {Section: "route-tasks", Nav: "tasks"},
		Questions:    {Section: "route-questions", Nav: "questions"},
		Schedule:     {Section: "route-schedule", Nav: "schedule"},
		Docs:         {Section: "route-docs", Nav: "docs"},
		Report:       {Section: "route-report", Nav: "report"},
		// profile has no nav entry of its own; home stays highlighted
		Profile: {Section: "route-profile", Nav: "home"},
	}
}

// Lookup falls back to the view name when no binding is registered.
func (b Bindings) Lookup(v View) Binding {
	if binding, ok := b[v]; ok {
		return binding
	}
	return Binding{Section: "view-" + string(v), Nav: string(v)}
}

// Sections lists the sections served from entry, for hiding everything
// before showing the chosen one.
func (b Bindings) Sections(entry Entry) []string {
	sections := make([]string, 0, len(Views))
	for _, v := range Views {
		if EntryFor(v) == entry {
			sections = append(sections, b.Lookup(v).Section)
		}
	}
	return sections
}
