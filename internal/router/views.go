// Package router decides which view a navigation event ends on.
//
// Navigation arrives as a URL fragment plus the current identity. Resolve
// applies the branch rules and returns a Decision; it never touches the
// presentation layer directly. Bindings translate logical views into the
// section ids of the page.
package router

import "strings"

type View string

const (
	Login        View = "login"
	AdminHome    View = "admin"
	EmployeeHome View = "employee"
	Tasks        View = "tasks"
	Questions    View = "questions"
	Schedule     View = "schedule"
	Docs         View = "docs"
	Report       View = "report"
	Profile      View = "profile"
)

// Views lists every view in navigation order.
var Views = []View{Login, AdminHome, EmployeeHome, Tasks, Questions, Schedule, Docs, Report, Profile}

// employeeHomeAlias is the fragment the employee area uses for its own home.
const employeeHomeAlias = "home"

// Fragment is the canonical URL fragment for the view.
func (v View) Fragment() string {
	return "#" + string(v)
}

func (v View) Protected() bool {
	return v != Login
}

// Branch is the area of the UI a view belongs to.
type Branch int

const (
	BranchPublic Branch = iota
	BranchAdmin
	BranchEmployee
)

func (v View) Branch() Branch {
	switch v {
	case Login:
		return BranchPublic
	case AdminHome:
		return BranchAdmin
	default:
		return BranchEmployee
	}
}

// ParseFragment maps "#tasks", "tasks" or "#home" to a view.
func ParseFragment(fragment string) (View, bool) {
	name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(fragment), "#")))
	if name == employeeHomeAlias {
		return EmployeeHome, true
	}
	for _, v := range Views {
		if string(v) == name {
			return v, true
		}
	}
	return "", false
}
