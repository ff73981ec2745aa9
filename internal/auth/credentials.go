package auth

import "strings"

const (
	adminEmployeeNumber = "9999"
	adminPassword       = "admin"
	employeePassword    = "employee"
)

// Check maps a credential pair to a role. Two fixed demo rules, no side effects.
func Check(employeeNumber, password string) Outcome {
	if employeeNumber == adminEmployeeNumber && password == adminPassword {
		return Outcome{OK: true, Role: RoleAdmin}
	}
	if employeeNumber != adminEmployeeNumber && password == employeePassword {
		return Outcome{OK: true, Role: RoleEmployee}
	}
	return Outcome{OK: false, Role: RoleNone}
}

// SanitizeText trims and collapses runs of whitespace to a single space.
func SanitizeText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// SanitizeEmployeeNumber keeps ASCII digits only.
func SanitizeEmployeeNumber(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			b.WriteByte(value[i])
		}
	}
	return b.String()
}
