package onboarding

import (
	"strings"
	"time"

	"hr-onboarding/internal/auth"
	"hr-onboarding/internal/router"
)

// RequestInfo is what the transport knows about the browser.
type RequestInfo struct {
	Page           string
	AcceptLanguage string
	UserAgent      string
}

// TechInfo is attached to problem reports so support can see where the
// user was. It contains no credentials.
type TechInfo struct {
	Page      string `json:"page"`
	Language  string `json:"language"`
	Role      string `json:"role"`
	EmpNo     string `json:"empNo"`
	UserAgent string `json:"userAgent"`
	Time      string `json:"time"`
}

func (c *Controller) techInfo(info RequestInfo, decision router.Decision) TechInfo {
	identity, _ := c.store.Current()

	role := string(identity.Role)
	if role == "" {
		role = string(auth.RoleEmployee)
	}

	page := info.Page
	if page == "" {
		page = router.Location(decision.View)
	}

	return TechInfo{
		Page:      page,
		Language:  primaryLanguage(info.AcceptLanguage),
		Role:      role,
		EmpNo:     identity.EmployeeNumber,
		UserAgent: info.UserAgent,
		Time:      c.now().UTC().Format(time.RFC3339Nano),
	}
}

// primaryLanguage picks the first tag of an Accept-Language header.
func primaryLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	first = strings.TrimSpace(first)
	if first == "" || first == "*" {
		return "sv"
	}
	return first
}
