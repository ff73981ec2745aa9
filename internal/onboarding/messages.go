package onboarding

import (
	"fmt"
	"time"

	"hr-onboarding/internal/router"
)

// User facing strings. The UI is Swedish only.
const (
	msgInvalidCredentials = "Felaktiga inloggningsuppgifter."
	msgCooldownFormat     = "För många försök. Vänta %d sekunder och försök igen."

	msgDemoDone           = "Demo: markerad som klar (ingen lagring i v1)."
	msgDemoRead           = "Demo: markerad som läst (ingen lagring i v1)."
	msgDemoSendAnswer     = "Demo: svar skickat (ska senare gå till Chef + Admin)."
	msgDemoChangePassword = "Kräver backend för säker lösenordsändring (placeholder)."
	msgReportEmpty        = "Skriv en kort beskrivning innan du skickar."
	msgReportSent         = "Demo: rapport skickad (inget sparas i v1)."
)

// Message kinds map to CSS classes on the login message box.
const (
	KindNone = ""
	KindWarn = "warn"
	KindErr  = "err"
)

// CooldownMessage is the warning shown while the login form is locked.
func CooldownMessage(remaining time.Duration) string {
	return fmt.Sprintf(msgCooldownFormat, router.CeilSeconds(remaining))
}
