package onboarding

import (
	"errors"

	"hr-onboarding/internal/auth"
	"hr-onboarding/internal/router"
)

type Action string

const (
	ActionDone           Action = "done"
	ActionRead           Action = "read"
	ActionSendAnswer     Action = "send-answer"
	ActionChangePassword Action = "change-password"
	ActionSubmitReport   Action = "submit-report"
	ActionGotoDocs       Action = "goto-docs"
)

var ErrUnknownAction = errors.New("unknown demo action")

// Presentation targets for an acknowledgment.
const (
	TargetAlert        = "alert"
	TargetPasswordNote = "pwStatus"
	TargetReportStatus = "reportStatus"
)

// Ack is the visible answer to a dashboard button. Nothing is stored; the
// message says so.
type Ack struct {
	Action      Action `json:"action"`
	Implemented bool   `json:"implemented"`
	Message     string `json:"message,omitempty"`
	Target      string `json:"target,omitempty"`
	// Navigate is a fragment to move to instead of showing a message.
	Navigate   string    `json:"navigate,omitempty"`
	ClearInput bool      `json:"clearInput,omitempty"`
	TechInfo   *TechInfo `json:"techInfo,omitempty"`
}

type DemoInput struct {
	Text string `json:"text"`
}

// Demo answers a dashboard button in the employee area.
func (c *Controller) Demo(action Action, input DemoInput, info RequestInfo) (Ack, error) {
	identity, ok := c.store.Current()
	if !ok || identity.Role != auth.RoleEmployee {
		return Ack{}, ErrSessionRequired
	}

	ack := Ack{Action: action}
	switch action {
	case ActionGotoDocs:
		ack.Implemented = true
		ack.Navigate = router.Docs.Fragment()
	case ActionDone:
		ack.Message, ack.Target = msgDemoDone, TargetAlert
	case ActionRead:
		ack.Message, ack.Target = msgDemoRead, TargetAlert
	case ActionSendAnswer:
		ack.Message, ack.Target = msgDemoSendAnswer, TargetAlert
	case ActionChangePassword:
		ack.Message, ack.Target = msgDemoChangePassword, TargetPasswordNote
	case ActionSubmitReport:
		ack.Target = TargetReportStatus
		if auth.SanitizeText(input.Text) == "" {
			ack.Message = msgReportEmpty
			return ack, nil
		}
		ack.Message = msgReportSent
		ack.ClearInput = true
		decision := c.resolve(router.EntryEmployee, router.Report.Fragment())
		techInfo := c.techInfo(info, decision)
		ack.TechInfo = &techInfo
	default:
		return Ack{}, ErrUnknownAction
	}

	return ack, nil
}
