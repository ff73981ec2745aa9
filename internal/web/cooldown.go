package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"hr-onboarding/internal/onboarding"
	"hr-onboarding/internal/router"
)

type cooldownEvent struct {
	Seconds     int    `json:"seconds"`
	RemainingMs int64  `json:"remainingMs"`
	Message     string `json:"message,omitempty"`
}

// Cooldown streams the login countdown as server-sent events. The stream
// ends with a "done" event when the cooldown is over, or when the browser
// leaves the login view and drops the connection.
func (h *Handler) Cooldown(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	controller := h.open(w, r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")

	err := controller.Countdown().Run(r.Context(), func(tick router.Tick) {
		name := "tick"
		event := cooldownEvent{Seconds: tick.Seconds, RemainingMs: tick.Remaining.Milliseconds()}
		if tick.Done {
			name = "done"
		} else {
			event.Message = onboarding.CooldownMessage(tick.Remaining)
		}

		payload, _ := json.Marshal(event)
		_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
		flusher.Flush()
	})
	if err != nil {
		h.logger.Info("cooldown_stream_closed", map[string]any{"reason": err.Error()})
	}
}
