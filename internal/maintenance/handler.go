package maintenance

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"hr-onboarding/internal/observability"
)

// SlotCleaner is a slot backend that can drop expired envelopes.
type SlotCleaner interface {
	CleanupExpired(ctx context.Context, retention time.Duration, batchSize int) (int64, error)
}

type CleanupHandler struct {
	cleaner    SlotCleaner
	logger     *observability.Logger
	cronSecret string
	retention  time.Duration
	batchSize  int
}

func NewCleanupHandler(
	cleaner SlotCleaner,
	logger *observability.Logger,
	cronSecret string,
	retention time.Duration,
	batchSize int,
) *CleanupHandler {
	return &CleanupHandler{
		cleaner:    cleaner,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		retention:  retention,
		batchSize:  batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" || h.cleaner == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	deleted, err := h.cleaner.CleanupExpired(r.Context(), h.retention, h.batchSize)
	if err != nil {
		h.logger.Error("slot_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}

	h.logger.Info("slot_cleanup_completed", map[string]any{"deleted_slots": deleted})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"deleted_slots": deleted,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
