package handlers

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/reminder"
	"github.com/ukydev/fleet-maintenance/internal/respond"
	"github.com/ukydev/fleet-maintenance/internal/triage"
)

// ReminderRunner runs one pass of the reminder job.
type ReminderRunner interface {
	Run(ctx context.Context, today time.Time) (reminder.Result, error)
}

// CronHandler exposes the reminder job to an external scheduler.
type CronHandler struct {
	job ReminderRunner
	now func() time.Time
}

// NewCronHandler creates a cron handler.
func NewCronHandler(job ReminderRunner) *CronHandler {
	return &CronHandler{job: job, now: time.Now}
}

// Maintenance runs the reminder job for today, or for ?date=YYYY-MM-DD.
func (h *CronHandler) Maintenance(w http.ResponseWriter, r *http.Request) {
	today := triage.Today(h.now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := parseDate("date", &raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "date must be a date in YYYY-MM-DD format")
			return
		}
		today = *day
	}

	log.WithField("date", today.Format(dateLayout)).Info("Daily maintenance check running")
	result, err := h.job.Run(r.Context(), today)
	if err != nil {
		log.WithError(err).Error("Maintenance reminder run failed")
		respond.JSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
