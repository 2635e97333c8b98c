// Package reminder emails tenants about maintenance that falls due after
// exactly its notification lead time.
package reminder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
	"github.com/ukydev/fleet-maintenance/internal/triage"
)

const (
	subject    = "Vehicle maintenance reminder"
	dateLayout = "02/01/2006"
)

// CandidateSource lists open records with a next date on or after a day.
type CandidateSource interface {
	FindReminderCandidates(ctx context.Context, from time.Time) ([]models.Maintenance, error)
}

// VehicleSource resolves a vehicle inside a tenant.
type VehicleSource interface {
	FindVehicleByID(ctx context.Context, tenantID, id string) (*models.Vehicle, error)
}

// RecipientSource lists the active users of a tenant.
type RecipientSource interface {
	FindUsersByTenant(ctx context.Context, tenantID string) ([]models.User, error)
}

// Result summarises one run.
type Result struct {
	OK      bool `json:"ok"`
	Total   int  `json:"total"`
	Sent    int  `json:"sent"`
	Skipped int  `json:"skipped"`
	Failed  int  `json:"failed"`
}

// Job is a single pass of the daily reminder check.
type Job struct {
	candidates CandidateSource
	vehicles   VehicleSource
	users      RecipientSource
	mailer     notify.Mailer
	publisher  notify.Publisher
	appName    string
	baseURL    string
	now        func() time.Time
}

// Options configures the outgoing email.
type Options struct {
	AppName string
	BaseURL string
}

// NewJob wires a job. A nil publisher disables event publishing.
func NewJob(candidates CandidateSource, vehicles VehicleSource, users RecipientSource,
	mailer notify.Mailer, publisher notify.Publisher, opts Options) *Job {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &Job{
		candidates: candidates,
		vehicles:   vehicles,
		users:      users,
		mailer:     mailer,
		publisher:  publisher,
		appName:    opts.AppName,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		now:        time.Now,
	}
}

// IsDue reports whether today is exactly the record's notification lead
// time before its next date.
func IsDue(m *models.Maintenance, today time.Time) bool {
	if m.IsCompleted() || m.NextDate == nil {
		return false
	}
	return triage.DaysBetween(today, *m.NextDate) == m.EffectiveNotificationDays()
}

// Run sends a reminder for every record due today. Per-record failures are
// counted and logged; only a failed candidate query aborts the run.
func (j *Job) Run(ctx context.Context, today time.Time) (Result, error) {
	start := time.Now()
	metrics.ReminderRunsTotal.Inc()
	defer func() {
		metrics.ReminderRunDuration.Observe(time.Since(start).Seconds())
	}()

	records, err := j.candidates.FindReminderCandidates(ctx, today)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	var res Result
	recipients := make(map[string]string)
	for i := range records {
		m := &records[i]
		if !IsDue(m, today) {
			continue
		}
		res.Total++

		if err := ctx.Err(); err != nil {
			return res, err
		}

		outcome := j.remind(ctx, m, recipients)
		metrics.RemindersTotal.WithLabelValues(outcome).Inc()
		switch outcome {
		case metrics.ResultSent:
			res.Sent++
		case metrics.ResultSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
	}
	res.OK = true

	log.WithFields(log.Fields{
		"date":    today.Format(time.DateOnly),
		"total":   res.Total,
		"sent":    res.Sent,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	}).Info("Maintenance reminder run finished")
	return res, nil
}

func (j *Job) remind(ctx context.Context, m *models.Maintenance, recipients map[string]string) string {
	entry := log.WithFields(log.Fields{
		"maintenance_id": m.ID.Hex(),
		"tenant_id":      m.TenantID,
	})

	email, ok := recipients[m.TenantID]
	if !ok {
		users, err := j.users.FindUsersByTenant(ctx, m.TenantID)
		if err != nil {
			entry.WithError(err).Error("Failed to look up reminder recipient")
			return metrics.ResultFailed
		}
		email = pickRecipient(m.TenantID, users)
		recipients[m.TenantID] = email
	}
	if email == "" {
		entry.Info("No recipient email, reminder skipped")
		return metrics.ResultSkipped
	}

	vehicle, err := j.vehicles.FindVehicleByID(ctx, m.TenantID, m.VehicleID)
	if errors.Is(err, db.ErrNotFound) {
		entry.WithField("vehicle_id", m.VehicleID).Warn("Vehicle missing, reminder skipped")
		return metrics.ResultSkipped
	}
	if err != nil {
		entry.WithError(err).Error("Failed to look up vehicle")
		return metrics.ResultFailed
	}

	html, err := j.render(m, vehicle)
	if err != nil {
		entry.WithError(err).Error("Failed to render reminder email")
		return metrics.ResultFailed
	}

	if err := j.mailer.Send(ctx, notify.Message{To: email, Subject: subject, HTML: html}); err != nil {
		entry.WithError(err).Error("Failed to send reminder email")
		return metrics.ResultFailed
	}
	entry.WithField("recipient", email).Info("Reminder email sent")

	event := notify.NewReminderEvent()
	event.TenantID = m.TenantID
	event.MaintenanceID = m.ID.Hex()
	event.VehicleID = m.VehicleID
	event.MaintenanceType = string(m.Type)
	event.NextDate = m.NextDate.Format(time.DateOnly)
	event.Recipient = email
	event.SentAt = j.now().UTC()
	if err := j.publisher.Publish(ctx, event); err != nil {
		entry.WithError(err).Warn("Failed to publish reminder event")
	}
	return metrics.ResultSent
}

// pickRecipient prefers the tenant owner, then admins, then managers, then
// anyone with an email address.
func pickRecipient(tenantID string, users []models.User) string {
	best, bestRank := "", 4
	for i := range users {
		u := &users[i]
		if u.Email == "" {
			continue
		}
		rank := 3
		switch {
		case u.ID.Hex() == tenantID:
			rank = 0
		case u.Role == models.RoleAdmin:
			rank = 1
		case u.Role == models.RoleManager:
			rank = 2
		}
		if rank < bestRank {
			best, bestRank = u.Email, rank
		}
	}
	return best
}

var emailTemplate = template.Must(template.New("reminder").Parse(`<div style="font-family: Arial, sans-serif; background:#F4F5F7; padding:25px 0;">
  <div style="max-width:560px; background:#ffffff; margin:0 auto; border-radius:12px; border:1px solid #E2E4E8; padding:24px 26px;">
    <h2 style="text-align:center; color:#111827; margin:0; font-size:22px;">Vehicle maintenance reminder</h2>
    <p style="font-size:14px; color:#1F2933; line-height:1.7;">Hello,</p>
    <p style="font-size:14px; color:#1F2933; line-height:1.7;">Scheduled maintenance for your vehicle is coming up in {{.DaysLeft}} day{{if ne .DaysLeft 1}}s{{end}}.</p>
    <div style="border:1px solid #FF7777; border-radius:9px; padding:14px 16px; margin:18px 0 16px;">
      <p style="font-size:14px; margin:0 0 6px;"><strong>Vehicle:</strong> {{.Vehicle}}</p>
      <p style="font-size:14px; margin:0 0 6px;"><strong>Maintenance:</strong> {{.Type}}</p>
      <p style="font-size:14px; margin:0;"><strong>Due date:</strong> {{.DueDate}}</p>
    </div>
    <p style="font-size:13px; color:#4B5563;">If the maintenance has already been carried out, please ignore this message.</p>
    {{if .Link}}<p style="text-align:center;"><a href="{{.Link}}" style="display:inline-block; background:#FF7777; color:#FFFFFF; padding:10px 26px; border-radius:999px; text-decoration:none;">View your maintenance</a></p>{{end}}
    <p style="text-align:center; margin-top:26px; color:#9CA3AF; font-size:12px;">{{.AppName}}</p>
  </div>
</div>
`))

type emailData struct {
	Vehicle  string
	Type     string
	DueDate  string
	DaysLeft int
	Link     string
	AppName  string
}

func (j *Job) render(m *models.Maintenance, v *models.Vehicle) (string, error) {
	data := emailData{
		Vehicle:  v.Label(),
		Type:     m.TypeLabel(),
		DueDate:  m.NextDate.Format(dateLayout),
		DaysLeft: m.EffectiveNotificationDays(),
		AppName:  j.appName,
	}
	if j.baseURL != "" {
		data.Link = j.baseURL + "/maintenance"
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
