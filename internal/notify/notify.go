// Package notify delivers reminder emails and publishes reminder events.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. It stands
// in for SMTP in development setups.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.WithFields(log.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email not sent, SMTP is not configured")
	return nil
}

// ReminderEvent is published after a reminder email went out.
type ReminderEvent struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	MaintenanceID   string    `json:"maintenance_id"`
	VehicleID       string    `json:"vehicle_id"`
	MaintenanceType string    `json:"maintenance_type"`
	NextDate        string    `json:"next_date"`
	Recipient       string    `json:"recipient"`
	SentAt          time.Time `json:"sent_at"`
}

// NewReminderEvent stamps a fresh event id.
func NewReminderEvent() ReminderEvent {
	return ReminderEvent{ID: uuid.NewString()}
}

// Publisher forwards reminder events to other systems.
type Publisher interface {
	Publish(ctx context.Context, event ReminderEvent) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReminderEvent) error { return nil }
func (NopPublisher) Close()                                       {}
