package notify

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/ukydev/fleet-maintenance/internal/config"
)

// SMTPMailer sends mail through an SMTP relay, upgrading to STARTTLS when
// the server offers it.
type SMTPMailer struct {
	host     string
	opts     []mail.Option
	fromName string
	from     string
	replyTo  string
	now      func() time.Time
}

// NewSMTPMailer creates a mailer from cfg. Credentials are optional.
func NewSMTPMailer(cfg *config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if _, err := netmail.ParseAddress(cfg.FromEmail); err != nil {
		return nil, fmt.Errorf("invalid smtp from address: %w", err)
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(15 * time.Second),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	return &SMTPMailer{
		host:     cfg.Host,
		opts:     opts,
		fromName: cfg.FromName,
		from:     cfg.FromEmail,
		replyTo:  cfg.ReplyTo,
		now:      time.Now,
	}, nil
}

// Send delivers msg. The context bounds dialing and the whole exchange.
// Each call opens its own session, so Send is safe for concurrent use.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := m.compose(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.host, m.opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	defer client.Close()

	if err := client.Send(out); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := out.FromFormat(m.fromName, m.from); err != nil {
		return nil, fmt.Errorf("invalid smtp from address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if m.replyTo != "" {
		if err := out.ReplyTo(m.replyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	out.Subject(msg.Subject)
	out.SetDateWithValue(m.now())
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return out, nil
}

