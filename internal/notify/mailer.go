// Package notify delivers transactional email.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"sync"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/tuitionhub/server/internal/config"
	"github.com/tuitionhub/server/internal/logging"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Mailer sends one message synchronously so callers can report the outcome.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the SendGrid mailer, or nil when no API key is configured so
// that callers report email as not attempted.
func New(cfg config.Mail, log logging.Logger) Mailer {
	if cfg.SendgridAPIKey == "" {
		log.Info("SENDGRID_API_KEY not set, email disabled")
		return nil
	}
	return &SendgridMailer{key: cfg.SendgridAPIKey, host: host, from: sgmail.NewEmail(cfg.FromName, cfg.From)}
}

type SendgridMailer struct {
	key  string
	host string
	from *sgmail.Email
}

var _ Mailer = (*SendgridMailer)(nil)

func (m *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return v3
}

// Send gives up when ctx is done.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	req := sendgrid.GetRequest(m.key, endpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer logs messages instead of sending them and keeps a copy. It is
// for development and tests; New never returns it.
type ConsoleMailer struct {
	from mail.Address
	log  logging.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*ConsoleMailer)(nil)

func NewConsoleMailer(from mail.Address, log logging.Logger) *ConsoleMailer {
	return &ConsoleMailer{from: from, log: log}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.log.Info(fmt.Sprintf("email from %s to %s: %s", m.from.String(), msg.To.String(), msg.Subject), msg.Text)
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
