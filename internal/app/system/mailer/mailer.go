// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/dalemusser/hackhub/internal/domain/models"
	"go.uber.org/zap"
)

// Email is a single outbound message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender sends one email. The mailer satisfies it; tests swap in a fake.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds SMTP connection details and the site identity that goes
// into every message.
type Config struct {
	Host string
	Port int
	User string // empty means no auth (e.g. Mailpit)
	Pass string
	From string

	SiteName string
	BaseURL  string
}

// Mailer sends email over SMTP.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: logger}
}

// Send delivers one message. HTML body preferred, text fallback.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	contentType := "text/plain"
	body := e.TextBody
	if e.HTMLBody != "" {
		contentType = "text/html"
		body = e.HTMLBody
	}

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.SiteName, m.cfg.From, e.To, e.Subject, contentType, body))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{e.To}, msg); err != nil {
		return fmt.Errorf("send to %s: %w", e.To, err)
	}
	return nil
}

// SendQueue builds the template for the given queue kind and sends it
// to every recipient. Failures are logged and counted, not fatal; one
// bad address must not strand the rest of a flush.
func (m *Mailer) SendQueue(ctx context.Context, kind models.EmailKind, recipients []string) (sent int) {
	data := TemplateData{SiteName: m.cfg.SiteName, BaseURL: m.cfg.BaseURL}
	for _, to := range recipients {
		e, ok := Build(kind, data)
		if !ok {
			m.log.Warn("no template for email kind", zap.String("kind", string(kind)))
			return sent
		}
		e.To = to
		if err := m.Send(ctx, e); err != nil {
			m.log.Error("queue email failed", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
