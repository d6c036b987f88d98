// Package mailer sends the application's notification emails through an SMTP
// relay. Delivery is best-effort everywhere: a failed send is logged and
// never rolls back the state change that triggered it.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Config holds the SMTP relay settings. An empty Host disables sending;
// every Send becomes a logged no-op so the rest of the app never has to care
// whether mail is configured.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Mailer sends HTML emails over SMTP.
type Mailer struct {
	cfg    Config
	logger *zap.Logger
	// send is swappable in tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Enabled reports whether an SMTP relay is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// Send delivers one message. The content type is inferred from the body: a
// body containing markup is sent as HTML, anything else as plain text.
func (m *Mailer) Send(_ context.Context, recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}
	if !m.Enabled() {
		m.logger.Debug("SMTP not configured; dropping email",
			zap.String("to", recipient),
			zap.String("subject", subject))
		return nil
	}

	contentType := "text/plain; charset=\"UTF-8\""
	if strings.Contains(body, "<html") || strings.Contains(body, "<p>") || strings.Contains(body, "<div") {
		contentType = "text/html; charset=\"UTF-8\""
	}

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + recipient + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: " + contentType + "\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	return nil
}
