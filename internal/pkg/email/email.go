package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// Mailer delivers a rendered HTML message to a single recipient.
type Mailer interface {
	SendHTML(ctx context.Context, to, subject, htmlBody string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through a plain-auth SMTP relay, retrying with exponential backoff.
type SMTPMailer struct {
	cfg     config.SMTPConfig
	send    sendFunc
	backoff time.Duration
}

// NewSMTPMailer creates a mailer. An empty host turns every send into a logged no-op.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		send:    smtp.SendMail,
		backoff: time.Second,
	}
}

// SendHTML sends an HTML email
func (m *SMTPMailer) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if m.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := m.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", m.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := m.send(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// 1x, 2x, 4x the base backoff
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return fmt.Errorf("email send cancelled after %d attempts: %w", attempt, lastErr)
			case <-time.After(m.backoff * time.Duration(1<<(attempt-1))):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

// Renderer renders the embedded email templates.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// AutoCheckoutData fills the auto-checkout notice. Times are preformatted in
// the recipient's display zone.
type AutoCheckoutData struct {
	Username        string
	EntryID         string
	ClockIn         string
	ClockOut        string
	Threshold       string
	BreakMinutes    int
	DurationMinutes int
}

// AutoCheckout renders the notice sent when an open entry is force-closed.
func (r *Renderer) AutoCheckout(data AutoCheckoutData) (subject string, body string, err error) {
	subject = "Your timesheet entry was closed automatically"

	var buf bytes.Buffer
	err = r.templates.ExecuteTemplate(&buf, "auto_checkout.html", struct {
		AutoCheckoutData
		Subject string
	}{data, subject})
	if err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}
	return subject, buf.String(), nil
}
