package mail

import (
	"context"
	"fmt"

	"github.com/socialx-api/internal/config"
)

// Message is a single email with a plain-text body and an HTML alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the backend named by cfg.EmailBackend.
func New(cfg *config.Config) (Mailer, error) {
	switch cfg.EmailBackend {
	case "smtp":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom), nil
	case "resend":
		return NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
	case "console", "":
		return NewConsoleMailer(nil), nil
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.EmailBackend)
	}
}
