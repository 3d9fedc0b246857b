package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer sends through an SMTP relay. Authentication is skipped when
// username is empty, which suits local catchers such as MailHog.
func NewSMTPMailer(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
