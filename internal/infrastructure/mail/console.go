package mail

import (
	"context"
	"log/slog"
)

type consoleMailer struct {
	logger *slog.Logger
}

// NewConsoleMailer writes messages to the log instead of delivering them.
// Meant for local development; a nil logger uses slog.Default().
func NewConsoleMailer(logger *slog.Logger) Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &consoleMailer{logger: logger}
}

func (m *consoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
