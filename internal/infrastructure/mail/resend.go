package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

const resendAttempts = 3

type resendMailer struct {
	from   string
	client *resend.Client
}

func NewResendMailer(apiKey, from string) (Mailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &resendMailer{from: from, client: resend.NewClient(apiKey)}, nil
}

// Send retries rate-limited and transient failures with a short backoff.
func (m *resendMailer) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}

	var lastErr error
	for attempt := 0; attempt < resendAttempts; attempt++ {
		_, err := m.client.Emails.SendWithOptions(ctx, params, &resend.SendEmailOptions{})
		if err == nil {
			return nil
		}
		lastErr = err

		wait, ok := retryDelay(err, attempt)
		if !ok {
			return fmt.Errorf("resend send: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func retryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}
	return 0, false
}
