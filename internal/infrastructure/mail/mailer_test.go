package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/socialx-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	m, err := New(&config.Config{EmailBackend: "console"})
	require.NoError(t, err)
	assert.IsType(t, &consoleMailer{}, m)

	m, err = New(&config.Config{EmailBackend: "smtp", SMTPHost: "localhost", SMTPPort: 1025, EmailFrom: "a@b.c"})
	require.NoError(t, err)
	assert.IsType(t, &smtpMailer{}, m)

	m, err = New(&config.Config{EmailBackend: "resend", ResendAPIKey: "re_test", EmailFrom: "a@b.c"})
	require.NoError(t, err)
	assert.IsType(t, &resendMailer{}, m)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&config.Config{EmailBackend: "pigeon"})
	assert.ErrorContains(t, err, "unknown email backend")

	_, err = New(&config.Config{EmailBackend: "resend", EmailFrom: "a@b.c"})
	assert.ErrorContains(t, err, "api key is required")
}

func TestConsoleMailer_LogsMessage(t *testing.T) {
	var buf bytes.Buffer
	m := NewConsoleMailer(slog.New(slog.NewTextHandler(&buf, nil)))

	err := m.Send(context.Background(), Message{To: "alice@example.com", Subject: "Code 123456", Text: "body"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "alice@example.com")
	assert.Contains(t, buf.String(), "Code 123456")
}

func TestRetryDelay(t *testing.T) {
	wait, ok := retryDelay(&resend.RateLimitError{RetryAfter: "2"}, 0)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, wait)

	wait, ok = retryDelay(&resend.RateLimitError{RetryAfter: "120"}, 0)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, wait)

	wait, ok = retryDelay(fmt.Errorf("wrapped: %w", &resend.RateLimitError{}), 1)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, wait)

	_, ok = retryDelay(errors.New("invalid recipient"), 0)
	assert.False(t, ok)
}

func TestSMTPMailer_HonoursCancelledContext(t *testing.T) {
	m := NewSMTPMailer("localhost", 1, "", "", "a@b.c")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "x@y.z"}), context.Canceled)
}
