package email

import (
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestSender(t *testing.T, config SMTPConfig) (*SMTPSender, *[]sentMail) {
	t.Helper()

	s, err := NewSMTPSender(config, "https://app.example.com/", newTestLogger())
	require.NoError(t, err)

	var sent []sentMail
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return nil
	}
	return s, &sent
}

func TestSMTPSender_SendNoEventIngestionFollowUp(t *testing.T) {
	s, sent := newTestSender(t, SMTPConfig{Host: "localhost", Port: 1025})

	err := s.SendNoEventIngestionFollowUp(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "localhost:1025", mail.addr)
	assert.Nil(t, mail.auth)
	assert.Equal(t, DefaultFromEmail, mail.from)
	assert.Equal(t, []string{"ada@example.com"}, mail.to)

	assert.Contains(t, mail.msg, "From: PostHog <hey@posthog.com>\r\n")
	assert.Contains(t, mail.msg, "To: ada@example.com\r\n")
	assert.Contains(t, mail.msg, "Subject: Get your first event in\r\n")
	assert.Contains(t, mail.msg, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, mail.msg, "Content-Type: text/html; charset=utf-8")
	assert.Contains(t, mail.msg, "Hi Ada,")
	assert.Contains(t, mail.msg, `href="https://app.example.com/"`)
}

func TestSMTPSender_UsesAuthWhenConfigured(t *testing.T) {
	s, sent := newTestSender(t, SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "secret",
		From:     "team@example.com",
		FromName: "Team",
	})

	require.NoError(t, s.SendNoEventIngestionFollowUp(context.Background(), "ada@example.com", "Ada"))

	require.Len(t, *sent, 1)
	assert.NotNil(t, (*sent)[0].auth)
	assert.Equal(t, "team@example.com", (*sent)[0].from)
	assert.Contains(t, (*sent)[0].msg, "From: Team <team@example.com>\r\n")
}

func TestSMTPSender_EscapesName(t *testing.T) {
	s, sent := newTestSender(t, SMTPConfig{Host: "localhost", Port: 1025})

	require.NoError(t, s.SendNoEventIngestionFollowUp(context.Background(), "ada@example.com", "<b>Ada</b>"))

	assert.Contains(t, (*sent)[0].msg, "Hi &lt;b&gt;Ada&lt;/b&gt;,")
}

func TestSMTPSender_SendError(t *testing.T) {
	s, _ := newTestSender(t, SMTPConfig{Host: "localhost", Port: 1025})
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := s.SendNoEventIngestionFollowUp(context.Background(), "ada@example.com", "Ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPSender_CanceledContext(t *testing.T) {
	s, sent := newTestSender(t, SMTPConfig{Host: "localhost", Port: 1025})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SendNoEventIngestionFollowUp(ctx, "ada@example.com", "Ada")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *sent)
}
