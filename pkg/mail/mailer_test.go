package mail

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func render(t *testing.T, msg *gomail.Msg) (headers, body string) {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	parts := strings.SplitN(raw, "\r\n\r\n", 2)
	require.Len(t, parts, 2)
	return parts[0], raw
}

func TestBuildMessage(t *testing.T) {
	msg, err := BuildMessage("resort@example.com", "guest@example.com", "Booking confirmed", "Hello\nSee you soon")
	require.NoError(t, err)

	headers, raw := render(t, msg)
	assert.Contains(t, headers, "Subject: Booking confirmed")
	assert.Contains(t, headers, "Date: ")
	assert.Contains(t, headers, "Content-Transfer-Encoding: quoted-printable")
	assert.Contains(t, raw, "See you soon")

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"guest@example.com"}, rcpts)
}

func TestBuildMessage_EncodesNonASCII(t *testing.T) {
	msg, err := BuildMessage("resort@example.com", "zoe@example.com", "Welcome Zoë", "Dear Zoë")
	require.NoError(t, err)

	headers, _ := render(t, msg)
	assert.NotContains(t, headers, "Zoë")
	assert.Contains(t, headers, "=?UTF-8?")
	assert.Contains(t, headers, "charset=UTF-8")
}

func TestBuildMessage_InvalidRecipient(t *testing.T) {
	_, err := BuildMessage("resort@example.com", "not an address", "Hi", "Body")
	assert.Error(t, err)
}

func TestSMTPMailer_Send(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "secret",
		From:     "resort@example.com",
		Timeout:  2 * time.Second,
	})

	var sent *gomail.Msg
	var deadline time.Time
	mailer.send = func(ctx context.Context, msg *gomail.Msg) error {
		sent = msg
		deadline, _ = ctx.Deadline()
		return nil
	}

	err := mailer.Send(context.Background(), "guest@example.com", "Hi", "Body")

	require.NoError(t, err)
	require.NotNil(t, sent)
	from, err := sent.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "resort@example.com", from)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)
}

func TestSMTPMailer_DefaultTimeout(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25})
	assert.Equal(t, defaultTimeout, mailer.config.Timeout)
}

func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "resort@example.com"})
	mailer.send = func(context.Context, *gomail.Msg) error {
		t.Fatal("send must not be called")
		return nil
	}

	err := mailer.Send(context.Background(), "guest@example.com\r\nBcc: x@example.com", "Hi", "Body")
	assert.Error(t, err)
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "resort@example.com"})
	mailer.send = func(context.Context, *gomail.Msg) error {
		t.Fatal("send must not be called")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.Send(ctx, "guest@example.com", "Hi", "Body")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTPMailer_WrapsRelayError(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "resort@example.com"})
	relayErr := errors.New("connection refused")
	mailer.send = func(context.Context, *gomail.Msg) error { return relayErr }

	err := mailer.Send(context.Background(), "guest@example.com", "Hi", "Body")
	assert.ErrorIs(t, err, relayErr)
}

func TestSMTPMailer_UnreachableRelay(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	mailer := NewSMTPMailer(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    port,
		From:    "resort@example.com",
		Timeout: time.Second,
	})

	start := time.Now()
	err = mailer.Send(context.Background(), "guest@example.com", "Hi", "Body")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
