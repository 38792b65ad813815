package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/config"
)

func newTestMailer(send sendFunc) *SMTPMailer {
	m := NewSMTPMailer(config.SMTPConfig{
		Host:     "smtp.test",
		Port:     2525,
		From:     "no-reply@test",
		FromName: "Team Timesheet",
	})
	m.send = send
	m.backoff = time.Millisecond
	return m
}

func TestSMTPMailer_SkipsWhenUnconfigured(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called without a host")
		return nil
	}

	assert.NoError(t, m.SendHTML(context.Background(), "a@test", "s", "<p>b</p>"))
}

func TestSMTPMailer_BuildsMessage(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m := newTestMailer(func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	})

	require.NoError(t, m.SendHTML(context.Background(), "alice@test", "Hello", "<p>hi</p>"))

	assert.Equal(t, "smtp.test:2525", gotAddr)
	assert.Equal(t, []string{"alice@test"}, gotTo)
	assert.Contains(t, gotMsg, "From: Team Timesheet <no-reply@test>\r\n")
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPMailer_RetriesThenFails(t *testing.T) {
	calls := 0
	m := newTestMailer(func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("connection refused")
	})

	err := m.SendHTML(context.Background(), "alice@test", "Hello", "<p>hi</p>")
	require.Error(t, err)
	assert.Equal(t, maxRetries, calls)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPMailer_RecoversOnRetry(t *testing.T) {
	calls := 0
	m := newTestMailer(func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		if calls == 1 {
			return errors.New("temporary failure")
		}
		return nil
	})

	assert.NoError(t, m.SendHTML(context.Background(), "alice@test", "Hello", "<p>hi</p>"))
	assert.Equal(t, 2, calls)
}

func TestRenderer_AutoCheckout(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	subject, body, err := r.AutoCheckout(AutoCheckoutData{
		Username:        "alice <admin>",
		EntryID:         "entry-1",
		ClockIn:         "2024-01-01 09:00:00 UTC",
		ClockOut:        "2024-01-01 15:00:00 UTC",
		Threshold:       "6h0m0s",
		BreakMinutes:    15,
		DurationMinutes: 345,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, subject)
	assert.Contains(t, body, "alice &lt;admin&gt;")
	assert.Contains(t, body, "345 minutes")
	assert.Contains(t, body, "15 minutes of breaks")
	assert.Contains(t, body, "entry-1")
}
