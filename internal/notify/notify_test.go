package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not finish")
	}
}

func TestDispatchDelivers(t *testing.T) {
	var got Alert
	n := NotifierFunc(func(ctx context.Context, alert Alert) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		got = alert
		return nil
	})

	waitFor(t, Dispatch(n, discardLogger(), Alert{Source: "ln", Path: "/"}))
	assert.Equal(t, "ln", got.Source)
}

func TestDispatchSwallowsFailures(t *testing.T) {
	failing := NotifierFunc(func(context.Context, Alert) error { return errors.New("smtp down") })
	waitFor(t, Dispatch(failing, discardLogger(), Alert{}))

	panicking := NotifierFunc(func(context.Context, Alert) error { panic("boom") })
	waitFor(t, Dispatch(panicking, discardLogger(), Alert{}))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	failing := NotifierFunc(func(context.Context, Alert) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("unreachable")
	})
	b := NewBreaker(failing, discardLogger())

	for i := 0; i < 3; i++ {
		assert.Error(t, b.Notify(context.Background(), Alert{}))
	}
	assert.Equal(t, "open", b.State())

	err := b.Notify(context.Background(), Alert{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNewSelectsTransport(t *testing.T) {
	logger := discardLogger()

	_, isNoop := New(&config.Config{}, logger).(Noop)
	assert.True(t, isNoop, "no recipient")

	_, isNoop = New(&config.Config{NotifyTo: "me@example.com"}, logger).(Noop)
	assert.True(t, isNoop, "no transport")

	_, isBreaker := New(&config.Config{NotifyTo: "me@example.com", SMTPHost: "smtp.example.com", SMTPPort: 587}, logger).(*Breaker)
	assert.True(t, isBreaker)

	_, isBreaker = New(&config.Config{NotifyTo: "me@example.com", ResendAPIKey: "re_test"}, logger).(*Breaker)
	assert.True(t, isBreaker)
}

func TestNoopReportsNotConfigured(t *testing.T) {
	assert.ErrorIs(t, Noop{}.Notify(context.Background(), Alert{}), ErrNotConfigured)
}

func TestAlertRendering(t *testing.T) {
	alert := Alert{
		Source:  "ln",
		Path:    "/",
		Device:  "mobile",
		Browser: "Safari",
		Country: "DE",
		City:    "Berlin",
		At:      time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "New visitor from LinkedIn", alert.Subject())

	text := alert.Text()
	assert.Contains(t, text, "Device: Mobile")
	assert.Contains(t, text, "Location: Berlin, DE")
	assert.Contains(t, text, "OS: unknown")

	assert.Contains(t, Alert{Path: "/<script>"}.HTML(), "/&lt;script&gt;")

	msg := buildMessage("folio@example.com", "me@example.com", alert)
	assert.True(t, strings.HasPrefix(msg, "From: folio@example.com\r\n"))
	assert.Contains(t, msg, "Subject: New visitor from LinkedIn\r\n")
}

func TestSMTPNotifierConnectionError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: port, From: "a@example.com", To: "b@example.com"})
	err = n.Notify(context.Background(), Alert{Source: "ln"})
	assert.ErrorContains(t, err, "failed to connect")
}
