// Package notify sends fire-and-forget alerts about notable visits.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"folio/internal/config"
	"folio/internal/metrics"
)

// DispatchTimeout bounds a single detached delivery.
const DispatchTimeout = 15 * time.Second

// Alert describes the visit that triggered a notification.
type Alert struct {
	Source  string
	Path    string
	Device  string
	Browser string
	OS      string
	Country string
	City    string
	At      time.Time
}

// Notifier delivers an alert.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, alert Alert) error

func (f NotifierFunc) Notify(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}

// Noop discards alerts. It is used when no transport is configured.
type Noop struct {
	Logger *slog.Logger
}

func (n Noop) Notify(_ context.Context, alert Alert) error {
	if n.Logger != nil {
		n.Logger.Debug("Notification transport not configured, dropping alert",
			slog.String("source", alert.Source),
			slog.String("path", alert.Path))
	}
	return ErrNotConfigured
}

// ErrNotConfigured is returned by Noop.
var ErrNotConfigured = errors.New("notification transport not configured")

// New builds the notifier described by cfg: Resend when an API key is set,
// SMTP when a host is set, otherwise Noop. Real transports are wrapped in a
// circuit breaker.
func New(cfg *config.Config, logger *slog.Logger) Notifier {
	switch {
	case cfg.NotifyTo == "":
		return Noop{Logger: logger}
	case cfg.ResendAPIKey != "":
		return NewBreaker(NewResendNotifier(cfg.ResendAPIKey, cfg.NotifyFrom, cfg.NotifyTo), logger)
	case cfg.SMTPHost != "":
		return NewBreaker(NewSMTPNotifier(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.NotifyFrom,
			To:       cfg.NotifyTo,
		}), logger)
	default:
		return Noop{Logger: logger}
	}
}

// Dispatch delivers alert on its own goroutine with its own deadline. The
// caller never waits and delivery errors are only logged. The returned
// channel is closed once the attempt finishes.
func Dispatch(n Notifier, logger *slog.Logger, alert Alert) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				metrics.NotificationsTotal.WithLabelValues("failed").Inc()
				logger.Error("Panic recovered in notifier", slog.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), DispatchTimeout)
		defer cancel()

		err := n.Notify(ctx, alert)
		switch {
		case err == nil:
			metrics.NotificationsTotal.WithLabelValues("sent").Inc()
			logger.Info("Visitor notification sent",
				slog.String("source", alert.Source),
				slog.String("path", alert.Path))
		case errors.Is(err, ErrNotConfigured):
			metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		default:
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			logger.Warn("Visitor notification failed",
				slog.String("source", alert.Source),
				slog.Any("error", err))
		}
	}()
	return done
}

// Breaker stops calling a failing transport for a cooldown period.
type Breaker struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// BreakerSettings returns the breaker policy: open after three consecutive
// failures, probe again after five minutes.
func BreakerSettings(logger *slog.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "notifier",
		MaxRequests: 1,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("Notifier circuit breaker state changed",
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}
		},
	}
}

func NewBreaker(next Notifier, logger *slog.Logger) *Breaker {
	return NewBreakerWithSettings(next, BreakerSettings(logger))
}

func NewBreakerWithSettings(next Notifier, settings gobreaker.Settings) *Breaker {
	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *Breaker) Notify(ctx context.Context, alert Alert) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Notify(ctx, alert)
	})
	return err
}

// State reports the breaker state for diagnostics.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
