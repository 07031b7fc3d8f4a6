// Package timeframe turns dashboard range labels into concrete query windows.
package timeframe

import (
	"time"
)

// Range is a dashboard range label.
type Range string

const (
	Range24Hours Range = "24h"
	Range7Days   Range = "7d"
	Range30Days  Range = "30d"
	Range90Days  Range = "90d"
	RangeAllTime Range = "all"
)

// Ranges lists the accepted labels, shortest first.
func Ranges() []Range {
	return []Range{Range24Hours, Range7Days, Range30Days, Range90Days, RangeAllTime}
}

// DefaultRange applies when the request carries no recognised label.
const DefaultRange = Range7Days

var rangeDurations = map[Range]time.Duration{
	Range24Hours: 24 * time.Hour,
	Range7Days:   7 * 24 * time.Hour,
	Range30Days:  30 * 24 * time.Hour,
	Range90Days:  90 * 24 * time.Hour,
}

// DayFormat is the layout of histogram dates.
const DayFormat = "2006-01-02"

type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider reads the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// FixedTimeProvider always returns the same instant.
type FixedTimeProvider struct {
	At time.Time
}

func (p *FixedTimeProvider) Now() time.Time {
	return p.At.UTC()
}

// TimeFrame is a closed [From, To] window in UTC.
type TimeFrame struct {
	From  time.Time
	To    time.Time
	Label Range
}

// ParseRange maps a query value to a Range, falling back to DefaultRange
// for empty or unknown labels.
func ParseRange(value string) Range {
	r := Range(value)
	if r == RangeAllTime {
		return r
	}
	if _, ok := rangeDurations[r]; ok {
		return r
	}
	return DefaultRange
}

// Window returns the time frame for r ending at now. The all-time range
// starts at the Unix epoch.
func (r Range) Window(now time.Time) TimeFrame {
	now = now.UTC()
	if r == RangeAllTime {
		return TimeFrame{From: time.Unix(0, 0).UTC(), To: now, Label: r}
	}
	d, ok := rangeDurations[r]
	if !ok {
		return DefaultRange.Window(now)
	}
	return TimeFrame{From: now.Add(-d), To: now, Label: r}
}

// NewTimeFrame parses label and resolves it against provider's clock.
func NewTimeFrame(label string, provider TimeProvider) TimeFrame {
	if provider == nil {
		provider = &DefaultTimeProvider{}
	}
	return ParseRange(label).Window(provider.Now())
}

// Duration returns the length of the window.
func (tf TimeFrame) Duration() time.Duration {
	return tf.To.Sub(tf.From)
}

// Contains reports whether t falls inside the window, bounds included.
func (tf TimeFrame) Contains(t time.Time) bool {
	return !t.Before(tf.From) && !t.After(tf.To)
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) string {
	return t.UTC().Format(DayFormat)
}
