package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"folio/internal/timeframe"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		input    string
		expected timeframe.Range
	}{
		{"24h", timeframe.Range24Hours},
		{"7d", timeframe.Range7Days},
		{"30d", timeframe.Range30Days},
		{"90d", timeframe.Range90Days},
		{"all", timeframe.RangeAllTime},
		{"", timeframe.Range7Days},
		{"1y", timeframe.Range7Days},
		{"7D", timeframe.Range7Days},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, timeframe.ParseRange(tt.input))
		})
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)

	t.Run("relative ranges end at now", func(t *testing.T) {
		tf := timeframe.Range24Hours.Window(now)
		assert.Equal(t, now, tf.To)
		assert.Equal(t, now.Add(-24*time.Hour), tf.From)
		assert.Equal(t, 24*time.Hour, tf.Duration())

		tf = timeframe.Range90Days.Window(now)
		assert.Equal(t, time.Date(2024, 3, 17, 12, 30, 0, 0, time.UTC), tf.From)
	})

	t.Run("all time starts at the epoch", func(t *testing.T) {
		tf := timeframe.RangeAllTime.Window(now)
		assert.Equal(t, int64(0), tf.From.Unix())
		assert.Equal(t, now, tf.To)
	})

	t.Run("non utc input is normalised", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*3600)
		tf := timeframe.Range7Days.Window(now.In(tokyo))
		assert.Equal(t, time.UTC, tf.To.Location())
		assert.True(t, tf.To.Equal(now))
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		tf := timeframe.Range7Days.Window(now)
		assert.True(t, tf.Contains(tf.From))
		assert.True(t, tf.Contains(tf.To))
		assert.False(t, tf.Contains(tf.From.Add(-time.Nanosecond)))
	})
}

func TestNewTimeFrameUsesProvider(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tf := timeframe.NewTimeFrame("30d", &timeframe.FixedTimeProvider{At: now})

	assert.Equal(t, timeframe.Range30Days, tf.Label)
	assert.Equal(t, now, tf.To)
	assert.Equal(t, time.Date(2023, 12, 2, 0, 0, 0, 0, time.UTC), tf.From)
}

func TestDay(t *testing.T) {
	late := time.Date(2024, 2, 29, 23, 59, 0, 0, time.FixedZone("PST", -8*3600))
	assert.Equal(t, "2024-03-01", timeframe.Day(late))
}
