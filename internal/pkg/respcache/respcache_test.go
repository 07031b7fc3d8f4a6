package respcache

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
)

func TestDataKey(t *testing.T) {
	assert.Equal(t, "folio:data:overview:7d", DataKey("overview", "7d"))
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", []byte("v")))

	value, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestNewFallsBackToNoop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		url  string
	}{
		{"unset", ""},
		{"invalid", "not a url"},
		{"unreachable", "redis://127.0.0.1:1/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{RedisURL: tt.url, DataCacheTTLSeconds: 60}
			assert.IsType(t, Noop{}, New(cfg, logger))
		})
	}
}
