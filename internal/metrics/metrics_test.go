package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackedTotal(t *testing.T) {
	before := testutil.ToFloat64(TrackedTotal.WithLabelValues("pageview"))
	TrackedTotal.WithLabelValues("pageview").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(TrackedTotal.WithLabelValues("pageview")))
}

func TestObserveDataQuery(t *testing.T) {
	ObserveDataQuery("overview", false, time.Now().Add(-20*time.Millisecond))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DataQueryDuration), 1)
}

func TestHandler(t *testing.T) {
	SessionsOpenedTotal.Inc()

	app := fiber.New()
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "folio_sessions_opened_total")
}
