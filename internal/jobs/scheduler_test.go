package jobs

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewScheduler(quietLogger())
	err := s.Register("every now and then", funcJob{name: "bad", run: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestExecuteJobSafelySkipsOverlappingRuns(t *testing.T) {
	s := NewScheduler(quietLogger())

	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	job := funcJob{name: "slow", run: func(context.Context) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	}}

	done := make(chan struct{})
	go func() {
		s.RunNow(job)
		close(done)
	}()
	<-started

	s.RunNow(job)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	<-done
}

func TestExecuteJobSafelyRecoversPanics(t *testing.T) {
	s := NewScheduler(quietLogger())

	var calls atomic.Int32
	job := funcJob{name: "boom", run: func(context.Context) error {
		calls.Add(1)
		panic("boom")
	}}

	assert.NotPanics(t, func() { s.RunNow(job) })
	assert.NotPanics(t, func() { s.RunNow(job) })
	assert.Equal(t, int32(2), calls.Load(), "a panicking run must release the job")
}

func TestExecuteJobSafelyLogsErrors(t *testing.T) {
	s := NewScheduler(quietLogger())
	assert.NotPanics(t, func() {
		s.RunNow(funcJob{name: "failing", run: func(context.Context) error { return errors.New("nope") }})
	})
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(quietLogger())
	require.NoError(t, s.Register("@every 1h", funcJob{name: "noop", run: func(context.Context) error { return nil }}))

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Error(t, s.ctx.Err())
}

func mmdbArchive(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "GeoLite2-City_20240701/COPYRIGHT.txt", Mode: 0o644, Size: 3}))
	_, err := tw.Write([]byte("(c)"))
	require.NoError(t, err)

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}))
	_, err = tw.Write(content)
	require.NoError(t, err)

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestExtractMMDB(t *testing.T) {
	archive := mmdbArchive(t, "GeoLite2-City_20240701/GeoLite2-City.mmdb", []byte("mmdb-bytes"))

	var out bytes.Buffer
	require.NoError(t, extractMMDB(bytes.NewReader(archive), &out))
	assert.Equal(t, "mmdb-bytes", out.String())

	archive = mmdbArchive(t, "README.md", []byte("nothing here"))
	assert.ErrorIs(t, extractMMDB(bytes.NewReader(archive), io.Discard), errNoMMDB)
}

func TestGeoLiteUpdaterWithoutLicenseKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GeoLite2-City.mmdb")
	job := NewGeoLiteUpdaterJob(quietLogger(), "", path)

	require.NoError(t, job.Run(context.Background()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestGeoLiteUpdaterDownloads(t *testing.T) {
	archive := mmdbArchive(t, "GeoLite2-City_20240701/GeoLite2-City.mmdb", []byte("fresh"))
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(archive)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "geo", "GeoLite2-City.mmdb")
	job := NewGeoLiteUpdaterJob(quietLogger(), "key", path)
	job.url = srv.URL

	require.NoError(t, job.Run(context.Background()))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(content))

	// A fresh file is not downloaded again.
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int32(1), hits.Load())

	stale := time.Now().Add(-GeoLiteMaxAge - time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
}

func TestGeoLiteUpdaterReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid license key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	job := NewGeoLiteUpdaterJob(quietLogger(), "bad", filepath.Join(t.TempDir(), "GeoLite2-City.mmdb"))
	job.url = srv.URL

	assert.ErrorContains(t, job.Run(context.Background()), "status: 401")
}
