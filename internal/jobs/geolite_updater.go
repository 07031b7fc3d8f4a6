package jobs

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"folio/internal/pkg/geoip"
)

const (
	// GeoLiteMaxAge is how old the local database may get before it is
	// downloaded again. MaxMind publishes weekly.
	GeoLiteMaxAge = 7 * 24 * time.Hour
	// MaxMindDownloadURL takes the license key.
	MaxMindDownloadURL = "https://download.maxmind.com/app/geoip_download?edition_id=GeoLite2-City&license_key=%s&suffix=tar.gz"
)

var errNoMMDB = errors.New("no .mmdb file found in archive")

// GeoLiteUpdaterJob refreshes the GeoLite2 City database used for
// visitor enrichment and reloads the in-memory reader.
type GeoLiteUpdaterJob struct {
	logger     *slog.Logger
	licenseKey string
	path       string
	client     *http.Client
	url        string
}

func NewGeoLiteUpdaterJob(logger *slog.Logger, licenseKey, path string) *GeoLiteUpdaterJob {
	return &GeoLiteUpdaterJob{
		logger:     logger,
		licenseKey: licenseKey,
		path:       path,
		client:     &http.Client{Timeout: 5 * time.Minute},
		url:        fmt.Sprintf(MaxMindDownloadURL, licenseKey),
	}
}

func (j *GeoLiteUpdaterJob) Name() string { return "geolite_updater" }

// Run downloads a fresh database when the local copy is missing or stale.
// Without a license key it does nothing.
func (j *GeoLiteUpdaterJob) Run(ctx context.Context) error {
	if j.licenseKey == "" || j.path == "" {
		j.logger.Debug("GeoLite license key not configured, skipping update")
		return nil
	}

	if info, err := os.Stat(j.path); err == nil && time.Since(info.ModTime()) < GeoLiteMaxAge {
		j.logger.Debug("GeoLite database is up to date", slog.Time("modified", info.ModTime()))
		return nil
	}

	j.logger.Info("Starting GeoLite database update", slog.String("path", j.path))
	if err := j.downloadAndUpdate(ctx); err != nil {
		return fmt.Errorf("update geolite database: %w", err)
	}

	geoip.Reload()
	j.logger.Info("GeoLite database updated successfully")
	return nil
}

func (j *GeoLiteUpdaterJob) downloadAndUpdate(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return err
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	// Extract next to the target and rename so readers never see a
	// partial file.
	tmp, err := os.CreateTemp(filepath.Dir(j.path), ".geolite-*.mmdb")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := extractMMDB(resp.Body, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), j.path)
}

// extractMMDB copies the first .mmdb entry of a tar.gz stream to dst.
func extractMMDB(src io.Reader, dst io.Writer) error {
	gzr, err := gzip.NewReader(src)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return errNoMMDB
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		if strings.HasSuffix(header.Name, ".mmdb") {
			if _, err := io.Copy(dst, tr); err != nil {
				return fmt.Errorf("extract %s: %w", header.Name, err)
			}
			return nil
		}
	}
}
