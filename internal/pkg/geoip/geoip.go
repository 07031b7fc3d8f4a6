// Package geoip resolves client addresses to coarse locations using a
// GeoLite2 database. A missing database disables lookups.
package geoip

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"folio/internal/config"
)

var (
	geoDB  *geoip2.Reader
	once   sync.Once
	mu     sync.RWMutex
	logger *slog.Logger
)

// Location is the subset of a GeoLite2 record stored on visitors.
type Location struct {
	Country string // ISO 3166-1 alpha-2
	City    string
	Region  string
}

// InitLogger sets the logger for the geoip package.
func InitLogger(l *slog.Logger) {
	logger = l
}

// Open opens the database at path. It returns nil when path is empty or the
// file cannot be read.
func Open(path string) *geoip2.Reader {
	if path == "" {
		logDebug("GeoIP database path not configured - enrichment disabled")
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if logger != nil {
			logger.Info("GeoLite2 database not available - enrichment disabled",
				slog.String("path", path),
				slog.Any("error", err))
		}
		return nil
	}

	db, err := geoip2.Open(path)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open GeoLite2 database",
				slog.String("path", path),
				slog.Any("error", err))
		}
		return nil
	}

	if logger != nil {
		logger.Info("GeoLite2 database initialized",
			slog.String("path", path),
			slog.String("db_type", db.Metadata().DatabaseType))
	}
	return db
}

// GetGeoDB returns the configured reader, opening it on first use. The
// reader may be closed by a later Reload; use Lookup for queries.
func GetGeoDB() *geoip2.Reader {
	ensureOpen()
	mu.RLock()
	defer mu.RUnlock()
	return geoDB
}

func ensureOpen() {
	once.Do(func() {
		mu.Lock()
		geoDB = Open(config.GetConfig().GeoDBPath)
		mu.Unlock()
	})
}

// Reload reopens the configured database, replacing the current reader.
// It reports whether a database is now available.
func Reload() bool {
	return reload(config.GetConfig().GeoDBPath)
}

func reload(path string) bool {
	once.Do(func() {})
	next := Open(path)

	// The write lock waits for in-flight lookups, so the previous reader
	// is no longer in use when it is closed.
	mu.Lock()
	prev := geoDB
	geoDB = next
	if prev != nil {
		prev.Close()
	}
	mu.Unlock()

	return next != nil
}

// Lookup resolves ip against the configured database. ok is false when the
// database is unavailable, the address does not parse or has no record.
func Lookup(ip string) (Location, bool) {
	ensureOpen()
	mu.RLock()
	defer mu.RUnlock()
	return LookupWith(geoDB, ip)
}

// LookupWith resolves ip against db. City databases yield city and region;
// country databases yield only the country.
func LookupWith(db *geoip2.Reader, ip string) (Location, bool) {
	if db == nil {
		return Location{}, false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, false
	}

	if city, err := db.City(parsed); err == nil {
		loc := Location{
			Country: city.Country.IsoCode,
			City:    city.City.Names["en"],
		}
		if len(city.Subdivisions) > 0 {
			loc.Region = city.Subdivisions[0].Names["en"]
		}
		return loc, loc.Country != ""
	}

	country, err := db.Country(parsed)
	if err != nil {
		logDebug("GeoIP lookup failed", slog.String("ip", ip), slog.Any("error", err))
		return Location{}, false
	}
	return Location{Country: country.Country.IsoCode}, country.Country.IsoCode != ""
}

// Close releases the configured reader.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if geoDB != nil {
		geoDB.Close()
		geoDB = nil
	}
}

func logDebug(msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
