package analytics

import (
	"context"

	"gorm.io/gorm"

	"folio/internal/timeframe"
)

type DeviceCount struct {
	Device string `json:"device"`
	Count  int64  `json:"count"`
}

type BrowserCount struct {
	Browser string `json:"browser"`
	Count   int64  `json:"count"`
}

type OSCount struct {
	OS    string `json:"os"`
	Count int64  `json:"count"`
}

type DevicesReport struct {
	Devices  []DeviceCount  `json:"devices"`
	Browsers []BrowserCount `json:"browsers"`
	OS       []OSCount      `json:"os"`
}

func visitorGroup(column string, limit int) groupSpec {
	return groupSpec{
		table:      "visitors",
		column:     "COALESCE(" + column + ", '" + UnknownGroupLabel + "')",
		timeColumn: "first_seen_at",
		limit:      limit,
	}
}

// GetDevices groups visitors first seen inside the range by device, browser
// and operating system. Missing values are reported as "Unknown".
func GetDevices(ctx context.Context, db *gorm.DB, tf timeframe.TimeFrame) (*DevicesReport, error) {
	devices, err := topGroups(ctx, db, visitorGroup("device", 0), tf)
	if err != nil {
		return nil, err
	}
	browsers, err := topGroups(ctx, db, visitorGroup("browser", BrowsersLimit), tf)
	if err != nil {
		return nil, err
	}
	systems, err := topGroups(ctx, db, visitorGroup("os", OSLimit), tf)
	if err != nil {
		return nil, err
	}

	report := &DevicesReport{
		Devices:  make([]DeviceCount, 0, len(devices)),
		Browsers: make([]BrowserCount, 0, len(browsers)),
		OS:       make([]OSCount, 0, len(systems)),
	}
	for _, g := range devices {
		report.Devices = append(report.Devices, DeviceCount{Device: g.Value, Count: g.Count})
	}
	for _, g := range browsers {
		report.Browsers = append(report.Browsers, BrowserCount{Browser: g.Value, Count: g.Count})
	}
	for _, g := range systems {
		report.OS = append(report.OS, OSCount{OS: g.Value, Count: g.Count})
	}
	return report, nil
}
