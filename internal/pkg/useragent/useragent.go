// Package useragent classifies User-Agent strings into the coarse device,
// browser and operating system labels stored on visitors.
package useragent

import (
	"strings"

	"github.com/mssola/useragent"
)

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// UserAgent is the classification result. Empty fields mean unknown.
type UserAgent struct {
	Device  string
	Browser string
	OS      string
}

// Parse classifies raw. An empty string yields an empty result.
func Parse(raw string) UserAgent {
	if strings.TrimSpace(raw) == "" {
		return UserAgent{}
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()

	return UserAgent{
		Device:  device(ua, raw),
		Browser: browser,
		OS:      operatingSystem(ua.OS(), raw),
	}
}

func device(ua *useragent.UserAgent, raw string) string {
	switch {
	case ua.Bot():
		return DeviceBot
	case strings.Contains(raw, "iPad") || strings.Contains(raw, "Tablet"):
		return DeviceTablet
	case strings.Contains(raw, "Android") && !strings.Contains(raw, "Mobile"):
		return DeviceTablet
	case ua.Mobile():
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func operatingSystem(os, raw string) string {
	switch {
	case strings.Contains(raw, "iPhone"), strings.Contains(raw, "iPad"), strings.Contains(raw, "iPod"):
		return "iOS"
	case strings.Contains(raw, "Android"):
		return "Android"
	case strings.Contains(raw, "Windows"):
		return "Windows"
	case strings.Contains(raw, "CrOS"):
		return "Chrome OS"
	case strings.Contains(raw, "Mac OS X"), strings.Contains(raw, "Macintosh"):
		return "macOS"
	case strings.Contains(raw, "Linux"):
		return "Linux"
	default:
		return os
	}
}
