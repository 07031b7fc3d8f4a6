package referrers

import (
	"net/url"
	"strings"
)

// Referrer hostnames mapped to display names.
var knownReferrers = map[string]string{
	"google.com":           "Google",
	"google.co.uk":         "Google",
	"google.de":            "Google",
	"bing.com":             "Bing",
	"duckduckgo.com":       "DuckDuckGo",
	"kagi.com":             "Kagi",
	"x.com":                "X/Twitter",
	"twitter.com":          "X/Twitter",
	"t.co":                 "X/Twitter",
	"facebook.com":         "Facebook",
	"l.facebook.com":       "Facebook",
	"instagram.com":        "Instagram",
	"linkedin.com":         "LinkedIn",
	"lnkd.in":              "LinkedIn",
	"com.linkedin.android": "LinkedIn",
	"reddit.com":           "Reddit",
	"bsky.app":             "Bluesky",
	"mastodon.social":      "Mastodon",
	"youtube.com":          "YouTube",
	"news.ycombinator.com": "Hacker News",
	"lobste.rs":            "Lobsters",
	"dev.to":               "DEV Community",
	"medium.com":           "Medium",
	"substack.com":         "Substack",
	"github.com":           "GitHub",
	"gitlab.com":           "GitLab",
	"stackoverflow.com":    "Stack Overflow",
	"mail.google.com":      "Gmail",
	"outlook.live.com":     "Outlook",
}

// Short utm_source / ref codes used on shared links.
var sourceAliases = map[string]string{
	"ln": "LinkedIn",
	"li": "LinkedIn",
	"gh": "GitHub",
	"tw": "X/Twitter",
	"x":  "X/Twitter",
	"hn": "Hacker News",
	"cv": "Resume",
}

// Hostname reduces a referrer URL to its host. Values that do not parse as
// an absolute URL are returned unchanged.
func Hostname(referrer string) string {
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return referrer
	}
	return u.Hostname()
}

// FriendlyName returns a display name for a referrer hostname.
// Unknown hostnames are returned without "www." and with the first letter
// capitalized.
func FriendlyName(hostname string) string {
	hostname = strings.ToLower(hostname)

	if name, ok := knownReferrers[hostname]; ok {
		return name
	}

	hostname = strings.TrimPrefix(hostname, "www.")
	if name, ok := knownReferrers[hostname]; ok {
		return name
	}

	for domain, name := range knownReferrers {
		if strings.HasSuffix(hostname, "."+domain) {
			return name
		}
	}

	return capitalizeFirst(hostname)
}

// SourceLabel expands a short campaign source code. Unknown codes are
// returned as given.
func SourceLabel(source string) string {
	if label, ok := sourceAliases[strings.ToLower(source)]; ok {
		return label
	}
	return source
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
