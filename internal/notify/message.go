package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"folio/internal/pkg/referrers"
)

var titleCase = cases.Title(language.English)

// Subject is the email subject for alert.
func (a Alert) Subject() string {
	return fmt.Sprintf("New visitor from %s", referrers.SourceLabel(a.Source))
}

func (a Alert) fields() [][2]string {
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	location := orUnknown(a.Country)
	if a.City != "" {
		location = a.City + ", " + location
	}
	return [][2]string{
		{"Source", referrers.SourceLabel(a.Source)},
		{"Landing page", orUnknown(a.Path)},
		{"Device", titleCase.String(orUnknown(a.Device))},
		{"Browser", orUnknown(a.Browser)},
		{"OS", orUnknown(a.OS)},
		{"Location", location},
		{"Time", at.UTC().Format(time.RFC1123)},
	}
}

// Text renders the alert as plain text.
func (a Alert) Text() string {
	var b strings.Builder
	b.WriteString("Someone opened your site from a tracked link.\r\n\r\n")
	for _, f := range a.fields() {
		fmt.Fprintf(&b, "%s: %s\r\n", f[0], f[1])
	}
	return b.String()
}

// HTML renders the alert as a small HTML table.
func (a Alert) HTML() string {
	var b strings.Builder
	b.WriteString("<p>Someone opened your site from a tracked link.</p><table>")
	for _, f := range a.fields() {
		fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", html.EscapeString(f[0]), html.EscapeString(f[1]))
	}
	b.WriteString("</table>")
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
