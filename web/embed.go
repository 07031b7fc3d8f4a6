// Package web embeds the dashboard pages and the collector script.
package web

import (
	"embed"
	"html/template"
	texttemplate "text/template"
)

//go:embed templates/*.html
var pagesFS embed.FS

//go:embed collector.js
var collectorSource string

// Pages parses the dashboard and login templates.
func Pages() (*template.Template, error) {
	return template.ParseFS(pagesFS, "templates/*.html")
}

// Collector parses the collector script template. It expects an
// .Endpoint value.
func Collector() (*texttemplate.Template, error) {
	return texttemplate.New("collector.js").Parse(collectorSource)
}
