package dashboard

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// parseTemplates parses the embedded page templates.
func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
