package service

import (
	"strings"
	"text/template"

	"github.com/MKhiriev/go-doc-locker/models"
)

var profileTemplate = template.Must(template.New("profile").Parse(
	`# {{ if .Name }}{{ .Name }}{{ else }}Profile{{ end }}
{{ with .Email }}
{{ . }}
{{ end }}{{ with .Summary }}
## Summary

{{ . }}
{{ end }}{{ with .Education }}
## Education

{{ . }}
{{ end }}{{ with .Skills }}
## Skills
{{ range . }}
- {{ . }}{{ end }}
{{ end }}{{ with .Certifications }}
## Certifications
{{ range . }}
- {{ . }}{{ end }}
{{ end }}{{ with .Achievements }}
## Achievements
{{ range . }}
- {{ . }}{{ end }}
{{ end }}`))

// renderProfile renders payload as a one-page Markdown document.
func renderProfile(payload models.ProfilePayload) (string, error) {
	var b strings.Builder
	if err := profileTemplate.Execute(&b, payload); err != nil {
		return "", err
	}
	return b.String(), nil
}
