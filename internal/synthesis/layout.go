package synthesis

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/layout.html
var templateFS embed.FS

var layout = template.Must(template.ParseFS(templateFS, "templates/layout.html"))

type layoutData struct {
	Label   string
	Date    string
	Content template.HTML
}

// Render wraps a validated fragment in the email layout.
func Render(fragment string, label string, date time.Time) (string, error) {
	var buf bytes.Buffer
	err := layout.Execute(&buf, layoutData{
		Label: label,
		Date:  date.Format("Monday, January 2"),
		// Validate has already rejected scripts and foreign links.
		Content: template.HTML(fragment), //nolint:gosec
	})
	if err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}

	return buf.String(), nil
}
