// Package email turns delivery variables into a rendered reminder email and
// hands it to an EmailProvider for transmission.
package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"reminderd/internal/scheduler"
)

//go:embed templates/*.html
var templateFS embed.FS

// RenderedEmail holds pre-rendered email content ready for transmission.
type RenderedEmail struct {
	Subject  string
	BodyHTML string
}

// templateData is the struct passed into the reminder template.
type templateData struct {
	Subject                string
	Name                   string
	Title                  string
	RemindAt               string
	DueDate                string
	DisableNotificationURL string
}

// Renderer renders the reminder email from the embedded HTML template.
// Rendering happens here, not at the provider, so a retried delivery produces
// byte-identical content from the persisted variables.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded template. Returns an error only when the
// embedded file is malformed, which indicates a broken build.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/reminder.html")
	if err != nil {
		return nil, fmt.Errorf("email: parsing reminder template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render produces the subject and HTML body for one delivery variable set.
func (r *Renderer) Render(vars map[string]string) (RenderedEmail, error) {
	data := templateData{
		Subject:                vars[scheduler.VarSubject],
		Name:                   vars[scheduler.VarName],
		Title:                  vars[scheduler.VarTitle],
		RemindAt:               vars[scheduler.VarRemindAt],
		DueDate:                vars[scheduler.VarDueDate],
		DisableNotificationURL: vars[scheduler.VarDisableURL],
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "reminder.html", data); err != nil {
		return RenderedEmail{}, fmt.Errorf("email: rendering reminder template: %w", err)
	}
	return RenderedEmail{
		Subject:  data.Subject,
		BodyHTML: buf.String(),
	}, nil
}
