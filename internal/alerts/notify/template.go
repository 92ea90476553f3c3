package notify

import (
	"bytes"
	"errors"
	"text/template"
)

const DefaultTemplate = `[Collaudo {{.Severity}}]
Valve: {{.ValveName}} ({{.ValveID}})
Due Date: {{.DueDate}}
{{ if .RemainingDays }}Remaining Days: {{.RemainingDays}}
{{ end }}{{.Message}}`

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	ValveID       string
	ValveName     string
	Severity      string
	DueDate       string
	RemainingDays int
	Message       string
	EmittedAt     string
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("collaudo-notification").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("collaudo template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
