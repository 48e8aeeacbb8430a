// Package bar renders widget outputs into status bar lines.
package bar

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/thecrazygm/hivebar/internal/config"
	"github.com/thecrazygm/hivebar/internal/widget"
)

// Formatter turns a set of widget outputs into one bar line.
type Formatter interface {
	Format(outputs []widget.Output) (string, error)
}

// NewFormatter builds the formatter selected by the config.
func NewFormatter(cfg config.BarConfig) (Formatter, error) {
	switch cfg.Format {
	case config.BarFormatPlain:
		return &PlainFormatter{Separator: cfg.Separator}, nil
	case config.BarFormatWaybar:
		return &WaybarFormatter{Separator: cfg.Separator}, nil
	case config.BarFormatTemplate:
		tmpl, err := template.New("bar").Parse(cfg.Template)
		if err != nil {
			return nil, config.NewConfigError("bar.template", "bad template: %v", err)
		}
		return &TemplateFormatter{tmpl: tmpl}, nil
	default:
		return nil, config.NewConfigError("bar.format", "unknown format %q", cfg.Format)
	}
}

// PlainFormatter joins non-empty widget texts with a separator.
type PlainFormatter struct {
	Separator string
}

// Format implements Formatter.
func (f *PlainFormatter) Format(outputs []widget.Output) (string, error) {
	return joinTexts(outputs, f.Separator), nil
}

// WaybarStatus is the JSON object Waybar reads from a custom module.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

// WaybarFormatter emits one Waybar JSON object per publish. The class is
// "error" when any widget failed, else "unread" when anything is unread.
type WaybarFormatter struct {
	Separator string
}

// Format implements Formatter.
func (f *WaybarFormatter) Format(outputs []widget.Output) (string, error) {
	status := WaybarStatus{
		Text:    joinTexts(outputs, f.Separator),
		Class:   aggregateClass(outputs),
		Tooltip: tooltip(outputs),
	}
	data, err := json.Marshal(status)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// TemplateFormatter renders outputs through a user template. The data is
// the output slice; {{range .}}{{.Name}} {{.Text}}{{end}} style.
type TemplateFormatter struct {
	tmpl *template.Template
}

// Format implements Formatter.
func (f *TemplateFormatter) Format(outputs []widget.Output) (string, error) {
	var sb strings.Builder
	if err := f.tmpl.Execute(&sb, outputs); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func joinTexts(outputs []widget.Output, sep string) string {
	if sep == "" {
		sep = config.DefaultSeparator
	}
	parts := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o.Text != "" {
			parts = append(parts, o.Text)
		}
	}
	return strings.Join(parts, sep)
}

func aggregateClass(outputs []widget.Output) string {
	class := ""
	for _, o := range outputs {
		switch o.Class {
		case widget.ClassError:
			return widget.ClassError
		case widget.ClassUnread:
			class = widget.ClassUnread
		}
	}
	return class
}

func tooltip(outputs []widget.Output) string {
	lines := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o.Text != "" {
			lines = append(lines, o.Name+": "+o.Text)
		}
	}
	return strings.Join(lines, "\n")
}
