package bar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thecrazygm/hivebar/internal/config"
	"github.com/thecrazygm/hivebar/internal/widget"
)

var sampleOutputs = []widget.Output{
	{Name: "hive-notifications", Text: "\U0001F514 3", Class: widget.ClassUnread},
	{Name: "ticker-hive", Text: "HIVE: $0.23"},
	{Name: "mpris", Text: ""},
}

func TestPlainFormatter(t *testing.T) {
	f := &PlainFormatter{Separator: " | "}
	line, err := f.Format(sampleOutputs)
	require.NoError(t, err)
	assert.Equal(t, "\U0001F514 3 | HIVE: $0.23", line)
}

func TestPlainFormatterDefaultSeparator(t *testing.T) {
	f := &PlainFormatter{}
	line, err := f.Format(sampleOutputs)
	require.NoError(t, err)
	assert.Equal(t, "\U0001F514 3 | HIVE: $0.23", line)
}

func TestWaybarFormatter(t *testing.T) {
	f := &WaybarFormatter{Separator: " | "}
	line, err := f.Format(sampleOutputs)
	require.NoError(t, err)

	var status WaybarStatus
	require.NoError(t, json.Unmarshal([]byte(line), &status))
	assert.Equal(t, "\U0001F514 3 | HIVE: $0.23", status.Text)
	assert.Equal(t, widget.ClassUnread, status.Class)
	assert.Equal(t, "hive-notifications: \U0001F514 3\nticker-hive: HIVE: $0.23", status.Tooltip)
}

func TestWaybarFormatterErrorClassWins(t *testing.T) {
	outputs := []widget.Output{
		{Name: "a", Text: "x", Class: widget.ClassUnread},
		{Name: "b", Text: "b: Error", Class: widget.ClassError},
	}
	f := &WaybarFormatter{}
	line, err := f.Format(outputs)
	require.NoError(t, err)

	var status WaybarStatus
	require.NoError(t, json.Unmarshal([]byte(line), &status))
	assert.Equal(t, widget.ClassError, status.Class)
}

func TestTemplateFormatter(t *testing.T) {
	cfg := config.BarConfig{
		Format:   config.BarFormatTemplate,
		Template: `{{range .}}{{if .Text}}[{{.Text}}]{{end}}{{end}}`,
	}
	f, err := NewFormatter(cfg)
	require.NoError(t, err)

	line, err := f.Format(sampleOutputs)
	require.NoError(t, err)
	assert.Equal(t, "[\U0001F514 3][HIVE: $0.23]", line)
}

func TestNewFormatterBadTemplate(t *testing.T) {
	_, err := NewFormatter(config.BarConfig{Format: config.BarFormatTemplate, Template: "{{."})
	var cfgErr *config.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewFormatterUnknownFormat(t *testing.T) {
	_, err := NewFormatter(config.BarConfig{Format: "polybar"})
	var cfgErr *config.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
