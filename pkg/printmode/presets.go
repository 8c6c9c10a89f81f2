package printmode

import (
	"errors"
	"fmt"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"sort"
	"strings"
)

var (
	ErrInvalidFormatConfiguration = errors.New("invalid print mode configuration")
)

const (
	General               = "General"
	FunctionOnly          = "FunctionOnly"
	FirstFunctionOnly     = "FirstFunctionOnly"
	DifferentFunctionOnly = "DifferentFunctionOnly"

	missingFunction = `!"Log is missing Function attribute: {Timestamp} - {Message}"`
)

var presets = map[string]string{
	General:               generalFormat(),
	FunctionOnly:          "@{Function}" + missingFunction,
	FirstFunctionOnly:     "@~{Function}" + missingFunction,
	DifferentFunctionOnly: "@${Function}" + missingFunction,
}

// generalFormat prints valid entries as "[Timestamp] Message" followed by every other attribute that's present.
// Invalid entries print as a problem report with the Timestamp and Message.
func generalFormat() string {
	var buf strings.Builder
	buf.WriteString(`@^+{Timestamp|[{}] }+{Message}`)
	for _, key := range entries.AllKeys() {
		if key == entries.Timestamp || key == entries.Message {
			continue
		}
		fmt.Fprintf(&buf, `^+{%[1]s|, %[1]s="{}"}`, key)
	}
	buf.WriteString(`-{Timestamp|Problem printing log. Timestamp={}}!"Problem printing log. Timestamp="`)
	buf.WriteString(`-{Message|, Message={}}!", Message="`)
	return buf.String()
}

// Presets returns the names of all built-in print modes.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetFormat returns the template that a preset name stands for.
func PresetFormat(name string) (string, bool) {
	format, ok := presets[name]
	return format, ok
}

// Resolve maps a print mode setting to the template text it represents.
// An empty or blank setting is the General preset, a preset name is that preset's template, and anything starting with '@' is used as-is.
func Resolve(mode string) (string, error) {
	if strings.TrimSpace(mode) == "" {
		return presets[General], nil
	}
	if format, ok := presets[mode]; ok {
		return format, nil
	}
	if strings.HasPrefix(mode, string(TemplateMarker)) {
		return mode, nil
	}
	return "", fmt.Errorf("%w: '%s' is not a preset name and doesn't start with '%c'", ErrInvalidFormatConfiguration, mode, TemplateMarker)
}

// Load resolves and parses a print mode setting.
func Load(mode string) (*Template, error) {
	format, err := Resolve(mode)
	if err != nil {
		return nil, err
	}
	return Parse(format)
}
