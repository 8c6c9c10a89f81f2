package printmode

import (
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		format   string
		expected *Template
	}{
		"Escaped markers": {
			format: "@@++--^^$$~~!!{{}}",
			expected: &Template{Elements: []Element{
				&Literal{Text: "@+-^$~!{}"},
			}},
		},
		"Long even run": {
			format: "@++++ok",
			expected: &Template{Elements: []Element{
				&Literal{Text: "+ok"},
			}},
		},
		"Lone marker without attribute": {
			format: "@^x",
			expected: &Template{Elements: []Element{
				&Literal{Text: "^x"},
			}},
		},
		"Escaped braces": {
			format: "@{{Message}}",
			expected: &Template{Elements: []Element{
				&Literal{Text: "{Message}"},
			}},
		},
		"Exists then plain": {
			format: "@^{Message}{Function}",
			expected: &Template{Elements: []Element{
				&AttributeRef{Conditions: []Condition{{Kind: Exists, Key: entries.Message}}, Key: entries.Message},
				&AttributeRef{Key: entries.Function},
			}},
		},
		"Odd run before attribute": {
			format: "@^^^{Message}",
			expected: &Template{Elements: []Element{
				&Literal{Text: "^"},
				&AttributeRef{Conditions: []Condition{{Kind: Exists, Key: entries.Message}}, Key: entries.Message},
			}},
		},
		"Odd brace run": {
			format: "@{{{Message}",
			expected: &Template{Elements: []Element{
				&Literal{Text: "{"},
				&AttributeRef{Key: entries.Message},
			}},
		},
		"Condition chain": {
			format: "@^$^{Function}",
			expected: &Template{Elements: []Element{
				&AttributeRef{Conditions: []Condition{
					{Kind: Exists, Key: entries.Function},
					{Kind: ValueChanged, Key: entries.Function},
				}, Key: entries.Function},
			}},
		},
		"Entry condition": {
			format: "@+{Message}",
			expected: &Template{EntryCondition: ValidLog, Elements: []Element{
				&AttributeRef{Key: entries.Message},
			}},
		},
		"Entry and attribute condition": {
			format: "@-+{Message}",
			expected: &Template{EntryCondition: InvalidLog, Elements: []Element{
				&AttributeRef{Conditions: []Condition{{Kind: ValidLog, Key: entries.Message}}, Key: entries.Message},
			}},
		},
		"Escaped entry condition": {
			format: "@++{Message}",
			expected: &Template{Elements: []Element{
				&Literal{Text: "+"},
				&AttributeRef{Key: entries.Message},
			}},
		},
		"Format": {
			format: "@[{Level|<{}>}] {Message|hello {} and {}}",
			expected: &Template{Elements: []Element{
				&Literal{Text: "["},
				&AttributeRef{Key: entries.Level, Format: strPtr("<{}>")},
				&Literal{Text: "] "},
				&AttributeRef{Key: entries.Message, Format: strPtr("hello {} and {}")},
			}},
		},
		"Format with escaped braces": {
			format: "@{Message|{{}}}}",
			expected: &Template{Elements: []Element{
				&AttributeRef{Key: entries.Message, Format: strPtr("{{}")},
				&Literal{Text: "}"},
			}},
		},
		"Format with markers": {
			format: "@{Message|a--b$c}",
			expected: &Template{Elements: []Element{
				&AttributeRef{Key: entries.Message, Format: strPtr("a-b$c")},
			}},
		},
		"Fallback": {
			format: `@{Function}!"Oh hai"`,
			expected: &Template{Elements: []Element{
				&AttributeRef{Key: entries.Function, Fallback: &Fallback{
					Text:  "Oh hai",
					Parts: []Element{&Literal{Text: "Oh hai"}},
				}},
			}},
		},
		"Fallback with quotes": {
			format: `@{Function}!"say ""hi"""!`,
			expected: &Template{Elements: []Element{
				&AttributeRef{Key: entries.Function, Fallback: &Fallback{
					Text:  `say "hi"`,
					Parts: []Element{&Literal{Text: `say "hi"`}},
				}},
				&Literal{Text: "!"},
			}},
		},
		"Fallback with attributes": {
			format: `@{Function}!"at {Timestamp}: {Nope} {Message}"`,
			expected: &Template{Elements: []Element{
				&AttributeRef{Key: entries.Function, Fallback: &Fallback{
					Text: "at {Timestamp}: {Nope} {Message}",
					Parts: []Element{
						&Literal{Text: "at "},
						&AttributeRef{Key: entries.Timestamp},
						&Literal{Text: ": {Nope} "},
						&AttributeRef{Key: entries.Message},
					},
				}},
			}},
		},
		"Escaped modifier": {
			format: `@{Function}!!"x"`,
			expected: &Template{Elements: []Element{
				&AttributeRef{Key: entries.Function},
				&Literal{Text: `!"x"`},
			}},
		},
		"Modifier without quote": {
			format: `@{Function}!x`,
			expected: &Template{Elements: []Element{
				&AttributeRef{Key: entries.Function},
				&Literal{Text: `!x`},
			}},
		},
		"Only marker": {
			format:   "@",
			expected: &Template{},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			tmpl, err := Parse(tc.format)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tmpl)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]struct {
		format   string
		expected error
		position string
	}{
		"Empty": {
			format:   "",
			expected: ErrMissingTemplateMarker,
			position: "position 1",
		},
		"No marker": {
			format:   "{Message}",
			expected: ErrMissingTemplateMarker,
			position: "position 1",
		},
		"Unknown attribute": {
			format:   "@{Nope}",
			expected: ErrUnknownAttribute,
			position: "position 3",
		},
		"Case sensitive attribute": {
			format:   "@x{message}",
			expected: ErrUnknownAttribute,
			position: "position 4",
		},
		"Unterminated reference": {
			format:   "@ab{Message",
			expected: ErrUnterminatedAttributeReference,
			position: "position 4",
		},
		"Unterminated format": {
			format:   "@{Message|abc",
			expected: ErrUnterminatedAttributeReference,
			position: "position 2",
		},
		"Dangling conditions are literal": {
			format:   "@^$",
			expected: nil,
		},
		"Unterminated quote": {
			format:   `@{Message}!"abc`,
			expected: ErrUnterminatedQuotedModifier,
			position: "position 11",
		},
		"Duplicate entry condition": {
			format:   "@+-text",
			expected: ErrDuplicateEntryCondition,
			position: "position 3",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.format)
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.expected)
			assert.ErrorContains(t, err, tc.position)
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	formats := []string{
		"@@++--^^$$~~!!{{}}",
		`@+[{Timestamp}] ^{Message|msg={}}$~{Function}!"none ""here"""`,
	}
	for _, name := range Presets() {
		format, ok := PresetFormat(name)
		require.True(t, ok)
		formats = append(formats, format)
	}

	for _, format := range formats {
		first, err := Parse(format)
		require.NoError(t, err, format)
		second, err := Parse(format)
		require.NoError(t, err, format)
		assert.Equal(t, first, second)
	}
}
