package plugin

import (
	"context"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestRegistration_AllDocs(t *testing.T) {
	reg := NewRegistration()
	newTestPlugin().Register(reg)

	expectedDocs := `Sources:
  test.Empty

  test.Source

  Returns test data.

Sinks:
  test.Sink

  Collects lines in memory.

`
	assert.Equal(t, expectedDocs, reg.AllDocs())
}

func TestRegistration_Lookup(t *testing.T) {
	reg := NewRegistration()
	newTestPlugin().Register(reg)

	src, doc, ok := reg.Source("test", "Source")
	require.True(t, ok)
	assert.Equal(t, "test.Source\n\nReturns test data.", doc)
	iter, err := src(context.Background())
	require.NoError(t, err)
	entry, _, err := iter.Next()
	require.NoError(t, err)
	msg, _ := entry.AsString(entries.Message)
	assert.Equal(t, "a", msg)

	_, doc, ok = reg.Source("test", "Empty")
	assert.True(t, ok)
	assert.Equal(t, "test.Empty", doc, "Undocumented classes should use the class reference as documentation")

	_, _, ok = reg.Source("test", "Sink")
	assert.False(t, ok)
	_, _, ok = reg.Sink("other", "Sink")
	assert.False(t, ok)

	sinkFn, _, ok := reg.Sink("test", "Sink")
	require.True(t, ok)
	sink, err := sinkFn(context.Background())
	require.NoError(t, err)
	assert.NoError(t, sink.WriteLine("x"))
}

func TestRegistration_Empty(t *testing.T) {
	assert.Equal(t, "Sources:\n  None\nSinks:\n  None\n", NewRegistration().AllDocs())
}

func TestParseSpec(t *testing.T) {
	tests := map[string]struct {
		text     string
		expected Spec
		err      error
	}{
		"No args": {
			text:     "std.In",
			expected: Spec{Qualifier: "std", Class: "In"},
		},
		"Args": {
			text:     " sqlite.Table:logs.db, entries ",
			expected: Spec{Qualifier: "sqlite", Class: "Table", Args: []string{"logs.db", "entries"}},
		},
		"Empty arg": {
			text:     "file.File:",
			expected: Spec{Qualifier: "file", Class: "File", Args: []string{""}},
		},
		"Missing class": {
			text: "std",
			err:  ErrBadClass,
		},
		"Empty qualifier": {
			text: ".In",
			err:  ErrBadClass,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			spec, err := ParseSpec(tc.text)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, spec)
		})
	}
	assert.Equal(t, "sqlite.Table:a.db,t", Spec{Qualifier: "sqlite", Class: "Table", Args: []string{"a.db", "t"}}.String())
}

var _ Plugin = (*testPlugin)(nil)

type testPlugin struct{}

func newTestPlugin() Plugin {
	return new(testPlugin)
}

func (*testPlugin) ID() string {
	return "test"
}

func (*testPlugin) Register(reg *Registration) {
	reg.RegisterSource("test", "Empty", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		return iterator.Empty(), nil
	})
	reg.RegisterSource("test", "Source", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		return iterator.FromSlice([]entries.LogEntry{
			entries.New(map[entries.Key]any{entries.Message: "a"}),
			entries.New(map[entries.Key]any{entries.Message: "b"}),
			entries.New(map[entries.Key]any{entries.Message: "c"}),
		}), nil
	})
	reg.DocumentSource("test", "Source", `test.Source

Returns test data.`)
	reg.RegisterSink("test", "Sink", func(ctx context.Context, args ...string) (render.Sink, error) {
		return new(render.SliceSink), nil
	})
	reg.DocumentSink("test", "Sink", `test.Sink

Collects lines in memory.`)
}

func (*testPlugin) Stopping() error {
	return nil
}
