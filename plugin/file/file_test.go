package file

import (
	"context"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempDir(t *testing.T) string {
	t.Helper()
	td, err := os.MkdirTemp("", "logprint-file-*")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := os.RemoveAll(td); err != nil {
			t.Error("Failed to remove temp directory:", td)
		}
	})
	return td
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func messages(t *testing.T, iter iterator.Iterator) []string {
	t.Helper()
	var msgs []string
	err := iter.Iterate(func(entry entries.LogEntry, _ int) error {
		msg, _ := entry.AsString(entries.Message)
		msgs = append(msgs, msg)
		return nil
	})
	require.NoError(t, err)
	return msgs
}

func TestFile(t *testing.T) {
	td := tempDir(t)
	path := writeLog(t, td, "app.log", `{"Timestamp":"2023-04-01T10:00:02Z","Message":"C"}
{"Timestamp":"2023-04-01T10:00:00Z","Message":"A","Function":"main"}

{"Timestamp":"2023-04-01T10:00:01Z","Message":"B"}
`)
	iter, err := File(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, messages(t, iter), "Entries should be sorted by timestamp, and blank lines skipped")
}

func TestFile_Unstructured(t *testing.T) {
	td := tempDir(t)
	path := writeLog(t, td, "app.log", "plain text\n")
	iter, err := File(context.Background(), path)
	require.NoError(t, err)

	entry, _, err := iter.Next()
	require.NoError(t, err)
	assert.False(t, entry.IsValid())
	msg, ok := entry.AsString(entries.Message)
	assert.True(t, ok)
	assert.Equal(t, "plain text", msg)
	assert.WithinDuration(t, time.Now(), entry.Timestamp(), time.Minute, "Unstructured lines should be stamped with the read time")
	src, _ := entry.AsString(entries.LogSource)
	assert.Equal(t, "app.log", src, "Entries should be tagged with the file name")

	_, _, err = iter.Next()
	assert.ErrorIs(t, err, iterator.ErrAtEnd)
}

func TestFile_Missing(t *testing.T) {
	_, err := File(context.Background(), filepath.Join(tempDir(t), "missing.log"))
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	td := tempDir(t)
	a := writeLog(t, td, "a.log", `{"Timestamp":"2023-04-01T10:00:00Z","Message":"A"}
{"Timestamp":"2023-04-01T10:00:02Z","Message":"C"}
`)
	b := writeLog(t, td, "b.log", `{"Timestamp":"2023-04-01T10:00:01Z","Message":"B"}
{"Timestamp":"2023-04-01T10:00:03Z","Message":"D"}
`)
	iter, err := Files(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, messages(t, iter))

	iter, err = Files(context.Background())
	require.NoError(t, err)
	assert.Empty(t, messages(t, iter))
}

func TestTail(t *testing.T) {
	td := tempDir(t)
	path := writeLog(t, td, "app.log", `{"Timestamp":"2023-04-01T10:00:00Z","Message":"A"}
`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	iter, err := Tail(ctx, path)
	require.NoError(t, err)

	entry, _, err := iter.Next()
	require.NoError(t, err)
	msg, _ := entry.AsString(entries.Message)
	assert.Equal(t, "A", msg)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"Timestamp":"2023-04-01T10:00:01Z","Message":"B"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entry, _, err = iter.Next()
	require.NoError(t, err)
	msg, _ = entry.AsString(entries.Message)
	assert.Equal(t, "B", msg)

	cancel()
	_, _, err = iter.Next()
	assert.ErrorIs(t, err, iterator.ErrAtEnd, "Cancelling should end the stream")
}

func TestSink(t *testing.T) {
	td := tempDir(t)
	path := filepath.Join(td, "out.log")

	for _, line := range []string{"A", "B"} {
		sink, err := OpenSink(path, 0600)
		require.NoError(t, err)
		assert.NoError(t, sink.WriteLine(line))
		assert.NoError(t, sink.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", string(data), "Appended lines should each end with a newline")
}

func TestPlugin_Register(t *testing.T) {
	reg := plugin.NewRegistration()
	Plugin().Register(reg)

	src, _, ok := reg.Source("file", "File")
	require.True(t, ok)
	_, err := src(context.Background())
	assert.ErrorIs(t, err, plugin.ErrArgs)
	_, err = src(context.Background(), "")
	assert.ErrorIs(t, err, plugin.ErrArgs)

	sinkFn, _, ok := reg.Sink("file", "File")
	require.True(t, ok)
	_, err = sinkFn(context.Background(), filepath.Join(tempDir(t), "out.log"), "9z")
	assert.ErrorIs(t, err, plugin.ErrArgs)
	sink, err := sinkFn(context.Background(), filepath.Join(tempDir(t), "out.log"), "644")
	require.NoError(t, err)
	closer, ok := sink.(*Sink)
	require.True(t, ok)
	assert.NoError(t, closer.Close())
}
