package store

import (
	"context"
	"github.com/hashicorp/go-hclog"
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

var baseTime = time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)

func TestSqliteStore_Sink(t *testing.T) {
	iter := iterator.FromSlice([]entries.LogEntry{
		entries.New(map[entries.Key]any{
			entries.Timestamp: baseTime.Add(time.Second),
			entries.Message:   "B",
			entries.ThreadID:  int64(7),
		}),
		entries.NewInvalid(map[entries.Key]any{
			entries.Timestamp: baseTime,
			entries.Message:   "garbage",
		}),
		entries.New(map[entries.Key]any{
			entries.Timestamp: baseTime.Add(time.Second),
			entries.Message:   "C",
			entries.Function:  "main",
		}),
	})
	log := hclog.Default()
	log.SetLevel(hclog.Debug)
	store, cleanup := _tempStore(t, log)
	defer cleanup()
	n, err := store.Sink(iter, "test")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	result, err := store.QueryEntries("test")
	require.NoError(t, err)
	var got []entries.LogEntry
	require.NoError(t, result.Iterate(func(entry entries.LogEntry, _ int) error {
		got = append(got, entry)
		return nil
	}))
	require.Len(t, got, 3)

	msg, _ := got[0].AsString(entries.Message)
	assert.Equal(t, "garbage", msg, "Entries should be returned in timestamp order")
	assert.False(t, got[0].IsValid())
	assert.Equal(t, baseTime, got[0].Timestamp())

	msg, _ = got[1].AsString(entries.Message)
	assert.Equal(t, "B", msg, "Ties should be returned in the order they were stored")
	assert.True(t, got[1].IsValid())
	id, err := got[1].Get(entries.ThreadID)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.False(t, got[1].Has(entries.Function))

	msg, _ = got[2].AsString(entries.Message)
	assert.Equal(t, "C", msg)
}

func TestSqliteStore_EmptyTable(t *testing.T) {
	store, cleanup := _tempStore(t, hclog.NewNullLogger())
	defer cleanup()
	result, err := store.QueryEntries("nothing")
	require.NoError(t, err)
	_, _, err = result.Next()
	assert.ErrorIs(t, err, iterator.ErrAtEnd)
}

func TestSqliteStore_BadTable(t *testing.T) {
	store, cleanup := _tempStore(t, hclog.NewNullLogger())
	defer cleanup()
	_, err := store.QueryEntries("x; drop table y")
	assert.ErrorIs(t, err, ErrBadTable)
	_, err = store.Sink(iterator.Empty(), "bad-name")
	assert.ErrorIs(t, err, ErrBadTable)
	_, err = store.LineSink(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadTable)
}

func TestSqliteStore_LineSink(t *testing.T) {
	store, cleanup := _tempStore(t, hclog.NewNullLogger())
	defer cleanup()
	sink, err := store.LineSink(context.Background(), "printed")
	require.NoError(t, err)
	assert.NoError(t, sink.WriteLine("A"))
	assert.NoError(t, sink.WriteLine("B"))
	assert.NoError(t, sink.Flush())
	assert.NoError(t, sink.Close())

	lines, err := store.QueryLines(context.Background(), "printed")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, lines)
}

func TestPlugin(t *testing.T) {
	td, err := os.MkdirTemp("", "logprint-sqlite-plugin-*")
	require.NoError(t, err)
	defer func() {
		_ = os.RemoveAll(td)
	}()
	file := filepath.Join(td, "plugin.db")

	p := Plugin(hclog.NewNullLogger())
	reg := plugin.NewRegistration()
	p.Register(reg)

	src, _, ok := reg.Source("sqlite", "Table")
	require.True(t, ok)
	_, err = src(context.Background(), file)
	assert.ErrorIs(t, err, plugin.ErrArgs)
	iter, err := src(context.Background(), file, "entries")
	require.NoError(t, err)
	_, _, err = iter.Next()
	assert.ErrorIs(t, err, iterator.ErrAtEnd)

	sinkFn, _, ok := reg.Sink("sqlite", "Lines")
	require.True(t, ok)
	_, err = sinkFn(context.Background(), "", "lines")
	assert.ErrorIs(t, err, plugin.ErrArgs)
	sink, err := sinkFn(context.Background(), file, "lines")
	require.NoError(t, err)
	assert.NoError(t, sink.WriteLine("x"))

	assert.NoError(t, p.Stopping())
	assert.NoError(t, p.Stopping(), "Stopping twice should be harmless")
}

func _tempStore(t *testing.T, log hclog.Logger) (*SqliteStore, func()) {
	td, err := os.MkdirTemp("", "_tempStore-*")
	require.NoError(t, err)
	t.Log("Using temp store:", td)
	store, err := NewStore(log, filepath.Join(td, "store.db"))
	if err != nil {
		_ = os.RemoveAll(td)
		t.Fatal("Failed to create new store:", err)
	}

	return store, func() {
		if err := store.Close(); err != nil {
			t.Error("Failed to close DB")
		}
		if err := os.RemoveAll(td); err != nil {
			t.Error("Failed to remove temp dir:", err)
		}
	}
}
