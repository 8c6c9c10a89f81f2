package iterator

import (
	"errors"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

var base = time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)

func timedEntry(sec int, msg string) entries.LogEntry {
	return entries.New(map[entries.Key]any{
		entries.Timestamp: base.Add(time.Duration(sec) * time.Second),
		entries.Message:   msg,
	})
}

func collect(t *testing.T, iter Iterator) []string {
	t.Helper()
	var msgs []string
	require.NoError(t, iter.Iterate(func(entry entries.LogEntry, i int) error {
		msgs = append(msgs, msgOf(t, entry))
		return nil
	}))
	return msgs
}

func TestSorted(t *testing.T) {
	iter := Sorted(FromSlice([]entries.LogEntry{
		timedEntry(3, "C"),
		timedEntry(1, "A1"),
		timedEntry(2, "B"),
		timedEntry(1, "A2"),
	}))
	assert.Equal(t, []string{"A1", "A2", "B", "C"}, collect(t, iter))
}

func TestSorted_Error(t *testing.T) {
	boom := errors.New("boom")
	iter := Sorted(Func(func() (entries.LogEntry, int, error) {
		return Err(boom)
	}))
	_, _, err := iter.Next()
	assert.ErrorIs(t, err, boom)
	_, _, err = iter.Next()
	assert.ErrorIs(t, err, boom, "Failure should be sticky")
}

func TestMergeOrdered(t *testing.T) {
	valid := FromSlice([]entries.LogEntry{
		timedEntry(1, "valid-1"),
		timedEntry(3, "valid-3"),
		timedEntry(5, "valid-5"),
	})
	failed := FromSlice([]entries.LogEntry{
		timedEntry(0, "failed-0"),
		timedEntry(3, "failed-3"),
		timedEntry(6, "failed-6"),
	})
	merged := MergeOrdered(valid, failed)
	assert.Equal(t, []string{"failed-0", "valid-1", "valid-3", "failed-3", "valid-5", "failed-6"}, collect(t, merged))
}

func TestMergeOrdered_Indexes(t *testing.T) {
	merged := MergeOrdered(Empty(), FromSlice([]entries.LogEntry{timedEntry(0, "A"), timedEntry(1, "B")}))
	_, i, err := merged.Next()
	assert.NoError(t, err)
	assert.Equal(t, 0, i)
	_, i, err = merged.Next()
	assert.NoError(t, err)
	assert.Equal(t, 1, i)
	_, _, err = merged.Next()
	assert.ErrorIs(t, err, ErrAtEnd)
}
