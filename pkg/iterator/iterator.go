package iterator

import (
	"errors"
	"github.com/saylorsolutions/logprint/pkg/entries"
)

var (
	ErrAtEnd = errors.New("end of iteration")
)

// Iterator is an ordered source of log entries.
type Iterator interface {
	// Next returns the next LogEntry and its offset in the stream.
	// Returns ErrAtEnd if the end of the stream is reached.
	Next() (entries.LogEntry, int, error)
	// Iterate will progress through all LogEntry items in the stream, calling iter for each one along with the offset.
	// If iter returns ErrAtEnd, then iteration will cease, returning nil.
	// If any other error is returned, then iteration will cease, and the error will be returned.
	Iterate(iter func(entry entries.LogEntry, i int) error) error
}

var _ Iterator = (Func)(nil)

// Func adapts a plain function to the Iterator interface.
type Func func() (entries.LogEntry, int, error)

func (f Func) Next() (entries.LogEntry, int, error) {
	return f()
}

func (f Func) Iterate(iter func(entry entries.LogEntry, i int) error) error {
	return iterate(f, iter)
}

func iterate(src Iterator, iter func(entry entries.LogEntry, i int) error) error {
	for {
		entry, i, err := src.Next()
		if err != nil {
			if IsEnd(err) {
				return nil
			}
			return err
		}
		if err := iter(entry, i); err != nil {
			if IsEnd(err) {
				return nil
			}
			return err
		}
	}
}

// End returns the values an Iterator produces once it's exhausted.
func End() (entries.LogEntry, int, error) {
	return entries.LogEntry{}, -1, ErrAtEnd
}

// Err returns the values an Iterator produces when it fails.
func Err(err error) (entries.LogEntry, int, error) {
	return entries.LogEntry{}, -1, err
}

func IsEnd(err error) bool {
	return errors.Is(err, ErrAtEnd)
}

// Empty returns an Iterator with no entries.
func Empty() Iterator {
	return Func(End)
}

func FromSlice(entries []entries.LogEntry) Iterator {
	return &entrySlice{entries: entries}
}

func FromChannel(entries <-chan entries.LogEntry) Iterator {
	return &entryChannel{ch: entries}
}

// AsChannel exposes an Iterator as a channel, which is closed once the Iterator is exhausted or fails.
func AsChannel(iter Iterator) <-chan entries.LogEntry {
	if chi, ok := iter.(*entryChannel); ok {
		return chi.ch
	}
	if chs, ok := iter.(*entrySlice); ok {
		remaining := chs.entries[chs.next:]
		ch := make(chan entries.LogEntry, len(remaining))
		defer close(ch)
		for _, e := range remaining {
			ch <- e
		}
		chs.next = len(chs.entries)
		return ch
	}
	ch := make(chan entries.LogEntry)
	go func() {
		defer close(ch)
		_ = iter.Iterate(func(entry entries.LogEntry, i int) error {
			ch <- entry
			return nil
		})
	}()
	return ch
}

// Drain will drain all entries from an Iterator in a new goroutine.
// This can be useful as an error fallback in case of an iteration error to prevent upstream blocking.
func Drain(iter Iterator) {
	ch := AsChannel(iter)
	go func() {
		for range ch {
		}
	}()
}
