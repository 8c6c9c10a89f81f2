package iterator

import (
	"context"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"sync"
)

// Filter wraps an Iterator with a function that - when it returns true - will allow the return values of Next through.
// If the wrapped Iterator returns a non-nil error, then it will be passed through.
func Filter(iter Iterator, filter func(entry entries.LogEntry, i int) bool) Iterator {
	return Func(func() (entries.LogEntry, int, error) {
		for {
			entry, idx, err := iter.Next()
			if err != nil {
				return entry, idx, err
			}
			if filter(entry, idx) {
				return entry, idx, nil
			}
		}
	})
}

// Cancellable wraps an iterator and makes it cancellable by context.
// Once the context is cancelled, Next reports the end of iteration and the wrapped Iterator is forwarded to Drain.
func Cancellable(ctx context.Context, iter Iterator) Iterator {
	var drain sync.Once
	return Func(func() (entries.LogEntry, int, error) {
		select {
		case <-ctx.Done():
			drain.Do(func() {
				Drain(iter)
			})
			return End()
		default:
		}
		return iter.Next()
	})
}

// Concat will return entries from next after base has been exhausted.
func Concat(base, next Iterator) Iterator {
	var idx int
	return Func(func() (entries.LogEntry, int, error) {
		e, i, err := base.Next()
		if err != nil {
			if IsEnd(err) {
				e, i, err := next.Next()
				if err != nil {
					return e, i, err
				}
				return e, i + idx, err
			}
			return e, i, err
		}
		idx++
		return e, i, err
	})
}
