package iterator

import (
	"github.com/saylorsolutions/logprint/pkg/entries"
	"sort"
)

// Sorted reads all entries from iter and returns them in ascending timestamp order.
// Entries with equal timestamps keep the order they were read in.
// The wrapped Iterator is not read until the first call to Next.
func Sorted(iter Iterator) Iterator {
	var (
		sorted Iterator
		failed error
	)
	return Func(func() (entries.LogEntry, int, error) {
		if failed != nil {
			return Err(failed)
		}
		if sorted == nil {
			var all []entries.LogEntry
			if err := iter.Iterate(func(entry entries.LogEntry, _ int) error {
				all = append(all, entry)
				return nil
			}); err != nil {
				failed = err
				Drain(iter)
				return Err(err)
			}
			sort.SliceStable(all, func(i, j int) bool {
				return all[i].Timestamp().Before(all[j].Timestamp())
			})
			sorted = FromSlice(all)
		}
		return sorted.Next()
	})
}

// MergeOrdered combines two Iterators that are each already in timestamp order into one ordered Iterator.
// When timestamps are equal, the entry from a is returned first.
func MergeOrdered(a, b Iterator) Iterator {
	var (
		idx          int
		aHead, bHead *entries.LogEntry
		aDone, bDone bool
	)
	pull := func(iter Iterator, head **entries.LogEntry, done *bool) error {
		if *done || *head != nil {
			return nil
		}
		entry, _, err := iter.Next()
		if err != nil {
			if IsEnd(err) {
				*done = true
				return nil
			}
			return err
		}
		*head = &entry
		return nil
	}
	return Func(func() (entries.LogEntry, int, error) {
		if err := pull(a, &aHead, &aDone); err != nil {
			return Err(err)
		}
		if err := pull(b, &bHead, &bDone); err != nil {
			return Err(err)
		}
		var next entries.LogEntry
		switch {
		case aHead == nil && bHead == nil:
			return End()
		case bHead == nil:
			next, aHead = *aHead, nil
		case aHead == nil:
			next, bHead = *bHead, nil
		case bHead.Timestamp().Before(aHead.Timestamp()):
			next, bHead = *bHead, nil
		default:
			next, aHead = *aHead, nil
		}
		cur := idx
		idx++
		return next, cur, nil
	})
}
