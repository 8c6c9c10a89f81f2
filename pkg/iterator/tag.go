package iterator

import (
	"github.com/saylorsolutions/logprint/pkg/entries"
)

// Tag sets the LogSource attribute of each entry to source, unless the entry already has one.
// This makes it possible to tell where an entry came from after streams are merged.
func Tag(iter Iterator, source string) Iterator {
	return Func(func() (entries.LogEntry, int, error) {
		entry, i, err := iter.Next()
		if err != nil {
			return Err(err)
		}
		if !entry.Has(entries.LogSource) {
			entry = entry.With(entries.LogSource, source)
		}
		return entry, i, nil
	})
}
