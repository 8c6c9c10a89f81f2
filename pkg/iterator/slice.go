package iterator

import (
	"github.com/saylorsolutions/logprint/pkg/entries"
)

var _ Iterator = (*entrySlice)(nil)

type entrySlice struct {
	entries []entries.LogEntry
	next    int
}

func (e *entrySlice) Next() (entries.LogEntry, int, error) {
	cur := e.next
	if len(e.entries) > cur {
		e.next += 1
		return e.entries[cur], cur, nil
	}
	return End()
}

func (e *entrySlice) Iterate(iter func(entry entries.LogEntry, i int) error) error {
	return iterate(e, iter)
}
