package store

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"strconv"
	"strings"
	"time"
)

const (
	createEntryTable = `
create table if not exists %s (
	evt_id integer primary key,
	ts integer not null,
	valid integer not null,
	%s
)`
	createEntryIndex = `create index if not exists %s_ts on %s (ts, evt_id)`
	selectEntries    = `select valid, %s from %s order by ts, evt_id`
	insertEntry      = `insert into %s (ts, valid, %s) values (?, ?, %s)`

	createLineTable = `
create table if not exists %s (
	line_id integer primary key,
	line text not null
)`
	insertLine = `insert into %s (line) values (?)`
)

var (
	ErrUnexpectedColumnType = errors.New("unexpected column type")
)

// entryColumns is every column holding an attribute value, in key order.
// Timestamp is kept as text so its value comes back exactly as it was stored.
func entryColumns() []string {
	keys := entries.AllKeys()
	cols := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = `"` + k.String() + `"`
	}
	return cols
}

func createEntryTableQuery(table string) string {
	cols := entryColumns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c + " text null"
	}
	return fmt.Sprintf(createEntryTable, table, strings.Join(defs, ",\n\t"))
}

func createEntryIndexQuery(table string) string {
	return fmt.Sprintf(createEntryIndex, strings.ReplaceAll(table, ".", "_"), table)
}

func selectEntriesQuery(table string) string {
	return fmt.Sprintf(selectEntries, strings.Join(entryColumns(), ", "), table)
}

func insertEntryQuery(table string) string {
	cols := entryColumns()
	params := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf(insertEntry, table, strings.Join(cols, ", "), params)
}

// entryArgs returns the insert arguments for entry, matching insertEntryQuery.
func entryArgs(entry entries.LogEntry) []any {
	keys := entries.AllKeys()
	args := make([]any, 0, len(keys)+2)
	valid := 0
	if entry.IsValid() {
		valid = 1
	}
	args = append(args, entry.Timestamp().UnixNano(), valid)
	for _, k := range keys {
		v, ok := entry.AsString(k)
		if !ok {
			args = append(args, nil)
			continue
		}
		args = append(args, v)
	}
	return args
}

func newQueryIterator(log hclog.Logger, rows *sql.Rows) iterator.Iterator {
	var (
		rowNum int
		keys   = entries.AllKeys()
	)
	return iterator.Func(func() (entries.LogEntry, int, error) {
		if !rows.Next() {
			err := rows.Err()
			_ = rows.Close()
			if err != nil {
				log.Error("Failed to read rows", "error", err)
				return iterator.Err(err)
			}
			return iterator.End()
		}
		var valid int
		vals := make([]any, len(keys)+1)
		vals[0] = &valid
		for i := range keys {
			vals[i+1] = &sql.NullString{}
		}
		if err := rows.Scan(vals...); err != nil {
			_ = rows.Close()
			log.Error("Failed to scan row", "error", err, "row", rowNum)
			return iterator.Err(err)
		}

		fields := make(map[entries.Key]any, len(keys))
		for i, k := range keys {
			s, ok := vals[i+1].(*sql.NullString)
			if !ok {
				_ = rows.Close()
				return iterator.Err(fmt.Errorf("%w: %T", ErrUnexpectedColumnType, vals[i+1]))
			}
			if !s.Valid {
				continue
			}
			fields[k] = columnValue(k, s.String)
		}
		cur := rowNum
		rowNum++
		if valid == 0 {
			return entries.NewInvalid(fields), cur, nil
		}
		return entries.New(fields), cur, nil
	})
}

// columnValue converts stored text back to the type the attribute had when it was extracted.
func columnValue(k entries.Key, s string) any {
	switch {
	case k == entries.Timestamp:
		if t, err := time.Parse(entries.TimeFormat, s); err == nil {
			return t.UTC()
		}
	case k.IsInteger():
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
	}
	return s
}
