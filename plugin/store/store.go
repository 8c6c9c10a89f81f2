package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/pkg/render"
	_ "modernc.org/sqlite"
	"regexp"
)

var (
	tablePattern = regexp.MustCompile(`^\w+(\.\w+)?$`)
	ErrBadTable  = errors.New("invalid table name")
)

// SqliteStore is a registry of log entries using SQLite as a storage engine.
// Entries are always queried in timestamp order, with ties in the order they were stored.
type SqliteStore struct {
	db  *sql.DB
	log hclog.Logger
}

// connParams lets a source and a sink use the same file at once.
const connParams = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"

func NewStore(log hclog.Logger, filename string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", filename+connParams)
	if err != nil {
		return nil, err
	}
	log = log.Named("sqlite-entry-store").With("file", filename)
	return &SqliteStore{
		db:  db,
		log: log,
	}, nil
}

func checkTable(table string) error {
	if !tablePattern.MatchString(table) {
		return fmt.Errorf("%w: %s", ErrBadTable, table)
	}
	return nil
}

// QueryEntries behaves the same as CtxQueryEntries, except that it will use context.Background as the context.
func (s *SqliteStore) QueryEntries(table string) (iterator.Iterator, error) {
	return s.CtxQueryEntries(context.Background(), table)
}

// CtxQueryEntries returns every entry stored in table, in order.
func (s *SqliteStore) CtxQueryEntries(ctx context.Context, table string) (iterator.Iterator, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := s.ensureEntryTable(ctx, table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, selectEntriesQuery(table))
	if err != nil {
		s.log.Error("Failed to query entries", "table", table, "error", err)
		return nil, err
	}
	return newQueryIterator(s.log.With("table", table), rows), nil
}

// Sink behaves the same as SinkCtx, except that it will use context.Background as the context.
func (s *SqliteStore) Sink(iter iterator.Iterator, table string) (int, error) {
	return s.SinkCtx(context.Background(), iter, table)
}

// SinkCtx stores every entry from iter in table, creating the table if necessary.
// All entries are stored in a single transaction, so either all or none of them are stored.
// In case of an error, the iterator will be drained to prevent upstream blocking.
func (s *SqliteStore) SinkCtx(ctx context.Context, iter iterator.Iterator, table string) (int, error) {
	if err := checkTable(table); err != nil {
		iterator.Drain(iter)
		return 0, err
	}
	log := s.log.With("table", table).Named("sink")
	log.Debug("Ensuring the specified table is present")
	if err := s.ensureEntryTable(ctx, table); err != nil {
		iterator.Drain(iter)
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		iterator.Drain(iter)
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, insertEntryQuery(table))
	if err != nil {
		log.Error("Failed to prepare statement", "error", err)
		_ = tx.Rollback()
		iterator.Drain(iter)
		return 0, err
	}
	defer func() {
		_ = stmt.Close()
	}()

	count := 0
	err = iter.Iterate(func(entry entries.LogEntry, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, entryArgs(entry)...); err != nil {
			log.Error("Failed to insert into table", "error", err, "offset", i)
			return err
		}
		count++
		return nil
	})
	if err != nil {
		log.Error("Error sinking to DB, draining iterator", "error", err)
		_ = tx.Rollback()
		iterator.Drain(iter)
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit", "error", err)
		return 0, err
	}
	log.Debug("Stored entries", "count", count)
	return count, nil
}

func (s *SqliteStore) ensureEntryTable(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, createEntryTableQuery(table)); err != nil {
		s.log.Error("Failed to create entry table", "table", table, "error", err)
		return err
	}
	if _, err := s.db.ExecContext(ctx, createEntryIndexQuery(table)); err != nil {
		s.log.Error("Failed to create entry index", "table", table, "error", err)
		return err
	}
	return nil
}

// LineSink opens a render.Sink that stores each printed line as a row in table.
func (s *SqliteStore) LineSink(ctx context.Context, table string) (*LineSink, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createLineTable, table)); err != nil {
		s.log.Error("Failed to create line table", "table", table, "error", err)
		return nil, err
	}
	stmt, err := s.db.PrepareContext(ctx, fmt.Sprintf(insertLine, table))
	if err != nil {
		return nil, err
	}
	return &LineSink{stmt: stmt}, nil
}

// QueryLines returns every line stored by a LineSink in table, in the order they were written.
func (s *SqliteStore) QueryLines(ctx context.Context, table string) ([]string, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "select line from "+table+" order by line_id")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

var _ render.Sink = (*LineSink)(nil)

// LineSink writes each line as soon as it's received, so Flush has nothing to do.
// Lines are written even after the context used to open the sink is cancelled, so rendered lines are never lost.
type LineSink struct {
	stmt *sql.Stmt
}

func (l *LineSink) WriteLine(line string) error {
	_, err := l.stmt.Exec(line)
	return err
}

func (l *LineSink) Flush() error {
	return nil
}

func (l *LineSink) Close() error {
	return l.stmt.Close()
}
