package store

import (
	"context"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/pkg/render"
	"github.com/saylorsolutions/logprint/plugin"
	"strings"
	"sync"
)

var _ plugin.Plugin = (*sqlitePlugin)(nil)

func Plugin(log hclog.Logger) plugin.Plugin {
	return &sqlitePlugin{
		log:        log,
		storeCache: map[string]*SqliteStore{},
	}
}

type sqlitePlugin struct {
	log        hclog.Logger
	mux        sync.Mutex
	storeCache map[string]*SqliteStore
}

func (p *sqlitePlugin) ID() string {
	return "sqlite"
}

// Stopping closes every store opened by this plugin.
func (p *sqlitePlugin) Stopping() error {
	p.mux.Lock()
	defer p.mux.Unlock()
	var closeErrors []string
	for file, store := range p.storeCache {
		if err := store.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("%v: file: %s", err, file))
		}
		delete(p.storeCache, file)
	}
	if len(closeErrors) == 0 {
		return nil
	}
	return errors.New("error closing SQLite plugin: " + strings.Join(closeErrors, ", "))
}

func (p *sqlitePlugin) store(file string) (*SqliteStore, error) {
	p.mux.Lock()
	defer p.mux.Unlock()
	store, ok := p.storeCache[file]
	if ok {
		return store, nil
	}
	store, err := NewStore(p.log, file)
	if err != nil {
		return nil, err
	}
	p.storeCache[file] = store
	return store, nil
}

func fileAndTable(args []string) (string, string, error) {
	if len(args) < 2 {
		return "", "", fmt.Errorf("%w: requires 2 arguments", plugin.ErrArgs)
	}
	file := args[0]
	if file == "" {
		return "", "", fmt.Errorf("%w: file name string must be specified as first argument", plugin.ErrArgs)
	}
	table := args[1]
	if table == "" {
		return "", "", fmt.Errorf("%w: table name string must be specified as second argument", plugin.ErrArgs)
	}
	return file, table, nil
}

func (p *sqlitePlugin) Register(reg *plugin.Registration) {
	reg.RegisterSource("sqlite", "Table", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		file, table, err := fileAndTable(args)
		if err != nil {
			return nil, err
		}
		store, err := p.store(file)
		if err != nil {
			return nil, err
		}
		return store.CtxQueryEntries(ctx, table)
	})
	reg.DocumentSource("sqlite", "Table", `sqlite.Table:FILE_NAME,TABLE_NAME

This source will query all entries from a table populated with 'logprint ingest', in timestamp order.
Entries with the same timestamp are returned in the order they were ingested.
The TABLE_NAME argument may be prefixed with a schema name like "my_schema.my_table".`)
	reg.RegisterSink("sqlite", "Lines", func(ctx context.Context, args ...string) (render.Sink, error) {
		file, table, err := fileAndTable(args)
		if err != nil {
			return nil, err
		}
		store, err := p.store(file)
		if err != nil {
			return nil, err
		}
		sink, err := store.LineSink(ctx, table)
		if err != nil {
			return nil, err
		}
		return sink, nil
	})
	reg.DocumentSink("sqlite", "Lines", `sqlite.Lines:FILE_NAME,TABLE_NAME

This sink will store each printed line as a row in the SQLite database table specified.
If the table does not exist, then it will be created with an integer primary key column called line_id, and a text column called line.`)
}
