// Package runtime connects plugin sources and sinks to the print mode renderer.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/pkg/printmode"
	"github.com/saylorsolutions/logprint/pkg/render"
	"github.com/saylorsolutions/logprint/plugin"
	"github.com/saylorsolutions/logprint/plugin/store"
	"io"
	"sync"
	"time"
)

var (
	ErrInvalidState  = errors.New("invalid state")
	ErrUnknownSource = errors.New("unknown source class")
	ErrUnknownSink   = errors.New("unknown sink class")
)

type runtimeState int

const (
	created runtimeState = iota
	started
	stopping
	done
)

var (
	stateStrings = map[runtimeState]string{
		created:  "Created",
		started:  "Started",
		stopping: "Stopping",
		done:     "Done",
	}
)

func (s runtimeState) String() string {
	return stateStrings[s]
}

// PrintJob describes a single render pass from a source to a sink.
type PrintJob struct {
	// Mode is a preset name or a template starting with '@'. Empty means the General preset.
	Mode string
	// Source and Sink are plugin class references, like "file.File:app.log".
	Source string
	Sink   string
	// BufferSize is how many rendered lines may wait to be written. Zero uses render.DefaultBufferSize.
	BufferSize int
	// Since skips entries with a Timestamp before it, unless it's zero.
	Since time.Time
}

type Runtime struct {
	log      hclog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	registry *plugin.Registration
	plugins  []plugin.Plugin
	wg       sync.WaitGroup
	mux      sync.Mutex
	state    runtimeState
}

func NewRuntime(log hclog.Logger, plugins ...plugin.Plugin) *Runtime {
	return &Runtime{
		log:      log.Named("runtime"),
		registry: plugin.NewRegistration(),
		plugins:  plugins,
	}
}

func (r *Runtime) Start(_ctx context.Context) error {
	start := time.Now()
	log := r.log
	log.Debug("Starting runtime")
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.state != created {
		err := fmt.Errorf("%w: invalid state for start operation: %s", ErrInvalidState, r.state)
		log.Error("Invalid state to start", "error", err)
		return err
	}
	log.Debug("Registering plugins")
	r.ctx, r.cancel = context.WithCancel(_ctx)
	for _, p := range r.plugins {
		start := time.Now()
		log := log.With("plugin-id", p.ID())
		log.Debug("Registering plugin")
		p.Register(r.registry)
		log.Debug("Done registering plugin", "duration", time.Since(start).String())
	}
	r.state = started
	log.Debug("Runtime started", "start-duration", time.Since(start).String())
	return nil
}

// Stop cancels any print in progress, waits for it to flush, and shuts down plugins.
func (r *Runtime) Stop() (rerr error) {
	start := time.Now()
	log := r.log
	log.Debug("Stopping runtime")
	r.mux.Lock()
	if r.state != started {
		r.mux.Unlock()
		err := fmt.Errorf("%w: invalid state for stop operation: %s", ErrInvalidState, r.state)
		log.Error("Invalid state to stop runtime", "error", err)
		return err
	}
	r.state = stopping
	r.mux.Unlock()

	log.Debug("Cancelling runtime context")
	r.cancel()
	log.Debug("Waiting for operations to cease")
	r.wg.Wait()
	log.Debug("Shutting down plugins")
	for _, p := range r.plugins {
		log := log.With("plugin-id", p.ID())
		log.Debug("Stopping plugin")
		if err := p.Stopping(); err != nil {
			log.Error("Error stopping plugin", "error", err)
			if rerr == nil {
				rerr = err
			}
		}
	}
	r.mux.Lock()
	r.state = done
	r.mux.Unlock()
	log.Debug("Runtime stopped", "stop-duration", time.Since(start).String())
	return rerr
}

// Docs returns documentation for every source and sink known to the runtime.
func (r *Runtime) Docs() string {
	return r.registry.AllDocs()
}

// begin registers an operation so Stop waits for it.
func (r *Runtime) begin(op string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.state != started {
		return fmt.Errorf("%w: invalid state for %s operation: %s", ErrInvalidState, op, r.state)
	}
	r.wg.Add(1)
	return nil
}

// Vet checks that a PrintJob could run without opening its source or sink.
// Returns the parsed Template.
func (r *Runtime) Vet(job PrintJob) (*printmode.Template, error) {
	if err := r.begin("vet"); err != nil {
		return nil, err
	}
	defer r.wg.Done()
	log := r.log.With("source", job.Source, "sink", job.Sink)

	tmpl, err := printmode.Load(job.Mode)
	if err != nil {
		log.Error("Invalid print mode", "error", err)
		return nil, err
	}
	if job.Source != "" {
		if _, _, err := r.sourceFunc(job.Source); err != nil {
			log.Error("Invalid source", "error", err)
			return nil, err
		}
	}
	if job.Sink != "" {
		if _, _, err := r.sinkFunc(job.Sink); err != nil {
			log.Error("Invalid sink", "error", err)
			return nil, err
		}
	}
	return tmpl, nil
}

// Print renders every entry from the job's source to its sink.
// The print mode is loaded before anything is opened, so an invalid mode fails without side effects.
// Returns the number of lines written.
func (r *Runtime) Print(job PrintJob) (int, error) {
	if err := r.begin("print"); err != nil {
		return 0, err
	}
	defer r.wg.Done()
	start := time.Now()
	log := r.log.With("source", job.Source, "sink", job.Sink)

	tmpl, err := printmode.Load(job.Mode)
	if err != nil {
		log.Error("Invalid print mode", "error", err)
		return 0, err
	}
	// Sources and sinks are opened for this print only, and stop when it returns.
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()
	src, err := r.openSource(ctx, job.Source)
	if err != nil {
		log.Error("Failed to open source", "error", err)
		return 0, err
	}
	sink, err := r.openSink(ctx, job.Sink)
	if err != nil {
		log.Error("Failed to open sink", "error", err)
		iterator.Drain(src)
		return 0, err
	}
	if !job.Since.IsZero() {
		since := job.Since
		src = iterator.Filter(src, func(entry entries.LogEntry, _ int) bool {
			return !entry.Timestamp().Before(since)
		})
	}

	var opts []render.Option
	if job.BufferSize > 0 {
		opts = append(opts, render.BufferSize(job.BufferSize))
	}
	n, err := render.NewDriver(log, opts...).Render(ctx, tmpl, src, sink)
	if closer, ok := sink.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			log.Error("Failed to close sink", "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}
	if err != nil {
		return n, err
	}
	log.Debug("Print complete", "lines", n, "duration", time.Since(start).String())
	return n, nil
}

// Ingest copies every entry from each source into an entry table of a SQLite database, which may then be used with the sqlite.Table source.
// Sources are read one after the other, since the table is always read back in timestamp order.
// Returns the number of entries stored.
func (r *Runtime) Ingest(dbFile, table string, sources ...string) (int, error) {
	if err := r.begin("ingest"); err != nil {
		return 0, err
	}
	defer r.wg.Done()
	log := r.log.With("sources", sources, "db", dbFile, "table", table)
	if len(sources) == 0 {
		return 0, fmt.Errorf("%w: at least one source is required", plugin.ErrArgs)
	}

	var src iterator.Iterator
	for _, source := range sources {
		next, err := r.openSource(r.ctx, source)
		if err != nil {
			log.Error("Failed to open source", "source", source, "error", err)
			if src != nil {
				iterator.Drain(src)
			}
			return 0, err
		}
		if src == nil {
			src = next
			continue
		}
		src = iterator.Concat(src, next)
	}
	db, err := store.NewStore(r.log, dbFile)
	if err != nil {
		log.Error("Failed to open store", "error", err)
		iterator.Drain(src)
		return 0, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close store", "error", err)
		}
	}()
	n, err := db.SinkCtx(r.ctx, src, table)
	if err != nil {
		log.Error("Failed to ingest entries", "error", err)
		return 0, err
	}
	log.Debug("Ingest complete", "entries", n)
	return n, nil
}

func (r *Runtime) sourceFunc(text string) (plugin.SourceFunc, plugin.Spec, error) {
	spec, err := plugin.ParseSpec(text)
	if err != nil {
		return nil, spec, err
	}
	src, _, ok := r.registry.Source(spec.Qualifier, spec.Class)
	if !ok {
		return nil, spec, fmt.Errorf("%w: %s.%s", ErrUnknownSource, spec.Qualifier, spec.Class)
	}
	return src, spec, nil
}

func (r *Runtime) sinkFunc(text string) (plugin.SinkFunc, plugin.Spec, error) {
	spec, err := plugin.ParseSpec(text)
	if err != nil {
		return nil, spec, err
	}
	sink, _, ok := r.registry.Sink(spec.Qualifier, spec.Class)
	if !ok {
		return nil, spec, fmt.Errorf("%w: %s.%s", ErrUnknownSink, spec.Qualifier, spec.Class)
	}
	return sink, spec, nil
}

func (r *Runtime) openSource(ctx context.Context, text string) (iterator.Iterator, error) {
	src, spec, err := r.sourceFunc(text)
	if err != nil {
		return nil, err
	}
	iter, err := src(ctx, spec.Args...)
	if err != nil {
		return nil, err
	}
	return iterator.Cancellable(ctx, iter), nil
}

func (r *Runtime) openSink(ctx context.Context, text string) (render.Sink, error) {
	sink, spec, err := r.sinkFunc(text)
	if err != nil {
		return nil, err
	}
	return sink(ctx, spec.Args...)
}
