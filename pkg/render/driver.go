// Package render drives a print mode Template over an ordered stream of entries, writing the produced lines to a Sink.
package render

import (
	"context"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/pkg/printmode"
	"golang.org/x/sync/errgroup"
	"time"
)

const (
	DefaultBufferSize = 64
)

// Driver renders entries on one goroutine while lines are written to a Sink on another.
// Lines reach the Sink in the same order their entries were read.
type Driver struct {
	log    hclog.Logger
	buffer int
}

type Option func(d *Driver)

// BufferSize sets how many rendered lines may wait for the Sink before rendering pauses.
func BufferSize(size int) Option {
	return func(d *Driver) {
		if size >= 0 {
			d.buffer = size
		}
	}
}

func NewDriver(log hclog.Logger, opts ...Option) *Driver {
	d := &Driver{
		log:    log.Named("render"),
		buffer: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Render evaluates tmpl for every entry in src with fresh state, and writes each produced line to sink.
// Returns the number of lines written.
//
// Cancelling ctx stops reading from src, but lines that were already rendered are still written and flushed, and ctx.Err() is returned.
// If the sink fails, rendering stops and the error is returned. Lines flushed before the failure stay written.
func (d *Driver) Render(ctx context.Context, tmpl *printmode.Template, src iterator.Iterator, sink Sink) (int, error) {
	var (
		start   = time.Now()
		log     = d.log
		lines   = make(chan string, d.buffer)
		written int
	)
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		defer close(lines)
		results := readLines(printmode.NewEvaluator(tmpl).Lines(src), src, gctx.Done())
		for {
			if gctx.Err() != nil {
				log.Debug("Render stopped before the end of the source")
				return nil
			}
			var res lineResult
			select {
			case r, ok := <-results:
				if !ok {
					return nil
				}
				res = r
			case <-gctx.Done():
				log.Debug("Render stopped before the end of the source")
				return nil
			}
			if res.err != nil {
				if iterator.IsEnd(res.err) {
					return nil
				}
				log.Error("Failed to read from source", "error", res.err)
				iterator.Drain(src)
				return res.err
			}
			select {
			case lines <- res.line:
				continue
			default:
			}
			select {
			case lines <- res.line:
			case <-gctx.Done():
				log.Debug("Render stopped before the end of the source")
				return nil
			}
		}
	})
	grp.Go(func() error {
		for line := range lines {
			if err := sink.WriteLine(line); err != nil {
				log.Error("Failed to write line", "error", err, "written", written)
				return err
			}
			written++
			if len(lines) == 0 {
				// Caught up with rendering, so make output visible while waiting for more.
				if err := sink.Flush(); err != nil {
					log.Error("Failed to flush sink", "error", err)
					return err
				}
			}
		}
		if err := sink.Flush(); err != nil {
			log.Error("Failed to flush sink", "error", err)
			return err
		}
		return nil
	})
	if err := grp.Wait(); err != nil {
		return written, err
	}
	if err := ctx.Err(); err != nil {
		log.Info("Render cancelled", "lines", written, "duration", time.Since(start).String())
		return written, err
	}
	log.Debug("Render complete", "lines", written, "duration", time.Since(start).String())
	return written, nil
}

type lineResult struct {
	line string
	err  error
}

// readLines reads seq on its own goroutine, so a blocked source can't keep Render from returning.
// Once stop is closed, the line being read is discarded and src is drained.
// The goroutine exits after sending an error.
func readLines(seq *printmode.Lines, src iterator.Iterator, stop <-chan struct{}) <-chan lineResult {
	out := make(chan lineResult)
	go func() {
		defer close(out)
		for {
			line, err := seq.Next()
			select {
			case out <- lineResult{line: line, err: err}:
				if err != nil {
					return
				}
			case <-stop:
				if err == nil {
					iterator.Drain(src)
				}
				return
			}
		}
	}()
	return out
}
