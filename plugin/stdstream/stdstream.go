package stdstream

import (
	"bufio"
	"context"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/pkg/render"
	"github.com/saylorsolutions/logprint/plugin"
	"io"
	"os"
	"strings"
	"time"
)

var _ plugin.Plugin = (*stdplugin)(nil)

func Plugin() plugin.Plugin {
	return new(stdplugin)
}

type stdplugin struct {
}

func (s *stdplugin) ID() string {
	return "std"
}

func (s *stdplugin) Register(reg *plugin.Registration) {
	reg.RegisterSource("std", "In", SourceIn)
	reg.DocumentSource("std", "In", `std.In

Reads each line of STDIN as a log entry until the end of input, and emits them in timestamp order.
Lines that aren't JSON objects with an RFC 3339 "Timestamp" are treated as invalid entries.`)
	reg.RegisterSink("std", "Out", SinkOut)
	reg.DocumentSink("std", "Out", `std.Out

Writes each printed line to STDOUT.`)
	reg.RegisterSink("std", "Err", SinkErr)
	reg.DocumentSink("std", "Err", `std.Err

Writes each printed line to STDERR.`)
}

func (s *stdplugin) Stopping() error {
	return nil
}

func SourceIn(ctx context.Context, _ ...string) (iterator.Iterator, error) {
	return iterator.Sorted(SourceReader(ctx, os.Stdin)), nil
}

// SourceReader reads each line of r as a log entry, in the order they're read.
func SourceReader(ctx context.Context, r io.Reader) iterator.Iterator {
	ch := make(chan entries.LogEntry)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case ch <- entries.FromJSON(line, time.Now()):
			}
		}
	}()
	return iterator.FromChannel(ch)
}

func SinkOut(_ context.Context, _ ...string) (render.Sink, error) {
	return NewStreamSink(os.Stdout), nil
}

func SinkErr(_ context.Context, _ ...string) (render.Sink, error) {
	return NewStreamSink(os.Stderr), nil
}

var _ render.Sink = (*StreamSink)(nil)

// StreamSink writes newline separated lines to a stream.
// Closing it ends the output with a newline if anything was written, but doesn't close the stream.
type StreamSink struct {
	*render.WriterSink
	out     io.Writer
	written bool
}

func NewStreamSink(out io.Writer) *StreamSink {
	return &StreamSink{
		WriterSink: render.NewWriterSink(out),
		out:        out,
	}
}

func (s *StreamSink) WriteLine(line string) error {
	s.written = true
	return s.WriterSink.WriteLine(line)
}

func (s *StreamSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if !s.written {
		return nil
	}
	_, err := io.WriteString(s.out, "\n")
	return err
}
