package file

import (
	"bufio"
	"context"
	"github.com/nxadm/tail"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/pkg/render"
	"os"
	"path/filepath"
	"strings"
)

// File reads every line of a JSON lines log file, and returns the entries in timestamp order.
// Lines that can't be read as a structured entry are returned as invalid entries stamped with the time they were read.
// Entries without a LogSource are tagged with the file's base name.
func File(ctx context.Context, filename string) (iterator.Iterator, error) {
	_, iter, err := tailSource(ctx, filename, false)
	if err != nil {
		return nil, err
	}
	return iterator.Sorted(iterator.Tag(iter, filepath.Base(filename))), nil
}

// Files reads several log files with File, and merges them into a single ordered stream.
func Files(ctx context.Context, filenames ...string) (iterator.Iterator, error) {
	var merged iterator.Iterator
	for _, filename := range filenames {
		iter, err := File(ctx, filename)
		if err != nil {
			if merged != nil {
				iterator.Drain(merged)
			}
			return nil, err
		}
		if merged == nil {
			merged = iter
			continue
		}
		merged = iterator.MergeOrdered(merged, iter)
	}
	if merged == nil {
		return iterator.Empty(), nil
	}
	return merged, nil
}

// Tail follows a log file, producing an entry for each line as it's written.
// Entries are produced in the order they're written, so the file should be written in timestamp order.
// The stream ends when ctx is cancelled.
func Tail(ctx context.Context, filename string) (iterator.Iterator, error) {
	_, iter, err := tailSource(ctx, filename, true)
	if err != nil {
		return nil, err
	}
	return iterator.Tag(iter, filepath.Base(filename)), nil
}

func tailSource(ctx context.Context, filename string, follow bool) (*tail.Tail, iterator.Iterator, error) {
	t, err := tail.TailFile(filename, tail.Config{
		ReOpen:    follow,
		MustExist: true,
		Follow:    follow,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan entries.LogEntry)
	go func() {
		defer close(ch)
		defer t.Cleanup()
		for {
			select {
			case <-ctx.Done():
				_ = t.Stop()
				return
			case l, ok := <-t.Lines:
				if !ok {
					return
				}
				if l.Err != nil || strings.TrimSpace(l.Text) == "" {
					continue
				}
				select {
				case ch <- entries.FromJSON(l.Text, l.Time):
				case <-ctx.Done():
					_ = t.Stop()
					return
				}
			}
		}
	}()
	return t, iterator.FromChannel(ch), nil
}

var _ render.Sink = (*Sink)(nil)

// Sink appends rendered lines to a file, each terminated by a newline so later appends start on a new line.
type Sink struct {
	f *os.File
	w *bufio.Writer
}

// OpenSink opens filename for appending, creating it with perms if necessary.
// The file's permissions are not changed if it already exists.
func OpenSink(filename string, perms os.FileMode) (*Sink, error) {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perms)
	if err != nil {
		return nil, err
	}
	return &Sink{
		f: f,
		w: bufio.NewWriter(f),
	}, nil
}

func (s *Sink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *Sink) Flush() error {
	return s.w.Flush()
}

// Close flushes any buffered lines and closes the file.
func (s *Sink) Close() error {
	flushErr := s.w.Flush()
	if err := s.f.Close(); err != nil {
		return err
	}
	return flushErr
}
