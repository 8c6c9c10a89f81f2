package render

import (
	"bufio"
	"io"
)

// Sink receives finished lines in order.
type Sink interface {
	// WriteLine writes a single complete line.
	WriteLine(line string) error
	// Flush makes sure every line written so far has reached the underlying output.
	Flush() error
}

var _ Sink = (*WriterSink)(nil)

// WriterSink writes lines to an io.Writer, separated by a single newline.
// No newline is written before the first line or after the last.
type WriterSink struct {
	w       *bufio.Writer
	written bool
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{
		w: bufio.NewWriter(w),
	}
}

func (s *WriterSink) WriteLine(line string) error {
	if s.written {
		if err := s.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	s.written = true
	_, err := s.w.WriteString(line)
	return err
}

func (s *WriterSink) Flush() error {
	return s.w.Flush()
}

// SliceSink keeps every line in memory.
type SliceSink struct {
	Lines   []string
	Flushed int
}

func (s *SliceSink) WriteLine(line string) error {
	s.Lines = append(s.Lines, line)
	return nil
}

func (s *SliceSink) Flush() error {
	s.Flushed = len(s.Lines)
	return nil
}
