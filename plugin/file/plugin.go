package file

import (
	"context"
	"fmt"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"github.com/saylorsolutions/logprint/pkg/render"
	"github.com/saylorsolutions/logprint/plugin"
	"os"
	"strconv"
)

var _ plugin.Plugin = (*filePlugin)(nil)

func Plugin() plugin.Plugin {
	return new(filePlugin)
}

type filePlugin struct{}

func (*filePlugin) ID() string {
	return "file"
}

func (*filePlugin) Stopping() error {
	return nil
}

func (*filePlugin) Register(reg *plugin.Registration) {
	reg.RegisterSource("file", "Tail", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		if len(args) < 1 || args[0] == "" {
			return nil, fmt.Errorf("%w: requires 1 argument", plugin.ErrArgs)
		}
		return Tail(ctx, args[0])
	})
	reg.DocumentSource("file", "Tail", `file.Tail:FILE_NAME

This source will watch the file specified by FILE_NAME for changes, producing a new log entry for each new line.
Entries are printed in the order they're written, so the file should be written in timestamp order.
Just like the file.File source, lines that aren't valid structured entries are treated as invalid entries.`)
	reg.RegisterSource("file", "File", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: requires at least 1 argument", plugin.ErrArgs)
		}
		for _, arg := range args {
			if arg == "" {
				return nil, fmt.Errorf("%w: file names must not be empty", plugin.ErrArgs)
			}
		}
		return Files(ctx, args...)
	})
	reg.DocumentSource("file", "File", `file.File:FILE_NAME[,FILE_NAME...]

This source will read each line of the files specified, emitting a log entry for each one in timestamp order.
Each line should be a JSON object with attribute names as keys, and an RFC 3339 "Timestamp".
Lines that aren't valid entries are emitted as invalid entries, with the whole line as the Message and the time it was read as the Timestamp.`)
	reg.RegisterSink("file", "File", func(_ context.Context, args ...string) (render.Sink, error) {
		if len(args) < 1 || args[0] == "" {
			return nil, fmt.Errorf("%w: requires 1 or 2 arguments", plugin.ErrArgs)
		}

		perms := os.FileMode(0600)
		if len(args) >= 2 {
			parsed, err := strconv.ParseUint(args[1], 8, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid file permission argument", plugin.ErrArgs)
			}
			perms = os.FileMode(parsed)
		}
		sink, err := OpenSink(args[0], perms)
		if err != nil {
			return nil, err
		}
		return sink, nil
	})
	reg.DocumentSink("file", "File", `file.File:FILE_NAME[,FILE_MODE]

This sink will append each printed line to a file specified by FILE_NAME, creating it if necessary.
If FILE_MODE is specified, and it's a string representing a valid octal file mode like "644", then this mode will be used to create the file if it doesn't already exist.
If FILE_MODE is specified but invalid, then the sink operation will fail.
If FILE_MODE is not specified, then a value of "600" will be assumed.
The file's permissions will not be modified if it already exists.`)
}
