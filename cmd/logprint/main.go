package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/logprint/pkg/config"
	"github.com/saylorsolutions/logprint/pkg/printmode"
	"github.com/saylorsolutions/logprint/pkg/render"
	"github.com/saylorsolutions/logprint/plugin"
	"github.com/saylorsolutions/logprint/plugin/file"
	"github.com/saylorsolutions/logprint/plugin/stdstream"
	"github.com/saylorsolutions/logprint/plugin/store"
	"github.com/saylorsolutions/logprint/runtime"
	"os"
	"os/signal"
	"strings"
	"time"
)

func main() {
	if len(os.Args) <= 1 {
		usage()
		return
	}
	args := os.Args[1:]
	start := time.Now()
	switch args[0] {
	case "print":
		n, err := doPrint(args[1:]...)
		if err != nil {
			exitError("Failed to print: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Printed %d lines in %s\n", n, durString(time.Since(start)))
	case "vet":
		if err := doVet(args[1:]...); err != nil {
			exitError("Dry run failed: %v", err)
		}
		fmt.Println("Dry run ran successfully")
	case "ingest":
		n, err := doIngest(args[1:]...)
		if err != nil {
			exitError("Failed to ingest: %v", err)
		}
		fmt.Printf("Ingested %d entries in %s\n", n, durString(time.Since(start)))
	case "plugins":
		doPrintPlugins()
	case "format":
		doPrintFormat()
	case "help":
		usage()
	default:
		exitError("Unrecognized command: '%s'", args[0])
	}
}

func durString(dur time.Duration) string {
	switch {
	case dur < time.Millisecond:
		return dur.Round(time.Microsecond).String()
	case dur < time.Second:
		return dur.Round(time.Millisecond).String()
	default:
		return dur.Round(time.Second).String()
	}
}

func exitError(format string, args ...any) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
	usage()
	os.Exit(-1)
}

func usage() {
	text := `
logprint renders structured log entries as text, using a configurable print mode.

  logprint help
  logprint plugins
  logprint format
  logprint print [-config FILE] [-mode MODE] [-from SOURCE] [-to SINK] [-buffer SIZE] [-since TIME]
  logprint vet [-config FILE] [-mode MODE] [-from SOURCE] [-to SINK]
  logprint ingest -from SOURCE [-from SOURCE...] -db FILE [-table NAME]

The 'help' subcommand will print this usage information.
The 'plugins' subcommand will print the documentation for all sources and sinks that may be used with -from and -to.
The 'format' subcommand will print the print mode syntax, and the template each preset stands for.
The 'print' subcommand will render every entry from SOURCE to SINK. SOURCE defaults to std.In, and SINK defaults to std.Out.
  Entries with a Timestamp before TIME are skipped when -since is given.
The 'vet' subcommand will check the print mode, source, and sink without reading or writing anything.
The 'ingest' subcommand will store every entry from each SOURCE in a SQLite table, which may then be printed with the sqlite.Table source.

Settings are read from each -config file as KEY=VALUE lines, and may be overridden by environment variables and flags.
  printMode   (LOGPRINT_PRINT_MODE)   The print mode. Empty means General.
  logLevel    (LOGPRINT_LOG_LEVEL)    The level of diagnostic logging written to STDERR. Defaults to info.
  bufferSize  (LOGPRINT_BUFFER_SIZE)  How many printed lines may wait to be written.

Config file values expand $VAR and may end with a # comment, so a printMode containing '$' or '#' must be single quoted.
  printMode='@${Function}'
`
	fmt.Print(text)
}

// repeated collects every value of a flag that may be given more than once.
type repeated []string

func (c *repeated) String() string {
	return strings.Join(*c, ",")
}

func (c *repeated) Set(s string) error {
	*c = append(*c, s)
	return nil
}

type printFlags struct {
	configs repeated
	mode    string
	from    string
	to      string
	buffer  string
}

func (f *printFlags) bind(set *flag.FlagSet) {
	set.Var(&f.configs, "config", "Config file to read, may be repeated")
	set.StringVar(&f.mode, "mode", "", "Print mode, overrides the printMode setting")
	set.StringVar(&f.from, "from", "std.In", "Entry source")
	set.StringVar(&f.to, "to", "std.Out", "Line sink")
}

// settings loads config files, then applies flag overrides.
func (f *printFlags) settings() (config.Bag, error) {
	bag, err := config.Load(f.configs...)
	if err != nil {
		return nil, err
	}
	bag.Set(config.KeyPrintMode, f.mode)
	bag.Set(config.KeyBufferSize, f.buffer)
	return bag, nil
}

func newLogger(bag config.Bag) (hclog.Logger, error) {
	level, err := bag.LogLevel()
	if err != nil {
		return nil, err
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "logprint",
		Level:  level,
		Output: os.Stderr,
	}), nil
}

func plugins(log hclog.Logger) []plugin.Plugin {
	return []plugin.Plugin{
		file.Plugin(),
		stdstream.Plugin(),
		store.Plugin(log),
	}
}

// withRuntime starts a runtime that's stopped on interrupt, or when fn returns.
func withRuntime(log hclog.Logger, fn func(r *runtime.Runtime) error) (rerr error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	r := runtime.NewRuntime(log, plugins(log)...)
	if err := r.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := r.Stop(); err != nil {
			log.Error("Error while stopping runtime", "error", err)
			if rerr == nil {
				rerr = err
			}
		}
	}()
	return fn(r)
}

func doPrint(args ...string) (int, error) {
	var flags printFlags
	set := flag.NewFlagSet("print", flag.ContinueOnError)
	flags.bind(set)
	set.StringVar(&flags.buffer, "buffer", "", "Buffered line count, overrides the bufferSize setting")
	sinceText := set.String("since", "", "Skip entries with a Timestamp before this RFC 3339 time")
	if err := set.Parse(args); err != nil {
		return 0, err
	}
	var since time.Time
	if *sinceText != "" {
		parsed, err := time.Parse(time.RFC3339Nano, *sinceText)
		if err != nil {
			return 0, fmt.Errorf("invalid -since time: %w", err)
		}
		since = parsed
	}
	bag, err := flags.settings()
	if err != nil {
		return 0, err
	}
	log, err := newLogger(bag)
	if err != nil {
		return 0, err
	}
	buffer, err := bag.BufferSize(render.DefaultBufferSize)
	if err != nil {
		return 0, err
	}

	var n int
	err = withRuntime(log, func(r *runtime.Runtime) error {
		var err error
		n, err = r.Print(runtime.PrintJob{
			Mode:       bag.PrintMode(),
			Source:     flags.from,
			Sink:       flags.to,
			BufferSize: buffer,
			Since:      since,
		})
		if errors.Is(err, context.Canceled) {
			log.Info("Printing interrupted", "lines", n)
			return nil
		}
		return err
	})
	return n, err
}

func doVet(args ...string) error {
	var flags printFlags
	set := flag.NewFlagSet("vet", flag.ContinueOnError)
	flags.bind(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	bag, err := flags.settings()
	if err != nil {
		return err
	}
	log, err := newLogger(bag)
	if err != nil {
		return err
	}
	if _, err := bag.BufferSize(render.DefaultBufferSize); err != nil {
		return err
	}
	return withRuntime(log, func(r *runtime.Runtime) error {
		_, err := r.Vet(runtime.PrintJob{
			Mode:   bag.PrintMode(),
			Source: flags.from,
			Sink:   flags.to,
		})
		return err
	})
}

func doIngest(args ...string) (int, error) {
	var (
		configs repeated
		from    repeated
		db      string
		table   string
	)
	set := flag.NewFlagSet("ingest", flag.ContinueOnError)
	set.Var(&configs, "config", "Config file to read, may be repeated")
	set.Var(&from, "from", "Entry source, may be repeated")
	set.StringVar(&db, "db", "", "SQLite database file")
	set.StringVar(&table, "table", "entries", "Table to store entries in")
	if err := set.Parse(args); err != nil {
		return 0, err
	}
	if len(from) == 0 || db == "" {
		return 0, errors.New("-from and -db are required")
	}
	bag, err := config.Load(configs...)
	if err != nil {
		return 0, err
	}
	log, err := newLogger(bag)
	if err != nil {
		return 0, err
	}
	var n int
	err = withRuntime(log, func(r *runtime.Runtime) error {
		var err error
		n, err = r.Ingest(db, table, from...)
		return err
	})
	return n, err
}

func doPrintPlugins() {
	reg := plugin.NewRegistration()
	for _, p := range plugins(hclog.NewNullLogger()) {
		p.Register(reg)
	}
	fmt.Println("Sources provide ordered log entries with -from, and sinks receive printed lines with -to.")
	fmt.Println("Arguments follow the class after a ':', separated by commas, like 'file.File:app.log'.")
	fmt.Println()
	fmt.Print(reg.AllDocs())
}

func doPrintFormat() {
	fmt.Print(printmode.GrammarDescription)
	fmt.Println()
	fmt.Println("[Preset Templates]")
	for _, name := range printmode.Presets() {
		format, _ := printmode.PresetFormat(name)
		fmt.Printf("  %s\n    %s\n", name, format)
	}
}
