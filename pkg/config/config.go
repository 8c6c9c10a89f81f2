// Package config reads the key/value settings that control printing.
package config

import (
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"os"
	"strconv"
	"strings"
)

var (
	ErrConfig = errors.New("configuration error")
)

const (
	KeyPrintMode  = "printMode"
	KeyLogLevel   = "logLevel"
	KeyBufferSize = "bufferSize"

	EnvPrefix = "LOGPRINT_"
)

// envOverrides maps environment variables to the keys they replace.
var envOverrides = map[string]string{
	EnvPrefix + "PRINT_MODE":  KeyPrintMode,
	EnvPrefix + "LOG_LEVEL":   KeyLogLevel,
	EnvPrefix + "BUFFER_SIZE": KeyBufferSize,
}

// Bag is a set of string settings.
type Bag map[string]string

// Load reads each file as KEY=VALUE lines, with later files taking precedence.
// Environment variables are applied last.
func Load(files ...string) (Bag, error) {
	bag := Bag{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfig, err)
		}
		read, err := Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("%w (file: %s)", err, file)
		}
		for k, v := range read {
			bag[k] = v
		}
	}
	bag.applyEnv(os.LookupEnv)
	return bag, nil
}

// Parse reads settings from text in the same format as a config file.
// A printMode value containing '$' or '#' must be single quoted, since other values are expanded and may contain comments.
func Parse(text string) (Bag, error) {
	if err := checkRaw(text); err != nil {
		return nil, err
	}
	read, err := godotenv.Unmarshal(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return Bag(read), nil
}

// checkRaw rejects printMode lines that godotenv would change while reading them.
func checkRaw(text string) error {
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		sep := strings.IndexAny(line, "=:")
		if sep < 0 || strings.TrimSpace(line[:sep]) != KeyPrintMode {
			continue
		}
		value := strings.TrimSpace(line[sep+1:])
		if strings.HasPrefix(value, "'") {
			continue
		}
		if strings.ContainsAny(value, "$#") {
			return fmt.Errorf("%w: line %d: %s must be single quoted when it contains '$' or '#', like %s='@${Function}'", ErrConfig, i+1, KeyPrintMode, KeyPrintMode)
		}
	}
	return nil
}

func (b Bag) applyEnv(lookup func(string) (string, bool)) {
	for env, key := range envOverrides {
		if v, ok := lookup(env); ok {
			b[key] = v
		}
	}
}

// Get returns the value for key, or fallback if it's not set.
func (b Bag) Get(key, fallback string) string {
	if v, ok := b[key]; ok {
		return v
	}
	return fallback
}

// Set overrides a setting, which is useful for command line flags.
// An empty value is ignored.
func (b Bag) Set(key, value string) {
	if value == "" {
		return
	}
	b[key] = value
}

// PrintMode is the raw print mode setting, which may be empty.
func (b Bag) PrintMode() string {
	return b[KeyPrintMode]
}

// LogLevel parses the log level setting, defaulting to Info.
func (b Bag) LogLevel() (hclog.Level, error) {
	raw := strings.TrimSpace(b[KeyLogLevel])
	if raw == "" {
		return hclog.Info, nil
	}
	level := hclog.LevelFromString(raw)
	if level == hclog.NoLevel {
		return hclog.NoLevel, fmt.Errorf("%w: unknown log level '%s'", ErrConfig, raw)
	}
	return level, nil
}

// BufferSize is the number of rendered lines that may be waiting to be written, or fallback if it's not set.
func (b Bag) BufferSize(fallback int) (int, error) {
	raw := strings.TrimSpace(b[KeyBufferSize])
	if raw == "" {
		return fallback, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: '%s' must be a non-negative integer", ErrConfig, KeyBufferSize)
	}
	return size, nil
}
