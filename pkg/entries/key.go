package entries

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKey = errors.New("unknown attribute key")
)

// Key identifies a named attribute of a LogEntry.
// The set of keys is fixed.
type Key int

const (
	Timestamp Key = iota
	Message
	ThreadID
	SourceFile
	Function
	SourceLine
	Level
	SequenceNumber
	Module
	Type
	Section
	TraceID
	Context
	LogSource
	numKeys
)

var (
	keyNames = [numKeys]string{
		Timestamp:      "Timestamp",
		Message:        "Message",
		ThreadID:       "ThreadID",
		SourceFile:     "SourceFile",
		Function:       "Function",
		SourceLine:     "SourceLine",
		Level:          "Level",
		SequenceNumber: "SequenceNumber",
		Module:         "Module",
		Type:           "Type",
		Section:        "Section",
		TraceID:        "TraceID",
		Context:        "Context",
		LogSource:      "LogSource",
	}
	keysByName = func() map[string]Key {
		m := make(map[string]Key, numKeys)
		for k, name := range keyNames {
			m[name] = Key(k)
		}
		return m
	}()
)

func (k Key) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyNames[k]
}

func (k Key) Valid() bool {
	return k >= 0 && k < numKeys
}

// ParseKey looks up a Key by its exact, case-sensitive name.
func ParseKey(name string) (Key, error) {
	k, ok := keysByName[name]
	if !ok {
		return -1, fmt.Errorf("%w: '%s'", ErrUnknownKey, name)
	}
	return k, nil
}

// AllKeys returns every Key in declaration order.
func AllKeys() []Key {
	keys := make([]Key, numKeys)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}

// IsInteger reports whether values for k are integers once extracted.
func (k Key) IsInteger() bool {
	switch k {
	case ThreadID, SourceLine, SequenceNumber:
		return true
	}
	return false
}
