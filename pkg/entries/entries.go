package entries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	// InvalidField marks a serialized entry that failed extraction.
	InvalidField = "@invalid"
	TimeFormat   = time.RFC3339Nano
)

var (
	ErrMissingAttribute = errors.New("attribute is not present")
)

// LogEntry is a single, timestamp-bearing entry in a log with a subset of the known attributes populated.
// A LogEntry is not modified after it's created.
type LogEntry struct {
	fields  map[Key]any
	invalid bool
}

// New creates a valid LogEntry from the given attributes.
// Nil values are treated as absent.
func New(fields map[Key]any) LogEntry {
	e := LogEntry{fields: make(map[Key]any, len(fields))}
	for k, v := range fields {
		if v == nil || !k.Valid() {
			continue
		}
		e.fields[k] = v
	}
	return e
}

// NewInvalid creates a LogEntry that represents a record that failed upstream extraction.
func NewInvalid(fields map[Key]any) LogEntry {
	e := New(fields)
	e.invalid = true
	return e
}

func (e LogEntry) IsValid() bool {
	return !e.invalid
}

func (e LogEntry) Has(key Key) bool {
	_, ok := e.fields[key]
	return ok
}

// Get returns the value of the attribute, or ErrMissingAttribute if the entry doesn't have it.
func (e LogEntry) Get(key Key) (any, error) {
	v, ok := e.fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingAttribute, key)
	}
	return v, nil
}

// Keys returns the populated attribute keys in declaration order.
func (e LogEntry) Keys() []Key {
	var keys []Key
	for _, k := range AllKeys() {
		if e.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// With returns a copy of this entry with the attribute set to val.
func (e LogEntry) With(key Key, val any) LogEntry {
	fields := make(map[Key]any, len(e.fields)+1)
	for k, v := range e.fields {
		fields[k] = v
	}
	fields[key] = val
	cp := New(fields)
	cp.invalid = e.invalid
	return cp
}

// Timestamp returns the entry's Timestamp attribute, or the zero time if it's missing.
func (e LogEntry) Timestamp() time.Time {
	t, _ := e.AsTime(Timestamp)
	return t
}

func (e LogEntry) AsString(key Key) (string, bool) {
	v, ok := e.fields[key]
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

func (e LogEntry) AsInt(key Key) (int64, bool) {
	v, ok := e.fields[key]
	if !ok {
		return 0, false
	}
	switch i := v.(type) {
	case int64:
		return i, true
	case int:
		return int64(i), true
	case int32:
		return int64(i), true
	case json.Number:
		n, err := i.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case string:
		n, err := strconv.ParseInt(i, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func (e LogEntry) AsTime(key Key) (time.Time, bool) {
	var none time.Time
	v, ok := e.fields[key]
	if !ok {
		return none, false
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := time.Parse(TimeFormat, t)
		if err != nil {
			return none, false
		}
		return parsed.UTC(), true
	}
	return none, false
}

// Stringify returns the canonical string form of an attribute value.
// Times are rendered in UTC as RFC 3339 with nanoseconds.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case time.Time:
		return s.UTC().Format(TimeFormat)
	case fmt.Stringer:
		return s.String()
	case error:
		return s.Error()
	}
	return fmt.Sprintf("%v", v)
}

// MarshalJSON writes the entry as a JSON object keyed by attribute name.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.fields)+1)
	for k, v := range e.fields {
		if t, ok := v.(time.Time); ok {
			m[k.String()] = t.UTC().Format(TimeFormat)
			continue
		}
		m[k.String()] = v
	}
	if e.invalid {
		m[InvalidField] = true
	}
	return json.Marshal(m)
}

// FromJSON extracts a LogEntry from a single line of JSON, where member names are attribute key names.
// Unknown members are ignored.
// If the line isn't a JSON object, has no valid Timestamp, or has a non-integer value for an integer attribute, then an invalid entry is returned.
// Invalid entries always carry a Timestamp, defaulting to read, and a Message, defaulting to the raw line.
func FromJSON(line string, read time.Time) LogEntry {
	var (
		raw     map[string]any
		fields  = map[Key]any{}
		invalid bool
	)
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return NewInvalid(map[Key]any{
			Timestamp: read.UTC(),
			Message:   line,
		})
	}

	for name, val := range raw {
		if name == InvalidField {
			if b, ok := val.(bool); ok && b {
				invalid = true
			}
			continue
		}
		key, err := ParseKey(name)
		if err != nil || val == nil {
			continue
		}
		switch {
		case key == Timestamp:
			s, ok := val.(string)
			if !ok {
				invalid = true
				continue
			}
			t, err := time.Parse(TimeFormat, s)
			if err != nil {
				invalid = true
				continue
			}
			fields[key] = t.UTC()
		case key.IsInteger():
			n, ok := val.(json.Number)
			if !ok {
				invalid = true
				continue
			}
			i, err := n.Int64()
			if err != nil {
				invalid = true
				continue
			}
			fields[key] = i
		default:
			if n, ok := val.(json.Number); ok {
				fields[key] = n.String()
				continue
			}
			fields[key] = val
		}
	}

	if _, ok := fields[Timestamp]; !ok {
		invalid = true
		fields[Timestamp] = read.UTC()
	}
	if !invalid {
		return New(fields)
	}
	if _, ok := fields[Message]; !ok {
		fields[Message] = line
	}
	return NewInvalid(fields)
}
