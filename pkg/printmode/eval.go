package printmode

import (
	"fmt"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"github.com/saylorsolutions/logprint/pkg/iterator"
	"strings"
)

// MissingValueText is written for an absent attribute that has no fallback.
func MissingValueText(key entries.Key) string {
	return fmt.Sprintf(`{Missing Value for "%s"}`, key)
}

// Evaluator renders log entries with a Template.
// Entries must be given to an Evaluator in ascending timestamp order, since stateful conditions depend on the entries that came before.
type Evaluator struct {
	tmpl  *Template
	state *State
}

// NewEvaluator creates an Evaluator with a fresh State.
func NewEvaluator(tmpl *Template) *Evaluator {
	return &Evaluator{
		tmpl:  tmpl,
		state: NewState(),
	}
}

func (e *Evaluator) State() *State {
	return e.state
}

// Eval renders a single entry.
// Returns false if the entry produces no line, either because the entry condition failed or because nothing was written.
func (e *Evaluator) Eval(entry entries.LogEntry) (string, bool) {
	if !e.entryMatches(entry) {
		return "", false
	}
	var buf strings.Builder
	for _, elem := range e.tmpl.Elements {
		switch el := elem.(type) {
		case *Literal:
			buf.WriteString(el.Text)
		case *AttributeRef:
			buf.WriteString(e.evalRef(el, entry))
		}
	}
	if buf.Len() == 0 {
		return "", false
	}
	return buf.String(), true
}

func (e *Evaluator) entryMatches(entry entries.LogEntry) bool {
	switch e.tmpl.EntryCondition {
	case ValidLog:
		return entry.IsValid()
	case InvalidLog:
		return !entry.IsValid()
	default:
		return true
	}
}

func (e *Evaluator) evalRef(ref *AttributeRef, entry entries.LogEntry) string {
	val, has := entry.AsString(ref.Key)
	pass := true
	// Every condition is checked so state is kept current even when an earlier one fails.
	for _, cond := range ref.Conditions {
		if !e.check(cond, entry, val, has) {
			pass = false
		}
	}
	if !pass {
		return ""
	}
	if !has {
		if ref.Fallback != nil {
			return renderFallback(ref.Fallback, entry)
		}
		return MissingValueText(ref.Key)
	}
	if ref.Format != nil {
		return strings.ReplaceAll(*ref.Format, Placeholder, val)
	}
	return val
}

func (e *Evaluator) check(cond Condition, entry entries.LogEntry, val string, has bool) bool {
	switch cond.Kind {
	case ValidLog:
		return entry.IsValid()
	case InvalidLog:
		return !entry.IsValid()
	case Exists:
		return has
	case ValueChanged:
		return has && e.state.changed(cond.Key, val)
	case ValueFirstSeen:
		return has && e.state.firstSeen(cond.Key, val)
	default:
		return true
	}
}

func renderFallback(fb *Fallback, entry entries.LogEntry) string {
	var buf strings.Builder
	for _, part := range fb.Parts {
		switch p := part.(type) {
		case *Literal:
			buf.WriteString(p.Text)
		case *AttributeRef:
			v, _ := entry.AsString(p.Key)
			buf.WriteString(v)
		}
	}
	return buf.String()
}

// Lines lazily renders the entries of an Iterator.
// A Lines can only be read once.
type Lines struct {
	eval *Evaluator
	src  iterator.Iterator
	err  error
}

// Lines creates a lazy sequence of rendered lines from src.
func (e *Evaluator) Lines(src iterator.Iterator) *Lines {
	return &Lines{
		eval: e,
		src:  src,
	}
}

// Next returns the next rendered line, skipping entries that produce no line.
// Returns iterator.ErrAtEnd once src is exhausted.
// An error from src is returned from every later call.
func (l *Lines) Next() (string, error) {
	if l.err != nil {
		return "", l.err
	}
	for {
		entry, _, err := l.src.Next()
		if err != nil {
			l.err = err
			return "", err
		}
		if line, ok := l.eval.Eval(entry); ok {
			return line, nil
		}
	}
}

// All reads every remaining line.
func (l *Lines) All() ([]string, error) {
	var lines []string
	for {
		line, err := l.Next()
		if err != nil {
			if iterator.IsEnd(err) {
				return lines, nil
			}
			return lines, err
		}
		lines = append(lines, line)
	}
}

// Render renders every entry in src and joins the lines with a newline.
func Render(tmpl *Template, src iterator.Iterator) (string, error) {
	lines, err := NewEvaluator(tmpl).Lines(src).All()
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
