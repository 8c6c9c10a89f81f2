package printmode

import (
	"fmt"
	"github.com/saylorsolutions/logprint/pkg/entries"
)

// ConditionKind identifies the test a Condition performs.
type ConditionKind int

const (
	NoCondition ConditionKind = iota
	ValidLog
	InvalidLog
	Exists
	ValueChanged
	ValueFirstSeen
)

var (
	conditionStrings = map[ConditionKind]string{
		NoCondition:    "None",
		ValidLog:       "ValidLog",
		InvalidLog:     "InvalidLog",
		Exists:         "Exists",
		ValueChanged:   "ValueChanged",
		ValueFirstSeen: "ValueFirstSeen",
	}
	conditionMarkers = map[rune]ConditionKind{
		'+': ValidLog,
		'-': InvalidLog,
		'^': Exists,
		'$': ValueChanged,
		'~': ValueFirstSeen,
	}
)

func (k ConditionKind) String() string {
	if s, ok := conditionStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("ConditionKind(%d)", int(k))
}

// Condition is a single test applied to a log entry.
// Key is the attribute the condition references, and is only meaningful for Exists, ValueChanged, and ValueFirstSeen.
type Condition struct {
	Kind ConditionKind
	Key  entries.Key
}

// Template is a parsed print mode format.
// A Template is never modified after Parse returns it, and may be shared between evaluators.
type Template struct {
	// EntryCondition is either NoCondition, ValidLog, or InvalidLog.
	EntryCondition ConditionKind
	Elements       []Element
}

// Element is either a *Literal or an *AttributeRef.
type Element interface {
	element()
}

// Literal is text that's always written.
type Literal struct {
	Text string
}

func (*Literal) element() {}

// AttributeRef writes the value of an attribute when all of its Conditions hold.
type AttributeRef struct {
	Conditions []Condition
	Key        entries.Key
	// Format is the text written in place of the bare value, with every placeholder replaced by the value.
	Format *string
	// Fallback is written instead of the default missing value text when the attribute is absent.
	Fallback *Fallback
}

func (*AttributeRef) element() {}

func (r *AttributeRef) hasCondition(kind ConditionKind) bool {
	for _, c := range r.Conditions {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// Fallback is the quoted text of an error handler modifier.
// Parts holds the same text split into literals and unguarded attribute references.
type Fallback struct {
	Text  string
	Parts []Element
}
