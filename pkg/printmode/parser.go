package printmode

import (
	"errors"
	"fmt"
	"github.com/saylorsolutions/logprint/pkg/entries"
	"strings"
)

var (
	ErrMissingTemplateMarker          = errors.New("template must start with '@'")
	ErrUnknownAttribute               = errors.New("unknown attribute")
	ErrDuplicateEntryCondition        = errors.New("duplicate entry condition")
	ErrUnterminatedAttributeReference = errors.New("unterminated attribute reference")
	ErrUnterminatedQuotedModifier     = errors.New("unterminated quoted modifier")
	errInvalidState                   = errors.New("likely bug, no transition from parser state")
)

const (
	TemplateMarker = '@'
	// Placeholder is replaced by the attribute value in an attribute format.
	Placeholder = "{}"
	markers     = "+-^$~!{}"
)

func isMarker(c rune) bool {
	return strings.ContainsRune(markers, c)
}

func isCondition(c rune) bool {
	_, ok := conditionMarkers[c]
	return ok
}

type parseState int

const (
	stateSetup parseState = iota
	stateEntryCondition
	statePart
	stateLiteral
	stateAttributeOpen
	stateAttributeCondition
	stateAttributeName
	stateAttributeFormat
	stateModifier
	stateDone
	stateError
)

var (
	stateStrings = map[parseState]string{
		stateSetup:              "Setup",
		stateEntryCondition:     "EntryCondition",
		statePart:               "Part",
		stateLiteral:            "Literal",
		stateAttributeOpen:      "AttributeOpen",
		stateAttributeCondition: "AttributeCondition",
		stateAttributeName:      "AttributeName",
		stateAttributeFormat:    "AttributeFormat",
		stateModifier:           "Modifier",
		stateDone:               "Done",
		stateError:              "Error",
	}
	transitions = map[parseState]func(*parser) parseState{
		stateSetup:              (*parser).setup,
		stateEntryCondition:     (*parser).entryCondition,
		statePart:               (*parser).part,
		stateLiteral:            (*parser).literalRun,
		stateAttributeOpen:      (*parser).attributeOpen,
		stateAttributeCondition: (*parser).attributeCondition,
		stateAttributeName:      (*parser).attributeName,
		stateAttributeFormat:    (*parser).attributeFormat,
		stateModifier:           (*parser).modifier,
	}
)

func (s parseState) String() string {
	return stateStrings[s]
}

// parser holds everything needed for a single call to Parse.
type parser struct {
	*lexBuf
	tmpl    *Template
	literal strings.Builder
	ref     *AttributeRef
	refPos  int
	err     error
}

// Parse turns a print mode format into a Template.
// The format must start with the template marker '@'.
func Parse(text string) (*Template, error) {
	p := &parser{
		lexBuf: newLexBuf(text),
		tmpl:   new(Template),
	}
	state := stateSetup
	for state != stateDone && state != stateError {
		next, ok := transitions[state]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errInvalidState, state)
		}
		state = next(p)
	}
	if state == stateError {
		return nil, p.err
	}
	p.flushLiteral()
	return p.tmpl, nil
}

func (p *parser) fail(err error, pos int) parseState {
	p.err = fmt.Errorf("%w at position %d", err, pos)
	return stateError
}

func (p *parser) flushLiteral() {
	if p.literal.Len() == 0 {
		return
	}
	p.tmpl.Elements = append(p.tmpl.Elements, &Literal{Text: p.literal.String()})
	p.literal.Reset()
}

// escaped writes a single literal c for the n marker characters that are being skipped, if any.
func (p *parser) escaped(c rune, n int) {
	if n <= 0 {
		return
	}
	p.literal.WriteRune(c)
	p.skip(n)
}

// attributePrefixAt reports whether the text at i is one or more condition markers followed by a single '{'.
func (p *parser) attributePrefixAt(i int) bool {
	j := i
	for ; j < len(p.buf) && isCondition(p.buf[j]); j++ {
	}
	return j > i && j < len(p.buf) && p.buf[j] == '{' && p.runLengthAt(j, '{') == 1
}

func (p *parser) setup() parseState {
	c, ok := p.read()
	if !ok || c != TemplateMarker {
		return p.fail(ErrMissingTemplateMarker, 1)
	}
	return stateEntryCondition
}

func (p *parser) entryCondition() parseState {
	c, ok := p.peek()
	if !ok || (c != '+' && c != '-') {
		return statePart
	}
	if p.runLength(c)%2 == 0 {
		return statePart
	}
	p.skip(1)
	p.tmpl.EntryCondition = conditionMarkers[c]

	next, ok := p.peek()
	if ok && next != c && (next == '+' || next == '-') && p.runLength(next)%2 == 1 && !p.attributePrefixAt(p.pos) {
		return p.fail(ErrDuplicateEntryCondition, p.column())
	}
	return statePart
}

func (p *parser) part() parseState {
	c, ok := p.peek()
	if !ok {
		return stateDone
	}
	switch {
	case isCondition(c):
		n := p.runLength(c)
		if n%2 == 1 && p.attributePrefixAt(p.pos+n-1) {
			p.escaped(c, n-1)
			return stateAttributeOpen
		}
		return stateLiteral
	case c == '{':
		n := p.runLength(c)
		if n%2 == 1 {
			p.escaped(c, n-1)
			return stateAttributeOpen
		}
		return stateLiteral
	default:
		return stateLiteral
	}
}

func (p *parser) literalRun() parseState {
	c, ok := p.peek()
	if ok && isMarker(c) {
		n := p.runLength(c)
		p.literal.WriteRune(c)
		p.skip(n)
		return statePart
	}
	for ok && !isMarker(c) {
		p.literal.WriteRune(c)
		p.skip(1)
		c, ok = p.peek()
	}
	return statePart
}

func (p *parser) attributeOpen() parseState {
	p.flushLiteral()
	p.ref = new(AttributeRef)
	p.refPos = p.column()
	return stateAttributeCondition
}

func (p *parser) attributeCondition() parseState {
	c, ok := p.read()
	switch {
	case !ok:
		return p.fail(ErrUnterminatedAttributeReference, p.refPos)
	case c == '{':
		return stateAttributeName
	case isCondition(c):
		kind := conditionMarkers[c]
		if !p.ref.hasCondition(kind) {
			p.ref.Conditions = append(p.ref.Conditions, Condition{Kind: kind})
		}
		return stateAttributeCondition
	default:
		return p.fail(ErrUnterminatedAttributeReference, p.refPos)
	}
}

func (p *parser) attributeName() parseState {
	start := p.pos
	for {
		c, ok := p.read()
		if !ok {
			return p.fail(ErrUnterminatedAttributeReference, p.refPos)
		}
		if c != '|' && c != '}' {
			continue
		}
		name := string(p.buf[start : p.pos-1])
		key, err := entries.ParseKey(name)
		if err != nil {
			return p.fail(fmt.Errorf("%w '%s'", ErrUnknownAttribute, name), start+1)
		}
		p.ref.Key = key
		for i := range p.ref.Conditions {
			p.ref.Conditions[i].Key = key
		}
		if c == '|' {
			return stateAttributeFormat
		}
		return stateModifier
	}
}

func (p *parser) attributeFormat() parseState {
	var format strings.Builder
	for {
		c, ok := p.peek()
		if !ok {
			return p.fail(ErrUnterminatedAttributeReference, p.refPos)
		}
		switch {
		case c == '{':
			n := p.runLength(c)
			if next, _ := p.peekAt(n); next == '}' {
				if n > 1 {
					format.WriteRune(c)
				}
				format.WriteString(Placeholder)
				p.skip(n + 1)
				continue
			}
			format.WriteRune(c)
			p.skip(n)
		case c == '}':
			n := p.runLength(c)
			if n%2 == 1 {
				p.skip(1)
				f := format.String()
				p.ref.Format = &f
				return stateModifier
			}
			format.WriteRune(c)
			p.skip(n)
		case isMarker(c):
			format.WriteRune(c)
			p.skip(p.runLength(c))
		default:
			format.WriteRune(c)
			p.skip(1)
		}
	}
}

func (p *parser) modifier() parseState {
	c, ok := p.peek()
	if ok && c == '!' && p.runLength(c) == 1 {
		if q, _ := p.peekAt(1); q == '"' {
			start := p.column()
			p.skip(2)
			text, ok := p.quoted()
			if !ok {
				return p.fail(ErrUnterminatedQuotedModifier, start)
			}
			p.ref.Fallback = &Fallback{Text: text, Parts: parseFallback(text)}
		}
	}
	p.tmpl.Elements = append(p.tmpl.Elements, p.ref)
	p.ref = nil
	return statePart
}

// quoted reads up to the first unmatched double quote, where a doubled quote is one literal quote.
func (p *parser) quoted() (string, bool) {
	var buf strings.Builder
	for {
		c, ok := p.read()
		if !ok {
			return "", false
		}
		if c == '"' {
			if next, _ := p.peek(); next == '"' {
				buf.WriteRune(c)
				p.skip(1)
				continue
			}
			return buf.String(), true
		}
		buf.WriteRune(c)
	}
}

// parseFallback splits fallback text into literals and references to known attributes written as {Name}.
// Anything else in braces is literal.
func parseFallback(text string) []Element {
	var (
		parts []Element
		lit   strings.Builder
		rest  = text
	)
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			lit.WriteString(rest)
			break
		}
		lit.WriteString(rest[:open])
		rest = rest[open:]
		if end := strings.IndexByte(rest, '}'); end > 0 {
			if key, err := entries.ParseKey(rest[1:end]); err == nil {
				if lit.Len() > 0 {
					parts = append(parts, &Literal{Text: lit.String()})
					lit.Reset()
				}
				parts = append(parts, &AttributeRef{Key: key})
				rest = rest[end+1:]
				continue
			}
		}
		lit.WriteByte('{')
		rest = rest[1:]
	}
	if lit.Len() > 0 {
		parts = append(parts, &Literal{Text: lit.String()})
	}
	return parts
}
