package printmode

import (
	"github.com/saylorsolutions/logprint/pkg/entries"
)

// State is the cross-entry memory used by stateful conditions during a single pass over a stream of entries.
// A State must not be shared between passes.
type State struct {
	last map[entries.Key]string
	seen map[entries.Key]map[string]struct{}
}

func NewState() *State {
	return &State{
		last: map[entries.Key]string{},
		seen: map[entries.Key]map[string]struct{}{},
	}
}

// changed reports whether val differs from the last value recorded for key, then records val.
func (s *State) changed(key entries.Key, val string) bool {
	last, ok := s.last[key]
	s.last[key] = val
	return !ok || last != val
}

// firstSeen reports whether val has not been recorded for key before, then records it.
func (s *State) firstSeen(key entries.Key, val string) bool {
	set, ok := s.seen[key]
	if !ok {
		set = map[string]struct{}{}
		s.seen[key] = set
	}
	if _, ok := set[val]; ok {
		return false
	}
	set[val] = struct{}{}
	return true
}

// Last returns the last value recorded for key by a changed condition.
func (s *State) Last(key entries.Key) (string, bool) {
	v, ok := s.last[key]
	return v, ok
}

// Seen reports whether val has been recorded for key by a first seen condition.
func (s *State) Seen(key entries.Key, val string) bool {
	_, ok := s.seen[key][val]
	return ok
}
