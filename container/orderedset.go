package container

import "strings"

// groupSep is an ASCII unit-separator unlikely to occur in field values,
// used to join a string sequence into a single map key internally.
const groupSep = "\x1f"

// OrderedSet is an ordered set of string sequences (e.g. group-by key
// tuples): membership is keyed by the joined sequence, and iteration
// yields sequences in the order of their first appearance, per spec.md
// §4.C / §4.G.
type OrderedSet struct {
	seen  *OrderedMap // joined-key -> []string (the original tuple)
}

// NewOrderedSet constructs an empty OrderedSet.
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{seen: NewOrderedMap()}
}

func joinKey(parts []string) string { return strings.Join(parts, groupSep) }

// Add registers parts as a member if not already present. Returns true if
// this was a new member (first appearance).
func (s *OrderedSet) Add(parts []string) bool {
	k := joinKey(parts)
	if s.seen.Has(k) {
		return false
	}
	cp := make([]string, len(parts))
	copy(cp, parts)
	s.seen.Put(k, cp)
	return true
}

// Has reports whether parts has already been added.
func (s *OrderedSet) Has(parts []string) bool {
	return s.seen.Has(joinKey(parts))
}

// Len reports the number of distinct members.
func (s *OrderedSet) Len() int { return s.seen.Len() }

// Each visits each member tuple in order of first appearance.
func (s *OrderedSet) Each(f func(parts []string) bool) {
	s.seen.Each(func(_ string, v interface{}) bool {
		return f(v.([]string))
	})
}
