// Package lrec implements the ordered, mutation-friendly record model
// (spec.md §3/§4.B): an ordered sequence of (key, value, was-quoted-on-input)
// entries with O(1) keyed lookup and stable insertion-order iteration.
//
// The accessor shape (get-by-index, get-by-name, length, names) is the
// same shape as the teacher's transform.Extractor
// (Carlodf-cetl/transform/csv_decoder.go's sliceExtractor), generalized
// from a read-only CSV row view into a mutable record with Put/Rename/Remove.
package lrec

import (
	"fmt"
	"regexp"

	"github.com/carlodf/mlrq/container"
)

// field is one entry in a Record.
type field struct {
	key       string
	value     string
	wasQuoted bool // true if the reader saw this field quoted on input
}

// Record is an ordered sequence of named string fields. Keys are unique
// within a record: Put on an existing key replaces its value in place
// (preserving position); Put on a new key appends.
//
// Record is not safe for concurrent use; ownership passes from the reader
// to the processing verb to the writer per spec.md §5.
type Record struct {
	order *container.OrderedSeq // of *field, in insertion order
	index map[string]*field
}

// New allocates an empty record backed by nothing.
func New() *Record {
	return &Record{order: container.NewOrderedSeq(), index: make(map[string]*field, 8)}
}

// Put sets key to value, replacing an existing entry in place (same
// position) or appending a new one. wasQuoted records whether the input
// reader saw this field quoted, for CSV "original" quoting mode on output.
func (r *Record) Put(key, value string, wasQuoted bool) {
	if f, ok := r.index[key]; ok {
		f.value = value
		f.wasQuoted = wasQuoted
		return
	}
	f := &field{key: key, value: value, wasQuoted: wasQuoted}
	r.order.Append(f)
	r.index[key] = f
}

// PutInferred is a convenience for verbs writing a computed value with no
// input-quoting provenance.
func (r *Record) PutInferred(key, value string) { r.Put(key, value, false) }

// Prepend inserts a new (key, value) entry at the front. If key already
// exists, Prepend is equivalent to Put (position is not changed).
func (r *Record) Prepend(key, value string) {
	if _, ok := r.index[key]; ok {
		r.Put(key, value, false)
		return
	}
	f := &field{key: key, value: value}
	newOrder := container.NewOrderedSeq()
	newOrder.Append(f)
	r.order.Each(func(v interface{}) bool {
		newOrder.Append(v)
		return true
	})
	r.order = newOrder
	r.index[key] = f
}

// Get returns the value for key, or ("", false) if absent.
func (r *Record) Get(key string) (string, bool) {
	f, ok := r.index[key]
	if !ok {
		return "", false
	}
	return f.value, true
}

// GetOrEmpty returns the value for key, or "" if absent -- the "well
// defined sentinel" spec.md §4.B promises for a missing-key get.
func (r *Record) GetOrEmpty(key string) string {
	v, _ := r.Get(key)
	return v
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// WasQuoted reports whether key's value was seen quoted on input (for CSV
// "original" quoting mode).
func (r *Record) WasQuoted(key string) bool {
	f, ok := r.index[key]
	return ok && f.wasQuoted
}

// Rename changes a field's key while preserving its position. If newKey
// already exists elsewhere in the record, that other entry is removed
// (duplicate keys are never allowed per spec.md §3).
func (r *Record) Rename(oldKey, newKey string) bool {
	f, ok := r.index[oldKey]
	if !ok {
		return false
	}
	if oldKey == newKey {
		return true
	}
	if existing, ok := r.index[newKey]; ok && existing != f {
		r.Remove(newKey)
	}
	delete(r.index, oldKey)
	f.key = newKey
	r.index[newKey] = f
	return true
}

// RenameRegex renames every field whose key matches re, substituting
// replacement (which may use \1..\9 backreferences) for the matched
// portion. Fields are visited in iteration order, matching
// DESIGN.md's resolution of spec.md §9's open question.
func (r *Record) RenameRegex(re *regexp.Regexp, replacement string) int {
	goRepl := backrefsToGoExpand(replacement)
	type rn struct{ from, to string }
	var renames []rn
	r.Each(func(k, _ string) bool {
		if re.MatchString(k) {
			renames = append(renames, rn{k, re.ReplaceAllString(k, goRepl)})
		}
		return true
	})
	for _, x := range renames {
		r.Rename(x.from, x.to)
	}
	return len(renames)
}

func backrefsToGoExpand(replacement string) string {
	out := make([]byte, 0, len(replacement)+4)
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c == '\\' && i+1 < len(replacement) && replacement[i+1] >= '1' && replacement[i+1] <= '9' {
			out = append(out, '$', '{', replacement[i+1], '}')
			i++
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// Remove deletes key, if present. Iteration in progress over this record
// remains safe (Each walks a snapshot of keys captured before mutation, see
// Each's doc comment).
func (r *Record) Remove(key string) bool {
	f, ok := r.index[key]
	if !ok {
		return false
	}
	delete(r.index, key)
	newOrder := container.NewOrderedSeq()
	r.order.Each(func(v interface{}) bool {
		if v.(*field) != f {
			newOrder.Append(v)
		}
		return true
	})
	r.order = newOrder
	return true
}

// Len reports the number of fields.
func (r *Record) Len() int { return r.order.Len() }

// Each calls f(key, value) for every field in insertion order. The walk is
// over a materialized key list, so it is safe for f to mutate the record
// (remove the current or other keys) during iteration, per spec.md §4.B.
func (r *Record) Each(f func(key, value string) bool) {
	for _, k := range r.Keys() {
		fl, ok := r.index[k]
		if !ok {
			continue // removed by f during this walk
		}
		if !f(fl.key, fl.value) {
			return
		}
	}
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, 0, r.order.Len())
	r.order.Each(func(v interface{}) bool {
		out = append(out, v.(*field).key)
		return true
	})
	return out
}

// Values returns the field values in insertion order.
func (r *Record) Values() []string {
	out := make([]string, 0, r.order.Len())
	r.order.Each(func(v interface{}) bool {
		out = append(out, v.(*field).value)
		return true
	})
	return out
}

// ByIndex returns the key/value at position i (0-based, insertion order).
func (r *Record) ByIndex(i int) (key, value string, ok bool) {
	if i < 0 || i >= r.order.Len() {
		return "", "", false
	}
	idx := 0
	var res *field
	r.order.Each(func(v interface{}) bool {
		if idx == i {
			res = v.(*field)
			return false
		}
		idx++
		return true
	})
	if res == nil {
		return "", "", false
	}
	return res.key, res.value, true
}

// Reorder moves the listed keys to the front (toFront=true) or back
// (toFront=false) of the record, preserving their relative order and the
// relative order of the remaining fields, per spec.md §4.G `reorder`.
func (r *Record) Reorder(keys []string, toFront bool) {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	var front, rest []*field
	r.order.Each(func(v interface{}) bool {
		f := v.(*field)
		if wanted[f.key] {
			front = append(front, f)
		} else {
			rest = append(rest, f)
		}
		return true
	})
	// front is currently in original-record order; reorder it to match the
	// order keys were requested in.
	ordered := make([]*field, 0, len(front))
	byKey := make(map[string]*field, len(front))
	for _, f := range front {
		byKey[f.key] = f
	}
	for _, k := range keys {
		if f, ok := byKey[k]; ok {
			ordered = append(ordered, f)
		}
	}
	newOrder := container.NewOrderedSeq()
	if toFront {
		for _, f := range ordered {
			newOrder.Append(f)
		}
		for _, f := range rest {
			newOrder.Append(f)
		}
	} else {
		for _, f := range rest {
			newOrder.Append(f)
		}
		for _, f := range ordered {
			newOrder.Append(f)
		}
	}
	r.order = newOrder
}

// Clone returns a deep copy. Verbs that branch (produce multiple records
// from one input) must clone before mutating a shared record, per spec.md
// §5's ownership rule.
func (r *Record) Clone() *Record {
	out := New()
	r.Each(func(k, v string) bool {
		out.Put(k, v, r.WasQuoted(k))
		return true
	})
	return out
}

// String renders the record as "k=v,k=v" for debugging and for verbs (like
// grep) that test a regex against a DKVP-like serialization of the record.
func (r *Record) String() string {
	s := ""
	first := true
	r.Each(func(k, v string) bool {
		if !first {
			s += ","
		}
		first = false
		s += fmt.Sprintf("%s=%s", k, v)
		return true
	})
	return s
}
