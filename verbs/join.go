package verbs

import (
	"strings"

	"github.com/carlodf/mlrq/input"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// JoinKind selects which unmatched-side records join also emits, spec.md
// §4.G's "join (streaming probe against a fully-loaded ... left side;
// inner, left, right, full variants)".
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft           // also emit left records with no right match
	JoinRight          // also emit right (streaming-side) records with no left match
	JoinFull           // both
)

// Join probes the streaming (right) side against a left side that is
// fully loaded up front via leftIter -- the left side must be fully
// materialized before the first right record can be matched against it,
// since any later left record might also match. leftIter is expected to
// already be opened (by the caller, wiring source+connector+input.Reader
// together) against the left file's own format and separators, per the
// per-side format-override merge rule spec.md §4.G describes; Join itself
// is agnostic to how the left side was decoded.
//
// Matched records merge left and right fields: right's non-join fields
// take precedence on key collision (the right side is the "main" stream
// the pipeline is otherwise processing). leftPrefix/rightPrefix, if
// non-empty, are prepended to each side's non-join fields before merging,
// letting a caller disambiguate colliding field names instead of one
// silently overwriting the other.
func Join(leftIter input.RecordIterator, joinFields []string, kind JoinKind, leftPrefix, rightPrefix string) stream.Verb {
	type bucket struct {
		recs    []*lrec.Record
		matched bool
	}
	left := make(map[string]*bucket)
	var leftOrder []string
	loaded := false

	loadLeft := func() {
		loaded = true
		for leftIter.Next() {
			rec := leftIter.Record()
			parts := make([]string, len(joinFields))
			ok := true
			for i, f := range joinFields {
				v, has := rec.Get(f)
				if !has {
					ok = false
					break
				}
				parts[i] = v
			}
			if !ok {
				continue
			}
			key := strings.Join(parts, "\x1f")
			b, exists := left[key]
			if !exists {
				b = &bucket{}
				left[key] = b
				leftOrder = append(leftOrder, key)
			}
			b.recs = append(b.recs, rec)
		}
		_ = leftIter.Close()
	}

	merge := func(l, r *lrec.Record) *lrec.Record {
		out := lrec.New()
		for _, f := range joinFields {
			v, _ := r.Get(f)
			out.PutInferred(f, v)
		}
		l.Each(func(k, v string) bool {
			if containsStr(joinFields, k) {
				return true
			}
			name := k
			if leftPrefix != "" {
				name = leftPrefix + k
			}
			out.PutInferred(name, v)
			return true
		})
		r.Each(func(k, v string) bool {
			if containsStr(joinFields, k) {
				return true
			}
			name := k
			if rightPrefix != "" {
				name = rightPrefix + k
			}
			out.PutInferred(name, v)
			return true
		})
		return out
	}

	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if !loaded {
			loadLeft()
		}
		if rec == nil {
			var out []*lrec.Record
			if kind == JoinLeft || kind == JoinFull {
				for _, key := range leftOrder {
					b := left[key]
					if b.matched {
						continue
					}
					out = append(out, b.recs...)
				}
			}
			return append(out, nil)
		}
		parts := make([]string, len(joinFields))
		ok := true
		for i, f := range joinFields {
			v, has := rec.Get(f)
			if !has {
				ok = false
				break
			}
			parts[i] = v
		}
		if !ok {
			if kind == JoinRight || kind == JoinFull {
				return []*lrec.Record{rec}
			}
			return nil
		}
		key := strings.Join(parts, "\x1f")
		b, found := left[key]
		if !found {
			if kind == JoinRight || kind == JoinFull {
				return []*lrec.Record{rec}
			}
			return nil
		}
		b.matched = true
		out := make([]*lrec.Record, 0, len(b.recs))
		for _, l := range b.recs {
			out = append(out, merge(l, rec))
		}
		return out
	})
}

func containsStr(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
