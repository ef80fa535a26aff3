// Package verbs implements the verb library (spec.md §4.G): the five
// behavioral classes (streaming-preserving, streaming-derived,
// group-by-then-accumulate, multi-file, terminal-emit) plus sort.
//
// Each verb is a stream.Verb; construction functions return one,
// configured by its own options struct, grounded on the teacher's
// constructor-returns-interface convention (e.g.
// transform.NewDecodeMapTransform).
package verbs

import (
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/mlrval"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// Cat passes every record through unchanged. The simplest streaming,
// record-preserving verb, spec.md §4.G, used as the baseline for
// testable property #2 ("output with just cat equals no verbs at all").
func Cat() stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		return []*lrec.Record{rec}
	})
}

// Head keeps only the first n records, then absorbs (and eventually
// should halt upstream, but since this is a pull-driven pipeline the
// driver has no early-exit signal; Head instead returns a sentinel once
// its quota is met so downstream verbs see end-of-stream, and silently
// drops every record it is offered after that).
func Head(n int) stream.Verb {
	seen := 0
	closed := false
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if closed {
			return nil
		}
		if rec == nil {
			closed = true
			return []*lrec.Record{nil}
		}
		if seen >= n {
			closed = true
			return []*lrec.Record{nil}
		}
		seen++
		return []*lrec.Record{rec}
	})
}

// Tail keeps only the last n records, held in a ring buffer and emitted
// on the end-of-stream sentinel.
func Tail(n int) stream.Verb {
	ring := make([]*lrec.Record, 0, n)
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			out := append([]*lrec.Record(nil), ring...)
			return append(out, nil)
		}
		if n <= 0 {
			return nil
		}
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, rec)
		return nil
	})
}

// Decimate keeps every nth record (n >= 1).
func Decimate(n int) stream.Verb {
	count := 0
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		count++
		if n <= 1 || count%n == 0 {
			return []*lrec.Record{rec}
		}
		return nil
	})
}

// Sample implements reservoir sampling of k records, decided only at
// end-of-stream, per spec.md §4.G's "sample (reservoir)".
func Sample(k int, rng *rand.Rand) stream.Verb {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	reservoir := make([]*lrec.Record, 0, k)
	seen := 0
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			out := append([]*lrec.Record(nil), reservoir...)
			return append(out, nil)
		}
		seen++
		if len(reservoir) < k {
			reservoir = append(reservoir, rec)
			return nil
		}
		j := rng.Intn(seen)
		if j < k {
			reservoir[j] = rec
		}
		return nil
	})
}

// Shuffle buffers the entire stream and emits it in random order at
// end-of-stream.
func Shuffle(rng *rand.Rand) stream.Verb {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	var buf []*lrec.Record
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			rng.Shuffle(len(buf), func(i, j int) { buf[i], buf[j] = buf[j], buf[i] })
			out := append([]*lrec.Record(nil), buf...)
			return append(out, nil)
		}
		buf = append(buf, rec)
		return nil
	})
}

// Tac (buffer-all) reverses record order, spec.md §4.G.
func Tac() stream.Verb {
	var buf []*lrec.Record
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			out := make([]*lrec.Record, len(buf)+1)
			for i, r := range buf {
				out[len(buf)-1-i] = r
			}
			return out
		}
		buf = append(buf, rec)
		return nil
	})
}

// Bootstrap emits n records (default: input size) drawn with
// replacement from the full input, for bootstrap resampling; like
// Sample and Shuffle it must see the whole stream first.
func Bootstrap(n int, rng *rand.Rand) stream.Verb {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	var buf []*lrec.Record
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			count := n
			if count <= 0 {
				count = len(buf)
			}
			if len(buf) == 0 {
				return []*lrec.Record{nil}
			}
			out := make([]*lrec.Record, 0, count+1)
			for i := 0; i < count; i++ {
				out = append(out, buf[rng.Intn(len(buf))].Clone())
			}
			return append(out, nil)
		}
		buf = append(buf, rec)
		return nil
	})
}

// Grep applies a regex to the record's DKVP-like serialization, spec.md
// §4.G, passing through only matching records (or, if invert, only
// non-matching ones).
func Grep(re *regexp.Regexp, invert bool) stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		matched := re.MatchString(rec.String())
		if matched != invert {
			return []*lrec.Record{rec}
		}
		return nil
	})
}

// Label renames the first len(names) fields positionally, spec.md §4.G.
func Label(names []string) stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		for i, name := range names {
			if k, _, ok := rec.ByIndex(i); ok {
				rec.Rename(k, name)
			}
		}
		return []*lrec.Record{rec}
	})
}

// RenameSpec is one per-key rename pair for the plain (non-regex) form
// of rename.
type RenameSpec struct{ From, To string }

// Rename renames fields by exact key match, spec.md §4.G.
func Rename(pairs []RenameSpec) stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		for _, p := range pairs {
			rec.Rename(p.From, p.To)
		}
		return []*lrec.Record{rec}
	})
}

// RenameRegex renames every field whose key matches re, substituting
// replacement (which may use \1..\9 backreferences), spec.md §4.G's
// "rename (per-key or per-regex)" and SPEC_FULL §4.K's supplemented
// `-g`/global variant from the original's mapper_rename.c: global=false
// stops after the first match found in the record; global=true (the
// default covered by lrec.Record.RenameRegex) renames every matching
// field.
func RenameRegex(re *regexp.Regexp, replacement string, global bool) stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		if global {
			rec.RenameRegex(re, replacement)
		} else {
			for _, k := range rec.Keys() {
				if re.MatchString(k) {
					rec.Rename(k, re.ReplaceAllString(k, mlrval.BackrefsToGoExpand(replacement)))
					break
				}
			}
		}
		return []*lrec.Record{rec}
	})
}

// Reorder moves the listed keys to front or back, spec.md §4.G.
func Reorder(keys []string, toFront bool) stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		rec.Reorder(keys, toFront)
		return []*lrec.Record{rec}
	})
}

// Cut keeps (or, if exclude, drops) the listed keys, optionally
// preserving the order the keys were listed in rather than the record's
// own order, spec.md §4.G.
func Cut(keys []string, exclude, preserveOrder bool) stream.Verb {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		out := lrec.New()
		if !exclude && preserveOrder {
			for _, k := range keys {
				if v, ok := rec.Get(k); ok {
					out.Put(k, v, rec.WasQuoted(k))
				}
			}
			return []*lrec.Record{out}
		}
		rec.Each(func(k, v string) bool {
			present := wanted[k]
			if present == !exclude {
				out.Put(k, v, rec.WasQuoted(k))
			}
			return true
		})
		return []*lrec.Record{out}
	})
}

// Sec2GMT converts listed numeric-seconds-since-epoch fields to an ISO
// 8601 UTC timestamp string, spec.md §4.G.
func Sec2GMT(fields []string, dateOnly bool) stream.Verb {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	layout := "2006-01-02T15:04:05Z"
	if dateOnly {
		layout = "2006-01-02"
	}
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		for f := range set {
			v, ok := rec.Get(f)
			if !ok {
				continue
			}
			secs, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			t := time.Unix(int64(secs), 0).UTC()
			rec.PutInferred(f, t.Format(layout))
		}
		return []*lrec.Record{rec}
	})
}

// Regularize reorders each record's keys to match the first-seen field
// order for that record's key-set, spec.md §4.G.
func Regularize() stream.Verb {
	firstOrder := make(map[string][]string)
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		keys := rec.Keys()
		sig := keySetSignature(keys)
		order, ok := firstOrder[sig]
		if !ok {
			firstOrder[sig] = append([]string(nil), keys...)
			return []*lrec.Record{rec}
		}
		out := lrec.New()
		for _, k := range order {
			v, _ := rec.Get(k)
			out.Put(k, v, rec.WasQuoted(k))
		}
		return []*lrec.Record{out}
	})
}

// Bar renders listed numeric fields as a fixed-width ASCII bar scaled
// between lo and hi, spec.md §4.G's "bar (render numeric fields as ASCII
// bars)".
func Bar(fields []string, lo, hi float64, width int) stream.Verb {
	if width <= 0 {
		width = 40
	}
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		for _, f := range fields {
			v, ok := rec.Get(f)
			if !ok {
				continue
			}
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			rec.PutInferred(f, renderBar(x, lo, hi, width))
		}
		return []*lrec.Record{rec}
	})
}

func renderBar(x, lo, hi float64, width int) string {
	if hi <= lo {
		return ""
	}
	frac := (x - lo) / (hi - lo)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	n := int(frac * float64(width))
	b := make([]byte, width)
	for i := range b {
		if i < n {
			b[i] = '*'
		} else {
			b[i] = ' '
		}
	}
	return "[" + string(b) + "]"
}

func keySetSignature(keys []string) string {
	sorted := append([]string(nil), keys...)
	// Signature by sorted key set (not order), since two records with
	// the same fields in different input orders are still "the same
	// key-set" for regularize's purposes.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	sig := ""
	for _, k := range sorted {
		sig += k + "\x1f"
	}
	return sig
}
