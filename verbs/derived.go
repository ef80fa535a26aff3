package verbs

import (
	"strconv"
	"strings"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// Nothing drops every record; spec.md §4.G's streaming-derived "nothing".
func Nothing() stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		return nil
	})
}

// Check validates that every input record parses (by virtue of having
// reached this verb at all) and drops all of them, spec.md §4.G's
// "check (drop all; validate parsing)".
func Check() stream.Verb {
	return Nothing()
}

// Seqgen synthesizes count records, each with one field named field set
// to start, start+step, start+2*step, ..., ignoring any actual input
// stream -- spec.md §4.G's "seqgen (synthesize records)". Typically the
// first (and only) verb in a chain.
func Seqgen(field string, start, stop, step float64) stream.Verb {
	emitted := false
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if emitted {
			if rec == nil {
				return []*lrec.Record{nil}
			}
			return nil
		}
		emitted = true
		var out []*lrec.Record
		if step == 0 {
			step = 1
		}
		if step > 0 {
			for v := start; v <= stop; v += step {
				r := lrec.New()
				r.PutInferred(field, formatSeqVal(v))
				out = append(out, r)
			}
		} else {
			for v := start; v >= stop; v += step {
				r := lrec.New()
				r.PutInferred(field, formatSeqVal(v))
				out = append(out, r)
			}
		}
		if rec == nil {
			out = append(out, nil)
		}
		return out
	})
}

func formatSeqVal(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// HavingFieldsMode selects the boolean test spec.md §4.G's "having-fields
// (boolean test on which keys are present)" runs.
type HavingFieldsMode int

const (
	HavingAllDefined HavingFieldsMode = iota
	HavingAnyDefined
	HavingNoneDefined
)

// HavingFields keeps records whose key set satisfies mode against the
// listed fields.
func HavingFields(mode HavingFieldsMode, fields []string) stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		count := 0
		for _, f := range fields {
			if rec.Has(f) {
				count++
			}
		}
		var keep bool
		switch mode {
		case HavingAllDefined:
			keep = count == len(fields)
		case HavingAnyDefined:
			keep = count > 0
		case HavingNoneDefined:
			keep = count == 0
		}
		if keep {
			return []*lrec.Record{rec}
		}
		return nil
	})
}

// Repeat emits rec k times, where k is read from countField (a literal
// count if countField is empty and staticCount > 0), spec.md §4.G's
// "repeat (emit record k times where k is from a field)".
func Repeat(countField string, staticCount int) stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		k := staticCount
		if countField != "" {
			if v, ok := rec.Get(countField); ok {
				if n, err := strconv.Atoi(v); err == nil {
					k = n
				}
			}
		}
		if k <= 0 {
			return nil
		}
		out := make([]*lrec.Record, k)
		for i := 0; i < k; i++ {
			if i == 0 {
				out[i] = rec
			} else {
				out[i] = rec.Clone()
			}
		}
		return out
	})
}

// NestMode selects explode/implode and across-records/across-fields for
// the nest verb, spec.md §4.G's "nest (explode/implode a delimited field
// across records or across new fields)".
type NestMode int

const (
	NestExplodeRecords NestMode = iota
	NestExplodeFields
	NestImplodeRecords
)

// Nest explodes field (split on sep into multiple records or multiple
// numbered fields) or implodes a run of records sharing the same
// non-field values back into one record with field re-joined by sep.
// Implode buffers by necessity (it must see every record sharing a key
// before it can join them), so it flushes on the end-of-stream sentinel.
func Nest(mode NestMode, field, sep string) stream.Verb {
	type bucket struct {
		order  []string
		values map[string][]string
		recs   map[string]*lrec.Record
	}
	b := &bucket{values: make(map[string][]string), recs: make(map[string]*lrec.Record)}

	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		switch mode {
		case NestExplodeRecords:
			if rec == nil {
				return []*lrec.Record{nil}
			}
			v, ok := rec.Get(field)
			if !ok {
				return []*lrec.Record{rec}
			}
			parts := strings.Split(v, sep)
			out := make([]*lrec.Record, 0, len(parts))
			for _, p := range parts {
				clone := rec.Clone()
				clone.PutInferred(field, p)
				out = append(out, clone)
			}
			return out
		case NestExplodeFields:
			if rec == nil {
				return []*lrec.Record{nil}
			}
			v, ok := rec.Get(field)
			if !ok {
				return []*lrec.Record{rec}
			}
			parts := strings.Split(v, sep)
			rec.Remove(field)
			for i, p := range parts {
				rec.PutInferred(field+"_"+strconv.Itoa(i+1), p)
			}
			return []*lrec.Record{rec}
		default: // NestImplodeRecords
			if rec == nil {
				var out []*lrec.Record
				for _, key := range b.order {
					joined := strings.Join(b.values[key], sep)
					base := b.recs[key]
					base.PutInferred(field, joined)
					out = append(out, base)
				}
				return append(out, nil)
			}
			v, ok := rec.Get(field)
			if !ok {
				return []*lrec.Record{rec}
			}
			rest := rec.Clone()
			rest.Remove(field)
			key := rest.String()
			if _, ok := b.values[key]; !ok {
				b.order = append(b.order, key)
				b.recs[key] = rest
			}
			b.values[key] = append(b.values[key], v)
			return nil
		}
	})
}

// ReshapeMode selects long-to-wide or wide-to-long for the reshape verb,
// spec.md §4.G's "reshape (long<->wide)".
type ReshapeMode int

const (
	ReshapeLongToWide ReshapeMode = iota
	ReshapeWideToLong
)

// Reshape converts between long and wide record layouts.
//
// Wide-to-long: for each of valueFields, emit one record carrying the
// other (non-value) fields plus keyFieldName=<field name> and
// valueFieldName=<field's value>.
//
// Long-to-wide: group records by their non-key/value fields (the
// "other" fields) and, on end-of-stream, emit one record per group with
// keyFieldName's observed values as new field names holding
// valueFieldName's values -- this direction must buffer, symmetrical to
// Nest's implode.
func Reshape(mode ReshapeMode, keyFieldName, valueFieldName string, valueFields []string) stream.Verb {
	type group struct {
		other  *lrec.Record
		fields map[string]string
	}
	groups := make(map[string]*group)
	var order []string

	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if mode == ReshapeWideToLong {
			if rec == nil {
				return []*lrec.Record{nil}
			}
			other := rec.Clone()
			for _, f := range valueFields {
				other.Remove(f)
			}
			var out []*lrec.Record
			for _, f := range valueFields {
				v, ok := rec.Get(f)
				if !ok {
					continue
				}
				r := other.Clone()
				r.PutInferred(keyFieldName, f)
				r.PutInferred(valueFieldName, v)
				out = append(out, r)
			}
			return out
		}
		// ReshapeLongToWide
		if rec == nil {
			var out []*lrec.Record
			for _, key := range order {
				g := groups[key]
				r := g.other.Clone()
				for k, v := range g.fields {
					r.PutInferred(k, v)
				}
				out = append(out, r)
			}
			return append(out, nil)
		}
		k, ok1 := rec.Get(keyFieldName)
		v, ok2 := rec.Get(valueFieldName)
		if !ok1 || !ok2 {
			return nil
		}
		other := rec.Clone()
		other.Remove(keyFieldName)
		other.Remove(valueFieldName)
		sig := other.String()
		g, ok := groups[sig]
		if !ok {
			g = &group{other: other, fields: make(map[string]string)}
			groups[sig] = g
			order = append(order, sig)
		}
		g.fields[k] = v
		return nil
	})
}
