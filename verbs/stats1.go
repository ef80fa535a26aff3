package verbs

import (
	"strconv"
	"strings"

	"github.com/carlodf/mlrq/container"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// groupAccumulator is the shared skeleton every group-by-then-accumulate
// verb builds on, spec.md §4.G:
//  1. compute the group key as the tuple of group-by field values
//     (records missing one are skipped);
//  2. look up or create the group's private state;
//  3. feed each listed value field to the group's accumulators;
//  4. on end-of-stream, walk groups in first-seen order and synthesize
//     one output record per group: the group-by key/value pairs first,
//     then the accumulator outputs.
//
// groupState is verb-specific private per-group data (an accumulator
// set for stats1, a step-state struct for step, a top-k keeper for top,
// etc.); newState constructs a fresh one lazily per group.
type groupAccumulator struct {
	groupBy   []string
	groups    *container.OrderedSet
	states    map[string]interface{}
	newState  func() interface{}
	feed      func(state interface{}, rec *lrec.Record)
	finalize  func(state interface{}, groupVals []string, groupBy []string) *lrec.Record
}

func newGroupAccumulator(groupBy []string, newState func() interface{}, feed func(interface{}, *lrec.Record), finalize func(interface{}, []string, []string) *lrec.Record) *groupAccumulator {
	return &groupAccumulator{
		groupBy:  groupBy,
		groups:   container.NewOrderedSet(),
		states:   make(map[string]interface{}),
		newState: newState,
		feed:     feed,
		finalize: finalize,
	}
}

func (g *groupAccumulator) process(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
	if rec == nil {
		var out []*lrec.Record
		g.groups.Each(func(parts []string) bool {
			key := strings.Join(parts, "\x1f")
			st := g.states[key]
			out = append(out, g.finalize(st, parts, g.groupBy))
			return true
		})
		return append(out, nil)
	}
	parts := make([]string, len(g.groupBy))
	for i, f := range g.groupBy {
		v, ok := rec.Get(f)
		if !ok {
			return nil // missing group-by field: skip, per spec.md §4.G
		}
		parts[i] = v
	}
	g.groups.Add(parts)
	key := strings.Join(parts, "\x1f")
	st, ok := g.states[key]
	if !ok {
		st = g.newState()
		g.states[key] = st
	}
	g.feed(st, rec)
	return nil
}

// Stats1Spec names one accumulator over one value field, e.g. {Field:
// "v", Accumulator: "sum"}.
type Stats1Spec struct {
	Field       string
	Accumulator string
}

type stats1State struct {
	accs map[string]accumulator // keyed by "field\x1faccumulator"
	pct  map[string]*sharedPercentileBuffer // keyed by field, shared across p-accumulators
}

// Stats1 implements the stats1 verb: per group-by-field-tuple running
// statistics over value fields, spec.md §4.G, synthesizing
// `{field}_{accumulator}` output columns at end-of-stream.
func Stats1(groupBy []string, specs []Stats1Spec) stream.Verb {
	ga := newGroupAccumulator(
		groupBy,
		func() interface{} {
			return &stats1State{accs: make(map[string]accumulator), pct: make(map[string]*sharedPercentileBuffer)}
		},
		func(stIface interface{}, rec *lrec.Record) {
			st := stIface.(*stats1State)
			for _, spec := range specs {
				v, ok := rec.Get(spec.Field)
				if !ok {
					continue
				}
				if isPercentileKind(spec.Accumulator) {
					buf, ok := st.pct[spec.Field]
					if !ok {
						buf = &sharedPercentileBuffer{}
						st.pct[spec.Field] = buf
					}
					buf.feed(v)
					continue
				}
				key := spec.Field + "\x1f" + spec.Accumulator
				acc, ok := st.accs[key]
				if !ok {
					acc = newAccumulator(spec.Accumulator)
					st.accs[key] = acc
				}
				acc.Feed(v)
			}
		},
		func(stIface interface{}, groupVals, groupBy []string) *lrec.Record {
			st := stIface.(*stats1State)
			out := lrec.New()
			for i, f := range groupBy {
				out.PutInferred(f, groupVals[i])
			}
			for _, spec := range specs {
				colName := spec.Field + "_" + spec.Accumulator
				if isPercentileKind(spec.Accumulator) {
					buf := st.pct[spec.Field]
					if buf == nil {
						out.PutInferred(colName, "")
						continue
					}
					out.PutInferred(colName, buf.percentile(parsePercentile(spec.Accumulator)))
					continue
				}
				acc := st.accs[spec.Field+"\x1f"+spec.Accumulator]
				if acc == nil {
					out.PutInferred(colName, "")
					continue
				}
				out.PutInferred(colName, acc.Result())
			}
			return out
		},
	)
	return stream.VerbFunc(ga.process)
}

// CountDistinct counts distinct combinations of the listed fields,
// spec.md §4.G's "count-distinct", emitting one record per distinct
// tuple with a trailing count field, in first-seen order.
func CountDistinct(fields []string) stream.Verb {
	ga := newGroupAccumulator(
		fields,
		func() interface{} { n := 0; return &n },
		func(st interface{}, rec *lrec.Record) { *(st.(*int))++ },
		func(st interface{}, groupVals, groupBy []string) *lrec.Record {
			out := lrec.New()
			for i, f := range groupBy {
				out.PutInferred(f, groupVals[i])
			}
			out.PutInferred("count", strconv.Itoa(*(st.(*int))))
			return out
		},
	)
	return stream.VerbFunc(ga.process)
}

// GroupBy reorders the stream so records sharing the same values for
// the listed fields are contiguous, in first-seen group order, spec.md
// §4.G's "group-by". Unlike stats1/count-distinct this re-emits whole
// records, not a synthesized summary, so it must buffer every record
// per group and flush them all (grouped) on end-of-stream.
func GroupBy(fields []string) stream.Verb {
	groups := container.NewOrderedSet()
	buffers := make(map[string][]*lrec.Record)
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			var out []*lrec.Record
			groups.Each(func(parts []string) bool {
				key := strings.Join(parts, "\x1f")
				out = append(out, buffers[key]...)
				return true
			})
			return append(out, nil)
		}
		parts := make([]string, len(fields))
		for i, f := range fields {
			v, ok := rec.Get(f)
			if !ok {
				return nil
			}
			parts[i] = v
		}
		groups.Add(parts)
		key := strings.Join(parts, "\x1f")
		buffers[key] = append(buffers[key], rec)
		return nil
	})
}

// GroupLike groups records by their key *set* (field names, regardless
// of values), spec.md §4.G's "group-like": records whose field names
// match exactly are emitted contiguously, in first-seen key-set order.
func GroupLike() stream.Verb {
	var order []string
	buffers := make(map[string][]*lrec.Record)
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			var out []*lrec.Record
			for _, sig := range order {
				out = append(out, buffers[sig]...)
			}
			return append(out, nil)
		}
		sig := keySetSignature(rec.Keys())
		if _, ok := buffers[sig]; !ok {
			order = append(order, sig)
		}
		buffers[sig] = append(buffers[sig], rec)
		return nil
	})
}
