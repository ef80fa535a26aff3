package verbs

import (
	"strconv"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// StepperKind names a step verb accumulator that depends on previous
// records' values, distinct from stats1's whole-stream accumulators.
type StepperKind string

const (
	StepDelta   StepperKind = "delta"
	StepShift   StepperKind = "shift"
	StepCounter StepperKind = "counter"
	StepRsum    StepperKind = "rsum" // running sum
)

// Step applies one or more per-group, order-dependent steppers to each
// of valueFields, spec.md §4.G's "step": unlike stats1, step emits a
// record for every input record (streaming, not buffered to
// end-of-stream), with new columns `{field}_{stepper}` computed from
// that group's running state.
func Step(groupBy []string, valueFields []string, steppers []StepperKind) stream.Verb {
	type state struct {
		prev    map[string]float64
		hasPrev map[string]bool
		rsum    map[string]float64
		counter map[string]int
	}
	states := make(map[string]*state)
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		key := ""
		for _, f := range groupBy {
			v, _ := rec.Get(f)
			key += v + "\x1f"
		}
		st, ok := states[key]
		if !ok {
			st = &state{prev: make(map[string]float64), hasPrev: make(map[string]bool), rsum: make(map[string]float64), counter: make(map[string]int)}
			states[key] = st
		}
		for _, f := range valueFields {
			raw, ok := rec.Get(f)
			if !ok {
				continue
			}
			x, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			for _, s := range steppers {
				switch s {
				case StepDelta:
					d := 0.0
					if st.hasPrev[f] {
						d = x - st.prev[f]
					}
					rec.PutInferred(f+"_delta", strconv.FormatFloat(d, 'g', -1, 64))
				case StepShift:
					if st.hasPrev[f] {
						rec.PutInferred(f+"_shift", strconv.FormatFloat(st.prev[f], 'g', -1, 64))
					} else {
						rec.PutInferred(f+"_shift", "")
					}
				case StepCounter:
					st.counter[f]++
					rec.PutInferred(f+"_counter", strconv.Itoa(st.counter[f]))
				case StepRsum:
					st.rsum[f] += x
					rec.PutInferred(f+"_rsum", strconv.FormatFloat(st.rsum[f], 'g', -1, 64))
				}
			}
			st.prev[f] = x
			st.hasPrev[f] = true
		}
		return []*lrec.Record{rec}
	})
}
