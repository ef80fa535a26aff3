package verbs

import (
	"testing"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/stretchr/testify/require"
)

func rec(pairs ...string) *lrec.Record {
	r := lrec.New()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.PutInferred(pairs[i], pairs[i+1])
	}
	return r
}

func runVerb(v interface {
	Process(*lrec.Record, recctx.Context) []*lrec.Record
}, recs []*lrec.Record) []*lrec.Record {
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	var out []*lrec.Record
	for _, r := range recs {
		out = append(out, v.Process(r, ctx)...)
	}
	out = append(out, v.Process(nil, ctx)...)
	var final []*lrec.Record
	for _, r := range out {
		if r != nil {
			final = append(final, r)
		}
	}
	return final
}

func TestStats1SumMeanPerGroup(t *testing.T) {
	v := Stats1([]string{"g"}, []Stats1Spec{{Field: "x", Accumulator: "sum"}, {Field: "x", Accumulator: "mean"}})
	in := []*lrec.Record{
		rec("g", "a", "x", "1"),
		rec("g", "a", "x", "3"),
		rec("g", "b", "x", "10"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].GetOrEmpty("g"))
	require.Equal(t, "4", out[0].GetOrEmpty("x_sum"))
	require.Equal(t, "2", out[0].GetOrEmpty("x_mean"))
	require.Equal(t, "b", out[1].GetOrEmpty("g"))
	require.Equal(t, "10", out[1].GetOrEmpty("x_sum"))
}

func TestStats1SharedPercentileBuffer(t *testing.T) {
	v := Stats1(nil, []Stats1Spec{{Field: "x", Accumulator: "p50"}, {Field: "x", Accumulator: "p90"}})
	in := []*lrec.Record{
		rec("x", "1"), rec("x", "2"), rec("x", "3"), rec("x", "4"), rec("x", "5"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 1)
	require.NotEmpty(t, out[0].GetOrEmpty("x_p50"))
	require.NotEmpty(t, out[0].GetOrEmpty("x_p90"))
}

func TestCountDistinct(t *testing.T) {
	v := CountDistinct([]string{"a", "b"})
	in := []*lrec.Record{
		rec("a", "1", "b", "x"),
		rec("a", "1", "b", "x"),
		rec("a", "2", "b", "y"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 2)
	require.Equal(t, "2", out[0].GetOrEmpty("count"))
	require.Equal(t, "1", out[1].GetOrEmpty("count"))
}

func TestGroupByReordersContiguously(t *testing.T) {
	v := GroupBy([]string{"g"})
	in := []*lrec.Record{
		rec("g", "a", "n", "1"),
		rec("g", "b", "n", "2"),
		rec("g", "a", "n", "3"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 3)
	require.Equal(t, []string{"a", "a", "b"}, []string{
		out[0].GetOrEmpty("g"), out[1].GetOrEmpty("g"), out[2].GetOrEmpty("g"),
	})
}

func TestGroupLikeByKeySet(t *testing.T) {
	v := GroupLike()
	in := []*lrec.Record{
		rec("a", "1", "b", "2"),
		rec("x", "9"),
		rec("a", "3", "b", "4"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 3)
	require.Equal(t, "1", out[0].GetOrEmpty("a"))
	require.Equal(t, "3", out[1].GetOrEmpty("a"))
	require.Equal(t, "9", out[2].GetOrEmpty("x"))
}

func TestStepDeltaAndRsum(t *testing.T) {
	v := Step(nil, []string{"x"}, []StepperKind{StepDelta, StepRsum})
	in := []*lrec.Record{rec("x", "1"), rec("x", "3"), rec("x", "6")}
	out := runVerb(v, in)
	require.Len(t, out, 3)
	require.Equal(t, "0", out[0].GetOrEmpty("x_delta"))
	require.Equal(t, "2", out[1].GetOrEmpty("x_delta"))
	require.Equal(t, "3", out[2].GetOrEmpty("x_delta"))
	require.Equal(t, "1", out[0].GetOrEmpty("x_rsum"))
	require.Equal(t, "4", out[1].GetOrEmpty("x_rsum"))
	require.Equal(t, "10", out[2].GetOrEmpty("x_rsum"))
}
