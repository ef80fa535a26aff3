package verbs

import (
	"testing"

	"github.com/carlodf/mlrq/lrec"
	"github.com/stretchr/testify/require"
)

func TestStats2LinregOLSPerfectFit(t *testing.T) {
	v := Stats2(nil, []Stats2Spec{{XField: "x", YField: "y", Accumulator: "linreg-ols"}})
	in := []*lrec.Record{
		rec("x", "1", "y", "3"),
		rec("x", "2", "y", "5"),
		rec("x", "3", "y", "7"),
		rec("x", "4", "y", "9"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 1)
	require.Equal(t, "2", out[0].GetOrEmpty("x_y_m"))
	require.Equal(t, "1", out[0].GetOrEmpty("x_y_b"))
	require.Equal(t, "4", out[0].GetOrEmpty("x_y_n"))
}

func TestStats2CorrAndR2PerfectFit(t *testing.T) {
	v := Stats2(nil, []Stats2Spec{
		{XField: "x", YField: "y", Accumulator: "corr"},
		{XField: "x", YField: "y", Accumulator: "r2"},
	})
	in := []*lrec.Record{
		rec("x", "1", "y", "3"),
		rec("x", "2", "y", "5"),
		rec("x", "3", "y", "7"),
		rec("x", "4", "y", "9"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 1)
	require.Equal(t, "1", out[0].GetOrEmpty("x_y_corr"))
	require.Equal(t, "1", out[0].GetOrEmpty("x_y_r2"))
}

func TestStats2CovariancePerGroup(t *testing.T) {
	v := Stats2([]string{"g"}, []Stats2Spec{{XField: "x", YField: "y", Accumulator: "cov"}})
	in := []*lrec.Record{
		rec("g", "a", "x", "1", "y", "3"),
		rec("g", "a", "x", "2", "y", "5"),
		rec("g", "a", "x", "3", "y", "7"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].GetOrEmpty("g"))
	require.Equal(t, "2", out[0].GetOrEmpty("x_y_cov"))
}

func TestStats2SkipsRecordsMissingEitherField(t *testing.T) {
	v := Stats2(nil, []Stats2Spec{{XField: "x", YField: "y", Accumulator: "cov"}})
	in := []*lrec.Record{
		rec("x", "1"),
		rec("y", "2"),
		rec("x", "1", "y", "3"),
		rec("x", "2", "y", "5"),
	}
	out := runVerb(v, in)
	require.Len(t, out, 1)
	require.NotEmpty(t, out[0].GetOrEmpty("x_y_cov"))
}
