package verbs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carlodf/mlrq/dsl"
	"github.com/carlodf/mlrq/lrec"
)

func TestPutAddsComputedField(t *testing.T) {
	prog, err := dsl.Compile(`$total = $a + $b;`)
	require.NoError(t, err)
	v := Put(prog)
	in := []*lrec.Record{rec("a", "2", "b", "3")}
	out := runVerb(v, in)
	require.Len(t, out, 1)
	total, ok := out[0].Get("total")
	require.True(t, ok)
	require.Equal(t, "5", total)
}

func TestFilterDropsNonMatching(t *testing.T) {
	prog, err := dsl.Compile(`$x > 2`)
	require.NoError(t, err)
	v := Filter(prog)
	in := []*lrec.Record{rec("x", "1"), rec("x", "5"), rec("x", "3")}
	out := runVerb(v, in)
	require.Len(t, out, 2)
	x0, _ := out[0].Get("x")
	x1, _ := out[1].Get("x")
	require.Equal(t, "5", x0)
	require.Equal(t, "3", x1)
}

func TestPutBeginEndAccumulateAndEmit(t *testing.T) {
	prog, err := dsl.Compile(`
		begin { @count = 0; }
		@count += 1;
		end { emitf @count; }
	`)
	require.NoError(t, err)
	v := Put(prog)
	in := []*lrec.Record{rec("x", "1"), rec("x", "2"), rec("x", "3")}
	out := runVerb(v, in)
	// 3 passthrough records plus 1 emitted summary record.
	require.Len(t, out, 4)
	count, ok := out[len(out)-1].Get("count")
	require.True(t, ok)
	require.Equal(t, "3", count)
}
