package cst_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carlodf/mlrq/dsl"
	"github.com/carlodf/mlrq/dsl/cst"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

func newInterp(t *testing.T, src string) *cst.Interpreter {
	t.Helper()
	prog, err := dsl.Compile(src)
	require.NoError(t, err)
	rc, err := cst.NewRegexCache()
	require.NoError(t, err)
	return cst.New(prog, rc, cst.NewRedirectCache())
}

func rec(pairs ...string) *lrec.Record {
	r := lrec.New()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.PutInferred(pairs[i], pairs[i+1])
	}
	return r
}

func TestInterpAssignsComputedField(t *testing.T) {
	it := newInterp(t, `$z = $x + $y;`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	r := rec("x", "2", "y", "3")
	_, err := it.RunMain(r, ctx)
	require.NoError(t, err)
	v, ok := r.Get("z")
	require.True(t, ok)
	require.Equal(t, "5", v)
}

func TestInterpOosvarAccumulatesAcrossRecords(t *testing.T) {
	it := newInterp(t, `@total += $x; end { emitf @total; }`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	require.NoError(t, it.RunBegin(ctx))
	for _, x := range []string{"1", "2", "3"} {
		_, err := it.RunMain(rec("x", x), ctx)
		require.NoError(t, err)
	}
	require.NoError(t, it.RunEnd(ctx))
	emitted := it.TakeEmitted()
	require.Len(t, emitted, 1)
	v, ok := emitted[0].Get("total")
	require.True(t, ok)
	require.Equal(t, "6", v)
}

func TestInterpIfElseBranches(t *testing.T) {
	it := newInterp(t, `
		if ($x > 0) {
			$sign = "pos";
		} else {
			$sign = "nonpos";
		}
	`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	pos := rec("x", "5")
	_, err := it.RunMain(pos, ctx)
	require.NoError(t, err)
	v, _ := pos.Get("sign")
	require.Equal(t, "pos", v)

	neg := rec("x", "-5")
	_, err = it.RunMain(neg, ctx)
	require.NoError(t, err)
	v, _ = neg.Get("sign")
	require.Equal(t, "nonpos", v)
}

func TestInterpUserFunctionRecursion(t *testing.T) {
	it := newInterp(t, `
		func fact(n) {
			if (n <= 1) {
				return 1;
			}
			return n * fact(n - 1);
		}
		$f = fact($n);
	`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	r := rec("n", "5")
	_, err := it.RunMain(r, ctx)
	require.NoError(t, err)
	v, _ := r.Get("f")
	require.Equal(t, "120", v)
}

func TestInterpFilterKeepsOnlyMatching(t *testing.T) {
	it := newInterp(t, `$x > 1`)
	it.SetFilterMode(true)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	keep, err := it.RunMain(rec("x", "5"), ctx)
	require.NoError(t, err)
	require.True(t, keep)
	drop, err := it.RunMain(rec("x", "0"), ctx)
	require.NoError(t, err)
	require.False(t, drop)
}

func TestInterpToupperExpandsGermanSharpS(t *testing.T) {
	it := newInterp(t, `$u = toupper($s); $l = tolower($s); $c = capitalize($s);`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	r := rec("s", "straße")
	_, err := it.RunMain(r, ctx)
	require.NoError(t, err)
	u, _ := r.Get("u")
	require.Equal(t, "STRASSE", u)
	l, _ := r.Get("l")
	require.Equal(t, "straße", l)
	c, _ := r.Get("c")
	require.Equal(t, "Straße", c)
}

func TestInterpLocalDeclShadowsEnclosingBinding(t *testing.T) {
	it := newInterp(t, `
		x = 1;
		if (true) {
			var x = 2;
			x = x + 1;
		}
		$outer = x;
	`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	r := rec()
	_, err := it.RunMain(r, ctx)
	require.NoError(t, err)
	outer, _ := r.Get("outer")
	require.Equal(t, "1", outer)
}

func TestInterpWhileLoopAccumulatesInEnclosingLocal(t *testing.T) {
	it := newInterp(t, `
		total = 0;
		i = 0;
		while (i < 5) {
			total = total + i;
			i = i + 1;
		}
		$total = total;
	`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	r := rec()
	_, err := it.RunMain(r, ctx)
	require.NoError(t, err)
	total, _ := r.Get("total")
	require.Equal(t, "10", total)
}

func TestInterpForLoopLocalDoesNotLeakOutsideBlock(t *testing.T) {
	it := newInterp(t, `
		for (i = 0; i < 3; i = i + 1) {
			y = i;
		}
		$y = y;
	`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	r := rec()
	_, err := it.RunMain(r, ctx)
	require.NoError(t, err)
	y, ok := r.Get("y")
	require.True(t, ok)
	require.Equal(t, "", y)
}

func TestInterpForLoopOverOosvarMap(t *testing.T) {
	it := newInterp(t, `
		@seen[$k] = 1;
		end {
			for (k, v in @seen) {
				print k;
			}
		}
	`)
	ctx := recctx.Context{Seps: recctx.DefaultSeparators()}
	require.NoError(t, it.RunBegin(ctx))
	for _, k := range []string{"a", "b"} {
		_, err := it.RunMain(rec("k", k), ctx)
		require.NoError(t, err)
	}
	require.NoError(t, it.RunEnd(ctx))
}
