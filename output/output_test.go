package output

import (
	"strings"
	"testing"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/stretchr/testify/require"
)

func rec(pairs ...string) *lrec.Record {
	r := lrec.New()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Put(pairs[i], pairs[i+1], false)
	}
	return r
}

func TestDKVPWriterRoundTripsLine(t *testing.T) {
	var b strings.Builder
	w := NewDKVPWriter(&b)
	require.NoError(t, w.Write(rec("a", "1", "b", "2"), recctx.Context{Seps: recctx.DefaultSeparators()}))
	require.NoError(t, w.Close())
	require.Equal(t, "a=1,b=2\n", b.String())
}

func TestCSVWriterMinimalQuotesOnlyWhenNeeded(t *testing.T) {
	var b strings.Builder
	seps := recctx.DefaultSeparators()
	seps.OFS = ","
	seps.ORS = "\n"
	w := NewCSVWriter(&b, CSVOptions{QuoteMode: QuoteMinimal})
	require.NoError(t, w.Write(rec("a", "x,y", "b", `z"w`), recctx.Context{Seps: seps}))
	require.NoError(t, w.Close())
	require.Equal(t, "a,b\n\"x,y\",\"z\"\"w\"\n", b.String())
}

func TestCSVWriterNewHeaderOnKeySetChange(t *testing.T) {
	var b strings.Builder
	seps := recctx.DefaultSeparators()
	seps.OFS = ","
	seps.ORS = "\n"
	w := NewCSVWriter(&b, CSVOptions{QuoteMode: QuoteNone})
	require.NoError(t, w.Write(rec("a", "1"), recctx.Context{Seps: seps}))
	require.NoError(t, w.Write(rec("x", "9"), recctx.Context{Seps: seps}))
	require.NoError(t, w.Close())
	require.Equal(t, "a\n1\n\nx\n9\n", b.String())
}

func TestCSVWriterOriginalQuotingNotStickyAcrossComputedFields(t *testing.T) {
	var b strings.Builder
	seps := recctx.DefaultSeparators()
	seps.OFS = ","
	seps.ORS = "\n"
	r := lrec.New()
	r.Put("a", "1", true)
	r.Put("b", "2", false)
	w := NewCSVWriter(&b, CSVOptions{QuoteMode: QuoteOriginal})
	require.NoError(t, w.Write(r, recctx.Context{Seps: seps}))
	require.NoError(t, w.Close())
	require.Equal(t, "a,b\n\"1\",2\n", b.String())
}

func TestPPRINTWriterGroupsByKeySet(t *testing.T) {
	var b strings.Builder
	w := NewPPRINTWriter(&b, PPRINTOptions{})
	seps := recctx.Separators{OFS: " "}
	require.NoError(t, w.Write(rec("a", "1", "bb", "22"), recctx.Context{Seps: seps}))
	require.NoError(t, w.Write(rec("a", "100", "bb", "2"), recctx.Context{Seps: seps}))
	require.NoError(t, w.Close())
	require.Equal(t, "a   bb\n1   22\n100 2\n", b.String())
}

func TestXTABWriterAlignsValueColumn(t *testing.T) {
	var b strings.Builder
	w := NewXTABWriter(&b)
	seps := recctx.Separators{OPS: " "}
	require.NoError(t, w.Write(rec("a", "1", "longkey", "2"), recctx.Context{Seps: seps}))
	require.NoError(t, w.Close())
	require.Equal(t, "a       1\nlongkey 2\n", b.String())
}

func TestJSONWriterListWrap(t *testing.T) {
	var b strings.Builder
	w := NewJSONWriter(&b, JSONOptions{Mode: JSONListWrap})
	require.NoError(t, w.Write(rec("a", "1"), recctx.Context{}))
	require.NoError(t, w.Write(rec("a", "2"), recctx.Context{}))
	require.NoError(t, w.Close())
	require.Equal(t, "[\n  {\"a\": \"1\"},\n  {\"a\": \"2\"}\n]\n", b.String())
}

func TestMarkdownWriterEscapesPipes(t *testing.T) {
	var b strings.Builder
	w := NewMarkdownWriter(&b)
	require.NoError(t, w.Write(rec("a", "x|y"), recctx.Context{}))
	require.NoError(t, w.Close())
	require.Equal(t, "| a |\n| --- |\n| x\\|y |\n", b.String())
}
