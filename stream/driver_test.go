package stream

import (
	"context"
	"strings"
	"testing"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/input"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/output"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/source"
	"github.com/stretchr/testify/require"
)

func catVerb() Verb {
	return VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		return []*lrec.Record{rec}
	})
}

func TestDriverCatPassthroughEqualsNoVerbs(t *testing.T) {
	ctx := context.Background()
	src := source.InMemorySource{Data: []byte("a=1,b=2\na=3,b=4\n"), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := input.NewDKVPReader(input.DKVPOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	var out strings.Builder
	w := output.NewDKVPWriter(&out)
	d := &Driver{Reader: reader, Verbs: []Verb{catVerb()}, Writer: w}
	require.NoError(t, d.Run(it, recctx.Context{Seps: recctx.DefaultSeparators()}))
	require.Equal(t, "a=1,b=2\na=3,b=4\n", out.String())
}

func TestDriverSentinelFlushesBufferedVerb(t *testing.T) {
	ctx := context.Background()
	src := source.InMemorySource{Data: []byte("a=1\na=2\na=3\n"), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := input.NewDKVPReader(input.DKVPOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	// A verb that buffers every record and only emits on the sentinel,
	// like tac or sort.
	var buffered []*lrec.Record
	bufferAll := VerbFunc(func(rec *lrec.Record, c recctx.Context) []*lrec.Record {
		if rec == nil {
			out := append([]*lrec.Record(nil), buffered...)
			out = append(out, nil)
			return out
		}
		buffered = append(buffered, rec)
		return nil
	})

	var out strings.Builder
	w := output.NewDKVPWriter(&out)
	d := &Driver{Reader: reader, Verbs: []Verb{bufferAll}, Writer: w}
	require.NoError(t, d.Run(it, recctx.Context{Seps: recctx.DefaultSeparators()}))
	require.Equal(t, "a=1\na=2\na=3\n", out.String())
}
