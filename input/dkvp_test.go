package input

import (
	"context"
	"testing"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/source"
	"github.com/stretchr/testify/require"
)

func TestDKVPReader(t *testing.T) {
	ctx := context.Background()
	src := source.InMemorySource{Data: []byte("a=1,b=2\na=3,b=4\n"), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewDKVPReader(DKVPOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	rec := it.Record()
	require.Equal(t, "1", rec.GetOrEmpty("a"))
	require.Equal(t, "2", rec.GetOrEmpty("b"))

	require.True(t, it.Next())
	rec = it.Record()
	require.Equal(t, "3", rec.GetOrEmpty("a"))
	require.Equal(t, "4", rec.GetOrEmpty("b"))

	require.False(t, it.Next())
	require.NoError(t, it.Err())
}

func TestDKVPReaderPositionalKeyWhenNoPS(t *testing.T) {
	ctx := context.Background()
	src := source.InMemorySource{Data: []byte("x,y=2\n"), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewDKVPReader(DKVPOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	rec := it.Record()
	require.Equal(t, "x", rec.GetOrEmpty("1"))
	require.Equal(t, "2", rec.GetOrEmpty("y"))
}
