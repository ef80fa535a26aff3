package input

import (
	"context"
	"testing"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/source"
	"github.com/stretchr/testify/require"
)

func TestPPRINTReader(t *testing.T) {
	ctx := context.Background()
	data := "a   b\n1   2\n10  20\n"
	src := source.InMemorySource{Data: []byte(data), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewPPRINTReader(PPRINTOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	require.Equal(t, "1", it.Record().GetOrEmpty("a"))
	require.True(t, it.Next())
	require.Equal(t, "10", it.Record().GetOrEmpty("a"))
	require.False(t, it.Next())
	require.NoError(t, it.Err())
}

func TestPPRINTReaderDashIsEmpty(t *testing.T) {
	ctx := context.Background()
	data := "a b\n1 -\n"
	src := source.InMemorySource{Data: []byte(data), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewPPRINTReader(PPRINTOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	require.Equal(t, "", it.Record().GetOrEmpty("b"))
}
