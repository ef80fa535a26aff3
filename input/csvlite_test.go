package input

import (
	"context"
	"testing"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/source"
	"github.com/stretchr/testify/require"
)

func TestCSVLiteReader(t *testing.T) {
	ctx := context.Background()
	src := source.InMemorySource{Data: []byte("a,b\n1,2\n3,4\n"), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewCSVLiteReader(CSVLiteOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	require.Equal(t, "1", it.Record().GetOrEmpty("a"))
	require.True(t, it.Next())
	require.Equal(t, "3", it.Record().GetOrEmpty("a"))
	require.False(t, it.Next())
	require.NoError(t, it.Err())
}

func TestCSVLiteReaderSchemaChangeWithinFileIsFatal(t *testing.T) {
	ctx := context.Background()
	src := source.InMemorySource{Data: []byte("a,b\n1,2\n1,2,3\n"), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewCSVLiteReader(CSVLiteOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	require.False(t, it.Next())
	require.Error(t, it.Err())
}
