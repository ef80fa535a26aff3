package input

import (
	"context"
	"testing"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/source"
	"github.com/stretchr/testify/require"
)

func TestXTABReader(t *testing.T) {
	ctx := context.Background()
	data := "a 1\nb 2\n\na 3\nb 4\n"
	src := source.InMemorySource{Data: []byte(data), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewXTABReader(XTABOptions{})
	seps := recctx.DefaultSeparators()
	seps.IPS = " "
	it, err := reader.Open(ctx, mux, seps)
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
