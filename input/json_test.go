package input

import (
	"context"
	"testing"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/source"
	"github.com/stretchr/testify/require"
)

func TestJSONReaderArrayOfObjects(t *testing.T) {
	ctx := context.Background()
	data := `[{"a":1,"b":"x"},{"a":2,"b":"y"}]`
	src := source.InMemorySource{Data: []byte(data), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewJSONReader(JSONOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	rec := it.Record()
	require.Equal(t, "1", rec.GetOrEmpty("a"))
	require.Equal(t, "x", rec.GetOrEmpty("b"))

	require.True(t, it.Next())
	rec = it.Record()
	require.Equal(t, "2", rec.GetOrEmpty("a"))

	require.False(t, it.Next())
	require.NoError(t, it.Err())
}

func TestJSONReaderSequenceOfObjects(t *testing.T) {
	ctx := context.Background()
	data := `{"a":1}
{"a":2}`
	src := source.InMemorySource{Data: []byte(data), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewJSONReader(JSONOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	require.Equal(t, "1", it.Record().GetOrEmpty("a"))
	require.True(t, it.Next())
	require.Equal(t, "2", it.Record().GetOrEmpty("a"))
	require.False(t, it.Next())
	require.NoError(t, it.Err())
}

func TestJSONReaderFlattensNestedObjects(t *testing.T) {
	ctx := context.Background()
	data := `[{"a":{"b":{"c":1}},"d":2}]`
	src := source.InMemorySource{Data: []byte(data), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewJSONReader(JSONOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	rec := it.Record()
	require.Equal(t, "1", rec.GetOrEmpty("a:b:c"))
	require.Equal(t, "2", rec.GetOrEmpty("d"))
}

func TestJSONReaderNestedArrayIsFatalByDefault(t *testing.T) {
	ctx := context.Background()
	data := `[{"a":[1,2,3]}]`
	src := source.InMemorySource{Data: []byte(data), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewJSONReader(JSONOptions{})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.False(t, it.Next())
	require.Error(t, it.Err())
}

func TestJSONReaderNestedArraySkippedWhenConfigured(t *testing.T) {
	ctx := context.Background()
	data := `[{"a":[1,2,3],"b":9}]`
	src := source.InMemorySource{Data: []byte(data), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewJSONReader(JSONOptions{SkipArrays: true})
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	rec := it.Record()
	require.False(t, rec.Has("a"))
	require.Equal(t, "9", rec.GetOrEmpty("b"))
}

func TestJSONReaderTopLevelScalarIsFatal(t *testing.T) {
	ctx := context.Background()
	src := source.InMemorySource{Data: []byte(`42`), SourceName: "s1"}
	mux := connector.NewMuxReader(ctx, []source.Opener{src})
	reader := NewJSONReader(JSONOptions{})
	_, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.Error(t, err)
}
