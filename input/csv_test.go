package input

import (
	"context"
	"testing"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/source"
	"github.com/stretchr/testify/require"
)

// Grounded on the teacher's transform/csv_decoder_test.go table-driven
// style, retargeted to *lrec.Record and to SPEC_FULL's within-file vs.
// across-file schema-change rule.
type csvCase struct {
	name           string
	sources        []source.Opener
	opt            CSVOptions
	expectedRows   [][]string
	expectedHeader []string
	wantOpenErr    bool
	wantIterErr    bool
}

var csvCases = []csvCase{
	{
		name:           "infer header basic",
		sources:        []source.Opener{source.InMemorySource{Data: []byte("a,b\n1,2\n"), SourceName: "s1"}},
		expectedRows:   [][]string{{"1", "2"}},
		expectedHeader: []string{"a", "b"},
	},
	{
		name:        "infer header error on empty source",
		sources:     []source.Opener{source.InMemorySource{Data: []byte(""), SourceName: "s1"}},
		wantOpenErr: true,
	},
	{
		name:           "valid explicit header",
		sources:        []source.Opener{source.InMemorySource{Data: []byte("1,2\n"), SourceName: "s1"}},
		opt:            CSVOptions{Header: []string{"a", "b"}},
		expectedRows:   [][]string{{"1", "2"}},
		expectedHeader: []string{"a", "b"},
	},
	{
		name:        "explicit header field count mismatch",
		sources:     []source.Opener{source.InMemorySource{Data: []byte("1,2,3\n"), SourceName: "s1"}},
		opt:         CSVOptions{Header: []string{"a", "b"}},
		wantIterErr: true,
	},
	{
		name: "header skip on new source",
		sources: []source.Opener{
			source.InMemorySource{Data: []byte("col1,col2\na1,b1\n"), SourceName: "s1"},
			source.InMemorySource{Data: []byte("col1,col2\na2,b2\n"), SourceName: "s2"},
		},
		expectedRows:   [][]string{{"a1", "b1"}, {"a2", "b2"}},
		expectedHeader: []string{"col1", "col2"},
	},
	{
		name: "schema change within second file is fatal",
		sources: []source.Opener{
			source.InMemorySource{Data: []byte("col1,col2\na1,b1\n"), SourceName: "s1"},
			source.InMemorySource{Data: []byte("x,y\na2,b2\n"), SourceName: "s2"},
		},
		expectedRows: [][]string{{"a1", "b1"}},
		wantIterErr:  true,
	},
	{
		name:        "malformed header duplicate key",
		sources:     []source.Opener{source.InMemorySource{Data: []byte("col1,col1\na1,b1\n"), SourceName: "s1"}},
		wantOpenErr: true,
	},
	{
		name:    "implicit header numbers columns",
		sources: []source.Opener{source.InMemorySource{Data: []byte("1,2,3\n"), SourceName: "s1"}},
		opt:     CSVOptions{Implicit: true},
		expectedRows:   [][]string{{"1", "2", "3"}},
		expectedHeader: []string{"1", "2", "3"},
	},
}

// TestCSVReaderTracksPerFieldQuoting exercises quoteTrackingReader through
// the public Reader API: a field that appeared quoted in the source text
// must come back quoted, and a field that did not must not, regardless of
// whether the two sit in the same row.
func TestCSVReaderTracksPerFieldQuoting(t *testing.T) {
	ctx := context.Background()
	src := []source.Opener{source.InMemorySource{Data: []byte("a,b\n\"1\",2\n"), SourceName: "s1"}}
	reader := NewCSVReader(CSVOptions{})
	mux := connector.NewMuxReader(ctx, src)
	it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
	require.NoError(t, err)

	require.True(t, it.Next())
	rec := it.Record()
	_, aVal, ok := rec.ByIndex(0)
	require.True(t, ok)
	require.Equal(t, "1", aVal)
	require.True(t, rec.WasQuoted("a"))
	_, bVal, ok := rec.ByIndex(1)
	require.True(t, ok)
	require.Equal(t, "2", bVal)
	require.False(t, rec.WasQuoted("b"))

	require.False(t, it.Next())
	require.NoError(t, it.Err())
}

func TestCSVReader(t *testing.T) {
	ctx := context.Background()
	for _, tc := range csvCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			reader := NewCSVReader(tc.opt)
			mux := connector.NewMuxReader(ctx, tc.sources)
			it, err := reader.Open(ctx, mux, recctx.DefaultSeparators())
			if tc.wantOpenErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			for _, row := range tc.expectedRows {
				require.True(t, it.Next(), "expected row %v", row)
				rec := it.Record()
				require.Equal(t, len(row), rec.Len())
				for i, v := range row {
					key, val, ok := rec.ByIndex(i)
					require.True(t, ok)
					require.Equal(t, v, val)
					if tc.expectedHeader != nil {
						require.Equal(t, tc.expectedHeader[i], key)
					}
				}
			}
			if tc.wantIterErr {
				require.False(t, it.Next())
				require.Error(t, it.Err())
				return
			}
			require.False(t, it.Next())
			require.NoError(t, it.Err())
		})
	}
}
