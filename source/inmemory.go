package source

import (
	"bytes"
	"context"
	"io"
)

// InMemorySource implements Opener using an in-memory byte slice. It
// backs every end-to-end scenario test in the repo (scenarios_test.go)
// and the input-format table tests, letting them drive
// connector.NewMuxReader and a package input Reader with fixed record
// bytes instead of real files -- including constructing several
// InMemorySource values with distinct SourceName to exercise the
// across-files header-reinference rule in spec.md §4.D.
//
// Example usage:
//
//	srcs := []source.Opener{
//	    source.InMemorySource{SourceName: "sourceA", Data: []byte("a,b,c\n1,2,3\n")},
//	    source.InMemorySource{SourceName: "sourceB", Data: []byte("a,b,c\n4,5,6\n")},
//	}
//	mux := connector.NewMuxReader(ctx, srcs)
//	defer mux.Close()
//
//	rdr := input.NewCSVReader(input.CSVOptions{})
//	it, _ := rdr.Open(ctx, mux, recctx.DefaultSeparators())
//	defer it.Close()
//
//	for it.Next() {
//	    rec := it.Record()
//	    fmt.Println(it.SourceName(), rec.GetOrEmpty("a"))
//	}
//
// Production code should prefer real filesystem-backed Openers (file.go's
// File/Stdin). InMemorySource is not optimized for very large datasets.
type InMemorySource struct {
	// Data contains the bytes to be returned by Open().
	Data []byte
	// SourceName identifies the synthetic source. The multiplexer uses this as
	// the source name when emitting SrcMeta.
	SourceName string
}

// Open returns an io.ReadCloser that streams the in-memory data.
// The returned reader is independent of the InMemorySource’s buffer
// and may be safely closed by the caller.
//
// Always returns a non-nil ReadCloser and a nil error.
func (s InMemorySource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

// Name returns the source identifier associated with this in-memory
// stream, satisfying the Opener interface so InMemorySource can be mixed
// with File/Stdin openers in the same connector.NewMuxReader call.
func (s InMemorySource) Name() string {
	return s.SourceName
}
