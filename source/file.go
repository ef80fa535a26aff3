package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// File is an Opener implementation that provides read access to a regular
// filesystem file. It stores the filesystem path and opens the file lazily.
//
// File does *not* check for existence or file type at construction time.
// This is intentional, to keep the opener lightweight and composable.
//
// The identity of the data source is the cleaned file path returned by
// Name(), grounded on the teacher's openers.File.
type File struct {
	Path string
}

// NewFile constructs a File opener for a given filesystem path. The path is
// cleaned using filepath.Clean, but no existence or permission checks are
// performed. These checks occur when Open is called.
func NewFile(uri string) File {
	return File{Path: filepath.Clean(uri)}
}

// Open attempts to open the underlying file and returns an io.ReadCloser.
//
// The provided context is checked *before* opening the file. If the context
// is already canceled, Open returns ctx.Err() without performing I/O.
func (f File) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return os.Open(f.Path)
}

// Stdin is an Opener reading from the process's standard input, used when
// no file arguments are given. Its Name, "(stdin)", is the FileName
// propagated into recctx.Context for that source.
type Stdin struct{}

// Open returns os.Stdin wrapped so that Close does not actually close the
// process's standard input, since a caller may legitimately call Close
// more than once (per connector.SrcAwareStreamer's contract) and because
// closing the real fd would be surprising for a long-lived process.
func (Stdin) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return io.NopCloser(os.Stdin), nil
}

// Name reports the fixed source name used for stdin-derived records.
func (Stdin) Name() string { return "(stdin)" }

// Name returns the stable identity of this data source: the cleaned
// filesystem path.
func (f File) Name() string {
	return f.Path
}
