package connector

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/carlodf/mlrq/source"
)

// muxReader multiplexes multiple source.Opener streams into a single
// io.ReadCloser, presenting every source the pipeline was pointed at
// (one or more files, or stdin) as the one continuous record stream
// spec.md §1's "the core only consumes a byte source" expects. It
// guarantees that only one underlying source is open at a time.
//
// Streaming semantics:
//   - Sources are read sequentially in order of the ops slice.
//   - Partial data is preserved on read errors: if a Read(p) returns (n>0, err),
//     the n bytes are forwarded before the error is propagated.
//   - On non-EOF errors, the multiplexer stops streaming and the error is
//     returned to the caller of Read.
//
// Position tracking:
//   - Current() returns a snapshot of the active source's name and byte
//     offset; package input's format readers poll this once per record to
//     detect a file boundary and reset NR/FNR/FILENAME/FILENUM, per
//     spec.md §4.H.
//
// End-of-stream semantics: after all sources are exhausted, Read returns
// io.EOF.
type muxReader struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	// current holds the latest SrcMeta snapshot.
	// Only the multiplexer goroutine writes; readers call Current().
	current atomic.Value
}

// Read proxies reads to the underlying io.PipeReader.
// Callers read a continuous byte stream representing all multiplexed sources.
func (m *muxReader) Read(p []byte) (int, error) {
	return m.pr.Read(p)
}

// Close closes the read side of the multiplexer.
// If the internal goroutine has not finished, it will detect the closed pipe
// and terminate early.
func (m *muxReader) Close() error {
	return m.pr.Close()
}

// Current returns the most recent SrcMeta snapshot describing the active
// source and the byte offset within that source. Non-blocking and safe
// to call concurrently with Read.
func (m *muxReader) Current() SrcMeta {
	val := m.current.Load()
	if val == nil {
		return SrcMeta{}
	}
	return val.(SrcMeta)
}

// NewMuxReader constructs a SrcAwareStreamer that reads multiple openers
// sequentially and produces a single byte stream.
//
// The provided context controls opening and reading of underlying sources;
// canceling it will abort in-progress reads and shut down the multiplexer.
func NewMuxReader(ctx context.Context, ops []source.Opener) SrcAwareStreamer {
	pr, pw := io.Pipe()
	m := &muxReader{pr: pr, pw: pw}

	go func() {
		defer pw.Close()

		buf := make([]byte, 32*1024)
		for _, op := range ops {
			rc, err := op.Open(ctx)
			if err != nil {
				_ = pw.CloseWithError(fmt.Errorf("open %s: %w", op.Name(), err))
				return
			}
			meta := SrcMeta{Name: op.Name(), ByteOffset: 0}
			m.current.Store(meta)

			for {
				n, rerr := rc.Read(buf)
				// If n > 0 write on the Pipe before evaluating error as to
				// provide partial bytes in case of read error.
				if n > 0 {
					meta.ByteOffset += int64(n)
					if _, werr := m.pw.Write(buf[:n]); werr != nil {
						rc.Close()
						_ = pw.CloseWithError(werr)
						return
					}
					m.current.Store(meta)
				}
				if rerr == io.EOF {
					break
				}
				if rerr != nil {
					rc.Close()
					_ = pw.CloseWithError(fmt.Errorf("read %s: %w", op.Name(), rerr))
					return
				}
			}
			rc.Close()
		}
	}()
	return m
}
