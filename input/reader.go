// Package input implements the format-agnostic reader contract (spec.md
// §4.D) plus the per-format codecs (DKVP, CSV, CSV-lite, NIDX, XTAB,
// PPRINT, tabular JSON).
//
// The contract is directly grounded on the teacher's
// transform.Decoder/transform.RecordIterator (Carlodf-cetl/transform/
// transformer.go): Decode(ctx, source) (RecordIterator, error), with
// Next()/Record()/Err()/Close(). It is retargeted from a generic
// Extractor-over-a-row into a concrete *lrec.Record, since every format
// here converges on the same record shape rather than a per-format typed
// struct.
package input

import (
	"context"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// Reader turns a connector.SrcAwareStreamer into a RecordIterator. Each
// concrete format (DKVP, CSV, ...) implements Reader with its own parsing
// rules and its own one-time "start of file" hook (e.g. CSV/CSV-lite's
// header consumption), per spec.md §4.D.
type Reader interface {
	// Open consumes bytes from rc and returns a RecordIterator. The
	// returned iterator owns rc and is responsible for closing it.
	Open(ctx context.Context, rc connector.SrcAwareStreamer, seps recctx.Separators) (RecordIterator, error)
}

// RecordIterator is a forward-only, non-restartable iterator over decoded
// records. A parsing error is fatal to the stream (spec.md §4.D): once Err
// returns non-nil, Next always returns false.
type RecordIterator interface {
	// Next advances to the next record. It returns false on clean EOF or
	// on a terminal error; check Err to distinguish the two.
	Next() bool

	// Record returns the record produced by the most recent successful
	// Next call. Its source file name is available via SourceName.
	Record() *lrec.Record

	// SourceName reports the file/source name the current record came
	// from, as provided by the underlying connector.SrcAwareStreamer.
	SourceName() string

	// Err returns the first non-EOF error encountered, or nil.
	Err() error

	// Close releases the underlying stream. Safe to call multiple times.
	Close() error
}
