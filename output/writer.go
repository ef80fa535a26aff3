// Package output implements the format-agnostic writer contract (spec.md
// §4.E) plus the per-format codecs (DKVP, CSV, CSV-lite, NIDX, XTAB,
// PPRINT, tabular JSON, Markdown).
//
// Grounded on the same shape as package input's Reader/RecordIterator
// contract, inverted: a Writer consumes one *lrec.Record (or the
// end-of-stream sentinel) at a time and appends bytes to an io.Writer.
package output

import (
	"io"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// Writer serializes records to a byte sink. PPRINT buffers each key-set
// group and flushes it when the key set changes or on Close; JSON
// list-wrap writes its closing bracket on Close. Close is called with the
// end-of-stream sentinel per spec.md §4.E.
type Writer interface {
	// Write appends rec's serialized form to the sink. rec is never nil;
	// end-of-stream is signaled by calling Close, not by passing a nil
	// record.
	Write(rec *lrec.Record, ctx recctx.Context) error

	// Close flushes any buffered output (PPRINT's key-set groups, a
	// JSON list-wrap's closing bracket) and is the
	// writer's end-of-stream hook, mirroring the driver sending the
	// sentinel null record down the verb chain (spec.md §4.F).
	Close() error
}

// sink is the minimal contract every format writer needs from its
// underlying byte destination.
type sink = io.Writer
