// Package stream implements the pipeline driver and the Verb contract
// (spec.md §4.F): the driver holds a reader, an ordered chain of verbs,
// and a writer, and threads a shared recctx.Context through each record.
package stream

import (
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// Verb is a record processor in a pipeline chain, spec.md §4.F.
//
// Process receives one record (or the end-of-stream sentinel, signaled
// by rec == nil) and a read-only recctx.Context, and returns an ordered
// sequence of records-or-sentinels. An empty slice means "absorbed" (the
// verb consumed the record and emitted nothing yet, e.g. a group-by
// accumulator buffering). A single nil entry in the returned slice means
// "sentinel": no further input will be sent to this verb, and this is
// the verb's own final flush downstream.
//
// Process may mutate rec in place, allocate new records, or write to an
// external sink (tee). Ownership passes to Process for the duration of
// the call; a record appearing in the output slice has had ownership
// passed downstream.
type Verb interface {
	Process(rec *lrec.Record, ctx recctx.Context) []*lrec.Record
}

// VerbFunc adapts a plain function to the Verb interface, for verbs with
// no state beyond what a closure captures (cat, a degenerate filter).
type VerbFunc func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record

func (f VerbFunc) Process(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
	return f(rec, ctx)
}
