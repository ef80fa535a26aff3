package stream

import (
	"github.com/carlodf/mlrq/input"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/output"
	"github.com/carlodf/mlrq/recctx"
)

// Driver holds (reader, verb chain, writer) and a shared context and
// implements spec.md §4.F's fan-out: for each incoming record it calls
// verb0, collects its output list, then for every element calls verb1,
// and so on; at end-of-input it sends the sentinel (nil record) down the
// chain so buffered verbs can emit their deferred output.
//
// Grounded on the teacher's mappedIterator (transform/transform_impl.go):
// same "pull one record from the inner iterator, apply a function,
// produce one output, stop on error" shape, generalized from a single
// 1:1 map to an N-stage pipeline where each stage may produce 0, 1, or
// many outputs per input.
type Driver struct {
	Reader input.Reader
	Verbs  []Verb
	Writer output.Writer
}

// Run drains it through the verb chain into Writer, advancing ctx's
// FNR/NR per record; when the source name changes it first starts a new
// file (FileNum advanced, FNR reset), so each file's first record has
// FNR 1. Returns the first error encountered from the reader or the
// writer; verb errors are not part of this contract (a verb signals a
// data-local fault via the record's fields, per spec.md §7 -- only
// reader/writer faults are fatal IOErrors here).
func (d *Driver) Run(it input.RecordIterator, base recctx.Context) error {
	ctx := base
	lastFile := ""
	for it.Next() {
		rec := it.Record()
		name := it.SourceName()
		if name != lastFile {
			ctx = ctx.NewFile(name)
			lastFile = name
		}
		ctx = ctx.Next()
		if err := d.push(rec, ctx); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	// End of stream: send the sentinel down the chain so buffered verbs
	// (tail, sort, the group-by-then-accumulate family) flush.
	if err := d.push(nil, ctx); err != nil {
		return err
	}
	return d.Writer.Close()
}

// push sends rec through the verb chain starting at verb 0, and writes
// every record (not sentinel) that survives to the end of the chain.
func (d *Driver) push(rec *lrec.Record, ctx recctx.Context) error {
	batch := []*lrec.Record{rec}
	for _, v := range d.Verbs {
		var next []*lrec.Record
		for _, r := range batch {
			next = append(next, v.Process(r, ctx)...)
		}
		batch = next
		if len(batch) == 0 {
			return nil
		}
	}
	for _, r := range batch {
		if r == nil {
			continue // sentinel reaching the writer means "close", handled by caller
		}
		if err := d.Writer.Write(r, ctx); err != nil {
			return err
		}
	}
	return nil
}
