package output

import (
	"fmt"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// NewDKVPWriter constructs the default delimited-key-value-pairs Writer.
func NewDKVPWriter(w sink) Writer {
	return &dkvpWriter{w: w}
}

type dkvpWriter struct {
	w sink
}

func (d *dkvpWriter) Write(rec *lrec.Record, ctx recctx.Context) error {
	ofs, ops, ors := ctx.Seps.OFS, ctx.Seps.OPS, ctx.Seps.ORS
	first := true
	var werr error
	rec.Each(func(k, v string) bool {
		if !first {
			if _, werr = fmt.Fprint(d.w, ofs); werr != nil {
				return false
			}
		}
		first = false
		_, werr = fmt.Fprintf(d.w, "%s%s%s", k, ops, v)
		return werr == nil
	})
	if werr != nil {
		return werr
	}
	_, err := fmt.Fprint(d.w, ors)
	return err
}

func (d *dkvpWriter) Close() error { return nil }
