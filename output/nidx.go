package output

import (
	"fmt"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// NewNIDXWriter constructs the no-header, values-only Writer: fields are
// joined by OFS in record order with no key rendered, the inverse of
// input's NIDX reader.
func NewNIDXWriter(w sink) Writer {
	return &nidxWriter{w: w}
}

type nidxWriter struct {
	w sink
}

func (d *nidxWriter) Write(rec *lrec.Record, ctx recctx.Context) error {
	ofs := ctx.Seps.OFS
	if ofs == "" {
		ofs = " "
	}
	first := true
	var werr error
	rec.Each(func(_, v string) bool {
		if !first {
			if _, werr = fmt.Fprint(d.w, ofs); werr != nil {
				return false
			}
		}
		first = false
		_, werr = fmt.Fprint(d.w, v)
		return werr == nil
	})
	if werr != nil {
		return werr
	}
	_, err := fmt.Fprint(d.w, ctx.Seps.ORS)
	return err
}

func (d *nidxWriter) Close() error { return nil }
