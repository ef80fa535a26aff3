package output

import (
	"fmt"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// NewCSVLiteWriter constructs the CSV-lite Writer: like CSV but with no
// quoting, values written literally, a new header line whenever the key
// set changes.
func NewCSVLiteWriter(w sink) Writer {
	return &csvLiteWriter{w: w}
}

type csvLiteWriter struct {
	w          sink
	lastHeader []string
	wroteAny   bool
}

func (c *csvLiteWriter) Write(rec *lrec.Record, ctx recctx.Context) error {
	ofs := ctx.Seps.OFS
	if ofs == "" {
		ofs = ","
	}
	ors := ctx.Seps.ORS
	if ors == "" {
		ors = "\n"
	}
	keys := rec.Keys()
	if !c.wroteAny || !sameHeader(keys, c.lastHeader) {
		if c.wroteAny {
			if _, err := fmt.Fprint(c.w, ors); err != nil {
				return err
			}
		}
		if err := joinWrite(c.w, keys, ofs, ors); err != nil {
			return err
		}
		c.lastHeader = keys
	}
	c.wroteAny = true
	return joinWrite(c.w, rec.Values(), ofs, ors)
}

func joinWrite(w sink, fields []string, ofs, ors string) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := fmt.Fprint(w, ofs); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, f); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, ors)
	return err
}

func (c *csvLiteWriter) Close() error { return nil }
