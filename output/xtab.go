package output

import (
	"fmt"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/mattn/go-runewidth"
)

// NewXTABWriter constructs the vertical-tabular Writer, spec.md §4.E:
// "Alignment of the value column to the widest key within the record;
// blank line between records." Uses runewidth.StringWidth rather than
// len() so multi-byte keys still align, matching the same
// display-width-not-byte-count discipline the PPRINT writer uses.
func NewXTABWriter(w sink) Writer {
	return &xtabWriter{w: w}
}

type xtabWriter struct {
	w        sink
	wroteAny bool
}

func (x *xtabWriter) Write(rec *lrec.Record, ctx recctx.Context) error {
	ps := ctx.Seps.OPS
	if ps == "" {
		ps = " "
	}
	if x.wroteAny {
		if _, err := fmt.Fprint(x.w, "\n"); err != nil {
			return err
		}
	}
	x.wroteAny = true

	width := 0
	rec.Each(func(k, _ string) bool {
		if w := runewidth.StringWidth(k); w > width {
			width = w
		}
		return true
	})
	var werr error
	rec.Each(func(k, v string) bool {
		pad := width - runewidth.StringWidth(k)
		if pad < 0 {
			pad = 0
		}
		_, werr = fmt.Fprintf(x.w, "%s%s%s%s\n", k, spaces(pad), ps, v)
		return werr == nil
	})
	return werr
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func (x *xtabWriter) Close() error { return nil }
