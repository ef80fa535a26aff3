package output

import (
	"fmt"
	"strings"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/mattn/go-runewidth"
)

// PPRINTOptions configures the fixed-width-column Writer.
type PPRINTOptions struct {
	RightAlign bool
}

// NewPPRINTWriter constructs the PPRINT Writer, spec.md §4.E: "Columns are
// sized to the widest value in a group of records sharing the same
// key-set; a key-set change closes the group with a blank line and
// starts a new one." Since column widths aren't known until every record
// of a group has been seen, this writer buffers a group in memory and
// flushes it as soon as the key set changes or Close (end-of-stream) is
// reached -- the "buffer and flush at end-of-stream" writer spec.md §4.E
// calls out by name.
func NewPPRINTWriter(w sink, opt PPRINTOptions) Writer {
	return &pprintWriter{w: w, rightAlign: opt.RightAlign}
}

type pprintWriter struct {
	w          sink
	rightAlign bool

	groupHeader []string
	groupRows   [][]string
	wroteAny    bool
}

func (p *pprintWriter) Write(rec *lrec.Record, ctx recctx.Context) error {
	keys := rec.Keys()
	if p.groupHeader != nil && !sameHeader(keys, p.groupHeader) {
		if err := p.flushGroup(); err != nil {
			return err
		}
	}
	p.groupHeader = keys
	row := make([]string, len(keys))
	for i, k := range keys {
		v := rec.GetOrEmpty(k)
		if v == "" {
			v = "-"
		}
		row[i] = v
	}
	p.groupRows = append(p.groupRows, row)
	return nil
}

func (p *pprintWriter) flushGroup() error {
	if len(p.groupHeader) == 0 {
		return nil
	}
	if p.wroteAny {
		if _, err := fmt.Fprint(p.w, "\n"); err != nil {
			return err
		}
	}
	widths := make([]int, len(p.groupHeader))
	for i, h := range p.groupHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range p.groupRows {
		for i, v := range row {
			if w := runewidth.StringWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if err := p.writeRow(p.groupHeader, widths); err != nil {
		return err
	}
	for _, row := range p.groupRows {
		if err := p.writeRow(row, widths); err != nil {
			return err
		}
	}
	p.wroteAny = true
	p.groupHeader = nil
	p.groupRows = nil
	return nil
}

func (p *pprintWriter) writeRow(fields []string, widths []int) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		pad := widths[i] - runewidth.StringWidth(f)
		if pad < 0 {
			pad = 0
		}
		if p.rightAlign {
			b.WriteString(spaces(pad))
			b.WriteString(f)
		} else {
			b.WriteString(f)
			if i < len(fields)-1 {
				b.WriteString(spaces(pad))
			}
		}
	}
	b.WriteByte('\n')
	_, err := fmt.Fprint(p.w, b.String())
	return err
}

func (p *pprintWriter) Close() error {
	return p.flushGroup()
}
