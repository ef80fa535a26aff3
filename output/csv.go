package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// QuoteMode selects the CSV writer's quoting policy, spec.md §4.E: five
// modes -- all, none, minimal (default: FS/RS/quote present), numeric
// (value parses as a number), original (field was quoted on input, not
// sticky across computed fields).
type QuoteMode int

const (
	QuoteMinimal QuoteMode = iota
	QuoteAll
	QuoteNone
	QuoteNumeric
	QuoteOriginal
)

// CSVOptions configures the RFC-4180 CSV writer.
type CSVOptions struct {
	QuoteMode QuoteMode
	// Headerless suppresses the header row entirely.
	Headerless bool
}

// NewCSVWriter constructs the RFC-4180 CSV Writer. A header row is
// written for the first record and whenever the key set changes from the
// previous record, mirroring the reader's own
// header-reinference-at-boundary philosophy applied to the write side.
func NewCSVWriter(w sink, opt CSVOptions) Writer {
	return &csvWriter{w: w, opt: opt}
}

type csvWriter struct {
	w          sink
	opt        CSVOptions
	lastHeader []string
	wroteAny   bool
}

func (c *csvWriter) Write(rec *lrec.Record, ctx recctx.Context) error {
	ofs := ctx.Seps.OFS
	if ofs == "" {
		ofs = ","
	}
	ors := ctx.Seps.ORS
	if ors == "" {
		ors = "\r\n"
	}
	keys := rec.Keys()
	if !c.opt.Headerless && (!c.wroteAny || !sameHeader(keys, c.lastHeader)) {
		if c.wroteAny {
			if _, err := fmt.Fprint(c.w, ors); err != nil {
				return err
			}
		}
		if err := c.writeHeaderRow(keys, ofs, ors); err != nil {
			return err
		}
		c.lastHeader = keys
	}
	c.wroteAny = true
	return c.writeDataRow(rec, keys, ofs, ors)
}

func (c *csvWriter) writeHeaderRow(keys []string, ofs, ors string) error {
	for i, k := range keys {
		if i > 0 {
			if _, err := fmt.Fprint(c.w, ofs); err != nil {
				return err
			}
		}
		rendered := k
		if c.opt.QuoteMode == QuoteAll || (c.opt.QuoteMode == QuoteMinimal && needsQuoting(k, ofs)) {
			rendered = quoteCSVField(k)
		}
		if _, err := fmt.Fprint(c.w, rendered); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(c.w, ors)
	return err
}

func (c *csvWriter) writeDataRow(rec *lrec.Record, keys []string, ofs, ors string) error {
	for i, k := range keys {
		if i > 0 {
			if _, err := fmt.Fprint(c.w, ofs); err != nil {
				return err
			}
		}
		v := rec.GetOrEmpty(k)
		rendered := c.renderField(v, rec.WasQuoted(k), ofs)
		if _, err := fmt.Fprint(c.w, rendered); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(c.w, ors)
	return err
}

func (c *csvWriter) renderField(value string, wasQuoted bool, ofs string) string {
	switch c.opt.QuoteMode {
	case QuoteAll:
		return quoteCSVField(value)
	case QuoteNone:
		return value
	case QuoteNumeric:
		if isNumericLiteral(value) {
			return quoteCSVField(value)
		}
		return value
	case QuoteOriginal:
		if wasQuoted {
			return quoteCSVField(value)
		}
		return value
	default: // QuoteMinimal
		if needsQuoting(value, ofs) {
			return quoteCSVField(value)
		}
		return value
	}
}

func needsQuoting(value, ofs string) bool {
	return strings.Contains(value, ofs) || strings.ContainsAny(value, "\"\r\n")
}

func quoteCSVField(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (c *csvWriter) Close() error { return nil }
