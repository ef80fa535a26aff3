package output

import (
	"fmt"
	"strings"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// NewMarkdownWriter constructs the output-only Markdown table Writer,
// spec.md §4.E: "header, then a separator row of dashes, then data rows;
// pipes are escaped inside cell values."
func NewMarkdownWriter(w sink) Writer {
	return &markdownWriter{w: w}
}

type markdownWriter struct {
	w          sink
	lastHeader []string
	wroteAny   bool
}

func (m *markdownWriter) Write(rec *lrec.Record, ctx recctx.Context) error {
	keys := rec.Keys()
	if !m.wroteAny || !sameHeader(keys, m.lastHeader) {
		if m.wroteAny {
			if _, err := fmt.Fprint(m.w, "\n"); err != nil {
				return err
			}
		}
		if err := m.writeHeaderAndSeparator(keys); err != nil {
			return err
		}
		m.lastHeader = keys
	}
	m.wroteAny = true
	return m.writeRow(rec.Values())
}

func (m *markdownWriter) writeHeaderAndSeparator(keys []string) error {
	if err := m.writeRow(keys); err != nil {
		return err
	}
	dashes := make([]string, len(keys))
	for i := range dashes {
		dashes[i] = "---"
	}
	return m.writeRow(dashes)
}

func (m *markdownWriter) writeRow(fields []string) error {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = strings.ReplaceAll(f, "|", `\|`)
	}
	_, err := fmt.Fprintf(m.w, "| %s |\n", strings.Join(escaped, " | "))
	return err
}

func (m *markdownWriter) Close() error { return nil }
