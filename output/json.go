package output

import (
	"fmt"
	"strings"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// JSONMode selects how successive records are wrapped, spec.md §4.E:
// "One top-level object per record by default; list-wrap produces a
// single outer array with commas between records; vstack writes one key
// per line."
type JSONMode int

const (
	JSONPerRecord JSONMode = iota
	JSONListWrap
	JSONVStack
)

// JSONOptions configures the tabular JSON Writer.
type JSONOptions struct {
	Mode JSONMode
}

// NewJSONWriter constructs the tabular JSON Writer. List-wrap buffers
// nothing but the "have we written the first record yet" flag needed to
// place commas correctly, and needs Close to emit the closing bracket --
// the "buffer and flush at end-of-stream" writer spec.md §4.E names.
func NewJSONWriter(w sink, opt JSONOptions) Writer {
	return &jsonWriter{w: w, mode: opt.Mode}
}

type jsonWriter struct {
	w        sink
	mode     JSONMode
	wroteAny bool
}

func (j *jsonWriter) Write(rec *lrec.Record, ctx recctx.Context) error {
	switch j.mode {
	case JSONListWrap:
		if !j.wroteAny {
			if _, err := fmt.Fprint(j.w, "[\n"); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprint(j.w, ",\n"); err != nil {
				return err
			}
		}
		j.wroteAny = true
		return j.writeObject(rec, "  ", false)
	case JSONVStack:
		j.wroteAny = true
		return j.writeVStack(rec)
	default:
		j.wroteAny = true
		if err := j.writeObject(rec, "", true); err != nil {
			return err
		}
		_, err := fmt.Fprint(j.w, "\n")
		return err
	}
}

// writeObject renders rec as a single JSON object. compact, set for the
// default one-object-per-record mode, omits the spacing
// list-wrap otherwise uses around ":" and ",", per spec.md §8 S1's
// literal `{"a":"1","b":"2","c":"3"}` expected bytes.
func (j *jsonWriter) writeObject(rec *lrec.Record, indent string, compact bool) error {
	colon, comma := ": ", ", "
	if compact {
		colon, comma = ":", ","
	}
	var b strings.Builder
	b.WriteString(indent)
	b.WriteByte('{')
	first := true
	rec.Each(func(k, v string) bool {
		if !first {
			b.WriteString(comma)
		}
		first = false
		b.WriteString(jsonQuote(k))
		b.WriteString(colon)
		b.WriteString(jsonRenderValue(v))
		return true
	})
	b.WriteByte('}')
	_, err := fmt.Fprint(j.w, b.String())
	return err
}

func (j *jsonWriter) writeVStack(rec *lrec.Record) error {
	if _, err := fmt.Fprint(j.w, "{\n"); err != nil {
		return err
	}
	keys := rec.Keys()
	var werr error
	for i, k := range keys {
		comma := ","
		if i == len(keys)-1 {
			comma = ""
		}
		_, werr = fmt.Fprintf(j.w, "  %s: %s%s\n", jsonQuote(k), jsonRenderValue(rec.GetOrEmpty(k)), comma)
		if werr != nil {
			return werr
		}
	}
	_, err := fmt.Fprint(j.w, "}\n")
	return err
}

// jsonRenderValue renders v as a JSON string. Record field values are
// text, per spec.md §3 -- mlrval's numeric inference exists for DSL
// arithmetic/comparison, not for deciding how a value is re-typed on the
// way out to a different wire format, so every field is quoted
// regardless of whether it looks numeric.
func jsonRenderValue(v string) string {
	return jsonQuote(v)
}

func jsonQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (j *jsonWriter) Close() error {
	if j.mode == JSONListWrap {
		if !j.wroteAny {
			_, err := fmt.Fprint(j.w, "[\n]\n")
			return err
		}
		_, err := fmt.Fprint(j.w, "\n]\n")
		return err
	}
	return nil
}
