package input

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// DKVPOptions configures the delimited-key-value-pairs reader, spec.md
// §4.D. A field containing no pair separator gets a 1-up numeric key.
type DKVPOptions struct {
	// CollapseFS collapses runs of the field separator into one, per
	// spec.md §4.D's "optional allow repeated FS".
	CollapseFS bool
}

// NewDKVPReader constructs the DKVP Reader, the default record format.
// Grounded on the teacher's line-oriented decoder shape (csvRowIterator's
// atStart/hasPending scaffold is unneeded here since DKVP carries no
// header, but the bufio.Scanner-over-a-connector.SrcAwareStreamer pattern
// follows the same "Open returns an iterator that owns rc" contract).
func NewDKVPReader(opt DKVPOptions) Reader {
	return &dkvpReader{collapseFS: opt.CollapseFS}
}

type dkvpReader struct {
	collapseFS bool
}

func (d *dkvpReader) Open(ctx context.Context, rc connector.SrcAwareStreamer, seps recctx.Separators) (RecordIterator, error) {
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(splitOnRS(seps.IRS))
	it := &dkvpRowIterator{
		scanner:  sc,
		stream:   rc,
		fs:       seps.IFS,
		ps:       seps.IPS,
		collapse: d.collapseFS,
	}
	go func() {
		<-ctx.Done()
		_ = rc.Close()
	}()
	return it, nil
}

type dkvpRowIterator struct {
	scanner  *bufio.Scanner
	stream   connector.SrcAwareStreamer
	fs, ps   string
	collapse bool

	current *lrec.Record
	srcName string
	err     error
}

func (it *dkvpRowIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.scanner.Scan() {
		line := it.scanner.Text()
		if line == "" {
			continue
		}
		it.srcName = it.stream.Current().Name
		it.current = it.parseLine(line)
		return true
	}
	if err := it.scanner.Err(); err != nil {
		it.err = err
	}
	return false
}

func (it *dkvpRowIterator) parseLine(line string) *lrec.Record {
	r := lrec.New()
	fields := splitFS(line, it.fs, it.collapse)
	for i, fieldStr := range fields {
		if fieldStr == "" {
			continue
		}
		idx := strings.Index(fieldStr, it.ps)
		if idx < 0 {
			r.Put(strconv.Itoa(i+1), fieldStr, false)
			continue
		}
		key := fieldStr[:idx]
		val := fieldStr[idx+len(it.ps):]
		r.Put(key, val, false)
	}
	return r
}

func (it *dkvpRowIterator) Record() *lrec.Record { return it.current }
func (it *dkvpRowIterator) SourceName() string   { return it.srcName }
func (it *dkvpRowIterator) Err() error            { return it.err }
func (it *dkvpRowIterator) Close() error          { return it.stream.Close() }

// splitFS splits s on literal separator sep, optionally collapsing runs of
// consecutive separators into a single split point (spec.md §4.D's
// "allow repeated FS" for DKVP/NIDX).
func splitFS(s, sep string, collapse bool) []string {
	if sep == "" {
		return []string{s}
	}
	parts := strings.Split(s, sep)
	if !collapse {
		return parts
	}
	out := parts[:0:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

// splitOnRS returns a bufio.SplitFunc that splits on an arbitrary,
// possibly multi-character record separator, generalizing
// bufio.ScanLines to support NIDX/DKVP's multi-char RS option.
func splitOnRS(rs string) bufio.SplitFunc {
	if rs == "" || rs == "\n" {
		return bufio.ScanLines
	}
	sep := []byte(rs)
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := indexBytes(data, sep); i >= 0 {
			return i + len(sep), data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

func indexBytes(data, sep []byte) int {
	if len(sep) == 0 || len(data) < len(sep) {
		return -1
	}
	for i := 0; i+len(sep) <= len(data); i++ {
		match := true
		for j := range sep {
			if data[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
