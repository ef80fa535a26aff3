package input

import (
	"bufio"
	"context"
	"fmt"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// CSVLiteOptions configures the unquoted, literal-byte-level CSV-lite
// reader, spec.md §4.D: "Like CSV but without quoting; FS/RS are taken
// literally at byte level. Faster; acceptable input for well-behaved
// data."
type CSVLiteOptions struct {
	Header     []string
	Implicit   bool
	CollapseFS bool
}

// NewCSVLiteReader constructs the CSV-lite Reader. Reuses the same
// header-vs-boundary state machine shape as csvRowIterator (adapted from
// the teacher's transform/csv_decoder.go), but splits lines with plain
// string.Split instead of encoding/csv, since CSV-lite has no quoting.
func NewCSVLiteReader(opt CSVLiteOptions) Reader {
	return &csvLiteReader{header: append([]string(nil), opt.Header...), implicit: opt.Implicit, collapse: opt.CollapseFS}
}

type csvLiteReader struct {
	header   []string
	implicit bool
	collapse bool
}

func (d *csvLiteReader) Open(ctx context.Context, rc connector.SrcAwareStreamer, seps recctx.Separators) (RecordIterator, error) {
	fs := seps.IFS
	if fs == "" {
		fs = ","
	}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(splitOnRS(seps.IRS))

	it := &csvLiteRowIterator{
		scanner:  sc,
		stream:   rc,
		fs:       fs,
		collapse: d.collapse,
		atStart:  true,
	}
	if len(d.header) != 0 {
		it.header = append(it.header, d.header...)
		it.atStart = false
	} else if d.implicit {
		it.implicit = true
	}
	if err := validateHeader(it.header); err != nil && len(it.header) != 0 {
		return nil, fmt.Errorf("malformed header: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = rc.Close()
	}()
	return it, nil
}

type csvLiteRowIterator struct {
	scanner  *bufio.Scanner
	stream   connector.SrcAwareStreamer
	fs       string
	collapse bool
	implicit bool

	header  []string
	atStart bool

	current        *lrec.Record
	srcName        string
	lastSourceName string
	err            error
}

func (it *csvLiteRowIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.scanner.Scan() {
		line := it.scanner.Text()
		meta := it.stream.Current()
		newSource := meta.Name != it.lastSourceName
		if newSource {
			it.lastSourceName = meta.Name
			if len(it.header) == 0 || it.atStart {
				it.atStart = true
			}
		}
		if line == "" {
			// blank line: CSV-lite treats this as a schema reset point,
			// matching the original's block-separated convention.
			it.atStart = true
			continue
		}
		row := splitFS(line, it.fs, it.collapse)
		if it.atStart && it.implicit {
			it.header = ImplicitHeader(len(row))
			it.atStart = false
			// fall through: this row is data, not a header line.
		} else if it.atStart {
			if err := validateHeader(row); err != nil {
				it.err = fmt.Errorf("malformed header: %w", err)
				return false
			}
			it.header = row
			it.atStart = false
			continue
		}
		if len(row) != len(it.header) {
			it.err = fmt.Errorf("schema change within file %q: expected %d fields, got %d", meta.Name, len(it.header), len(row))
			return false
		}
		r := lrec.New()
		for i, v := range row {
			r.Put(it.header[i], v, false)
		}
		it.current = r
		it.srcName = meta.Name
		return true
	}
	if err := it.scanner.Err(); err != nil {
		it.err = err
	}
	return false
}

func (it *csvLiteRowIterator) Record() *lrec.Record { return it.current }
func (it *csvLiteRowIterator) SourceName() string   { return it.srcName }
func (it *csvLiteRowIterator) Err() error           { return it.err }
func (it *csvLiteRowIterator) Close() error         { return it.stream.Close() }
