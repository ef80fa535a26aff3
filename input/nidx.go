package input

import (
	"bufio"
	"context"
	"strconv"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// NIDXOptions configures the no-header, positionally-keyed reader, spec.md
// §4.D: "No header; each field becomes a value with its 1-up position as
// key."
type NIDXOptions struct {
	CollapseFS bool
}

// NewNIDXReader constructs the NIDX Reader. Shares dkvpRowIterator's
// line-splitting helpers (splitFS, splitOnRS) since NIDX is DKVP without
// the pair-separator step.
func NewNIDXReader(opt NIDXOptions) Reader {
	return &nidxReader{collapseFS: opt.CollapseFS}
}

type nidxReader struct {
	collapseFS bool
}

func (d *nidxReader) Open(ctx context.Context, rc connector.SrcAwareStreamer, seps recctx.Separators) (RecordIterator, error) {
	fs := seps.IFS
	if fs == "" {
		fs = " "
	}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(splitOnRS(seps.IRS))
	it := &nidxRowIterator{
		scanner:  sc,
		stream:   rc,
		fs:       fs,
		collapse: d.collapseFS,
	}
	go func() {
		<-ctx.Done()
		_ = rc.Close()
	}()
	return it, nil
}

type nidxRowIterator struct {
	scanner  *bufio.Scanner
	stream   connector.SrcAwareStreamer
	fs       string
	collapse bool

	current *lrec.Record
	srcName string
	err     error
}

func (it *nidxRowIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.scanner.Scan() {
		line := it.scanner.Text()
		it.srcName = it.stream.Current().Name
		r := lrec.New()
		for i, v := range splitFS(line, it.fs, it.collapse) {
			r.Put(strconv.Itoa(i+1), v, false)
		}
		it.current = r
		return true
	}
	if err := it.scanner.Err(); err != nil {
		it.err = err
	}
	return false
}

func (it *nidxRowIterator) Record() *lrec.Record { return it.current }
func (it *nidxRowIterator) SourceName() string   { return it.srcName }
func (it *nidxRowIterator) Err() error           { return it.err }
func (it *nidxRowIterator) Close() error         { return it.stream.Close() }
