package input

import (
	"bufio"
	"context"
	"strings"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// XTABOptions configures the vertical-tabular reader, spec.md §4.D:
// "each input record is a block of lines separated by a blank line;
// within the block each line is `key PS value`."
type XTABOptions struct{}

// NewXTABReader constructs the XTAB Reader.
func NewXTABReader(opt XTABOptions) Reader {
	return &xtabReader{}
}

type xtabReader struct{}

func (d *xtabReader) Open(ctx context.Context, rc connector.SrcAwareStreamer, seps recctx.Separators) (RecordIterator, error) {
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	ps := seps.IPS
	if ps == "" {
		ps = " "
	}
	it := &xtabRowIterator{scanner: sc, stream: rc, ps: ps}
	go func() {
		<-ctx.Done()
		_ = rc.Close()
	}()
	return it, nil
}

type xtabRowIterator struct {
	scanner *bufio.Scanner
	stream  connector.SrcAwareStreamer
	ps      string

	current *lrec.Record
	srcName string
	err     error
}

func (it *xtabRowIterator) Next() bool {
	if it.err != nil {
		return false
	}
	r := lrec.New()
	sawLine := false
	for it.scanner.Scan() {
		line := it.scanner.Text()
		if line == "" {
			if sawLine {
				break
			}
			continue
		}
		sawLine = true
		key, val := splitXTABLine(line, it.ps)
		r.Put(key, val, false)
		it.srcName = it.stream.Current().Name
	}
	if err := it.scanner.Err(); err != nil {
		it.err = err
		return false
	}
	if !sawLine {
		return false
	}
	it.current = r
	return true
}

// splitXTABLine splits a "key PS value" line where PS is a run of
// whitespace by default: the key is the first whitespace-delimited
// token, the value is everything after the following run of separator.
func splitXTABLine(line, ps string) (key, value string) {
	trimmed := strings.TrimLeft(line, ps)
	idx := strings.Index(trimmed, ps)
	if idx < 0 {
		return trimmed, ""
	}
	key = trimmed[:idx]
	value = strings.TrimLeft(trimmed[idx:], ps)
	return key, value
}

func (it *xtabRowIterator) Record() *lrec.Record { return it.current }
func (it *xtabRowIterator) SourceName() string   { return it.srcName }
func (it *xtabRowIterator) Err() error           { return it.err }
func (it *xtabRowIterator) Close() error         { return it.stream.Close() }
