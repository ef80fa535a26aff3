package input

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
)

// PPRINTOptions configures the fixed-width-column reader, spec.md §4.D:
// "Fixed-width columns with runs of spaces as the field separator; first
// row is the header." A blank line starts a new header/key-set group,
// mirroring the writer's own key-set grouping (spec.md §4.E).
type PPRINTOptions struct{}

// NewPPRINTReader constructs the PPRINT Reader.
func NewPPRINTReader(opt PPRINTOptions) Reader {
	return &pprintReader{}
}

type pprintReader struct{}

func (d *pprintReader) Open(ctx context.Context, rc connector.SrcAwareStreamer, seps recctx.Separators) (RecordIterator, error) {
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	it := &pprintRowIterator{scanner: sc, stream: rc, needHeader: true}
	go func() {
		<-ctx.Done()
		_ = rc.Close()
	}()
	return it, nil
}

type pprintRowIterator struct {
	scanner    *bufio.Scanner
	stream     connector.SrcAwareStreamer
	header     []string
	needHeader bool

	current *lrec.Record
	srcName string
	err     error
}

func (it *pprintRowIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.scanner.Scan() {
		line := it.scanner.Text()
		if strings.TrimSpace(line) == "" {
			it.needHeader = true
			continue
		}
		fields := strings.Fields(line)
		if it.needHeader {
			if err := validateHeader(fields); err != nil {
				it.err = fmt.Errorf("malformed header: %w", err)
				return false
			}
			it.header = fields
			it.needHeader = false
			continue
		}
		if len(fields) != len(it.header) {
			it.err = fmt.Errorf("schema change within file %q: expected %d fields, got %d", it.stream.Current().Name, len(it.header), len(fields))
			return false
		}
		r := lrec.New()
		for i, v := range fields {
			if v == "-" {
				v = ""
			}
			r.Put(it.header[i], v, false)
		}
		it.current = r
		it.srcName = it.stream.Current().Name
		return true
	}
	if err := it.scanner.Err(); err != nil {
		it.err = err
	}
	return false
}

func (it *pprintRowIterator) Record() *lrec.Record { return it.current }
func (it *pprintRowIterator) SourceName() string   { return it.srcName }
func (it *pprintRowIterator) Err() error           { return it.err }
func (it *pprintRowIterator) Close() error         { return it.stream.Close() }
