package main

import (
	"bytes"
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/carlodf/mlrq/config"
	"github.com/carlodf/mlrq/connector"
	"github.com/carlodf/mlrq/dsl"
	"github.com/carlodf/mlrq/source"
	"github.com/carlodf/mlrq/stream"
	"github.com/carlodf/mlrq/verbs"
)

// runPipeline wires a reader/writer pair for the given formats around an
// in-memory source and drains it through verbChain, mirroring run()'s
// wiring without needing real files or stdin.
func runPipeline(t *testing.T, input string, inFmt, outFmt config.Format, verbChain []stream.Verb) string {
	t.Helper()
	opts := config.Default()
	opts.InputFormat, opts.OutputFormat = inFmt, outFmt
	config.ApplyFormatDefaults(&opts, inFmt, false, false)
	config.ApplyFormatDefaults(&opts, outFmt, false, false)

	reader, err := newReader(opts)
	if err != nil {
		t.Fatalf("newReader: %v", err)
	}
	ctx := context.Background()
	mux := connector.NewMuxReader(ctx, []source.Opener{source.InMemorySource{Data: []byte(input)}})
	it, err := reader.Open(ctx, mux, opts.Seps)
	if err != nil {
		t.Fatalf("reader.Open: %v", err)
	}
	defer it.Close()

	var buf bytes.Buffer
	writer, err := newWriter(opts, &buf)
	if err != nil {
		t.Fatalf("newWriter: %v", err)
	}

	driver := &stream.Driver{Reader: reader, Verbs: verbChain, Writer: writer}
	if err := driver.Run(it, recctxBase(opts)); err != nil {
		t.Fatalf("driver.Run: %v", err)
	}
	return buf.String()
}

func TestScenarioS1FormatConversion(t *testing.T) {
	Convey("CSV input with CRLF line endings converts to line-delimited JSON", t, func() {
		out := runPipeline(t, "a,b,c\r\n1,2,3\r\n4,5,6\r\n", config.FormatCSV, config.FormatJSON, []stream.Verb{verbs.Cat()})
		So(out, ShouldEqual, "{\"a\":\"1\",\"b\":\"2\",\"c\":\"3\"}\n{\"a\":\"4\",\"b\":\"5\",\"c\":\"6\"}\n")
	})
}

func TestScenarioS2GroupStats(t *testing.T) {
	Convey("stats1 sum,count grouped by g", t, func() {
		specs := []verbs.Stats1Spec{
			{Field: "v", Accumulator: "sum"},
			{Field: "v", Accumulator: "count"},
		}
		v := verbs.Stats1([]string{"g"}, specs)
		out := runPipeline(t, "g=x,v=1\ng=x,v=3\ng=y,v=10\n", config.FormatDKVP, config.FormatDKVP, []stream.Verb{v})
		So(out, ShouldEqual, "g=x,v_sum=4,v_count=2\ng=y,v_sum=10,v_count=1\n")
	})
}

func TestScenarioS3DSLFilter(t *testing.T) {
	Convey("filter keeps only records where a+b > 5", t, func() {
		prog, err := dsl.Compile(`$a + $b > 5`)
		So(err, ShouldBeNil)
		out := runPipeline(t, "a=1,b=2\na=3,b=4\na=5,b=6\n", config.FormatDKVP, config.FormatDKVP, []stream.Verb{verbs.Filter(prog)})
		So(out, ShouldEqual, "a=3,b=4\na=5,b=6\n")
	})
}

func TestScenarioS4DSLAccumulatorEmit(t *testing.T) {
	Convey("put -q accumulates into an oosvar map and emits it at end of stream", t, func() {
		prog, err := dsl.Compile(`@s[$k] += $x; end { emit @s, "k" }`)
		So(err, ShouldBeNil)
		out := runPipeline(t, "k=p,x=1\nk=q,x=2\nk=p,x=3\n", config.FormatDKVP, config.FormatDKVP, []stream.Verb{verbs.PutQuiet(prog)})
		So(out, ShouldEqual, "k=p,s=4\nk=q,s=2\n")
	})
}

func TestScenarioS5UniqWithCounts(t *testing.T) {
	Convey("uniq -g a -c counts occurrences per distinct a", t, func() {
		v := verbs.Uniq(verbs.UniqGroupBy, []string{"a"}, true, false)
		out := runPipeline(t, "a=1\na=2\na=1\na=1\n", config.FormatDKVP, config.FormatDKVP, []stream.Verb{v})
		So(out, ShouldEqual, "a=1,count=3\na=2,count=1\n")
	})
}

func TestScenarioS7CSVQuoteOriginalSurvivesReaderWriterRoundTrip(t *testing.T) {
	Convey("--quote-original only requotes fields the CSV reader actually saw quoted", t, func() {
		opts := config.Default()
		opts.InputFormat, opts.OutputFormat = config.FormatCSV, config.FormatCSV
		opts.QuoteMode = config.QuoteOriginal
		config.ApplyFormatDefaults(&opts, config.FormatCSV, false, false)

		reader, err := newReader(opts)
		So(err, ShouldBeNil)
		ctx := context.Background()
		mux := connector.NewMuxReader(ctx, []source.Opener{source.InMemorySource{Data: []byte("a,b\n\"1\",2\n")}})
		it, err := reader.Open(ctx, mux, opts.Seps)
		So(err, ShouldBeNil)
		defer it.Close()

		var buf bytes.Buffer
		writer, err := newWriter(opts, &buf)
		So(err, ShouldBeNil)

		driver := &stream.Driver{Reader: reader, Verbs: []stream.Verb{verbs.Cat()}, Writer: writer}
		So(driver.Run(it, recctxBase(opts)), ShouldBeNil)
		// "a" was quoted in the source and is requoted; "b" was bare and
		// stays bare -- if the reader instead marked every field quoted,
		// "b" would come back as "2" too.
		So(buf.String(), ShouldEqual, "a,b\n\"1\",2\n")
	})
}

func TestScenarioS6CSVToQKVPRoundTrip(t *testing.T) {
	Convey("a quoted CSV comma and escaped quote survive the CSV reader intact", t, func() {
		out := runPipeline(t, "a,b\r\n\"x,y\",\"z\"\"w\"\r\n", config.FormatCSV, config.FormatDKVP, []stream.Verb{verbs.Cat()})
		// The DKVP writer applies no DKVP-specific escaping of its own, so
		// the comma and embedded quote that CSV's RFC-4180 decoding
		// recovered pass straight through as field values.
		So(out, ShouldEqual, "a=x,y,b=z\"w\n")
	})
}
