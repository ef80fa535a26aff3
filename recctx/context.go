// Package recctx defines the read-only per-record Context threaded through
// the pipeline alongside each record, per spec.md §3.
package recctx

// Separators bundles all configured field/pair/record separators for both
// input and output, per spec.md §6.
type Separators struct {
	IFS, IPS, IRS string
	OFS, OPS, ORS string
}

// Context is a read-only snapshot carried with each record as it flows
// through the pipeline. Readers populate FileName/FileNum when they open a
// new source; the driver increments the ordinal counters per record.
type Context struct {
	FileName string
	FileNum  int // 1-up ordinal of the current input file

	FNR int // record ordinal within the current file (1-up)
	NR  int // record ordinal overall, across all files (1-up)

	Seps Separators

	// OFMT is the numeric output format string (e.g. "%.6f"), used by
	// writers and by the DSL's fmtnum()/format_values builtins.
	OFMT string
}

// Next returns a copy of c advanced by one record within the same file.
func (c Context) Next() Context {
	c.FNR++
	c.NR++
	return c
}

// NewFile returns a copy of c reset for the start of a new input file.
func (c Context) NewFile(name string) Context {
	c.FileName = name
	c.FileNum++
	c.FNR = 0
	return c
}

// DefaultSeparators returns the DKVP-family defaults: comma FS, equals PS,
// newline RS.
func DefaultSeparators() Separators {
	return Separators{
		IFS: ",", IPS: "=", IRS: "\n",
		OFS: ",", OPS: "=", ORS: "\n",
	}
}
