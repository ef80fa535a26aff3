package config

import "github.com/carlodf/mlrq/recctx"

// Format names the on-wire record format for a reader or writer.
type Format string

const (
	FormatDKVP    Format = "dkvp"
	FormatCSV     Format = "csv"
	FormatCSVLite Format = "csvlite"
	FormatNIDX    Format = "nidx"
	FormatXTAB    Format = "xtab"
	FormatPPRINT  Format = "pprint"
	FormatJSON    Format = "json"
	FormatMarkdown Format = "markdown" // output-only, per spec.md §4.E
)

// QuoteMode selects the CSV writer's quoting policy, per spec.md §4.E.
type QuoteMode string

const (
	QuoteMinimal  QuoteMode = "minimal"
	QuoteAll      QuoteMode = "all"
	QuoteNone     QuoteMode = "none"
	QuoteNumeric  QuoteMode = "numeric"
	QuoteOriginal QuoteMode = "original"
)

// Options bundles every global option named in spec.md §6.
type Options struct {
	InputFormat  Format
	OutputFormat Format

	Seps recctx.Separators

	ImplicitCSVHeader   bool
	HeaderlessCSVOutput bool
	QuoteMode           QuoteMode

	JSONFlattenSep string

	OFMT string

	PPRINTRightAlign bool

	// Files is the positional/--from input file list. Empty means stdin.
	Files []string
}

// Default returns the DKVP-to-DKVP baseline options.
func Default() Options {
	return Options{
		InputFormat:    FormatDKVP,
		OutputFormat:   FormatDKVP,
		Seps:           recctx.DefaultSeparators(),
		QuoteMode:      QuoteMinimal,
		JSONFlattenSep: ":",
		OFMT:           "",
	}
}

// ApplyFormatDefaults fills in separators appropriate to fmt when the user
// did not explicitly override them, per spec.md §4.D's per-format defaults
// (e.g. CSV's default RS is CRLF).
func ApplyFormatDefaults(o *Options, fmtName Format, overriddenIFS, overriddenIRS bool) {
	switch fmtName {
	case FormatCSV:
		if !overriddenIRS {
			o.Seps.IRS = "\r\n"
			o.Seps.ORS = "\r\n"
		}
		if !overriddenIFS {
			o.Seps.IFS = ","
			o.Seps.OFS = ","
		}
	case FormatNIDX, FormatPPRINT:
		if !overriddenIFS {
			o.Seps.IFS = " "
			o.Seps.OFS = " "
		}
	case FormatXTAB:
		if !overriddenIFS {
			o.Seps.IPS = " "
			o.Seps.OPS = " "
		}
	}
}
