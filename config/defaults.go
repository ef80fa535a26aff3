package config

import (
	"os"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvRS is the single recognized environment variable (spec.md §6): it
// overrides the default record separator for the CSV format family.
const EnvRS = "MLRQ_CSV_RS"

// Defaults is the optional user defaults file, read once at startup and
// used to seed Options before command-line flags are applied. Grounded on
// aretext-aretext/config/file.go's LoadRuleSet + app/config.go's xdg.ConfigFile
// lookup, adapted from JSON rule lists to a typed YAML options document.
type Defaults struct {
	InputFormat  string `yaml:"input_format,omitempty"`
	OutputFormat string `yaml:"output_format,omitempty"`
	FS           string `yaml:"fs,omitempty"`
	PS           string `yaml:"ps,omitempty"`
	RS           string `yaml:"rs,omitempty"`
	OFMT         string `yaml:"ofmt,omitempty"`
}

// defaultsFileName is the leaf name resolved under the user's XDG config
// directory, i.e. ~/.config/mlrq/config.yaml on typical Linux systems.
const defaultsFileName = "mlrq/config.yaml"

// LoadDefaults reads the optional user defaults file. A missing file is not
// an error -- it returns a zero Defaults. Any other read or parse failure
// is wrapped and returned.
func LoadDefaults() (Defaults, error) {
	path, err := xdg.ConfigFile(defaultsFileName)
	if err != nil {
		return Defaults{}, errors.Wrap(err, "resolving config path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults{}, nil
		}
		return Defaults{}, errors.Wrapf(err, "reading %s", path)
	}
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, errors.Wrapf(err, "parsing %s", path)
	}
	return d, nil
}

// Apply copies every non-empty Defaults field into o, overwriting whatever
// o held (an explicit CLI flag applied after this call therefore wins).
func (d Defaults) Apply(o *Options) {
	if d.InputFormat != "" {
		o.InputFormat = Format(d.InputFormat)
	}
	if d.OutputFormat != "" {
		o.OutputFormat = Format(d.OutputFormat)
	}
	if d.FS != "" {
		fs := DecodeSeparator(d.FS)
		o.Seps.IFS, o.Seps.OFS = fs, fs
	}
	if d.PS != "" {
		ps := DecodeSeparator(d.PS)
		o.Seps.IPS, o.Seps.OPS = ps, ps
	}
	if d.RS != "" {
		rs := DecodeSeparator(d.RS)
		o.Seps.IRS, o.Seps.ORS = rs, rs
	}
	if d.OFMT != "" {
		o.OFMT = d.OFMT
	}
	if rs, ok := os.LookupEnv(EnvRS); ok {
		decoded := DecodeSeparator(rs)
		if o.InputFormat == FormatCSV || o.InputFormat == FormatCSVLite {
			o.Seps.IRS = decoded
		}
		if o.OutputFormat == FormatCSV || o.OutputFormat == FormatCSVLite {
			o.Seps.ORS = decoded
		}
	}
}
