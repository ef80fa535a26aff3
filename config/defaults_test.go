package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carlodf/mlrq/recctx"
)

func TestDefaultsApplyFillsFormatsAndSeparators(t *testing.T) {
	o := Default()
	d := Defaults{InputFormat: "csv", OutputFormat: "json", FS: "pipe", OFMT: "%.3f"}
	d.Apply(&o)
	require.Equal(t, FormatCSV, o.InputFormat)
	require.Equal(t, FormatJSON, o.OutputFormat)
	require.Equal(t, "|", o.Seps.IFS)
	require.Equal(t, "|", o.Seps.OFS)
	require.Equal(t, "%.3f", o.OFMT)
}

func TestDefaultsApplyLeavesUnsetFieldsAlone(t *testing.T) {
	o := Default()
	d := Defaults{}
	d.Apply(&o)
	require.Equal(t, FormatDKVP, o.InputFormat)
	require.Equal(t, recctx.DefaultSeparators().IFS, o.Seps.IFS)
}

func TestDefaultsApplyEnvRSOverridesCSVSeparatorOnly(t *testing.T) {
	os.Setenv(EnvRS, "lflf")
	defer os.Unsetenv(EnvRS)

	o := Default()
	o.InputFormat = FormatCSV
	o.OutputFormat = FormatCSV
	Defaults{}.Apply(&o)
	require.Equal(t, "\n\n", o.Seps.IRS)
	require.Equal(t, "\n\n", o.Seps.ORS)
}

func TestDefaultsApplyEnvRSIgnoredForNonCSVFormats(t *testing.T) {
	os.Setenv(EnvRS, "lflf")
	defer os.Unsetenv(EnvRS)

	o := Default() // DKVP
	Defaults{}.Apply(&o)
	require.NotEqual(t, "\n\n", o.Seps.IRS)
}
