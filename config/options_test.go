package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsAreDKVP(t *testing.T) {
	o := Default()
	require.Equal(t, FormatDKVP, o.InputFormat)
	require.Equal(t, FormatDKVP, o.OutputFormat)
	require.Equal(t, QuoteMinimal, o.QuoteMode)
}

func TestApplyFormatDefaultsCSVSetsCRLFAndComma(t *testing.T) {
	o := Default()
	ApplyFormatDefaults(&o, FormatCSV, false, false)
	require.Equal(t, ",", o.Seps.IFS)
	require.Equal(t, "\r\n", o.Seps.IRS)
}

func TestApplyFormatDefaultsRespectsOverrides(t *testing.T) {
	o := Default()
	o.Seps.IFS, o.Seps.OFS = ";", ";"
	ApplyFormatDefaults(&o, FormatCSV, true, false)
	require.Equal(t, ";", o.Seps.IFS, "an overridden FS must not be clobbered by the format default")
}

func TestApplyFormatDefaultsXTABUsesSpaceForPS(t *testing.T) {
	o := Default()
	ApplyFormatDefaults(&o, FormatXTAB, false, false)
	require.Equal(t, " ", o.Seps.IPS)
}
