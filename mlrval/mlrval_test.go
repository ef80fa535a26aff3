package mlrval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInferredFromString(t *testing.T) {
	require.True(t, InferredFromString("3").IsInt())
	require.True(t, InferredFromString("3.5").IsFloat())
	require.True(t, InferredFromString("abc").IsString())
	require.True(t, InferredFromString("").IsEmpty())
}

func TestAbsentIdentity(t *testing.T) {
	three := FromInt(3)
	require.Equal(t, three, Add(Absent, three))
	require.Equal(t, three, Add(three, Absent))
	require.True(t, Add(Absent, Absent).IsAbsent())
	require.Equal(t, FromInt(-3), Sub(Absent, three))
}

func TestErrorSticky(t *testing.T) {
	require.True(t, Add(ErrorValue, FromInt(1)).IsError())
	require.True(t, Add(FromInt(1), ErrorValue).IsError())
}

func TestIntDivPromotesToFloat(t *testing.T) {
	v := Div(FromInt(7), FromInt(2))
	require.True(t, v.IsFloat())
	f, _ := v.AsFloat()
	require.InDelta(t, 3.5, f, 1e-9)

	v2 := Div(FromInt(6), FromInt(2))
	require.True(t, v2.IsInt())
	i, _ := v2.AsInt()
	require.Equal(t, int64(3), i)
}

func TestCanonicalModNegative(t *testing.T) {
	v := Mod(FromInt(-7), FromInt(3))
	i, _ := v.AsInt()
	require.Equal(t, int64(2), i)
}

func TestStringConcatDoesNotNumerify(t *testing.T) {
	v := Concat(FromInt(1), FromInt(2))
	require.Equal(t, "12", v.String())
}

func TestCompareNumericStrings(t *testing.T) {
	c, ok := Compare(InferredFromString("9"), InferredFromString("10"))
	require.True(t, ok)
	require.Equal(t, -1, c)
}

func TestErrorRendersLiteral(t *testing.T) {
	require.Equal(t, "(error)", ErrorValue.String())
}
