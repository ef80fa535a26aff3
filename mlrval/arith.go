package mlrval

import "math"

// This file implements the 7x7 type-promotion table for arithmetic and
// comparison, per spec.md §4.A:
//
//   - absent is the identity for + and -, and 0 for * in aggregations.
//   - error is sticky: any operation touching an error value yields error.
//   - int op int -> int, except / which yields int only when it divides
//     evenly, and float ops which always yield float.
//   - string op anything-non-numeric -> error; a string that infers as
//     numeric participates using its inferred type.
//   - comparisons against absent return absent (three-valued logic).

// classify buckets a value into one of the promotion lattice's rows/columns.
func classify(v Value) Type {
	switch v.typ {
	case TInt:
		return TInt
	case TFloat:
		return TFloat
	case TAbsent:
		return TAbsent
	case TError:
		return TError
	case TEmpty:
		return TEmpty
	case TBoolean:
		return TBoolean
	case TString:
		v.inferNumeric()
		switch v.inference {
		case inferInt:
			return TInt
		case inferFloat:
			return TFloat
		}
		return TString
	}
	return TString
}

// Add returns a + b.
func Add(a, b Value) Value { return binArith(a, b, opAdd) }

// Sub returns a - b.
func Sub(a, b Value) Value { return binArith(a, b, opSub) }

// Mul returns a * b.
func Mul(a, b Value) Value { return binArith(a, b, opMul) }

// Div returns a / b. Two ints that divide evenly yield an int; otherwise a
// float.
func Div(a, b Value) Value { return binArith(a, b, opDiv) }

// IntDiv returns the integer (floor) division of a by b.
func IntDiv(a, b Value) Value { return binArith(a, b, opIntDiv) }

// Mod returns a mod b, with the canonical mathematical sign (result takes
// the sign of the divisor) for negative dividends.
func Mod(a, b Value) Value { return binArith(a, b, opMod) }

// Neg returns -a.
func Neg(a Value) Value {
	switch classify(a) {
	case TAbsent:
		return Absent
	case TError:
		return ErrorValue
	case TInt:
		i, _ := a.AsInt()
		return FromInt(-i)
	case TFloat:
		f, _ := a.AsFloat()
		return FromFloat(-f)
	default:
		return ErrorValue
	}
}

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
	opIntDiv
	opMod
)

func binArith(a, b Value, op arithOp) Value {
	ca, cb := classify(a), classify(b)

	if ca == TError || cb == TError {
		return ErrorValue
	}

	// Absent is identity for + and -, 0 for *. For / and mod, absent
	// propagates as absent (no sensible identity).
	if ca == TAbsent || cb == TAbsent {
		switch op {
		case opAdd, opSub:
			if ca == TAbsent && cb == TAbsent {
				return Absent
			}
			if ca == TAbsent {
				if op == opSub {
					return Neg(b)
				}
				return b
			}
			return a
		case opMul:
			if ca == TAbsent && cb == TAbsent {
				return Absent
			}
			if ca == TAbsent {
				return b
			}
			return a
		default:
			return Absent
		}
	}

	if ca != TInt && ca != TFloat {
		return ErrorValue
	}
	if cb != TInt && cb != TFloat {
		return ErrorValue
	}

	if ca == TInt && cb == TInt {
		ai, _ := a.AsInt()
		bi, _ := b.AsInt()
		switch op {
		case opAdd:
			return FromInt(ai + bi)
		case opSub:
			return FromInt(ai - bi)
		case opMul:
			return FromInt(ai * bi)
		case opDiv:
			if bi == 0 {
				return ErrorValue
			}
			if ai%bi == 0 {
				return FromInt(ai / bi)
			}
			return FromFloat(float64(ai) / float64(bi))
		case opIntDiv:
			if bi == 0 {
				return ErrorValue
			}
			return FromInt(floorDivInt(ai, bi))
		case opMod:
			if bi == 0 {
				return ErrorValue
			}
			return FromInt(canonicalModInt(ai, bi))
		}
	}

	af, _ := a.AsFloat()
	bf, _ := b.AsFloat()
	switch op {
	case opAdd:
		return FromFloat(af + bf)
	case opSub:
		return FromFloat(af - bf)
	case opMul:
		return FromFloat(af * bf)
	case opDiv:
		return FromFloat(af / bf)
	case opIntDiv:
		return FromFloat(math.Floor(af / bf))
	case opMod:
		return FromFloat(canonicalModFloat(af, bf))
	}
	return ErrorValue
}

// floorDivInt implements floor division (result rounds toward negative
// infinity, unlike Go's truncating /).
func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// canonicalModInt returns a mod b such that the result has the sign of b
// (the mathematically canonical modulo for negative dividends).
func canonicalModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func canonicalModFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// Bitwise operators operate on integer readings only; absent and error
// propagate as in arithmetic.

func bitwiseOp(a, b Value, f func(x, y int64) int64) Value {
	ca, cb := classify(a), classify(b)
	if ca == TError || cb == TError {
		return ErrorValue
	}
	if ca == TAbsent || cb == TAbsent {
		return Absent
	}
	ai, aok := a.AsInt()
	bi, bok := b.AsInt()
	if !aok || !bok || ca == TFloat || cb == TFloat {
		return ErrorValue
	}
	return FromInt(f(ai, bi))
}

func BitAnd(a, b Value) Value { return bitwiseOp(a, b, func(x, y int64) int64 { return x & y }) }
func BitOr(a, b Value) Value  { return bitwiseOp(a, b, func(x, y int64) int64 { return x | y }) }
func BitXor(a, b Value) Value { return bitwiseOp(a, b, func(x, y int64) int64 { return x ^ y }) }
func Lshift(a, b Value) Value {
	return bitwiseOp(a, b, func(x, y int64) int64 { return x << uint(y) })
}
func Rshift(a, b Value) Value {
	return bitwiseOp(a, b, func(x, y int64) int64 { return x >> uint(y) })
}

// BitNot returns ~a.
func BitNot(a Value) Value {
	switch classify(a) {
	case TError:
		return ErrorValue
	case TAbsent:
		return Absent
	}
	i, ok := a.AsInt()
	if !ok {
		return ErrorValue
	}
	return FromInt(^i)
}

// Concat implements DSL string concatenation (the `.` operator). It never
// numerifies its operands -- both sides are rendered via String().
func Concat(a, b Value) Value {
	if a.IsError() || b.IsError() {
		return ErrorValue
	}
	return FromString(a.String() + b.String())
}

// Compare orders a and b for the =,!=,<,<=,>,>= operators and for sort.
// Returns (cmp, ok): cmp is -1/0/1, ok is false if the comparison is
// undefined (absent on either side, or error).
//
// Per original_source/c/containers/mixutil.c, a string is first given a
// chance at numeric coercion before falling back to lexical comparison, so
// that "9" < "10" numerically rather than "10" < "9" lexically.
func Compare(a, b Value) (int, bool) {
	if a.IsError() || b.IsError() {
		return 0, false
	}
	if a.IsAbsent() || b.IsAbsent() {
		return 0, false
	}
	ca, cb := classify(a), classify(b)
	if (ca == TInt || ca == TFloat) && (cb == TInt || cb == TFloat) {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if ca == TBoolean && cb == TBoolean {
		ab, _ := a.AsBool()
		bb, _ := b.AsBool()
		switch {
		case ab == bb:
			return 0, true
		case !ab && bb:
			return -1, true
		default:
			return 1, true
		}
	}
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	default:
		return 0, true
	}
}

// Equal implements the = operator.
func Equal(a, b Value) Value {
	c, ok := Compare(a, b)
	if !ok {
		return Absent
	}
	return FromBool(c == 0)
}

// NotEqual implements the != operator.
func NotEqual(a, b Value) Value {
	c, ok := Compare(a, b)
	if !ok {
		return Absent
	}
	return FromBool(c != 0)
}

func LessThan(a, b Value) Value {
	c, ok := Compare(a, b)
	if !ok {
		return Absent
	}
	return FromBool(c < 0)
}

func LessEqual(a, b Value) Value {
	c, ok := Compare(a, b)
	if !ok {
		return Absent
	}
	return FromBool(c <= 0)
}

func GreaterThan(a, b Value) Value {
	c, ok := Compare(a, b)
	if !ok {
		return Absent
	}
	return FromBool(c > 0)
}

func GreaterEqual(a, b Value) Value {
	c, ok := Compare(a, b)
	if !ok {
		return Absent
	}
	return FromBool(c >= 0)
}

// truthy converts a value to a boolean for use in logical operators and
// conditionals. Absent is falsy-but-sticky: logical combinators treat it
// as their identity rather than coercing it outright; this helper is used
// only once that special case has already been handled by the caller.
func truthy(v Value) bool {
	if b, ok := v.AsBool(); ok {
		return b
	}
	return false
}

// And implements && with absent as its identity (three-valued logic): an
// absent operand doesn't force the result, the other operand decides.
func And(a, b Value) Value {
	if a.IsError() || b.IsError() {
		return ErrorValue
	}
	if a.IsAbsent() {
		return b
	}
	if b.IsAbsent() {
		return a
	}
	return FromBool(truthy(a) && truthy(b))
}

// Or implements || with absent as its identity.
func Or(a, b Value) Value {
	if a.IsError() || b.IsError() {
		return ErrorValue
	}
	if a.IsAbsent() {
		return b
	}
	if b.IsAbsent() {
		return a
	}
	return FromBool(truthy(a) || truthy(b))
}

// Xor implements ^^.
func Xor(a, b Value) Value {
	if a.IsError() || b.IsError() {
		return ErrorValue
	}
	if a.IsAbsent() || b.IsAbsent() {
		return Absent
	}
	return FromBool(truthy(a) != truthy(b))
}

// Not implements unary logical negation.
func Not(a Value) Value {
	if a.IsError() {
		return ErrorValue
	}
	if a.IsAbsent() {
		return Absent
	}
	return FromBool(!truthy(a))
}
