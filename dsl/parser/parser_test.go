package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carlodf/mlrq/dsl/ast"
	"github.com/carlodf/mlrq/dsl/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "parse errors for %q: %v", src, p.Errors())
	return prog
}

func TestParseAssignmentAndArithmetic(t *testing.T) {
	prog := parse(t, `$z = $x + $y * 2;`)
	require.Len(t, prog.Statements, 1)
	as, ok := prog.Statements[0].(*ast.AssignStmt)
	require.True(t, ok)
	target, ok := as.Target.(*ast.FieldExpr)
	require.True(t, ok)
	require.Equal(t, "z", target.Name)
	add, ok := as.Value.(*ast.InfixExpr)
	require.True(t, ok)
	require.Equal(t, "+", add.Op)
	mul, ok := add.Right.(*ast.InfixExpr)
	require.True(t, ok)
	require.Equal(t, "*", mul.Op)
}

func TestParsePowIsRightAssociative(t *testing.T) {
	prog := parse(t, `$y = 2 ** 3 ** 2;`)
	as := prog.Statements[0].(*ast.AssignStmt)
	outer := as.Value.(*ast.InfixExpr)
	require.Equal(t, "**", outer.Op)
	_, leftIsLit := outer.Left.(*ast.IntLit)
	require.True(t, leftIsLit)
	inner, ok := outer.Right.(*ast.InfixExpr)
	require.True(t, ok, "2**3**2 should parse as 2**(3**2)")
	require.Equal(t, "**", inner.Op)
}

func TestParseIfElifElse(t *testing.T) {
	prog := parse(t, `
		if ($x > 0) {
			$sign = "pos";
		} elif ($x < 0) {
			$sign = "neg";
		} else {
			$sign = "zero";
		}
	`)
	ifs := prog.Statements[0].(*ast.IfStmt)
	require.Len(t, ifs.Elif, 1)
	require.NotNil(t, ifs.Else)
}

func TestParseForInSingleAndMultiKey(t *testing.T) {
	prog := parse(t, `
		for (k, v in @counts) {
			print k . "=" . v;
		}
		for ((k1, k2), v in @sums) {
			print k1;
		}
	`)
	f1 := prog.Statements[0].(*ast.ForInStmt)
	require.Equal(t, []string{"k"}, f1.KeyVars)
	require.Equal(t, "v", f1.ValVar)
	f2 := prog.Statements[1].(*ast.ForInStmt)
	require.Equal(t, []string{"k1", "k2"}, f2.KeyVars)
}

func TestParseEmitWithLabels(t *testing.T) {
	prog := parse(t, `emit @sums, "a", "b";`)
	e := prog.Statements[0].(*ast.EmitStmt)
	require.Equal(t, ast.EmitPlain, e.Kind)
	require.Len(t, e.Targets, 1)
	require.Equal(t, []string{"a", "b"}, e.Names)
}

func TestParseFuncDefAndCall(t *testing.T) {
	prog := parse(t, `
		func square(x) {
			return x * x;
		}
		$y = square($x);
	`)
	fn := prog.Statements[0].(*ast.FuncDef)
	require.Equal(t, "square", fn.Name)
	require.Equal(t, []string{"x"}, fn.Params)
	as := prog.Statements[1].(*ast.AssignStmt)
	call := as.Value.(*ast.CallExpr)
	require.Equal(t, "square", call.Name)
	require.Len(t, call.Args, 1)
}

func TestParsePrintRedirection(t *testing.T) {
	prog := parse(t, `print $x > "/tmp/out.txt";`)
	w := prog.Statements[0].(*ast.WriteStmt)
	require.Equal(t, ast.RedirectTruncate, w.Redirect)
	require.NotNil(t, w.Target)
}

func TestParseCompoundAssign(t *testing.T) {
	prog := parse(t, `@total += $x;`)
	as := prog.Statements[0].(*ast.AssignStmt)
	_, ok := as.Target.(*ast.OosvarExpr)
	require.True(t, ok)
	inf := as.Value.(*ast.InfixExpr)
	require.Equal(t, "+", inf.Op)
}

func TestParseBuiltinBindings(t *testing.T) {
	prog := parse(t, `$n = NR;`)
	as := prog.Statements[0].(*ast.AssignStmt)
	b, ok := as.Value.(*ast.Builtin)
	require.True(t, ok)
	require.Equal(t, "NR", b.Name)
}

func TestParsePatternActionBlock(t *testing.T) {
	prog := parse(t, `$x > 10 { print "big"; }`)
	pa, ok := prog.Statements[0].(*ast.PatternActionStmt)
	require.True(t, ok)
	require.NotNil(t, pa.Cond)
	require.Len(t, pa.Body.Statements, 1)
}
