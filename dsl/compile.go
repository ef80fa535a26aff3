// Package dsl ties the lexer, parser, and ast packages together into a
// single entry point for compiling put/filter script text, spec.md §4.H.
package dsl

import (
	"fmt"
	"strings"

	"github.com/carlodf/mlrq/dsl/ast"
	"github.com/carlodf/mlrq/dsl/lexer"
	"github.com/carlodf/mlrq/dsl/parser"
)

// Compile parses src into a Program, returning every parse error joined
// into one error if parsing failed.
func Compile(src string) (*ast.Program, error) {
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("dsl: %s", strings.Join(errs, "; "))
	}
	return prog, nil
}
