// Package ast defines the abstract syntax tree for the put/filter
// expression language, spec.md §4.H. Grounded on ha1tch-tsqlparser/ast's
// Node/Statement/Expression marker-interface shape, retargeted from SQL
// clauses to the DSL's statement and expression forms.
package ast

// Node is any AST node.
type Node interface {
	node()
}

// Statement is an executable AST node.
type Statement interface {
	Node
	stmt()
}

// Expression is a value-producing AST node.
type Expression interface {
	Node
	expr()
}

// Program is the root of a parsed put/filter script: a flat list of
// top-level statements (begin/end blocks, pattern-action blocks, bare
// statements, func/subr definitions).
type Program struct {
	Statements []Statement
}

func (*Program) node() {}

// ---- Expressions ----

type Ident struct{ Name string }
type IntLit struct{ Value int64 }
type FloatLit struct{ Value float64 }
type StringLit struct{ Value string }
type BoolLit struct{ Value bool }

// FieldExpr is $name or $* (Name == "*" for whole-record).
type FieldExpr struct{ Name string }

// OosvarExpr is @name or @* (Name == "*" for whole-oosvar), with an
// optional chain of [index] subscripts for @name[k1][k2]....
type OosvarExpr struct {
	Name    string
	Indices []Expression
}

// Builtin is one of the read-only context bindings: NR, NF, FNR,
// FILENAME, FILENUM, M_PI, M_E, IPS, IFS, IRS, OPS, OFS, ORS.
type Builtin struct{ Name string }

type PrefixExpr struct {
	Op    string
	Right Expression
}

type InfixExpr struct {
	Op    string
	Left  Expression
	Right Expression
}

// TernaryExpr is cond ? then : else.
type TernaryExpr struct {
	Cond, Then, Else Expression
}

// IndexExpr is base[index], used for map/array subscripting of arbitrary
// expressions (as opposed to OosvarExpr's dedicated chain, used when the
// base is a bare @name).
type IndexExpr struct {
	Base, Index Expression
}

// CallExpr is a builtin or user function call, name(args...).
type CallExpr struct {
	Name string
	Args []Expression
}

func (*Ident) expr()       {}
func (*IntLit) expr()      {}
func (*FloatLit) expr()    {}
func (*StringLit) expr()   {}
func (*BoolLit) expr()     {}
func (*FieldExpr) expr()   {}
func (*OosvarExpr) expr()  {}
func (*Builtin) expr()     {}
func (*PrefixExpr) expr()  {}
func (*InfixExpr) expr()   {}
func (*TernaryExpr) expr() {}
func (*IndexExpr) expr()   {}
func (*CallExpr) expr()    {}

func (*Ident) node()       {}
func (*IntLit) node()      {}
func (*FloatLit) node()    {}
func (*StringLit) node()   {}
func (*BoolLit) node()     {}
func (*FieldExpr) node()   {}
func (*OosvarExpr) node()  {}
func (*Builtin) node()     {}
func (*PrefixExpr) node()  {}
func (*InfixExpr) node()   {}
func (*TernaryExpr) node() {}
func (*IndexExpr) node()   {}
func (*CallExpr) node()    {}

// ---- Statements ----

type BlockStmt struct{ Statements []Statement }

// BeginStmt / EndStmt run once on entry to / exit from streaming.
type BeginStmt struct{ Body *BlockStmt }
type EndStmt struct{ Body *BlockStmt }

// PatternActionStmt runs Body for each record for which Cond is truthy.
// Cond == nil means "always" (a bare `{ ... }` block).
type PatternActionStmt struct {
	Cond Expression
	Body *BlockStmt
}

type ExprStmt struct{ Expr Expression }

// AssignStmt covers plain `=` and the compound forms (+=, -=, etc, already
// desugared by the parser into Op == "=" with Value wrapping the
// equivalent InfixExpr), and declared-typed locals (Decl != "").
type AssignStmt struct {
	Target Expression // Ident, FieldExpr, OosvarExpr, or IndexExpr
	Decl   string      // "", "var", "int", "float", "num", "str", "bool", "map"
	Value  Expression
}

type IfStmt struct {
	Cond Expression
	Then *BlockStmt
	Elif []ElifClause
	Else *BlockStmt // nil if absent
}

type ElifClause struct {
	Cond Expression
	Body *BlockStmt
}

type WhileStmt struct {
	Cond Expression
	Body *BlockStmt
}

type DoWhileStmt struct {
	Body *BlockStmt
	Cond Expression
}

// ForCStmt is the C-style for(init; cond; step) form.
type ForCStmt struct {
	Init Statement // may be nil
	Cond Expression
	Step Statement // may be nil
	Body *BlockStmt
}

// ForInStmt is the map-iterating for(k, v in expr) / for((k1,k2,...), v in
// expr) form. KeyVars holds one or more key-binding names; ValVar is the
// leaf-value binding name.
type ForInStmt struct {
	KeyVars []string
	ValVar  string
	Coll    Expression
	Body    *BlockStmt
}

// UnsetStmt removes a field, local, or oosvar (sub)tree.
type UnsetStmt struct {
	Target Expression
}

// EmitKind distinguishes emit/emitp/emitf, spec.md §4.H.
type EmitKind int

const (
	EmitPlain EmitKind = iota
	EmitP
	EmitF
)

// EmitStmt publishes an out-of-stream variable (or, for EmitF, several
// scalar accumulators) as one or more downstream records.
type EmitStmt struct {
	Kind    EmitKind
	Targets []Expression // EmitF: multiple scalar oosvars/exprs; else: one
	Names   []string     // index-level labels, e.g. emit @v, "k1", "k2"
}

// WriteKind distinguishes the immediate-write statements, spec.md §4.H.
type WriteKind int

const (
	WriteTee WriteKind = iota
	WritePrint
	WritePrintn
	WriteEprint
	WriteEprintn
	WriteDump
	WriteEdump
)

// RedirectKind distinguishes the optional `> expr`, `>> expr`, `| expr`
// suffix on a write statement.
type RedirectKind int

const (
	RedirectNone RedirectKind = iota
	RedirectTruncate
	RedirectAppend
	RedirectPipe
)

type WriteStmt struct {
	Kind     WriteKind
	Args     []Expression // empty for dump/edump (dumps the whole oosvar tree)
	Redirect RedirectKind
	Target   Expression // redirection target, nil if RedirectNone
}

type FilterStmt struct{ Cond Expression }

type FuncDef struct {
	Name   string
	Params []string
	Body   *BlockStmt
	IsSubr bool
}

type ReturnStmt struct{ Value Expression } // Value nil => absent

type CallStmt struct {
	Name string
	Args []Expression
}

func (*BlockStmt) stmt()          {}
func (*BeginStmt) stmt()          {}
func (*EndStmt) stmt()            {}
func (*PatternActionStmt) stmt()  {}
func (*ExprStmt) stmt()           {}
func (*AssignStmt) stmt()         {}
func (*IfStmt) stmt()             {}
func (*WhileStmt) stmt()          {}
func (*DoWhileStmt) stmt()        {}
func (*ForCStmt) stmt()           {}
func (*ForInStmt) stmt()          {}
func (*UnsetStmt) stmt()          {}
func (*EmitStmt) stmt()           {}
func (*WriteStmt) stmt()          {}
func (*FilterStmt) stmt()         {}
func (*FuncDef) stmt()            {}
func (*ReturnStmt) stmt()         {}
func (*CallStmt) stmt()           {}

func (*BlockStmt) node()         {}
func (*BeginStmt) node()         {}
func (*EndStmt) node()           {}
func (*PatternActionStmt) node() {}
func (*ExprStmt) node()          {}
func (*AssignStmt) node()        {}
func (*IfStmt) node()            {}
func (*WhileStmt) node()         {}
func (*DoWhileStmt) node()       {}
func (*ForCStmt) node()          {}
func (*ForInStmt) node()         {}
func (*UnsetStmt) node()         {}
func (*EmitStmt) node()          {}
func (*WriteStmt) node()         {}
func (*FilterStmt) node()        {}
func (*FuncDef) node()           {}
func (*ReturnStmt) node()        {}
func (*CallStmt) node()          {}
