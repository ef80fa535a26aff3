// Package cst is the DSL's "concrete syntax tree" execution stage, spec.md
// §4.H: it walks a dsl/ast.Program, manages lexical scoping, and evaluates
// expressions and statements against a current stream record, the
// out-of-stream variable store, and the pipeline Context.
//
// Local-variable scoping is resolved by a two-pass stack allocator
// (scope.go) before any record is run: pass one assigns every local
// declaration a frame-relative slot index, walking the same block
// nesting pushFrame/popFrame impose at runtime; pass two re-walks the
// finished layouts to resolve every local reference, read or write, to
// a (frame-depth, slot-index) address against its *ast.Ident node. At
// run time a frame is a flat slot slice addressed by that resolved
// pair, not a name-keyed map.
package cst

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/carlodf/mlrq/dsl/ast"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/mlrval"
	"github.com/carlodf/mlrq/oosvar"
	"github.com/carlodf/mlrq/recctx"
)

// caser drives toupper/tolower/capitalize with Unicode-aware casing rules
// (e.g. German ß -> SS under upper-casing) rather than strings.ToUpper's
// simple-mapping byte walk.
var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
	titleCaser = cases.Title(language.Und, cases.NoLower)
)

// controlKind distinguishes normal statement-sequence fallthrough from a
// `return` unwinding a function/subroutine call.
type controlKind int

const (
	ctrlNormal controlKind = iota
	ctrlReturn
)

type control struct {
	kind  controlKind
	value mlrval.Value
}

// Interpreter executes a compiled put/filter program against a stream of
// records. One Interpreter instance is reused across an entire run so
// out-of-stream variables, user functions, the regex cache, and open
// redirection sinks persist across records, per spec.md §3/§4.H.
type Interpreter struct {
	begins []*ast.BlockStmt
	ends   []*ast.BlockStmt
	main   []ast.Statement
	funcs  map[string]*ast.FuncDef

	oos       *oosvar.Store
	regex     mlrval.RegexCompiler
	redirects *RedirectCache

	scopes *scopeTables
	frames []*slotFrame

	rec        *lrec.Record
	ctx        recctx.Context
	afterEnd   bool
	captures   []string
	emitted    []*lrec.Record
	keepRec    bool
	filterMode bool
}

// slotFrame is one activation record in the runtime frame stack: a flat
// array of local slots addressed by the index scope.go's resolver
// assigned, plus a per-slot bit recording whether anything has been
// written to it yet (an unwritten slot reads as mlrval.Absent).
type slotFrame struct {
	values []mlrval.Value
	set    []bool
}

// SetFilterMode toggles whether a bare top-level boolean expression
// statement sets the keep/drop decision (the `filter EXPR` verb's
// shorthand form, spec.md §4.H) rather than being evaluated and
// discarded (the `put` verb's default).
func (it *Interpreter) SetFilterMode(on bool) { it.filterMode = on }

// New builds an Interpreter from a parsed program, splitting top-level
// begin/end blocks, func/subr definitions, and the remaining
// pattern-action/bare-statement body (the "main" body run once per
// record), per spec.md §4.H's before-begin/streaming/after-end state
// machine.
func New(prog *ast.Program, regex mlrval.RegexCompiler, redirects *RedirectCache) *Interpreter {
	it := &Interpreter{
		funcs:     make(map[string]*ast.FuncDef),
		oos:       oosvar.NewStore(),
		regex:     regex,
		redirects: redirects,
	}
	for _, s := range prog.Statements {
		switch st := s.(type) {
		case *ast.BeginStmt:
			it.begins = append(it.begins, st.Body)
		case *ast.EndStmt:
			it.ends = append(it.ends, st.Body)
		case *ast.FuncDef:
			it.funcs[st.Name] = st
		default:
			it.main = append(it.main, st)
		}
	}
	it.scopes = buildScopeTables(it)
	return it
}

func (it *Interpreter) pushFrame(size int) {
	it.frames = append(it.frames, &slotFrame{values: make([]mlrval.Value, size), set: make([]bool, size)})
}
func (it *Interpreter) popFrame() { it.frames = it.frames[:len(it.frames)-1] }

// lookupIdent resolves a local-variable read via id's pre-resolved
// (frame-depth, slot-index) address rather than a name lookup. An Ident
// with no resolved address (no declaration is ever visible to it) and a
// slot that was resolved but never written both read as absent, per
// spec.md §4.H.
func (it *Interpreter) lookupIdent(id *ast.Ident) (mlrval.Value, bool) {
	addr, ok := it.scopes.addr[id]
	if !ok {
		return mlrval.Absent, false
	}
	f := it.frames[len(it.frames)-1-addr.Depth]
	if !f.set[addr.Index] {
		return mlrval.Absent, false
	}
	return f.values[addr.Index], true
}

// assignIdent writes v into id's pre-resolved slot. The resolver
// (scope.go) already decided, for every assignment and `unset` target,
// whether the write lands on an enclosing binding or creates a fresh one
// in the innermost frame, per spec.md §4.H's write/shadowing rules --
// this is purely the runtime half of that decision.
func (it *Interpreter) assignIdent(id *ast.Ident, v mlrval.Value) {
	addr := it.scopes.addr[id]
	f := it.frames[len(it.frames)-1-addr.Depth]
	f.values[addr.Index] = v
	f.set[addr.Index] = true
}

// RunBegin executes every top-level begin block once.
func (it *Interpreter) RunBegin(ctx recctx.Context) error {
	it.ctx = ctx
	it.pushFrame(0)
	defer it.popFrame()
	for _, b := range it.begins {
		if _, err := it.execBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// RunEnd executes every top-level end block once. NR is frozen at its
// last streaming value (the driver passes the same ctx it used for the
// final record) and $field access is an error, per spec.md §4.H.
func (it *Interpreter) RunEnd(ctx recctx.Context) error {
	it.afterEnd = true
	it.ctx = ctx
	it.rec = nil
	it.pushFrame(0)
	defer it.popFrame()
	for _, b := range it.ends {
		if _, err := it.execBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// TakeEmitted drains and returns records emitted since the last call.
func (it *Interpreter) TakeEmitted() []*lrec.Record {
	out := it.emitted
	it.emitted = nil
	return out
}

// RunMain runs the pattern-action/bare-statement body once against rec,
// returning whether the record should be kept downstream (the `filter`
// verb's suppression semantics; `put` ignores the return value unless an
// explicit `filter` statement ran).
func (it *Interpreter) RunMain(rec *lrec.Record, ctx recctx.Context) (bool, error) {
	it.rec = rec
	it.ctx = ctx
	it.keepRec = !it.filterMode
	it.pushFrame(it.scopes.main.size)
	defer it.popFrame()
	for _, s := range it.main {
		if _, err := it.exec(s); err != nil {
			return it.keepRec, err
		}
	}
	return it.keepRec, nil
}

// Close flushes every open redirection sink.
func (it *Interpreter) Close() error {
	return it.redirects.CloseAll()
}

// ---- statement execution ----

func (it *Interpreter) execBlock(b *ast.BlockStmt) (control, error) {
	it.pushFrame(it.scopes.blocks[b].size)
	defer it.popFrame()
	for _, s := range b.Statements {
		c, err := it.exec(s)
		if err != nil || c.kind == ctrlReturn {
			return c, err
		}
	}
	return control{}, nil
}

func (it *Interpreter) exec(s ast.Statement) (control, error) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		return it.execBlock(st)
	case *ast.PatternActionStmt:
		if st.Cond != nil {
			v, err := it.eval(st.Cond)
			if err != nil {
				return control{}, err
			}
			if !truthy(v) {
				return control{}, nil
			}
		}
		return it.execBlock(st.Body)
	case *ast.ExprStmt:
		v, err := it.eval(st.Expr)
		if err == nil && it.filterMode {
			it.keepRec = truthy(v)
		}
		return control{}, err
	case *ast.AssignStmt:
		return control{}, it.execAssign(st)
	case *ast.IfStmt:
		return it.execIf(st)
	case *ast.WhileStmt:
		for {
			v, err := it.eval(st.Cond)
			if err != nil {
				return control{}, err
			}
			if !truthy(v) {
				break
			}
			c, err := it.execBlock(st.Body)
			if err != nil || c.kind == ctrlReturn {
				return c, err
			}
		}
		return control{}, nil
	case *ast.DoWhileStmt:
		for {
			c, err := it.execBlock(st.Body)
			if err != nil || c.kind == ctrlReturn {
				return c, err
			}
			v, err := it.eval(st.Cond)
			if err != nil {
				return control{}, err
			}
			if !truthy(v) {
				break
			}
		}
		return control{}, nil
	case *ast.ForCStmt:
		return it.execForC(st)
	case *ast.ForInStmt:
		return it.execForIn(st)
	case *ast.UnsetStmt:
		it.execUnset(st.Target)
		return control{}, nil
	case *ast.EmitStmt:
		return control{}, it.execEmit(st)
	case *ast.WriteStmt:
		return control{}, it.execWrite(st)
	case *ast.FilterStmt:
		v, err := it.eval(st.Cond)
		if err != nil {
			return control{}, err
		}
		it.keepRec = truthy(v)
		return control{}, nil
	case *ast.ReturnStmt:
		if st.Value == nil {
			return control{kind: ctrlReturn, value: mlrval.Absent}, nil
		}
		v, err := it.eval(st.Value)
		return control{kind: ctrlReturn, value: v}, err
	case *ast.CallStmt:
		_, err := it.callFunc(st.Name, st.Args)
		return control{}, err
	case *ast.FuncDef:
		it.funcs[st.Name] = st
		return control{}, nil
	default:
		return control{}, fmt.Errorf("cst: unhandled statement %T", s)
	}
}

func (it *Interpreter) execIf(st *ast.IfStmt) (control, error) {
	v, err := it.eval(st.Cond)
	if err != nil {
		return control{}, err
	}
	if truthy(v) {
		return it.execBlock(st.Then)
	}
	for _, e := range st.Elif {
		v, err := it.eval(e.Cond)
		if err != nil {
			return control{}, err
		}
		if truthy(v) {
			return it.execBlock(e.Body)
		}
	}
	if st.Else != nil {
		return it.execBlock(st.Else)
	}
	return control{}, nil
}

func (it *Interpreter) execForC(st *ast.ForCStmt) (control, error) {
	it.pushFrame(it.scopes.forC[st].size)
	defer it.popFrame()
	if st.Init != nil {
		if _, err := it.exec(st.Init); err != nil {
			return control{}, err
		}
	}
	for {
		if st.Cond != nil {
			v, err := it.eval(st.Cond)
			if err != nil {
				return control{}, err
			}
			if !truthy(v) {
				break
			}
		}
		c, err := it.execBlock(st.Body)
		if err != nil || c.kind == ctrlReturn {
			return c, err
		}
		if st.Step != nil {
			if _, err := it.exec(st.Step); err != nil {
				return control{}, err
			}
		}
	}
	return control{}, nil
}

// execForIn walks an @oosvar subtree named by st.Coll (a bare OosvarExpr,
// the only collection form for-in operates over), binding st.KeyVars to
// each level's key labels and st.ValVar to the leaf value, per spec.md
// §4.H's single- and multi-key for(k,v in @x) / for((k1,k2),v in @x)
// forms.
func (it *Interpreter) execForIn(st *ast.ForInStmt) (control, error) {
	coll, err := it.evalOosvarNode(st.Coll)
	if err != nil {
		return control{}, err
	}
	if coll == nil {
		return control{}, nil
	}
	layout := it.scopes.forIn[st]
	var walk func(n *oosvar.Node, depth int, labels []string) (control, error)
	walk = func(n *oosvar.Node, depth int, labels []string) (control, error) {
		if depth == len(st.KeyVars) {
			it.pushFrame(layout.size)
			top := it.frames[len(it.frames)-1]
			for i, k := range st.KeyVars {
				idx := layout.names[k]
				top.values[idx] = mlrval.FromString(labels[i])
				top.set[idx] = true
			}
			vIdx := layout.names[st.ValVar]
			top.values[vIdx] = leafOrAbsent(n)
			top.set[vIdx] = true
			c, err := it.execBlock(st.Body)
			it.popFrame()
			return c, err
		}
		for _, k := range n.Keys() {
			child := n.Child(k)
			nextLabels := append(append([]string{}, labels...), k)
			c, err := walk(child, depth+1, nextLabels)
			if err != nil || c.kind == ctrlReturn {
				return c, err
			}
		}
		return control{}, nil
	}
	return walk(coll, 0, nil)
}

func leafOrAbsent(n *oosvar.Node) mlrval.Value {
	if n == nil {
		return mlrval.Absent
	}
	if n.IsLeaf {
		return n.Leaf
	}
	return mlrval.Absent
}

// evalOosvarNode resolves an expression that names an oosvar subtree (for
// for-in iteration), returning the raw *oosvar.Node rather than a scalar.
func (it *Interpreter) evalOosvarNode(e ast.Expression) (*oosvar.Node, error) {
	ov, ok := e.(*ast.OosvarExpr)
	if !ok {
		return nil, fmt.Errorf("cst: for-in requires an @oosvar collection")
	}
	path, err := it.evalIndices(ov.Indices)
	if err != nil {
		return nil, err
	}
	return it.oos.Node(ov.Name, path), nil
}

func (it *Interpreter) evalIndices(indices []ast.Expression) ([]string, error) {
	path := make([]string, len(indices))
	for i, idx := range indices {
		v, err := it.eval(idx)
		if err != nil {
			return nil, err
		}
		path[i] = v.String()
	}
	return path, nil
}

func (it *Interpreter) execUnset(target ast.Expression) {
	switch t := target.(type) {
	case *ast.FieldExpr:
		if it.rec != nil {
			if t.Name == "*" {
				for _, k := range it.rec.Keys() {
					it.rec.Remove(k)
				}
				return
			}
			it.rec.Remove(t.Name)
		}
	case *ast.OosvarExpr:
		path, _ := it.evalIndices(t.Indices)
		it.oos.Unset(t.Name, path)
	case *ast.Ident:
		it.assignIdent(t, mlrval.Absent)
	}
}

// execAssign implements plain and declared-typed assignment to a local,
// $field, or @oosvar[...] target.
func (it *Interpreter) execAssign(st *ast.AssignStmt) error {
	v, err := it.eval(st.Value)
	if err != nil {
		return err
	}
	switch t := st.Target.(type) {
	case *ast.Ident:
		it.assignIdent(t, v)
		return nil
	case *ast.FieldExpr:
		if it.rec == nil {
			return fmt.Errorf("cst: $%s assignment outside streaming", t.Name)
		}
		if t.Name == "*" {
			return nil // whole-record assignment from a non-map RHS is a no-op
		}
		it.rec.PutInferred(t.Name, v.String())
		return nil
	case *ast.OosvarExpr:
		path, err := it.evalIndices(t.Indices)
		if err != nil {
			return err
		}
		it.oos.Set(t.Name, path, v)
		return nil
	default:
		return fmt.Errorf("cst: invalid assignment target %T", st.Target)
	}
}

// execEmit publishes an out-of-stream subtree (emit/emitp) or a row of
// scalar accumulators (emitf) as new downstream records, spec.md §4.H.
func (it *Interpreter) execEmit(st *ast.EmitStmt) error {
	if st.Kind == ast.EmitF {
		rec := lrec.New()
		for _, target := range st.Targets {
			name := exprVarName(target)
			v, err := it.eval(target)
			if err != nil {
				return err
			}
			rec.PutInferred(name, v.String())
		}
		it.emitted = append(it.emitted, rec)
		return nil
	}
	if len(st.Targets) == 0 {
		return nil
	}
	ov, ok := st.Targets[0].(*ast.OosvarExpr)
	if !ok {
		return fmt.Errorf("cst: emit/emitp requires an @oosvar target")
	}
	path, err := it.evalIndices(ov.Indices)
	if err != nil {
		return err
	}
	node := it.oos.Node(ov.Name, path)
	it.emitNode(node, st.Names, nil, ov.Name, st.Kind == ast.EmitP)
	return nil
}

// emitNode walks node to the depth named by labels (one record per
// leaf-bearing combination of the outer key levels), per emit's "outer
// levels become separate records, innermost becomes fields" rule and
// emitp's compound field naming (name and keys joined with ':').
func (it *Interpreter) emitNode(node *oosvar.Node, labels []string, path []string, varName string, isEmitP bool) {
	if node == nil {
		return
	}
	if node.IsLeaf || len(labels) == 0 {
		rec := lrec.New()
		for i, k := range path {
			name := "k" + strconv.Itoa(i+1)
			if i < len(labels) {
				name = labels[i]
			}
			rec.PutInferred(name, k)
		}
		fieldName := varName
		if isEmitP && len(path) > 0 {
			fieldName = varName + ":" + strings.Join(path, ":")
		}
		if node.IsLeaf {
			rec.PutInferred(fieldName, node.Leaf.String())
		} else {
			it.flattenLeaves(node, fieldName, rec, isEmitP)
		}
		it.emitted = append(it.emitted, rec)
		return
	}
	for _, k := range node.Keys() {
		it.emitNode(node.Child(k), labels[1:], append(path, k), varName, isEmitP)
	}
}

// flattenLeaves handles emit/emitp where the variable still has unnamed
// nested levels remaining below the requested label depth: every leaf in
// the remaining subtree becomes its own field. emit names it by its own
// key; emitp names it by its path under prefix, joined with ':'.
func (it *Interpreter) flattenLeaves(n *oosvar.Node, prefix string, rec *lrec.Record, isEmitP bool) {
	if n.IsLeaf {
		rec.PutInferred(prefix, n.Leaf.String())
		return
	}
	for _, k := range n.Keys() {
		name := k
		if isEmitP {
			name = prefix + ":" + k
		}
		it.flattenLeaves(n.Child(k), name, rec, isEmitP)
	}
}

func exprVarName(e ast.Expression) string {
	switch t := e.(type) {
	case *ast.OosvarExpr:
		return t.Name
	case *ast.Ident:
		return t.Name
	case *ast.FieldExpr:
		return t.Name
	default:
		return "value"
	}
}

// execWrite implements tee/print/printn/eprint/eprintn/dump/edump,
// including the optional >/>>/| redirection suffix via RedirectCache.
func (it *Interpreter) execWrite(st *ast.WriteStmt) error {
	var sb strings.Builder
	switch st.Kind {
	case ast.WriteDump, ast.WriteEdump:
		it.oos.Each(func(name string, n *oosvar.Node) bool {
			sb.WriteString(name)
			sb.WriteString(" = ")
			dumpNode(&sb, n)
			sb.WriteByte('\n')
			return true
		})
	case ast.WriteTee:
		if it.rec != nil {
			sb.WriteString(it.rec.String())
			sb.WriteByte('\n')
		}
	default:
		for i, arg := range st.Args {
			v, err := it.eval(arg)
			if err != nil {
				return err
			}
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(v.String())
		}
		if st.Kind != ast.WritePrintn {
			sb.WriteByte('\n')
		}
	}

	target := "stdout"
	kind := sinkTruncate
	switch st.Kind {
	case ast.WriteEprint, ast.WriteEprintn, ast.WriteEdump:
		target = "stderr"
	}
	if st.Redirect != ast.RedirectNone && st.Target != nil {
		tv, err := it.eval(st.Target)
		if err != nil {
			return err
		}
		target = tv.String()
		switch st.Redirect {
		case ast.RedirectAppend:
			kind = sinkAppend
		case ast.RedirectPipe:
			kind = sinkPipe
		default:
			kind = sinkTruncate
		}
	}
	w, err := it.redirects.Get(target, kind)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(sb.String()))
	return err
}

func dumpNode(sb *strings.Builder, n *oosvar.Node) {
	if n == nil {
		sb.WriteString("null")
		return
	}
	if n.IsLeaf {
		sb.WriteString(n.Leaf.String())
		return
	}
	sb.WriteByte('{')
	keys := n.Keys()
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		dumpNode(sb, n.Child(k))
	}
	sb.WriteByte('}')
}

// ---- expression evaluation ----

func (it *Interpreter) eval(e ast.Expression) (mlrval.Value, error) {
	switch ex := e.(type) {
	case *ast.IntLit:
		return mlrval.FromInt(ex.Value), nil
	case *ast.FloatLit:
		return mlrval.FromFloat(ex.Value), nil
	case *ast.StringLit:
		return mlrval.FromString(ex.Value), nil
	case *ast.BoolLit:
		return mlrval.FromBool(ex.Value), nil
	case *ast.Ident:
		v, _ := it.lookupIdent(ex)
		return v, nil
	case *ast.FieldExpr:
		return it.evalField(ex)
	case *ast.OosvarExpr:
		path, err := it.evalIndices(ex.Indices)
		if err != nil {
			return mlrval.Absent, err
		}
		return it.oos.Get(ex.Name, path), nil
	case *ast.Builtin:
		return it.evalBuiltinBinding(ex.Name), nil
	case *ast.PrefixExpr:
		return it.evalPrefix(ex)
	case *ast.InfixExpr:
		return it.evalInfix(ex)
	case *ast.TernaryExpr:
		c, err := it.eval(ex.Cond)
		if err != nil {
			return mlrval.Absent, err
		}
		if truthy(c) {
			return it.eval(ex.Then)
		}
		return it.eval(ex.Else)
	case *ast.IndexExpr:
		return it.evalIndex(ex)
	case *ast.CallExpr:
		return it.callFunc(ex.Name, ex.Args)
	default:
		return mlrval.Absent, fmt.Errorf("cst: unhandled expression %T", e)
	}
}

func (it *Interpreter) evalField(ex *ast.FieldExpr) (mlrval.Value, error) {
	if it.afterEnd {
		return mlrval.Absent, fmt.Errorf("cst: $%s accessed after end", ex.Name)
	}
	if it.rec == nil {
		return mlrval.Absent, nil
	}
	if ex.Name == "*" {
		return mlrval.FromString(it.rec.String()), nil
	}
	s, ok := it.rec.Get(ex.Name)
	if !ok {
		return mlrval.Absent, nil
	}
	return mlrval.InferredFromString(s), nil
}

func (it *Interpreter) evalIndex(ex *ast.IndexExpr) (mlrval.Value, error) {
	if ov, ok := ex.Base.(*ast.OosvarExpr); ok {
		idx, err := it.eval(ex.Index)
		if err != nil {
			return mlrval.Absent, err
		}
		basePath, err := it.evalIndices(ov.Indices)
		if err != nil {
			return mlrval.Absent, err
		}
		path := append(basePath, idx.String())
		return it.oos.Get(ov.Name, path), nil
	}
	// General indexing into a non-oosvar base isn't otherwise meaningful
	// under the record/oosvar model this module uses.
	return mlrval.Absent, nil
}

func (it *Interpreter) evalBuiltinBinding(name string) mlrval.Value {
	switch name {
	case "NR":
		return mlrval.FromInt(int64(it.ctx.NR))
	case "NF":
		if it.rec != nil {
			return mlrval.FromInt(int64(it.rec.Len()))
		}
		return mlrval.FromInt(0)
	case "FNR":
		return mlrval.FromInt(int64(it.ctx.FNR))
	case "FILENAME":
		return mlrval.FromString(it.ctx.FileName)
	case "FILENUM":
		return mlrval.FromInt(int64(it.ctx.FileNum))
	case "M_PI":
		return mlrval.FromFloat(math.Pi)
	case "M_E":
		return mlrval.FromFloat(math.E)
	case "IFS":
		return mlrval.FromString(it.ctx.Seps.IFS)
	case "IPS":
		return mlrval.FromString(it.ctx.Seps.IPS)
	case "IRS":
		return mlrval.FromString(it.ctx.Seps.IRS)
	case "OFS":
		return mlrval.FromString(it.ctx.Seps.OFS)
	case "OPS":
		return mlrval.FromString(it.ctx.Seps.OPS)
	case "ORS":
		return mlrval.FromString(it.ctx.Seps.ORS)
	default:
		return mlrval.Absent
	}
}

func (it *Interpreter) evalPrefix(ex *ast.PrefixExpr) (mlrval.Value, error) {
	v, err := it.eval(ex.Right)
	if err != nil {
		return mlrval.Absent, err
	}
	switch ex.Op {
	case "-":
		return mlrval.Neg(v), nil
	case "+":
		return v, nil
	case "!":
		return mlrval.Not(v), nil
	case "~":
		return mlrval.BitNot(v), nil
	default:
		return mlrval.Absent, fmt.Errorf("cst: unknown prefix operator %q", ex.Op)
	}
}

func (it *Interpreter) evalInfix(ex *ast.InfixExpr) (mlrval.Value, error) {
	// =~/!~ bind captures for the remainder of the statement, per spec.md
	// §4.H, so the pattern must be evaluated (and the match performed)
	// before anything downstream can reference \1..\9.
	if ex.Op == "=~" || ex.Op == "!~" {
		l, err := it.eval(ex.Left)
		if err != nil {
			return mlrval.Absent, err
		}
		pat, err := it.eval(ex.Right)
		if err != nil {
			return mlrval.Absent, err
		}
		res, captures := mlrval.Match(l, pat.String(), it.regex)
		if captures != nil {
			it.captures = captures
		}
		if ex.Op == "!~" {
			return mlrval.Not(res), nil
		}
		return res, nil
	}
	if ex.Op == "&&" || ex.Op == "||" {
		l, err := it.eval(ex.Left)
		if err != nil {
			return mlrval.Absent, err
		}
		r, err := it.eval(ex.Right)
		if err != nil {
			return mlrval.Absent, err
		}
		if ex.Op == "&&" {
			return mlrval.And(l, r), nil
		}
		return mlrval.Or(l, r), nil
	}
	l, err := it.eval(ex.Left)
	if err != nil {
		return mlrval.Absent, err
	}
	r, err := it.eval(ex.Right)
	if err != nil {
		return mlrval.Absent, err
	}
	switch ex.Op {
	case "+":
		return mlrval.Add(l, r), nil
	case "-":
		return mlrval.Sub(l, r), nil
	case "*":
		return mlrval.Mul(l, r), nil
	case "/":
		return mlrval.Div(l, r), nil
	case "//":
		return mlrval.IntDiv(l, r), nil
	case "%":
		return mlrval.Mod(l, r), nil
	case ".":
		return mlrval.Concat(l, r), nil
	case "**":
		lf, _ := l.AsFloat()
		rf, _ := r.AsFloat()
		return mlrval.FromFloat(math.Pow(lf, rf)), nil
	case "&":
		return mlrval.BitAnd(l, r), nil
	case "|":
		return mlrval.BitOr(l, r), nil
	case "^":
		return mlrval.BitXor(l, r), nil
	case "<<":
		return mlrval.Lshift(l, r), nil
	case ">>":
		return mlrval.Rshift(l, r), nil
	case "^^":
		return mlrval.Xor(l, r), nil
	case "==", "=":
		return mlrval.Equal(l, r), nil
	case "!=":
		return mlrval.NotEqual(l, r), nil
	case "<":
		return mlrval.LessThan(l, r), nil
	case "<=":
		return mlrval.LessEqual(l, r), nil
	case ">":
		return mlrval.GreaterThan(l, r), nil
	case ">=":
		return mlrval.GreaterEqual(l, r), nil
	default:
		return mlrval.Absent, fmt.Errorf("cst: unknown infix operator %q", ex.Op)
	}
}

func truthy(v mlrval.Value) bool {
	if b, ok := v.AsBool(); ok {
		return b
	}
	return false
}

// ---- function calls ----

func (it *Interpreter) callFunc(name string, argExprs []ast.Expression) (mlrval.Value, error) {
	args := make([]mlrval.Value, len(argExprs))
	for i, a := range argExprs {
		v, err := it.eval(a)
		if err != nil {
			return mlrval.Absent, err
		}
		args[i] = v
	}
	if def, ok := it.funcs[name]; ok {
		return it.callUserFunc(def, args)
	}
	return it.callBuiltin(name, args)
}

// callUserFunc runs a func/subr body in its own frame stack, seeing only
// its own parameters and @-variables -- not the caller's locals, per
// spec.md §4.H.
func (it *Interpreter) callUserFunc(def *ast.FuncDef, args []mlrval.Value) (mlrval.Value, error) {
	saved := it.frames
	it.frames = nil
	it.pushFrame(len(def.Params))
	top := it.frames[0]
	for i := range def.Params {
		var v mlrval.Value
		if i < len(args) {
			v = args[i]
		}
		top.values[i] = v
		top.set[i] = true
	}
	c, err := it.execBlock(def.Body)
	it.frames = saved
	if err != nil {
		return mlrval.Absent, err
	}
	if c.kind == ctrlReturn {
		return c.value, nil
	}
	return mlrval.Absent, nil
}

func (it *Interpreter) callBuiltin(name string, args []mlrval.Value) (mlrval.Value, error) {
	a := func(i int) mlrval.Value {
		if i < len(args) {
			return args[i]
		}
		return mlrval.Absent
	}
	f1 := func(fn func(float64) float64) mlrval.Value {
		v, ok := a(0).AsFloat()
		if !ok {
			return mlrval.ErrorValue
		}
		return mlrval.FromFloat(fn(v))
	}
	switch name {
	// math
	case "abs":
		if a(0).IsInt() {
			i, _ := a(0).AsInt()
			if i < 0 {
				i = -i
			}
			return mlrval.FromInt(i), nil
		}
		return f1(math.Abs), nil
	case "ceil", "ceiling":
		return f1(math.Ceil), nil
	case "floor":
		return f1(math.Floor), nil
	case "round":
		return f1(math.Round), nil
	case "sqrt":
		return f1(math.Sqrt), nil
	case "exp":
		return f1(math.Exp), nil
	case "log":
		return f1(math.Log), nil
	case "log10":
		return f1(math.Log10), nil
	case "sgn":
		return f1(func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			default:
				return 0
			}
		}), nil
	case "min":
		return foldCompare(args, true), nil
	case "max":
		return foldCompare(args, false), nil
	case "int":
		i, ok := a(0).AsInt()
		if !ok {
			return mlrval.ErrorValue, nil
		}
		return mlrval.FromInt(i), nil
	case "float":
		f, ok := a(0).AsFloat()
		if !ok {
			return mlrval.ErrorValue, nil
		}
		return mlrval.FromFloat(f), nil
	case "string":
		return mlrval.FromString(a(0).String()), nil
	case "boolean":
		b, ok := a(0).AsBool()
		if !ok {
			return mlrval.ErrorValue, nil
		}
		return mlrval.FromBool(b), nil
	case "fmtnum":
		f, ok := a(0).AsFloat()
		if !ok {
			return mlrval.ErrorValue, nil
		}
		return mlrval.FromString(fmt.Sprintf(goPrintfFromCFormat(a(1).String()), f)), nil

	// string
	case "strlen":
		return mlrval.FromInt(int64(len([]rune(a(0).String())))), nil
	case "toupper":
		return mlrval.FromString(upperCaser.String(a(0).String())), nil
	case "tolower":
		return mlrval.FromString(lowerCaser.String(a(0).String())), nil
	case "capitalize":
		s := a(0).String()
		if s == "" {
			return mlrval.FromString(s), nil
		}
		r := []rune(s)
		return mlrval.FromString(titleCaser.String(string(r[:1])) + string(r[1:])), nil
	case "lstrip":
		return mlrval.FromString(strings.TrimLeft(a(0).String(), " \t")), nil
	case "rstrip":
		return mlrval.FromString(strings.TrimRight(a(0).String(), " \t")), nil
	case "strip":
		return mlrval.FromString(strings.TrimSpace(a(0).String())), nil
	case "truncate":
		n, _ := a(1).AsInt()
		s := a(0).String()
		if int64(len(s)) <= n {
			return mlrval.FromString(s), nil
		}
		return mlrval.FromString(s[:n]), nil
	case "ssub":
		s, old, neu := a(0).String(), a(1).String(), a(2).String()
		return mlrval.FromString(strings.Replace(s, old, neu, 1)), nil
	case "sub":
		return mlrval.Sub(a(0), a(1).String(), a(2).String(), it.regex), nil
	case "gsub":
		return mlrval.Gsub(a(0), a(1).String(), a(2).String(), it.regex), nil
	case "strmatch", "matches":
		res, _ := mlrval.Match(a(0), a(1).String(), it.regex)
		return res, nil
	case "regextract":
		_, caps := mlrval.Match(a(0), a(1).String(), it.regex)
		if len(caps) == 0 {
			return mlrval.ErrorValue, nil
		}
		return mlrval.FromString(caps[0]), nil
	case "typeof":
		return mlrval.FromString(mlrval.Describe(a(0))), nil
	case "is_null":
		return mlrval.FromBool(a(0).IsNull()), nil
	case "is_not_null":
		return mlrval.FromBool(!a(0).IsNull()), nil
	case "is_present":
		return mlrval.FromBool(a(0).IsPresent()), nil
	case "is_absent":
		return mlrval.FromBool(a(0).IsAbsent()), nil
	case "is_empty":
		return mlrval.FromBool(a(0).IsEmpty()), nil
	case "is_not_empty":
		return mlrval.FromBool(!a(0).IsEmpty()), nil
	case "is_numeric":
		return mlrval.FromBool(a(0).IsNumeric()), nil
	case "is_int":
		return mlrval.FromBool(a(0).IsInt()), nil
	case "is_float":
		return mlrval.FromBool(a(0).IsFloat()), nil
	case "is_string":
		return mlrval.FromBool(a(0).IsString()), nil
	case "is_error":
		return mlrval.FromBool(a(0).IsError()), nil

	// time
	case "systime":
		return mlrval.FromFloat(float64(nowUnix())), nil
	case "strftime":
		f, _ := a(0).AsFloat()
		return mlrval.FromString(strftimeFormat(f, a(1).String())), nil
	case "dhms2sec":
		return mlrval.FromFloat(parseDHMS(a(0).String())), nil
	case "sec2dhms":
		f, _ := a(0).AsFloat()
		return mlrval.FromString(formatDHMS(f)), nil

	default:
		return mlrval.ErrorValue, fmt.Errorf("cst: unknown function %q", name)
	}
}

func foldCompare(args []mlrval.Value, wantMin bool) mlrval.Value {
	if len(args) == 0 {
		return mlrval.Absent
	}
	best := args[0]
	for _, v := range args[1:] {
		c, ok := mlrval.Compare(v, best)
		if !ok {
			continue
		}
		if (wantMin && c < 0) || (!wantMin && c > 0) {
			best = v
		}
	}
	return best
}

// goPrintfFromCFormat rewrites Miller's %lld/%lf-style format specifiers
// (borrowed from the C original) into a Go fmt verb; only the final
// conversion character matters for fmtnum's purposes.
func goPrintfFromCFormat(spec string) string {
	r := strings.NewReplacer("lld", "d", "lf", "f", "ld", "d")
	return r.Replace(spec)
}

func strftimeFormat(sec float64, layout string) string {
	t := time.Unix(int64(sec), 0).UTC()
	goLayout := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	).Replace(layout)
	return t.Format(goLayout)
}

func parseDHMS(s string) float64 {
	parts := strings.Split(strings.TrimSuffix(s, "s"), ":")
	var total float64
	mult := 1.0
	for i := len(parts) - 1; i >= 0; i-- {
		v, _ := strconv.ParseFloat(parts[i], 64)
		total += v * mult
		mult *= 60
	}
	return total
}

func formatDHMS(sec float64) string {
	neg := sec < 0
	if neg {
		sec = -sec
	}
	h := int64(sec) / 3600
	m := (int64(sec) % 3600) / 60
	s := sec - float64(h*3600+m*60)
	out := fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
	if neg {
		out = "-" + out
	}
	return out
}

// nowUnix is isolated in its own function so the rest of the interpreter
// never calls time.Now() directly -- systime() is the only builtin that
// needs wall-clock time.
func nowUnix() int64 { return time.Now().Unix() }
