package cst

import "github.com/carlodf/mlrq/dsl/ast"

// This file implements spec.md §4.H's two-pass stack allocator for DSL
// local-variable scoping: every local is given a concrete slot address
// before a single record is executed, rather than being looked up by
// name against a map at every reference.
//
// Pass one (frame-relative index assignment, buildScopeTables's p1*
// walk) mirrors the exact block nesting that RunBegin/RunEnd/RunMain
// and execBlock/execForC/execForIn impose at runtime (one frame per
// begin/end/main call, one more per block, per loop's own binding
// frame, per function's parameter frame). Within each frame it hands
// out a 0-based index to every local name the frame ever binds, in
// first-declaration order -- a write to a name not yet visible in any
// open frame creates it in the innermost one; an explicit `var`/typed
// declaration always creates a fresh slot in the innermost frame,
// per spec.md §4.H's shadowing rule.
//
// Pass two (absolute address resolution, the p2* walk) re-walks the
// same tree now that every frame's layout is final, and for every
// local reference -- read or write -- resolves how many enclosing
// frames out the binding frame sits (Depth) and the slot within it
// (Index), recording the pair against the *ast.Ident node. At
// execution time, resolving a reference is then a depth-counted frame
// index plus a slot index, not a string-keyed map lookup.
type frameLayout struct {
	names map[string]int
	size  int
}

func newFrameLayout() *frameLayout { return &frameLayout{names: map[string]int{}} }

// slotAddr is a local variable's resolved address: Depth counts frames
// outward from the one active when the reference executes (0 = that
// frame itself), Index is the slot's position within the frame that
// owns it.
type slotAddr struct {
	Depth int
	Index int
}

// scopeStack mirrors, at compile time, the stack of frames that
// pushFrame/popFrame maintain at runtime -- one frameLayout per
// currently open lexical scope.
type scopeStack struct {
	layers []*frameLayout
}

func (s *scopeStack) push(l *frameLayout) { s.layers = append(s.layers, l) }
func (s *scopeStack) pop()                { s.layers = s.layers[:len(s.layers)-1] }
func (s *scopeStack) current() *frameLayout {
	return s.layers[len(s.layers)-1]
}

// find locates name in the nearest enclosing open frame, innermost
// first, exactly as the runtime's old map-based lookup did.
func (s *scopeStack) find(name string) (slotAddr, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if idx, ok := s.layers[i].names[name]; ok {
			return slotAddr{Depth: len(s.layers) - 1 - i, Index: idx}, true
		}
	}
	return slotAddr{}, false
}

// createInCurrent hands out the next free slot for name in the
// innermost open frame, or returns its existing slot if this frame
// already bound it.
func (s *scopeStack) createInCurrent(name string) int {
	top := s.current()
	if idx, ok := top.names[name]; ok {
		return idx
	}
	idx := top.size
	top.names[name] = idx
	top.size++
	return idx
}

// scopeTables is the Interpreter-wide product of the two-pass
// resolver: one frameLayout per lexical frame site, plus the resolved
// address of every local-variable occurrence.
type scopeTables struct {
	blocks map[*ast.BlockStmt]*frameLayout
	forC   map[*ast.ForCStmt]*frameLayout
	forIn  map[*ast.ForInStmt]*frameLayout
	params map[*ast.FuncDef]*frameLayout
	main   *frameLayout
	addr   map[*ast.Ident]slotAddr
}

// buildScopeTables runs both passes over every independent body a
// compiled program contains: each begin block, each end block, the
// main statement list, and every user function's body (functions start
// a fresh frame stack of their own -- they never see a caller's
// locals, per spec.md §4.H).
func buildScopeTables(it *Interpreter) *scopeTables {
	tbl := &scopeTables{
		blocks: map[*ast.BlockStmt]*frameLayout{},
		forC:   map[*ast.ForCStmt]*frameLayout{},
		forIn:  map[*ast.ForInStmt]*frameLayout{},
		params: map[*ast.FuncDef]*frameLayout{},
		addr:   map[*ast.Ident]slotAddr{},
	}

	for _, b := range it.begins {
		s := &scopeStack{}
		s.push(newFrameLayout()) // RunBegin's own call frame; never written to directly
		p1Block(tbl, s, b)
	}
	for _, b := range it.ends {
		s := &scopeStack{}
		s.push(newFrameLayout())
		p1Block(tbl, s, b)
	}
	tbl.main = newFrameLayout()
	mainScope := &scopeStack{}
	mainScope.push(tbl.main)
	p1Stmts(tbl, mainScope, it.main)
	for _, def := range it.funcs {
		p1Func(tbl, def)
	}

	for _, b := range it.begins {
		s := &scopeStack{}
		s.push(newFrameLayout())
		p2Block(tbl, s, b)
	}
	for _, b := range it.ends {
		s := &scopeStack{}
		s.push(newFrameLayout())
		p2Block(tbl, s, b)
	}
	mainScope2 := &scopeStack{}
	mainScope2.push(tbl.main)
	p2Stmts(tbl, mainScope2, it.main)
	for _, def := range it.funcs {
		p2Func(tbl, def)
	}

	return tbl
}

// ---- pass one: frame-relative index assignment ----

func p1Block(tbl *scopeTables, scope *scopeStack, b *ast.BlockStmt) {
	layout := newFrameLayout()
	tbl.blocks[b] = layout
	scope.push(layout)
	p1Stmts(tbl, scope, b.Statements)
	scope.pop()
}

func p1Stmts(tbl *scopeTables, scope *scopeStack, stmts []ast.Statement) {
	for _, s := range stmts {
		p1Stmt(tbl, scope, s)
	}
}

func p1Stmt(tbl *scopeTables, scope *scopeStack, s ast.Statement) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		p1Block(tbl, scope, st)
	case *ast.PatternActionStmt:
		p1Block(tbl, scope, st.Body)
	case *ast.IfStmt:
		p1Block(tbl, scope, st.Then)
		for _, e := range st.Elif {
			p1Block(tbl, scope, e.Body)
		}
		if st.Else != nil {
			p1Block(tbl, scope, st.Else)
		}
	case *ast.WhileStmt:
		p1Block(tbl, scope, st.Body)
	case *ast.DoWhileStmt:
		p1Block(tbl, scope, st.Body)
	case *ast.ForCStmt:
		layout := newFrameLayout()
		tbl.forC[st] = layout
		scope.push(layout)
		if st.Init != nil {
			p1Stmt(tbl, scope, st.Init)
		}
		if st.Step != nil {
			p1Stmt(tbl, scope, st.Step)
		}
		p1Block(tbl, scope, st.Body)
		scope.pop()
	case *ast.ForInStmt:
		layout := newFrameLayout()
		tbl.forIn[st] = layout
		scope.push(layout)
		for _, k := range st.KeyVars {
			scope.createInCurrent(k)
		}
		scope.createInCurrent(st.ValVar)
		p1Block(tbl, scope, st.Body)
		scope.pop()
	case *ast.UnsetStmt:
		if id, ok := st.Target.(*ast.Ident); ok {
			if _, found := scope.find(id.Name); !found {
				scope.createInCurrent(id.Name)
			}
		}
	case *ast.AssignStmt:
		if id, ok := st.Target.(*ast.Ident); ok {
			if st.Decl != "" {
				scope.createInCurrent(id.Name)
			} else if _, found := scope.find(id.Name); !found {
				scope.createInCurrent(id.Name)
			}
		}
	default:
		// ExprStmt, ReturnStmt, EmitStmt, WriteStmt, FilterStmt,
		// CallStmt, and nested FuncDef never introduce a local
		// declaration of their own.
	}
}

func p1Func(tbl *scopeTables, def *ast.FuncDef) {
	if _, ok := tbl.params[def]; ok {
		return
	}
	layout := newFrameLayout()
	for i, p := range def.Params {
		layout.names[p] = i
	}
	layout.size = len(def.Params)
	tbl.params[def] = layout
	scope := &scopeStack{}
	scope.push(layout)
	p1Block(tbl, scope, def.Body)
}

// ---- pass two: absolute address resolution ----

func p2Block(tbl *scopeTables, scope *scopeStack, b *ast.BlockStmt) {
	layout := tbl.blocks[b]
	scope.push(layout)
	p2Stmts(tbl, scope, b.Statements)
	scope.pop()
}

func p2Stmts(tbl *scopeTables, scope *scopeStack, stmts []ast.Statement) {
	for _, s := range stmts {
		p2Stmt(tbl, scope, s)
	}
}

func p2Stmt(tbl *scopeTables, scope *scopeStack, s ast.Statement) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		p2Block(tbl, scope, st)
	case *ast.PatternActionStmt:
		if st.Cond != nil {
			p2Expr(tbl, scope, st.Cond)
		}
		p2Block(tbl, scope, st.Body)
	case *ast.ExprStmt:
		p2Expr(tbl, scope, st.Expr)
	case *ast.AssignStmt:
		p2Expr(tbl, scope, st.Value)
		if id, ok := st.Target.(*ast.Ident); ok {
			p2ResolveTarget(tbl, scope, id, st.Decl != "")
		} else {
			p2Expr(tbl, scope, st.Target)
		}
	case *ast.IfStmt:
		p2Expr(tbl, scope, st.Cond)
		p2Block(tbl, scope, st.Then)
		for _, e := range st.Elif {
			p2Expr(tbl, scope, e.Cond)
			p2Block(tbl, scope, e.Body)
		}
		if st.Else != nil {
			p2Block(tbl, scope, st.Else)
		}
	case *ast.WhileStmt:
		p2Expr(tbl, scope, st.Cond)
		p2Block(tbl, scope, st.Body)
	case *ast.DoWhileStmt:
		p2Block(tbl, scope, st.Body)
		p2Expr(tbl, scope, st.Cond)
	case *ast.ForCStmt:
		layout := tbl.forC[st]
		scope.push(layout)
		if st.Init != nil {
			p2Stmt(tbl, scope, st.Init)
		}
		if st.Cond != nil {
			p2Expr(tbl, scope, st.Cond)
		}
		if st.Step != nil {
			p2Stmt(tbl, scope, st.Step)
		}
		p2Block(tbl, scope, st.Body)
		scope.pop()
	case *ast.ForInStmt:
		p2Expr(tbl, scope, st.Coll)
		layout := tbl.forIn[st]
		scope.push(layout)
		p2Block(tbl, scope, st.Body)
		scope.pop()
	case *ast.UnsetStmt:
		if id, ok := st.Target.(*ast.Ident); ok {
			p2ResolveTarget(tbl, scope, id, false)
		} else {
			p2Expr(tbl, scope, st.Target)
		}
	case *ast.EmitStmt:
		for _, e := range st.Targets {
			p2Expr(tbl, scope, e)
		}
	case *ast.WriteStmt:
		for _, a := range st.Args {
			p2Expr(tbl, scope, a)
		}
		if st.Target != nil {
			p2Expr(tbl, scope, st.Target)
		}
	case *ast.FilterStmt:
		p2Expr(tbl, scope, st.Cond)
	case *ast.ReturnStmt:
		if st.Value != nil {
			p2Expr(tbl, scope, st.Value)
		}
	case *ast.CallStmt:
		for _, a := range st.Args {
			p2Expr(tbl, scope, a)
		}
	}
}

// p2ResolveTarget resolves an assignment/unset Ident target. A typed
// declaration always lands in the innermost frame (pass one guaranteed
// a slot there); a plain assignment reuses whatever enclosing frame
// pass one found visible, or the innermost frame if none was.
func p2ResolveTarget(tbl *scopeTables, scope *scopeStack, id *ast.Ident, decl bool) {
	if decl {
		tbl.addr[id] = slotAddr{Depth: 0, Index: scope.current().names[id.Name]}
		return
	}
	if addr, found := scope.find(id.Name); found {
		tbl.addr[id] = addr
		return
	}
	tbl.addr[id] = slotAddr{Depth: 0, Index: scope.current().names[id.Name]}
}

func p2Expr(tbl *scopeTables, scope *scopeStack, e ast.Expression) {
	switch ex := e.(type) {
	case *ast.Ident:
		if addr, found := scope.find(ex.Name); found {
			tbl.addr[ex] = addr
		}
	case *ast.OosvarExpr:
		for _, idx := range ex.Indices {
			p2Expr(tbl, scope, idx)
		}
	case *ast.PrefixExpr:
		p2Expr(tbl, scope, ex.Right)
	case *ast.InfixExpr:
		p2Expr(tbl, scope, ex.Left)
		p2Expr(tbl, scope, ex.Right)
	case *ast.TernaryExpr:
		p2Expr(tbl, scope, ex.Cond)
		p2Expr(tbl, scope, ex.Then)
		p2Expr(tbl, scope, ex.Else)
	case *ast.IndexExpr:
		p2Expr(tbl, scope, ex.Base)
		p2Expr(tbl, scope, ex.Index)
	case *ast.CallExpr:
		for _, a := range ex.Args {
			p2Expr(tbl, scope, a)
		}
	}
}

func p2Func(tbl *scopeTables, def *ast.FuncDef) {
	layout := tbl.params[def]
	scope := &scopeStack{}
	scope.push(layout)
	p2Block(tbl, scope, def.Body)
}
