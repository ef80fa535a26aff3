// Package oosvar implements the single process-wide nested map the DSL's
// @name out-of-stream variables live in, spec.md §3's "out-of-stream map"
// and §4.H's @name[...][...] indexing.
//
// Grounded on container.OrderedMap for each level's key ordering (so
// emit/emitp walk a @var's levels in first-seen order, matching every
// other first-seen-order guarantee this module makes elsewhere), wrapped
// in a tree of *Node so arbitrary-depth nested indexing composes.
package oosvar

import (
	"github.com/carlodf/mlrq/container"
	"github.com/carlodf/mlrq/mlrval"
)

// Node is one level of the out-of-stream tree: either a leaf scalar
// (Leaf, IsLeaf true) or an ordered map of child Nodes.
type Node struct {
	IsLeaf   bool
	Leaf     mlrval.Value
	Children *container.OrderedMap // key string -> *Node
}

func newMapNode() *Node {
	return &Node{Children: container.NewOrderedMap()}
}

func newLeaf(v mlrval.Value) *Node {
	return &Node{IsLeaf: true, Leaf: v}
}

// Store is the root of the out-of-stream tree: one Node per top-level
// @name.
type Store struct {
	vars map[string]*Node
	order []string
}

// NewStore allocates an empty out-of-stream store.
func NewStore() *Store {
	return &Store{vars: make(map[string]*Node)}
}

// Get reads @name[path...] by value. Any missing path segment yields
// mlrval.Absent, per spec.md §4.A's "absent" for a missing read.
func (s *Store) Get(name string, path []string) mlrval.Value {
	n, ok := s.vars[name]
	if !ok {
		return mlrval.Absent
	}
	for _, k := range path {
		if n.IsLeaf || n.Children == nil {
			return mlrval.Absent
		}
		child, ok := n.Children.Get(k)
		if !ok {
			return mlrval.Absent
		}
		n = child.(*Node)
	}
	if n.IsLeaf {
		return n.Leaf
	}
	return mlrval.Absent // reading a subtree as a scalar yields absent
}

// Set writes @name[path...] = v, creating intermediate map levels as
// needed.
func (s *Store) Set(name string, path []string, v mlrval.Value) {
	n, ok := s.vars[name]
	if !ok {
		n = newMapNode()
		s.vars[name] = n
		s.order = append(s.order, name)
	}
	if len(path) == 0 {
		n.IsLeaf = true
		n.Leaf = v
		n.Children = nil
		return
	}
	for _, k := range path[:len(path)-1] {
		n = descend(n, k)
	}
	last := path[len(path)-1]
	child, ok := n.Children.Get(last)
	if !ok {
		leaf := newLeaf(v)
		n.Children.Put(last, leaf)
		return
	}
	cn := child.(*Node)
	cn.IsLeaf = true
	cn.Leaf = v
	cn.Children = nil
}

func descend(n *Node, key string) *Node {
	if n.IsLeaf {
		n.IsLeaf = false
		n.Children = container.NewOrderedMap()
	}
	if n.Children == nil {
		n.Children = container.NewOrderedMap()
	}
	child, ok := n.Children.Get(key)
	if !ok {
		m := newMapNode()
		n.Children.Put(key, m)
		return m
	}
	return child.(*Node)
}

// Unset removes @name[path...], or the whole @name if path is empty.
func (s *Store) Unset(name string, path []string) {
	if len(path) == 0 {
		delete(s.vars, name)
		for i, k := range s.order {
			if k == name {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return
	}
	n, ok := s.vars[name]
	if !ok {
		return
	}
	for _, k := range path[:len(path)-1] {
		if n.IsLeaf || n.Children == nil {
			return
		}
		child, ok := n.Children.Get(k)
		if !ok {
			return
		}
		n = child.(*Node)
	}
	if n.Children != nil {
		n.Children.Delete(path[len(path)-1])
	}
}

// Node returns the raw *Node at @name[path...], or nil if absent --
// used by emit/emitp to walk a variable's levels directly rather than
// through Get's scalar-only contract.
func (s *Store) Node(name string, path []string) *Node {
	n, ok := s.vars[name]
	if !ok {
		return nil
	}
	for _, k := range path {
		if n.IsLeaf || n.Children == nil {
			return nil
		}
		child, ok := n.Children.Get(k)
		if !ok {
			return nil
		}
		n = child.(*Node)
	}
	return n
}

// Each walks the top-level @name bindings in first-seen order.
func (s *Store) Each(f func(name string, n *Node) bool) {
	for _, name := range s.order {
		if !f(name, s.vars[name]) {
			return
		}
	}
}

// Keys returns n's child keys in first-seen order, or nil if n is a leaf
// or nil.
func (n *Node) Keys() []string {
	if n == nil || n.IsLeaf || n.Children == nil {
		return nil
	}
	return n.Children.Keys()
}

// Child returns n's child at key, or nil.
func (n *Node) Child(key string) *Node {
	if n == nil || n.IsLeaf || n.Children == nil {
		return nil
	}
	c, ok := n.Children.Get(key)
	if !ok {
		return nil
	}
	return c.(*Node)
}
