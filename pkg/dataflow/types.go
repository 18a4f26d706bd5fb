// Package dataflow computes static def→use edges for a parsed program: the
// per-statement definition/use extractor and the reaching-definitions
// fixpoint engine that consumes a control flow graph.
package dataflow

import (
	"github.com/l3aro/py-dataflow-query/pkg/ast"
)

// DefKind says what produced a binding.
type DefKind string

const (
	DefVariable DefKind = "variable"
	DefClass    DefKind = "class"
	DefFunction DefKind = "function"
	DefImport   DefKind = "import"
	DefMutation DefKind = "mutation"
	DefMagic    DefKind = "magic"
)

// DefLevel is part of the declared vocabulary but is not assigned by any
// extraction rule; the field is reserved.
type DefLevel string

const (
	LevelDefinition     DefLevel = "definition"
	LevelGlobalConfig   DefLevel = "global_config"
	LevelInitialization DefLevel = "initialization"
	LevelUpdate         DefLevel = "update"
)

// Def is a program point that binds a name. Location spans the name
// reference, not the whole statement; two Defs are the same entity iff
// Name and Location are equal. Statement is a shared reference into the
// AST the Def annotates.
type Def struct {
	Kind      DefKind      `json:"kind"`
	Level     DefLevel     `json:"level,omitempty"`
	Name      string       `json:"name"`
	Location  ast.Location `json:"location"`
	Statement ast.Node     `json:"-"`
}

func (d *Def) key() string { return d.Name + "@" + d.Location.Key() }

// Use is a single identifier reference read by a statement. The same
// identifier appearing twice in one statement is two distinct Uses.
type Use struct {
	Name string
	Node *ast.Name
}

func (u Use) key() string { return u.Name + "@" + u.Node.Location.Key() }

// DefSet is an insertion-ordered set of Defs deduplicated by name+location.
type DefSet struct {
	items []*Def
	index map[string]struct{}
}

// NewDefSet returns a DefSet holding the given defs.
func NewDefSet(defs ...*Def) *DefSet {
	s := &DefSet{index: make(map[string]struct{})}
	for _, d := range defs {
		s.Add(d)
	}
	return s
}

// Add inserts d unless a def with the same name and location is present.
func (s *DefSet) Add(d *Def) {
	k := d.key()
	if _, ok := s.index[k]; ok {
		return
	}
	s.index[k] = struct{}{}
	s.items = append(s.items, d)
}

// AddAll inserts every def from other.
func (s *DefSet) AddAll(other *DefSet) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		s.Add(d)
	}
}

// Items returns the defs in insertion order. Callers must not mutate the
// returned slice.
func (s *DefSet) Items() []*Def { return s.items }

// Len returns the number of defs in the set.
func (s *DefSet) Len() int { return len(s.items) }

// Union returns a new set with the contents of s and other.
func (s *DefSet) Union(other *DefSet) *DefSet {
	out := NewDefSet()
	out.AddAll(s)
	out.AddAll(other)
	return out
}

// RemoveName drops every def bound to name. Redefinition kill is by name,
// not by location.
func (s *DefSet) RemoveName(name string) {
	kept := s.items[:0]
	for _, d := range s.items {
		if d.Name == name {
			delete(s.index, d.key())
			continue
		}
		kept = append(kept, d)
	}
	s.items = kept
}

// Equal reports set equality by member keys.
func (s *DefSet) Equal(other *DefSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k := range s.index {
		if _, ok := other.index[k]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s *DefSet) Clone() *DefSet {
	out := NewDefSet()
	out.AddAll(s)
	return out
}

// UseSet is an insertion-ordered set of Uses deduplicated by name+location.
type UseSet struct {
	items []Use
	index map[string]struct{}
}

// NewUseSet returns an empty UseSet.
func NewUseSet() *UseSet {
	return &UseSet{index: make(map[string]struct{})}
}

// Add inserts u unless the same reference is already present.
func (s *UseSet) Add(u Use) {
	k := u.key()
	if _, ok := s.index[k]; ok {
		return
	}
	s.index[k] = struct{}{}
	s.items = append(s.items, u)
}

// Items returns the uses in insertion order.
func (s *UseSet) Items() []Use { return s.items }

// Len returns the number of uses in the set.
func (s *UseSet) Len() int { return len(s.items) }

// Names reduces the set to bare name membership.
func (s *UseSet) Names() map[string]struct{} {
	out := make(map[string]struct{}, len(s.items))
	for _, u := range s.items {
		out[u.Name] = struct{}{}
	}
	return out
}

// Edge is an ordered (producing statement, consuming statement) pair.
// Identity is the pair of their location keys; distinct def/use instances
// between the same two statements collapse to one edge.
type Edge struct {
	From ast.Node
	To   ast.Node
}

func (e Edge) key() string { return e.From.Loc().Key() + "->" + e.To.Loc().Key() }

// EdgeSet is an insertion-ordered set of Edges. It only ever grows.
type EdgeSet struct {
	items []Edge
	index map[string]struct{}
}

// NewEdgeSet returns an empty EdgeSet.
func NewEdgeSet() *EdgeSet {
	return &EdgeSet{index: make(map[string]struct{})}
}

// Add inserts e unless an edge between the same statement pair is present.
func (s *EdgeSet) Add(e Edge) {
	k := e.key()
	if _, ok := s.index[k]; ok {
		return
	}
	s.index[k] = struct{}{}
	s.items = append(s.items, e)
}

// Items returns the edges in insertion order.
func (s *EdgeSet) Items() []Edge { return s.items }

// Len returns the number of edges in the set.
func (s *EdgeSet) Len() int { return len(s.items) }

// Has reports whether the statement pair is already connected.
func (s *EdgeSet) Has(e Edge) bool {
	_, ok := s.index[e.key()]
	return ok
}

// SymbolTable is per-analysis state. ModuleNames accumulates the names bound
// by import statements; append-only for the lifetime of one analysis pass.
type SymbolTable struct {
	ModuleNames map[string]struct{}
}

// NewSymbolTable returns a fresh symbol table. One table per analysis call;
// concurrent analyses must not share it.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{ModuleNames: make(map[string]struct{})}
}

// AddModule records a name bound to an imported module.
func (t *SymbolTable) AddModule(name string) {
	t.ModuleNames[name] = struct{}{}
}

// HasModule reports whether name is bound to an imported module.
func (t *SymbolTable) HasModule(name string) bool {
	_, ok := t.ModuleNames[name]
	return ok
}
