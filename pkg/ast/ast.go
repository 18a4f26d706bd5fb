// Package ast defines the syntax tree consumed by the dataflow analysis.
// It is a closed set of node kinds; anything the parser cannot classify
// becomes an Unknown node so traversal degrades instead of failing.
package ast

import "fmt"

// Location is a source span. It has no identity beyond its coordinates.
type Location struct {
	FirstLine   int `json:"first_line"`
	FirstColumn int `json:"first_column"`
	LastLine    int `json:"last_line"`
	LastColumn  int `json:"last_column"`
}

// Key returns the canonical string encoding of the span, used as an
// identity discriminator for sets.
func (l Location) Key() string {
	return fmt.Sprintf("%d:%d-%d:%d", l.FirstLine, l.FirstColumn, l.LastLine, l.LastColumn)
}

// IsZero reports whether the location carries no coordinates at all.
func (l Location) IsZero() bool {
	return l.FirstLine == 0 && l.FirstColumn == 0 && l.LastLine == 0 && l.LastColumn == 0
}

// Node is implemented by every syntax node.
type Node interface {
	Loc() Location
	node()
}

// Name is an identifier reference.
type Name struct {
	Location Location
	ID       string
}

// Literal is a constant: string, number, bool or None. For strings Value
// holds the unquoted, unescaped text.
type Literal struct {
	Location Location
	Kind     LiteralKind
	Value    string
}

// LiteralKind discriminates literal constants.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
	LitNone
)

// Keyword is a keyword argument inside a call: Arg=Value.
type Keyword struct {
	Location Location
	Arg      string
	Value    Node
}

// Call is a function or method invocation.
type Call struct {
	Location Location
	Func     Node
	Args     []Node
	Keywords []*Keyword
}

// Dot is a member access: Value.Attr.
type Dot struct {
	Location Location
	Value    Node
	Attr     string
	AttrLoc  Location
}

// Index is a subscript: Value[Subs...].
type Index struct {
	Location Location
	Value    Node
	Subs     []Node
}

// Tuple is a tuple display, including destructuring targets.
type Tuple struct {
	Location Location
	Elts     []Node
}

// List is a list display.
type List struct {
	Location Location
	Elts     []Node
}

// BinOp is a binary operation.
type BinOp struct {
	Location Location
	Op       string
	Left     Node
	Right    Node
}

// ImportedName is one imported name with an optional alias. Location points
// at the bound name (the alias when present).
type ImportedName struct {
	Location Location
	Path     string
	Alias    string
}

// Bound returns the name the import binds in the importing module.
func (n ImportedName) Bound() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Path
}

// Import is a plain `import a, b as c` statement.
type Import struct {
	Location Location
	Names    []ImportedName
}

// FromImport is a `from M import ...` statement. Wildcard marks
// `from M import *`, in which case Names is empty.
type FromImport struct {
	Location Location
	Module   string
	Names    []ImportedName
	Wildcard bool
}

// Assign covers plain, destructuring and augmented assignments. Op is the
// augmented operator ("+=", ...) or empty for a plain `=`.
type Assign struct {
	Location Location
	Targets  []Node
	Sources  []Node
	Op       string
}

// FuncDef is a function definition. NameLoc spans the header name.
type FuncDef struct {
	Location Location
	Name     string
	NameLoc  Location
	Params   []Node
	Body     []Node
}

// ClassDef is a class definition. NameLoc spans the header name.
type ClassDef struct {
	Location Location
	Name     string
	NameLoc  Location
	Bases    []Node
	Body     []Node
}

// Return is a return statement; Value may be nil.
type Return struct {
	Location Location
	Value    Node
}

// Branch is one condition/body arm of an If.
type Branch struct {
	Cond Node
	Body []Node
}

// If is an if/elif/else chain. Else may be empty.
type If struct {
	Location Location
	Arms     []Branch
	Else     []Node
}

// While is a while loop.
type While struct {
	Location Location
	Cond     Node
	Body     []Node
}

// For is a for loop over an iterable.
type For struct {
	Location Location
	Target   Node
	Iter     Node
	Body     []Node
}

// Break is a break statement.
type Break struct {
	Location Location
}

// Continue is a continue statement.
type Continue struct {
	Location Location
}

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	Location Location
	Value    Node
}

// Unknown is the fallthrough kind for syntax the analysis has no rule for.
// Children are retained so identifier references inside it stay reachable.
type Unknown struct {
	Location Location
	Type     string
	Children []Node
}

func (n *Name) Loc() Location       { return n.Location }
func (n *Literal) Loc() Location    { return n.Location }
func (n *Keyword) Loc() Location    { return n.Location }
func (n *Call) Loc() Location       { return n.Location }
func (n *Dot) Loc() Location        { return n.Location }
func (n *Index) Loc() Location      { return n.Location }
func (n *Tuple) Loc() Location      { return n.Location }
func (n *List) Loc() Location       { return n.Location }
func (n *BinOp) Loc() Location      { return n.Location }
func (n *Import) Loc() Location     { return n.Location }
func (n *FromImport) Loc() Location { return n.Location }
func (n *Assign) Loc() Location     { return n.Location }
func (n *FuncDef) Loc() Location    { return n.Location }
func (n *ClassDef) Loc() Location   { return n.Location }
func (n *Return) Loc() Location     { return n.Location }
func (n *If) Loc() Location         { return n.Location }
func (n *While) Loc() Location      { return n.Location }
func (n *For) Loc() Location        { return n.Location }
func (n *Break) Loc() Location      { return n.Location }
func (n *Continue) Loc() Location   { return n.Location }
func (n *ExprStmt) Loc() Location   { return n.Location }
func (n *Unknown) Loc() Location    { return n.Location }

func (*Name) node()       {}
func (*Literal) node()    {}
func (*Keyword) node()    {}
func (*Call) node()       {}
func (*Dot) node()        {}
func (*Index) node()      {}
func (*Tuple) node()      {}
func (*List) node()       {}
func (*BinOp) node()      {}
func (*Import) node()     {}
func (*FromImport) node() {}
func (*Assign) node()     {}
func (*FuncDef) node()    {}
func (*ClassDef) node()   {}
func (*Return) node()     {}
func (*If) node()         {}
func (*While) node()      {}
func (*For) node()        {}
func (*Break) node()      {}
func (*Continue) node()   {}
func (*ExprStmt) node()   {}
func (*Unknown) node()    {}
