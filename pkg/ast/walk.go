package ast

// Visitor receives each node during a walk together with the chain of its
// ancestors, outermost first. Returning false stops descent into the node.
type Visitor func(n Node, ancestors []Node) bool

// Walk traverses the tree rooted at n in source order. The ancestor chain is
// an explicit stack passed down the recursion; visitors may keep references
// to it only for the duration of the callback.
func Walk(n Node, visit Visitor) {
	walk(n, nil, visit)
}

func walk(n Node, ancestors []Node, visit Visitor) {
	if n == nil {
		return
	}
	if !visit(n, ancestors) {
		return
	}
	ancestors = append(ancestors, n)
	for _, child := range Children(n) {
		walk(child, ancestors, visit)
	}
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	switch t := n.(type) {
	case *Name, *Literal, *Import, *FromImport, *Break, *Continue:
		return nil
	case *Keyword:
		return []Node{t.Value}
	case *Call:
		out := []Node{t.Func}
		out = append(out, t.Args...)
		for _, kw := range t.Keywords {
			out = append(out, kw)
		}
		return out
	case *Dot:
		return []Node{t.Value}
	case *Index:
		return append([]Node{t.Value}, t.Subs...)
	case *Tuple:
		return t.Elts
	case *List:
		return t.Elts
	case *BinOp:
		return []Node{t.Left, t.Right}
	case *Assign:
		out := append([]Node{}, t.Targets...)
		return append(out, t.Sources...)
	case *FuncDef:
		out := append([]Node{}, t.Params...)
		return append(out, t.Body...)
	case *ClassDef:
		out := append([]Node{}, t.Bases...)
		return append(out, t.Body...)
	case *Return:
		if t.Value == nil {
			return nil
		}
		return []Node{t.Value}
	case *If:
		var out []Node
		for _, arm := range t.Arms {
			out = append(out, arm.Cond)
			out = append(out, arm.Body...)
		}
		return append(out, t.Else...)
	case *While:
		return append([]Node{t.Cond}, t.Body...)
	case *For:
		out := []Node{t.Target, t.Iter}
		return append(out, t.Body...)
	case *ExprStmt:
		return []Node{t.Value}
	case *Unknown:
		return t.Children
	}
	return nil
}

// Names collects every identifier reference anywhere under n, in source order.
func Names(n Node) []*Name {
	var out []*Name
	Walk(n, func(node Node, _ []Node) bool {
		if name, ok := node.(*Name); ok {
			out = append(out, name)
		}
		return true
	})
	return out
}

// Contains reports whether target sits in the ancestor chain or is the node
// itself. The chain comparison is by node identity.
func Contains(chain []Node, n Node, target Node) bool {
	if n == target {
		return true
	}
	for _, a := range chain {
		if a == target {
			return true
		}
	}
	return false
}
