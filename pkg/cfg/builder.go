package cfg

import "github.com/l3aro/py-dataflow-query/pkg/ast"

// loopFrame tracks the jump targets of the innermost enclosing loop.
type loopFrame struct {
	header *Block
	after  *Block
}

type builder struct {
	g     *Graph
	cur   *Block
	exit  *Block
	loops []loopFrame
}

// Build constructs a control flow graph for a module's statement list.
// Conditions and loop headers become their own blocks so reads in them are
// attributed to the right program point; function and class definitions stay
// whole statements, their bodies are not split.
func Build(stmts []ast.Node) *Graph {
	b := &builder{g: NewGraph()}
	b.cur = b.g.NewBlock()
	b.exit = b.g.NewBlock()
	b.stmts(stmts)
	if b.cur != nil {
		b.g.AddEdge(b.cur, b.exit)
	}
	return b.g
}

func (b *builder) stmts(stmts []ast.Node) {
	for _, stmt := range stmts {
		b.stmt(stmt)
		if b.cur == nil {
			// Unreachable code after return/break/continue still gets
			// a block so its statements are analyzed.
			b.cur = b.g.NewBlock()
		}
	}
}

func (b *builder) stmt(stmt ast.Node) {
	switch t := stmt.(type) {
	case *ast.If:
		b.ifStmt(t)
	case *ast.While:
		b.whileStmt(t)
	case *ast.For:
		b.forStmt(t)
	case *ast.Return:
		b.cur.Statements = append(b.cur.Statements, t)
		b.g.AddEdge(b.cur, b.exit)
		b.cur = nil
	case *ast.Break:
		b.cur.Statements = append(b.cur.Statements, t)
		if len(b.loops) > 0 {
			b.g.AddEdge(b.cur, b.loops[len(b.loops)-1].after)
		}
		b.cur = nil
	case *ast.Continue:
		b.cur.Statements = append(b.cur.Statements, t)
		if len(b.loops) > 0 {
			b.g.AddEdge(b.cur, b.loops[len(b.loops)-1].header)
		}
		b.cur = nil
	default:
		b.cur.Statements = append(b.cur.Statements, stmt)
	}
}

func (b *builder) ifStmt(t *ast.If) {
	after := b.g.NewBlock()
	entry := b.cur
	for _, arm := range t.Arms {
		// The condition reads in the block the previous arm falls
		// through to.
		entry.Statements = append(entry.Statements, arm.Cond)
		body := b.g.NewBlock()
		b.g.AddEdge(entry, body)
		b.cur = body
		b.stmts(arm.Body)
		if b.cur != nil {
			b.g.AddEdge(b.cur, after)
		}
		next := b.g.NewBlock()
		b.g.AddEdge(entry, next)
		entry = next
	}
	b.cur = entry
	if len(t.Else) > 0 {
		b.stmts(t.Else)
	}
	if b.cur != nil {
		b.g.AddEdge(b.cur, after)
	}
	b.cur = after
}

func (b *builder) whileStmt(t *ast.While) {
	header := b.g.NewBlock(t.Cond)
	after := b.g.NewBlock()
	b.g.AddEdge(b.cur, header)

	body := b.g.NewBlock()
	b.g.AddEdge(header, body)
	b.g.AddEdge(header, after)

	b.loops = append(b.loops, loopFrame{header: header, after: after})
	b.cur = body
	b.stmts(t.Body)
	if b.cur != nil {
		b.g.AddEdge(b.cur, header)
	}
	b.loops = b.loops[:len(b.loops)-1]
	b.cur = after
}

func (b *builder) forStmt(t *ast.For) {
	// The loop header replays only the target and iterable; the body is
	// laid out as successor blocks, not nested inside the statement.
	head := &ast.For{Location: t.Location, Target: t.Target, Iter: t.Iter}
	header := b.g.NewBlock(head)
	after := b.g.NewBlock()
	b.g.AddEdge(b.cur, header)

	body := b.g.NewBlock()
	b.g.AddEdge(header, body)
	b.g.AddEdge(header, after)

	b.loops = append(b.loops, loopFrame{header: header, after: after})
	b.cur = body
	b.stmts(t.Body)
	if b.cur != nil {
		b.g.AddEdge(b.cur, header)
	}
	b.loops = b.loops[:len(b.loops)-1]
	b.cur = after
}
