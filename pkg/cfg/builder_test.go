package cfg

import (
	"testing"

	"github.com/l3aro/py-dataflow-query/pkg/ast"
)

func name(id string, line int) *ast.Name {
	return &ast.Name{ID: id, Location: ast.Location{FirstLine: line, LastLine: line, LastColumn: len(id)}}
}

func expr(id string, line int) *ast.ExprStmt {
	n := name(id, line)
	return &ast.ExprStmt{Location: n.Location, Value: n}
}

// reachableFrom walks successor edges from the first block.
func reachableFrom(g *Graph, start *Block) map[int]bool {
	seen := map[int]bool{start.ID: true}
	stack := []*Block{start}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.Successors(b) {
			if !seen[s.ID] {
				seen[s.ID] = true
				stack = append(stack, s)
			}
		}
	}
	return seen
}

func TestBuildLinear(t *testing.T) {
	g := Build([]ast.Node{expr("a", 1), expr("b", 2), expr("c", 3)})

	blocks := g.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("linear code should yield entry and exit, got %d blocks", len(blocks))
	}
	entry, exit := blocks[0], blocks[1]
	if len(entry.Statements) != 3 {
		t.Errorf("entry block holds %d statements, want 3", len(entry.Statements))
	}
	if len(g.Successors(entry)) != 1 || g.Successors(entry)[0].ID != exit.ID {
		t.Errorf("entry must flow to exit")
	}
}

func TestBuildIf(t *testing.T) {
	ifStmt := &ast.If{
		Location: ast.Location{FirstLine: 2, LastLine: 5},
		Arms: []ast.Branch{{
			Cond: name("c", 2),
			Body: []ast.Node{expr("t", 3)},
		}},
		Else: []ast.Node{expr("e", 5)},
	}
	g := Build([]ast.Node{expr("a", 1), ifStmt, expr("z", 6)})

	// The condition stays in the block preceding the branch.
	entry := g.Blocks()[0]
	last := entry.Statements[len(entry.Statements)-1]
	if n, ok := last.(*ast.Name); !ok || n.ID != "c" {
		t.Fatalf("condition should terminate the entry block, got %T", last)
	}
	if len(g.Successors(entry)) != 2 {
		t.Fatalf("branch point has %d successors, want 2", len(g.Successors(entry)))
	}

	// Both arms converge on the block holding the trailing statement.
	var join *Block
	for _, b := range g.Blocks() {
		for _, s := range b.Statements {
			if e, ok := s.(*ast.ExprStmt); ok {
				if n, ok := e.Value.(*ast.Name); ok && n.ID == "z" {
					join = b
				}
			}
		}
	}
	if join == nil {
		t.Fatal("trailing statement not placed in any block")
	}
	if len(g.Predecessors(join)) != 2 {
		t.Errorf("join has %d predecessors, want 2", len(g.Predecessors(join)))
	}
}

func TestBuildWhile(t *testing.T) {
	loop := &ast.While{
		Location: ast.Location{FirstLine: 1, LastLine: 2},
		Cond:     name("c", 1),
		Body:     []ast.Node{expr("b", 2)},
	}
	g := Build([]ast.Node{loop, expr("z", 3)})

	var header *Block
	for _, b := range g.Blocks() {
		if len(b.Statements) == 1 {
			if n, ok := b.Statements[0].(*ast.Name); ok && n.ID == "c" {
				header = b
			}
		}
	}
	if header == nil {
		t.Fatal("loop condition not placed in its own block")
	}
	if len(g.Successors(header)) != 2 {
		t.Fatalf("header has %d successors, want body and after", len(g.Successors(header)))
	}
	// Back edge: the body must reach the header again.
	body := g.Successors(header)[0]
	if !reachableFrom(g, body)[header.ID] {
		t.Errorf("loop body does not flow back to the header")
	}
}

func TestBuildForHeader(t *testing.T) {
	loop := &ast.For{
		Location: ast.Location{FirstLine: 1, LastLine: 2},
		Target:   name("i", 1),
		Iter:     name("xs", 1),
		Body:     []ast.Node{expr("b", 2)},
	}
	g := Build([]ast.Node{loop})

	var header *Block
	for _, b := range g.Blocks() {
		for _, s := range b.Statements {
			if f, ok := s.(*ast.For); ok {
				if len(f.Body) != 0 {
					t.Fatalf("loop header must not retain the body")
				}
				header = b
			}
		}
	}
	if header == nil {
		t.Fatal("for loop header not placed in any block")
	}
	if len(g.Successors(header)) != 2 {
		t.Errorf("header has %d successors, want body and after", len(g.Successors(header)))
	}
}

func TestBuildReturnBreakContinue(t *testing.T) {
	t.Run("return", func(t *testing.T) {
		g := Build([]ast.Node{
			&ast.Return{Location: ast.Location{FirstLine: 1, LastLine: 1}},
			expr("dead", 2),
		})
		entry, exit := g.Blocks()[0], g.Blocks()[1]
		if len(g.Successors(entry)) != 1 || g.Successors(entry)[0].ID != exit.ID {
			t.Errorf("return must jump straight to exit")
		}
		// Unreachable code still lands in a block of its own.
		found := false
		for _, b := range g.Blocks() {
			if b.ID == entry.ID {
				continue
			}
			if len(b.Statements) == 1 {
				found = true
			}
		}
		if !found {
			t.Errorf("statement after return was dropped")
		}
	})

	t.Run("break and continue", func(t *testing.T) {
		loop := &ast.While{
			Location: ast.Location{FirstLine: 1, LastLine: 4},
			Cond:     name("c", 1),
			Body: []ast.Node{
				&ast.Break{Location: ast.Location{FirstLine: 2, LastLine: 2}},
				&ast.Continue{Location: ast.Location{FirstLine: 3, LastLine: 3}},
			},
		}
		g := Build([]ast.Node{loop})

		var header *Block
		for _, b := range g.Blocks() {
			if len(b.Statements) == 1 {
				if n, ok := b.Statements[0].(*ast.Name); ok && n.ID == "c" {
					header = b
				}
			}
		}
		if header == nil {
			t.Fatal("loop header missing")
		}
		after := g.Successors(header)[1]

		var breakBlock, continueBlock *Block
		for _, b := range g.Blocks() {
			for _, s := range b.Statements {
				switch s.(type) {
				case *ast.Break:
					breakBlock = b
				case *ast.Continue:
					continueBlock = b
				}
			}
		}
		if breakBlock == nil || continueBlock == nil {
			t.Fatal("break/continue statements not placed")
		}
		if !hasSucc(g, breakBlock, after) {
			t.Errorf("break must jump to the block after the loop")
		}
		if !hasSucc(g, continueBlock, header) {
			t.Errorf("continue must jump to the loop header")
		}
	})
}

func hasSucc(g *Graph, from, to *Block) bool {
	for _, s := range g.Successors(from) {
		if s.ID == to.ID {
			return true
		}
	}
	return false
}

func TestAddEdgeDedup(t *testing.T) {
	g := NewGraph()
	a := g.NewBlock()
	b := g.NewBlock()
	g.AddEdge(a, b)
	g.AddEdge(a, b)
	if len(g.Successors(a)) != 1 || len(g.Predecessors(b)) != 1 {
		t.Errorf("duplicate edge was not collapsed")
	}
}
