// Package cfg represents control flow graphs over parsed statements and
// builds them from a module's statement list.
package cfg

import "github.com/l3aro/py-dataflow-query/pkg/ast"

// Block is a basic block: a stable integer id and an ordered statement
// sequence. Consumers treat blocks as read-only.
type Block struct {
	ID         int
	Statements []ast.Node
}

// Graph is a control flow graph. Blocks are kept in creation order.
type Graph struct {
	blocks []*Block
	succs  map[int][]*Block
	preds  map[int][]*Block
	nextID int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		succs: make(map[int][]*Block),
		preds: make(map[int][]*Block),
	}
}

// NewBlock creates a block holding the given statements and adds it to the
// graph.
func (g *Graph) NewBlock(stmts ...ast.Node) *Block {
	b := &Block{ID: g.nextID, Statements: stmts}
	g.nextID++
	g.blocks = append(g.blocks, b)
	return b
}

// AddEdge records a directed edge from one block to another. Duplicate
// edges are collapsed.
func (g *Graph) AddEdge(from, to *Block) {
	for _, s := range g.succs[from.ID] {
		if s.ID == to.ID {
			return
		}
	}
	g.succs[from.ID] = append(g.succs[from.ID], to)
	g.preds[to.ID] = append(g.preds[to.ID], from)
}

// Blocks returns the blocks in creation order.
func (g *Graph) Blocks() []*Block { return g.blocks }

// Predecessors returns the blocks with an edge into b.
func (g *Graph) Predecessors(b *Block) []*Block { return g.preds[b.ID] }

// Successors returns the blocks b has an edge to.
func (g *Graph) Successors(b *Block) []*Block { return g.succs[b.ID] }
