package dataflow

import (
	"github.com/l3aro/py-dataflow-query/internal/log"
	"github.com/l3aro/py-dataflow-query/pkg/cfg"
)

// Analyzer runs the reaching-definitions fixpoint over a control flow graph
// and emits def→use edges. One Analyzer may be reused across graphs; every
// Analyze call gets its own symbol table and reaching state, so independent
// analyses can run concurrently on separate Analyzer values or with one
// shared value as long as the rule set is not mutated.
type Analyzer struct {
	extractor *Extractor
	logger    log.Logger
}

// NewAnalyzer returns an analyzer using the given mutation rules.
func NewAnalyzer(specs *Specs) *Analyzer {
	return &Analyzer{extractor: NewExtractor(specs), logger: log.Default()}
}

// SetLogger replaces the diagnostics logger.
func (a *Analyzer) SetLogger(l log.Logger) {
	if l != nil {
		a.logger = l
	}
}

// Result is the outcome of one analysis run.
type Result struct {
	// Edges is the def→use edge set, deduplicated by statement pair.
	Edges *EdgeSet
	// Reaching holds each block's reaching-definition set at the fixpoint,
	// keyed by block id.
	Reaching map[int]*DefSet
	// Symbols is the symbol table accumulated during the run.
	Symbols *SymbolTable
}

// Analyze propagates reaching definitions across the graph until no block's
// state changes, accumulating an edge for every still-reaching definition of
// each name a statement uses. The worklist order is a scheduling heuristic;
// the fixpoint does not depend on it.
func (a *Analyzer) Analyze(graph *cfg.Graph) *Result {
	blocks := graph.Blocks()
	symtab := NewSymbolTable()
	edges := NewEdgeSet()

	reaching := make(map[int]*DefSet, len(blocks))
	for _, b := range blocks {
		reaching[b.ID] = NewDefSet()
	}

	// Stack discipline, seeded in reverse structural order.
	worklist := make([]*cfg.Block, 0, len(blocks))
	pending := make(map[int]bool, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		worklist = append(worklist, blocks[i])
		pending[blocks[i].ID] = true
	}

	for len(worklist) > 0 {
		block := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		pending[block.ID] = false

		// Predecessors not yet visited contribute their current, possibly
		// still-empty set; the union only grows toward the fixpoint.
		defs := reaching[block.ID].Clone()
		for _, pred := range graph.Predecessors(block) {
			defs.AddAll(reaching[pred.ID])
		}

		for _, stmt := range block.Statements {
			if stmt.Loc().IsZero() {
				a.logger.Warn("statement has no source location, using degenerate key",
					"block", block.ID)
			}
			definedHere, usedHere := a.extractor.DefsUsedNames(stmt, symtab)

			// A name used here is connected to every still-reaching
			// definition of that name, not just the most recent one.
			for _, def := range defs.Items() {
				if _, used := usedHere[def.Name]; used && def.Statement != nil {
					edges.Add(Edge{From: def.Statement, To: stmt})
				}
			}

			// Kill then gen: redefinition is total by name.
			for _, def := range definedHere.Items() {
				defs.RemoveName(def.Name)
			}
			defs.AddAll(definedHere)
		}

		if !defs.Equal(reaching[block.ID]) {
			reaching[block.ID] = defs
			for _, succ := range graph.Successors(block) {
				if !pending[succ.ID] {
					worklist = append(worklist, succ)
					pending[succ.ID] = true
				}
			}
		}
	}

	return &Result{Edges: edges, Reaching: reaching, Symbols: symtab}
}
