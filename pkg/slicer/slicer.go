// Package slicer computes backward program slices from the def→use edge set
// produced by the dataflow analysis.
package slicer

import (
	"sort"

	"github.com/l3aro/py-dataflow-query/pkg/ast"
	"github.com/l3aro/py-dataflow-query/pkg/cfg"
	"github.com/l3aro/py-dataflow-query/pkg/dataflow"
)

// Slice is the set of statements a seed transitively depends on, including
// the seed statements themselves, in source order.
type Slice struct {
	Statements []ast.Node
	Lines      []int
}

// Backward returns the backward slice for every statement covering the seed
// line: the transitive closure of def→use edges walked producer-ward.
func Backward(graph *cfg.Graph, edges *dataflow.EdgeSet, seedLine int) *Slice {
	incoming := make(map[string][]dataflow.Edge)
	for _, e := range edges.Items() {
		key := e.To.Loc().Key()
		incoming[key] = append(incoming[key], e)
	}

	included := make(map[string]ast.Node)
	var frontier []ast.Node
	for _, block := range graph.Blocks() {
		for _, stmt := range block.Statements {
			loc := stmt.Loc()
			if loc.FirstLine <= seedLine && seedLine <= loc.LastLine {
				if _, ok := included[loc.Key()]; !ok {
					included[loc.Key()] = stmt
					frontier = append(frontier, stmt)
				}
			}
		}
	}

	for len(frontier) > 0 {
		stmt := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, e := range incoming[stmt.Loc().Key()] {
			key := e.From.Loc().Key()
			if _, ok := included[key]; ok {
				continue
			}
			included[key] = e.From
			frontier = append(frontier, e.From)
		}
	}

	out := &Slice{}
	for _, stmt := range included {
		out.Statements = append(out.Statements, stmt)
	}
	sort.Slice(out.Statements, func(i, j int) bool {
		a, b := out.Statements[i].Loc(), out.Statements[j].Loc()
		if a.FirstLine != b.FirstLine {
			return a.FirstLine < b.FirstLine
		}
		return a.FirstColumn < b.FirstColumn
	})

	seen := make(map[int]bool)
	for _, stmt := range out.Statements {
		line := stmt.Loc().FirstLine
		if !seen[line] {
			seen[line] = true
			out.Lines = append(out.Lines, line)
		}
	}
	return out
}
