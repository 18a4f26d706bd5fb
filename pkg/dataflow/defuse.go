package dataflow

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/l3aro/py-dataflow-query/pkg/ast"
)

// Extractor classifies a single statement into the names it defines and the
// names it reads. It is pure: the same statement and rule set always yield
// the same sets.
type Extractor struct {
	specs *Specs
}

// NewExtractor returns an extractor using the given mutation rules. A nil
// rule set means no call is assumed to mutate anything.
func NewExtractor(specs *Specs) *Extractor {
	return &Extractor{specs: specs}
}

// DefsUses returns the definition set and the full use set for one statement.
func (e *Extractor) DefsUses(stmt ast.Node, symtab *SymbolTable) (*DefSet, *UseSet) {
	return e.Defs(stmt, symtab), e.Uses(stmt)
}

// DefsUsedNames composes extraction for the dataflow engine: the definition
// set unmodified, and the uses reduced to bare names since the engine only
// needs name membership when matching against incoming definitions.
func (e *Extractor) DefsUsedNames(stmt ast.Node, symtab *SymbolTable) (*DefSet, map[string]struct{}) {
	defs, uses := e.DefsUses(stmt, symtab)
	return defs, uses.Names()
}

// Defs extracts the definitions a statement introduces. The mutation and
// annotation heuristics apply to every statement kind; exactly one
// kind-specific rule applies on top of them.
func (e *Extractor) Defs(stmt ast.Node, symtab *SymbolTable) *DefSet {
	defs := NewDefSet()
	e.mutationDefs(stmt, defs)
	e.annotationDefs(stmt, defs)

	switch t := stmt.(type) {
	case *ast.Import:
		for _, name := range t.Names {
			defs.Add(&Def{Kind: DefImport, Name: name.Bound(), Location: name.Location, Statement: stmt})
			if symtab != nil {
				symtab.AddModule(name.Bound())
			}
		}
	case *ast.FromImport:
		// Wildcard imports bind names the analysis cannot see; they
		// deliberately produce no definitions.
		if t.Wildcard {
			break
		}
		for _, name := range t.Names {
			defs.Add(&Def{Kind: DefImport, Name: name.Bound(), Location: name.Location, Statement: stmt})
			if symtab != nil {
				symtab.AddModule(name.Bound())
			}
		}
	case *ast.Assign:
		for _, target := range t.Targets {
			for _, name := range ast.Names(target) {
				defs.Add(&Def{Kind: DefVariable, Name: name.ID, Location: name.Location, Statement: stmt})
			}
		}
	case *ast.FuncDef:
		defs.Add(&Def{Kind: DefFunction, Name: t.Name, Location: t.NameLoc, Statement: stmt})
	case *ast.ClassDef:
		defs.Add(&Def{Kind: DefClass, Name: t.Name, Location: t.NameLoc, Statement: stmt})
	}
	return defs
}

// Uses extracts the identifier references a statement reads. Assignments
// read their sources, plus their targets when augmented; every other kind
// reads every identifier in its subtree.
func (e *Extractor) Uses(stmt ast.Node) *UseSet {
	uses := NewUseSet()
	if t, ok := stmt.(*ast.Assign); ok {
		for _, src := range t.Sources {
			for _, name := range ast.Names(src) {
				uses.Add(Use{Name: name.ID, Node: name})
			}
		}
		if t.Op != "" {
			for _, target := range t.Targets {
				for _, name := range ast.Names(target) {
					uses.Add(Use{Name: name.ID, Node: name})
				}
			}
		}
		return uses
	}
	for _, name := range ast.Names(stmt) {
		uses.Add(Use{Name: name.ID, Node: name})
	}
	return uses
}

// mutationDefs applies the configured side-effect rules to every call in the
// statement's subtree. A call with no rule mutates nothing; that is the
// accepted approximation.
func (e *Extractor) mutationDefs(stmt ast.Node, defs *DefSet) {
	var relevant []ast.Node

	ast.Walk(stmt, func(n ast.Node, _ []ast.Node) bool {
		call, ok := n.(*ast.Call)
		if !ok {
			return true
		}
		var callee string
		switch fn := call.Func.(type) {
		case *ast.Dot:
			callee = fn.Attr
		case *ast.Name:
			callee = fn.ID
		default:
			return true
		}
		rule, ok := e.specs.Lookup(callee)
		if !ok {
			return true
		}
		if rule.MutatesReceiver {
			if dot, ok := call.Func.(*ast.Dot); ok {
				relevant = append(relevant, dot.Value)
			}
		}
		for _, idx := range rule.PositionalArgs {
			if idx >= 0 && idx < len(call.Args) {
				relevant = append(relevant, call.Args[idx])
			}
		}
		for _, kwName := range rule.KeywordArgs {
			for _, kw := range call.Keywords {
				if kw.Arg == kwName {
					relevant = append(relevant, kw.Value)
				}
			}
		}
		return true
	})
	if len(relevant) == 0 {
		return
	}

	// Every identifier under a relevant parent expression is treated as
	// (re)defined by the call.
	ast.Walk(stmt, func(n ast.Node, ancestors []ast.Node) bool {
		name, ok := n.(*ast.Name)
		if !ok {
			return true
		}
		for _, parent := range relevant {
			if ast.Contains(ancestors, n, parent) {
				defs.Add(&Def{Kind: DefMutation, Name: name.ID, Location: name.Location, Statement: stmt})
				break
			}
		}
		return true
	})
}

var annotationPattern = regexp.MustCompile(`^defs:\s*(.+)`)

// magicDef is the JSON shape of one manual annotation record. Pos holds two
// (line, column) offsets relative to the literal's starting line.
type magicDef struct {
	Name string    `json:"name"`
	Pos  [2][2]int `json:"pos"`
}

// annotationDefs scans string literals for `defs: <json>` annotations.
// Anything that does not parse cleanly is treated as not an annotation:
// no partial emission, no error surfaced.
func (e *Extractor) annotationDefs(stmt ast.Node, defs *DefSet) {
	ast.Walk(stmt, func(n ast.Node, _ []ast.Node) bool {
		lit, ok := n.(*ast.Literal)
		if !ok || lit.Kind != ast.LitString {
			return true
		}
		m := annotationPattern.FindStringSubmatch(lit.Value)
		if m == nil {
			return true
		}
		payload := strings.ReplaceAll(m[1], `\"`, `"`)
		var records []magicDef
		if err := json.Unmarshal([]byte(payload), &records); err != nil {
			return true
		}
		for _, rec := range records {
			if rec.Name == "" {
				continue
			}
			loc := ast.Location{
				FirstLine:   lit.Location.FirstLine + rec.Pos[0][0],
				FirstColumn: rec.Pos[0][1],
				LastLine:    lit.Location.FirstLine + rec.Pos[1][0],
				LastColumn:  rec.Pos[1][1],
			}
			defs.Add(&Def{Kind: DefMagic, Name: rec.Name, Location: loc, Statement: stmt})
		}
		return true
	})
}
