package dataflow

import (
	"testing"

	"github.com/l3aro/py-dataflow-query/pkg/ast"
)

// nameAt builds an identifier reference with a distinct single-line span.
func nameAt(id string, line, col int) *ast.Name {
	return &ast.Name{
		ID: id,
		Location: ast.Location{
			FirstLine: line, FirstColumn: col,
			LastLine: line, LastColumn: col + len(id),
		},
	}
}

func stmtLoc(line int) ast.Location {
	return ast.Location{FirstLine: line, FirstColumn: 0, LastLine: line, LastColumn: 40}
}

func defNames(defs *DefSet) []string {
	var out []string
	for _, d := range defs.Items() {
		out = append(out, d.Name)
	}
	return out
}

func hasDef(defs *DefSet, kind DefKind, name string) bool {
	for _, d := range defs.Items() {
		if d.Kind == kind && d.Name == name {
			return true
		}
	}
	return false
}

func TestAssignmentDefsUses(t *testing.T) {
	// y = x + 1
	stmt := &ast.Assign{
		Location: stmtLoc(1),
		Targets:  []ast.Node{nameAt("y", 1, 0)},
		Sources: []ast.Node{&ast.BinOp{
			Location: stmtLoc(1), Op: "+",
			Left:  nameAt("x", 1, 4),
			Right: &ast.Literal{Kind: ast.LitNumber, Value: "1"},
		}},
	}
	e := NewExtractor(DefaultSpecs())
	defs, uses := e.DefsUses(stmt, NewSymbolTable())

	if !hasDef(defs, DefVariable, "y") || defs.Len() != 1 {
		t.Fatalf("want exactly one VARIABLE def of y, got %v", defNames(defs))
	}
	names := uses.Names()
	if _, ok := names["x"]; !ok {
		t.Errorf("want use of x, got %v", names)
	}
	if _, ok := names["y"]; ok {
		t.Errorf("plain assignment must not read its target, got %v", names)
	}
}

func TestAugmentedAssignmentReadsTarget(t *testing.T) {
	// Any non-empty operator marks the assignment as augmented, including
	// the placeholder the parser leaves on damaged operator fields.
	for _, op := range []string{"+=", "aug"} {
		stmt := &ast.Assign{
			Location: stmtLoc(1),
			Op:       op,
			Targets:  []ast.Node{nameAt("y", 1, 0)},
			Sources:  []ast.Node{nameAt("x", 1, 5)},
		}
		_, uses := NewExtractor(nil).DefsUses(stmt, NewSymbolTable())
		names := uses.Names()
		if _, ok := names["y"]; !ok {
			t.Errorf("op %q: augmented assignment must read its target, got %v", op, names)
		}
		if _, ok := names["x"]; !ok {
			t.Errorf("op %q: want use of x, got %v", op, names)
		}
	}
}

func TestDestructuringTargets(t *testing.T) {
	// a, b = pair
	stmt := &ast.Assign{
		Location: stmtLoc(1),
		Targets: []ast.Node{&ast.Tuple{
			Location: stmtLoc(1),
			Elts:     []ast.Node{nameAt("a", 1, 0), nameAt("b", 1, 3)},
		}},
		Sources: []ast.Node{nameAt("pair", 1, 7)},
	}
	defs, _ := NewExtractor(nil).DefsUses(stmt, NewSymbolTable())
	if !hasDef(defs, DefVariable, "a") || !hasDef(defs, DefVariable, "b") {
		t.Fatalf("destructuring must define both targets, got %v", defNames(defs))
	}
}

func TestImportDefs(t *testing.T) {
	symtab := NewSymbolTable()
	stmt := &ast.Import{
		Location: stmtLoc(1),
		Names: []ast.ImportedName{
			{Path: "os", Location: stmtLoc(1)},
			{Path: "numpy", Alias: "np", Location: ast.Location{FirstLine: 1, FirstColumn: 20, LastLine: 1, LastColumn: 22}},
		},
	}
	defs, _ := NewExtractor(nil).DefsUses(stmt, symtab)

	if !hasDef(defs, DefImport, "os") || !hasDef(defs, DefImport, "np") {
		t.Fatalf("want IMPORT defs for os and np, got %v", defNames(defs))
	}
	if !symtab.HasModule("os") || !symtab.HasModule("np") {
		t.Errorf("imported names must be recorded in the symbol table")
	}
}

func TestFromImportDefs(t *testing.T) {
	stmt := &ast.FromImport{
		Location: stmtLoc(1),
		Module:   "os",
		Names: []ast.ImportedName{
			{Path: "path", Location: stmtLoc(1)},
			{Path: "sep", Location: ast.Location{FirstLine: 1, FirstColumn: 25, LastLine: 1, LastColumn: 28}},
		},
	}
	defs, _ := NewExtractor(nil).DefsUses(stmt, NewSymbolTable())
	if defs.Len() != 2 || !hasDef(defs, DefImport, "path") || !hasDef(defs, DefImport, "sep") {
		t.Fatalf("want IMPORT defs for path and sep, got %v", defNames(defs))
	}
}

func TestWildcardImportProducesNoDefs(t *testing.T) {
	stmt := &ast.FromImport{Location: stmtLoc(1), Module: "os", Wildcard: true}
	symtab := NewSymbolTable()
	defs, _ := NewExtractor(nil).DefsUses(stmt, symtab)
	if defs.Len() != 0 {
		t.Fatalf("wildcard import must yield zero defs, got %v", defNames(defs))
	}
	if len(symtab.ModuleNames) != 0 {
		t.Errorf("wildcard import must not touch the symbol table")
	}
}

func TestFunctionAndClassDefs(t *testing.T) {
	fn := &ast.FuncDef{
		Location: ast.Location{FirstLine: 1, LastLine: 3, LastColumn: 10},
		Name:     "f",
		NameLoc:  ast.Location{FirstLine: 1, FirstColumn: 4, LastLine: 1, LastColumn: 5},
	}
	defs, _ := NewExtractor(nil).DefsUses(fn, NewSymbolTable())
	if defs.Len() != 1 || !hasDef(defs, DefFunction, "f") {
		t.Fatalf("want one FUNCTION def of f, got %v", defNames(defs))
	}
	if got := defs.Items()[0].Location; got != fn.NameLoc {
		t.Errorf("function def must be located at the header name, got %v", got)
	}

	cls := &ast.ClassDef{
		Location: ast.Location{FirstLine: 1, LastLine: 4},
		Name:     "C",
		NameLoc:  ast.Location{FirstLine: 1, FirstColumn: 6, LastLine: 1, LastColumn: 7},
	}
	defs, _ = NewExtractor(nil).DefsUses(cls, NewSymbolTable())
	if defs.Len() != 1 || !hasDef(defs, DefClass, "C") {
		t.Fatalf("want one CLASS def of C, got %v", defNames(defs))
	}
}

func TestMutationHeuristicReceiver(t *testing.T) {
	// lst.append(1)
	recv := nameAt("lst", 1, 0)
	stmt := &ast.ExprStmt{
		Location: stmtLoc(1),
		Value: &ast.Call{
			Location: stmtLoc(1),
			Func:     &ast.Dot{Location: stmtLoc(1), Value: recv, Attr: "append"},
			Args:     []ast.Node{&ast.Literal{Kind: ast.LitNumber, Value: "1"}},
		},
	}
	defs, _ := NewExtractor(DefaultSpecs()).DefsUses(stmt, NewSymbolTable())
	if defs.Len() != 1 || !hasDef(defs, DefMutation, "lst") {
		t.Fatalf("want exactly one MUTATION def of lst, got %v", defNames(defs))
	}
	if got := defs.Items()[0].Location; got != recv.Location {
		t.Errorf("mutation def must sit at the receiver's location, got %v", got)
	}
}

func TestMutationHeuristicPositionalArg(t *testing.T) {
	// shuffle(deck)
	stmt := &ast.ExprStmt{
		Location: stmtLoc(1),
		Value: &ast.Call{
			Location: stmtLoc(1),
			Func:     nameAt("shuffle", 1, 0),
			Args:     []ast.Node{nameAt("deck", 1, 8)},
		},
	}
	defs, _ := NewExtractor(DefaultSpecs()).DefsUses(stmt, NewSymbolTable())
	if !hasDef(defs, DefMutation, "deck") {
		t.Fatalf("want MUTATION def of deck, got %v", defNames(defs))
	}
}

func TestMutationHeuristicKeywordArg(t *testing.T) {
	specs := NewSpecs([]FuncSpec{{Name: "fill", KeywordArgs: []string{"out"}}})
	stmt := &ast.ExprStmt{
		Location: stmtLoc(1),
		Value: &ast.Call{
			Location: stmtLoc(1),
			Func:     nameAt("fill", 1, 0),
			Keywords: []*ast.Keyword{
				{Arg: "out", Value: nameAt("buf", 1, 9)},
				{Arg: "size", Value: nameAt("n", 1, 18)},
			},
		},
	}
	defs, _ := NewExtractor(specs).DefsUses(stmt, NewSymbolTable())
	if !hasDef(defs, DefMutation, "buf") {
		t.Fatalf("want MUTATION def of buf, got %v", defNames(defs))
	}
	if hasDef(defs, DefMutation, "n") {
		t.Errorf("argument outside the rule must not be defined, got %v", defNames(defs))
	}
}

func TestUnknownCalleeMutatesNothing(t *testing.T) {
	stmt := &ast.ExprStmt{
		Location: stmtLoc(1),
		Value: &ast.Call{
			Location: stmtLoc(1),
			Func:     &ast.Dot{Location: stmtLoc(1), Value: nameAt("lst", 1, 0), Attr: "frobnicate"},
		},
	}
	defs, _ := NewExtractor(DefaultSpecs()).DefsUses(stmt, NewSymbolTable())
	if defs.Len() != 0 {
		t.Fatalf("unconfigured callee must yield no defs, got %v", defNames(defs))
	}
}

func TestMagicAnnotation(t *testing.T) {
	lit := &ast.Literal{
		Location: ast.Location{FirstLine: 10, FirstColumn: 0, LastLine: 10, LastColumn: 50},
		Kind:     ast.LitString,
		Value:    `defs: [{"name":"z","pos":[[0,0],[0,1]]}]`,
	}
	stmt := &ast.ExprStmt{Location: stmtLoc(10), Value: lit}
	defs, _ := NewExtractor(nil).DefsUses(stmt, NewSymbolTable())

	if defs.Len() != 1 || !hasDef(defs, DefMagic, "z") {
		t.Fatalf("want one MAGIC def of z, got %v", defNames(defs))
	}
	if got := defs.Items()[0].Location.FirstLine; got != 10 {
		t.Errorf("magic def line = %d, want 10 (literal line + offset)", got)
	}
}

func TestAnnotationMustLeadLiteral(t *testing.T) {
	// A valid payload buried mid-string is prose, not an annotation.
	stmt := &ast.ExprStmt{
		Location: stmtLoc(1),
		Value: &ast.Literal{
			Location: stmtLoc(1),
			Kind:     ast.LitString,
			Value:    `see defs: [{"name":"z","pos":[[0,0],[0,1]]}]`,
		},
	}
	defs, _ := NewExtractor(nil).DefsUses(stmt, NewSymbolTable())
	if defs.Len() != 0 {
		t.Errorf("annotation not at the start of the literal must be ignored, got %v", defNames(defs))
	}
}

func TestMalformedAnnotationIgnored(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"broken json", `defs: [{"name":"z"`},
		{"not an annotation", "plain string"},
		{"wrong payload shape", `defs: {"name":"z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := &ast.ExprStmt{
				Location: stmtLoc(1),
				Value:    &ast.Literal{Location: stmtLoc(1), Kind: ast.LitString, Value: tt.value},
			}
			defs, _ := NewExtractor(nil).DefsUses(stmt, NewSymbolTable())
			if defs.Len() != 0 {
				t.Errorf("malformed annotation must yield no defs, got %v", defNames(defs))
			}
		})
	}
}

func TestExtractorIdempotence(t *testing.T) {
	stmt := &ast.Assign{
		Location: stmtLoc(3),
		Targets:  []ast.Node{nameAt("y", 3, 0)},
		Sources:  []ast.Node{nameAt("x", 3, 4)},
	}
	e := NewExtractor(DefaultSpecs())

	defs1, uses1 := e.DefsUses(stmt, NewSymbolTable())
	defs2, uses2 := e.DefsUses(stmt, NewSymbolTable())

	if !defs1.Equal(defs2) {
		t.Errorf("def sets differ across runs: %v vs %v", defNames(defs1), defNames(defs2))
	}
	if uses1.Len() != uses2.Len() {
		t.Errorf("use sets differ across runs: %d vs %d", uses1.Len(), uses2.Len())
	}
}
