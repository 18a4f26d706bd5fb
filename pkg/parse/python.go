// Package parse turns Python source into the syntax tree consumed by the
// dataflow analysis, using tree-sitter for the heavy lifting.
package parse

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/l3aro/py-dataflow-query/pkg/ast"
)

// Module parses Python source and returns the module's top-level statements.
func Module(src []byte) ([]ast.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, src)
	if tree == nil {
		return nil, fmt.Errorf("parsing python source")
	}
	defer tree.Close()

	c := &converter{src: src}
	return c.statements(tree.RootNode()), nil
}

// File parses the Python file at path.
func File(path string) ([]ast.Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	stmts, err := Module(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return stmts, nil
}

type converter struct {
	src []byte
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start >= uint32(len(c.src)) || end > uint32(len(c.src)) {
		return ""
	}
	return string(c.src[start:end])
}

func (c *converter) loc(n *sitter.Node) ast.Location {
	return ast.Location{
		FirstLine:   int(n.StartPoint().Row) + 1,
		FirstColumn: int(n.StartPoint().Column),
		LastLine:    int(n.EndPoint().Row) + 1,
		LastColumn:  int(n.EndPoint().Column),
	}
}

func (c *converter) statements(block *sitter.Node) []ast.Node {
	var out []ast.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if stmt := c.statement(child); stmt != nil {
			out = append(out, stmt)
		}
	}
	return out
}

func (c *converter) statement(n *sitter.Node) ast.Node {
	switch n.Type() {
	case "expression_statement":
		inner := n.NamedChild(0)
		if inner == nil {
			return nil
		}
		switch inner.Type() {
		case "assignment":
			return c.assignment(inner)
		case "augmented_assignment":
			return c.augmented(inner)
		}
		return &ast.ExprStmt{Location: c.loc(n), Value: c.expression(inner)}
	case "assignment":
		return c.assignment(n)
	case "augmented_assignment":
		return c.augmented(n)
	case "import_statement":
		return c.importStmt(n)
	case "import_from_statement":
		return c.fromImport(n)
	case "function_definition":
		return c.funcDef(n)
	case "class_definition":
		return c.classDef(n)
	case "return_statement":
		ret := &ast.Return{Location: c.loc(n)}
		if v := n.NamedChild(0); v != nil {
			ret.Value = c.expression(v)
		}
		return ret
	case "if_statement":
		return c.ifStmt(n)
	case "while_statement":
		return &ast.While{
			Location: c.loc(n),
			Cond:     c.expression(n.ChildByFieldName("condition")),
			Body:     c.statements(n.ChildByFieldName("body")),
		}
	case "for_statement":
		return &ast.For{
			Location: c.loc(n),
			Target:   c.expression(n.ChildByFieldName("left")),
			Iter:     c.expression(n.ChildByFieldName("right")),
			Body:     c.statements(n.ChildByFieldName("body")),
		}
	case "break_statement":
		return &ast.Break{Location: c.loc(n)}
	case "continue_statement":
		return &ast.Continue{Location: c.loc(n)}
	}
	return c.unknown(n)
}

// assignment flattens chained targets: `a = b = 1` binds both a and b.
func (c *converter) assignment(n *sitter.Node) ast.Node {
	out := &ast.Assign{Location: c.loc(n)}
	cur := n
	for cur != nil && cur.Type() == "assignment" {
		if left := cur.ChildByFieldName("left"); left != nil {
			out.Targets = append(out.Targets, c.expression(left))
		}
		right := cur.ChildByFieldName("right")
		if right == nil {
			return out
		}
		if right.Type() == "assignment" {
			cur = right
			continue
		}
		out.Sources = append(out.Sources, c.expression(right))
		return out
	}
	return out
}

func (c *converter) augmented(n *sitter.Node) ast.Node {
	out := &ast.Assign{Location: c.loc(n), Op: c.text(n.ChildByFieldName("operator"))}
	if out.Op == "" {
		// Operator field missing only on parse damage; keep the statement
		// marked augmented without inventing a specific operator.
		out.Op = "aug"
	}
	if left := n.ChildByFieldName("left"); left != nil {
		out.Targets = append(out.Targets, c.expression(left))
	}
	if right := n.ChildByFieldName("right"); right != nil {
		out.Sources = append(out.Sources, c.expression(right))
	}
	return out
}

func (c *converter) importedName(n *sitter.Node) (ast.ImportedName, bool) {
	switch n.Type() {
	case "dotted_name", "identifier":
		return ast.ImportedName{Location: c.loc(n), Path: c.text(n)}, true
	case "aliased_import":
		name := n.ChildByFieldName("name")
		alias := n.ChildByFieldName("alias")
		out := ast.ImportedName{Location: c.loc(n), Path: c.text(name)}
		if alias != nil {
			out.Alias = c.text(alias)
			out.Location = c.loc(alias)
		}
		return out, true
	}
	return ast.ImportedName{}, false
}

func (c *converter) importStmt(n *sitter.Node) ast.Node {
	out := &ast.Import{Location: c.loc(n)}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if name, ok := c.importedName(n.NamedChild(i)); ok {
			out.Names = append(out.Names, name)
		}
	}
	return out
}

func (c *converter) fromImport(n *sitter.Node) ast.Node {
	out := &ast.FromImport{Location: c.loc(n)}
	if mod := n.ChildByFieldName("module_name"); mod != nil {
		out.Module = c.text(mod)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "wildcard_import" {
			out.Wildcard = true
			continue
		}
		// The module name is also a named child; skip it.
		mod := n.ChildByFieldName("module_name")
		if mod != nil && child.StartByte() == mod.StartByte() {
			continue
		}
		if name, ok := c.importedName(child); ok {
			out.Names = append(out.Names, name)
		}
	}
	return out
}

func (c *converter) funcDef(n *sitter.Node) ast.Node {
	nameNode := n.ChildByFieldName("name")
	out := &ast.FuncDef{
		Location: c.loc(n),
		Name:     c.text(nameNode),
		Body:     c.statements(n.ChildByFieldName("body")),
	}
	if nameNode != nil {
		out.NameLoc = c.loc(nameNode)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if ident := firstIdentifier(params.NamedChild(i)); ident != nil {
				out.Params = append(out.Params, &ast.Name{Location: c.loc(ident), ID: c.text(ident)})
			}
		}
	}
	return out
}

func (c *converter) classDef(n *sitter.Node) ast.Node {
	nameNode := n.ChildByFieldName("name")
	out := &ast.ClassDef{
		Location: c.loc(n),
		Name:     c.text(nameNode),
		Body:     c.statements(n.ChildByFieldName("body")),
	}
	if nameNode != nil {
		out.NameLoc = c.loc(nameNode)
	}
	if bases := n.ChildByFieldName("superclasses"); bases != nil {
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			out.Bases = append(out.Bases, c.expression(bases.NamedChild(i)))
		}
	}
	return out
}

func (c *converter) ifStmt(n *sitter.Node) ast.Node {
	out := &ast.If{Location: c.loc(n)}
	out.Arms = append(out.Arms, ast.Branch{
		Cond: c.expression(n.ChildByFieldName("condition")),
		Body: c.statements(n.ChildByFieldName("consequence")),
	})
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "elif_clause":
			out.Arms = append(out.Arms, ast.Branch{
				Cond: c.expression(child.ChildByFieldName("condition")),
				Body: c.statements(child.ChildByFieldName("consequence")),
			})
		case "else_clause":
			out.Else = c.statements(child.ChildByFieldName("body"))
		}
	}
	return out
}

func (c *converter) expression(n *sitter.Node) ast.Node {
	if n == nil {
		return &ast.Unknown{}
	}
	switch n.Type() {
	case "identifier":
		return &ast.Name{Location: c.loc(n), ID: c.text(n)}
	case "attribute":
		attr := n.ChildByFieldName("attribute")
		out := &ast.Dot{
			Location: c.loc(n),
			Value:    c.expression(n.ChildByFieldName("object")),
			Attr:     c.text(attr),
		}
		if attr != nil {
			out.AttrLoc = c.loc(attr)
		}
		return out
	case "call":
		return c.call(n)
	case "subscript":
		out := &ast.Index{Location: c.loc(n), Value: c.expression(n.ChildByFieldName("value"))}
		if sub := n.ChildByFieldName("subscript"); sub != nil {
			out.Subs = append(out.Subs, c.expression(sub))
		}
		return out
	case "binary_operator", "boolean_operator":
		return &ast.BinOp{
			Location: c.loc(n),
			Op:       c.text(n.ChildByFieldName("operator")),
			Left:     c.expression(n.ChildByFieldName("left")),
			Right:    c.expression(n.ChildByFieldName("right")),
		}
	case "comparison_operator":
		// Chained comparisons fold left-associatively.
		var out ast.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			operand := c.expression(n.NamedChild(i))
			if out == nil {
				out = operand
				continue
			}
			out = &ast.BinOp{Location: c.loc(n), Op: "cmp", Left: out, Right: operand}
		}
		if out == nil {
			return c.unknown(n)
		}
		return out
	case "parenthesized_expression":
		if inner := n.NamedChild(0); inner != nil {
			return c.expression(inner)
		}
		return c.unknown(n)
	case "tuple", "expression_list", "pattern_list":
		out := &ast.Tuple{Location: c.loc(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out.Elts = append(out.Elts, c.expression(n.NamedChild(i)))
		}
		return out
	case "list":
		out := &ast.List{Location: c.loc(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out.Elts = append(out.Elts, c.expression(n.NamedChild(i)))
		}
		return out
	case "string":
		return &ast.Literal{Location: c.loc(n), Kind: ast.LitString, Value: unquote(c.text(n))}
	case "integer", "float":
		return &ast.Literal{Location: c.loc(n), Kind: ast.LitNumber, Value: c.text(n)}
	case "true", "false":
		return &ast.Literal{Location: c.loc(n), Kind: ast.LitBool, Value: c.text(n)}
	case "none":
		return &ast.Literal{Location: c.loc(n), Kind: ast.LitNone, Value: c.text(n)}
	}
	return c.unknown(n)
}

func (c *converter) call(n *sitter.Node) ast.Node {
	out := &ast.Call{Location: c.loc(n), Func: c.expression(n.ChildByFieldName("function"))}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return out
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "keyword_argument" {
			kw := &ast.Keyword{
				Location: c.loc(arg),
				Arg:      c.text(arg.ChildByFieldName("name")),
				Value:    c.expression(arg.ChildByFieldName("value")),
			}
			out.Keywords = append(out.Keywords, kw)
			continue
		}
		out.Args = append(out.Args, c.expression(arg))
	}
	return out
}

// unknown retains named children so identifier references inside
// unclassified syntax stay visible to the analysis.
func (c *converter) unknown(n *sitter.Node) ast.Node {
	out := &ast.Unknown{Location: c.loc(n), Type: n.Type()}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out.Children = append(out.Children, c.expression(child))
	}
	return out
}

func firstIdentifier(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "identifier" {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := firstIdentifier(n.NamedChild(i)); found != nil {
			return found
		}
	}
	return nil
}

// unquote strips string prefixes and quotes and resolves the common escape
// sequences. It is deliberately lax: annotation parsing downstream treats
// anything malformed as not an annotation.
func unquote(s string) string {
	for len(s) > 0 {
		switch s[0] {
		case 'r', 'R', 'b', 'B', 'f', 'F', 'u', 'U':
			s = s[1:]
			continue
		}
		break
	}
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			s = s[len(q) : len(s)-len(q)]
			break
		}
	}
	replacer := strings.NewReplacer(
		`\\`, `\`,
		`\"`, `"`,
		`\'`, `'`,
		`\n`, "\n",
		`\t`, "\t",
	)
	return replacer.Replace(s)
}
