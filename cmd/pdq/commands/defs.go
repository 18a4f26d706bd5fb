package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/py-dataflow-query/pkg/ast"
	"github.com/l3aro/py-dataflow-query/pkg/dataflow"
	"github.com/l3aro/py-dataflow-query/pkg/parse"
)

// stmtJSON is the output shape of one statement's classification.
type stmtJSON struct {
	Location ast.Location `json:"location"`
	Defs     []defJSON    `json:"defs"`
	Uses     []useJSON    `json:"uses"`
}

type defJSON struct {
	Kind     dataflow.DefKind `json:"kind"`
	Name     string           `json:"name"`
	Location ast.Location     `json:"location"`
}

type useJSON struct {
	Name     string       `json:"name"`
	Location ast.Location `json:"location"`
}

var defsCmd = &cobra.Command{
	Use:   "defs <file>",
	Short: "Show per-statement definitions and uses",
	Long: `Classifies every top-level statement of a Python file into the names it
defines and the names it reads, including mutation-heuristic and manual
annotation definitions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extractor, err := newExtractor(cmd)
		if err != nil {
			return err
		}
		src, err := readSourceFile(args[0])
		if err != nil {
			return err
		}
		stmts, err := parse.Module(src)
		if err != nil {
			return fmt.Errorf("parsing source: %w", err)
		}

		symtab := dataflow.NewSymbolTable()
		var out []stmtJSON
		for _, stmt := range stmts {
			defs, uses := extractor.DefsUses(stmt, symtab)
			entry := stmtJSON{Location: stmt.Loc()}
			for _, d := range defs.Items() {
				entry.Defs = append(entry.Defs, defJSON{Kind: d.Kind, Name: d.Name, Location: d.Location})
			}
			for _, u := range uses.Items() {
				entry.Uses = append(entry.Uses, useJSON{Name: u.Name, Location: u.Node.Location})
			}
			out = append(out, entry)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, entry := range out {
			fmt.Printf("statement %s\n", locString(entry.Location))
			for _, d := range entry.Defs {
				fmt.Printf("  def %-9s %s at %s\n", d.Kind, d.Name, locString(d.Location))
			}
			for _, u := range entry.Uses {
				fmt.Printf("  use %s at %s\n", u.Name, locString(u.Location))
			}
		}
		return nil
	},
}

func init() {
	defsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	defsCmd.Flags().String("specs", "", "Mutation-rule YAML file")
	RootCmd.AddCommand(defsCmd)
}
