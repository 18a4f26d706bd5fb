package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/py-dataflow-query/internal/log"
	"github.com/l3aro/py-dataflow-query/pkg/ast"
	"github.com/l3aro/py-dataflow-query/pkg/cache"
	"github.com/l3aro/py-dataflow-query/pkg/dataflow"
)

// edgeJSON is the output shape of one def→use edge.
type edgeJSON struct {
	From ast.Location `json:"from"`
	To   ast.Location `json:"to"`
}

var dataflowCmd = &cobra.Command{
	Use:   "dataflow <file>",
	Short: "Compute def→use dataflow edges for a Python file",
	Long: `Computes the static dataflow edge set for a Python file: every pair of a
statement that produces a value and a statement that may consume it along
some control-flow path. Results are cached by content hash unless --no-cache
is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		specs, err := loadSpecs(cmd, cfg)
		if err != nil {
			return err
		}
		src, err := readSourceFile(args[0])
		if err != nil {
			return err
		}

		noCache, _ := cmd.Flags().GetBool("no-cache")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		var edges []edgeJSON
		hash := cache.HashContent(src)

		var store *cache.Store
		if !noCache && cfg.CachePath != "" {
			store, err = cache.Open(cfg.CachePath)
			if err != nil {
				log.Default().Warn("opening cache failed, continuing without", "error", err)
				store = nil
			}
		}

		if store != nil {
			if entry, ok := store.Get(hash); ok {
				log.Default().Debug("cache hit", "file", args[0], "hash", hash)
				for _, rec := range entry.Edges {
					edges = append(edges, edgeJSON{From: spanToLoc(rec.From), To: spanToLoc(rec.To)})
				}
				return printEdges(edges, jsonOutput)
			}
		}

		_, result, err := analyzeSource(src, specs)
		if err != nil {
			return err
		}
		for _, e := range result.Edges.Items() {
			edges = append(edges, edgeJSON{From: e.From.Loc(), To: e.To.Loc()})
		}

		if store != nil {
			entry := cache.Entry{ContentHash: hash}
			for _, e := range edges {
				entry.Edges = append(entry.Edges, cache.EdgeRecord{
					From: locToSpan(e.From), To: locToSpan(e.To),
				})
			}
			store.Put(entry)
			if err := store.Save(); err != nil {
				log.Default().Warn("saving cache failed", "error", err)
			}
		}

		return printEdges(edges, jsonOutput)
	},
}

func spanToLoc(s cache.Span) ast.Location {
	return ast.Location{FirstLine: s.FirstLine, FirstColumn: s.FirstColumn, LastLine: s.LastLine, LastColumn: s.LastColumn}
}

func locToSpan(l ast.Location) cache.Span {
	return cache.Span{FirstLine: l.FirstLine, FirstColumn: l.FirstColumn, LastLine: l.LastLine, LastColumn: l.LastColumn}
}

func printEdges(edges []edgeJSON, jsonOutput bool) error {
	if jsonOutput {
		data, err := json.MarshalIndent(edges, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("=== Dataflow edges (%d) ===\n", len(edges))
	for _, e := range edges {
		fmt.Printf("  %s -> %s\n", locString(e.From), locString(e.To))
	}
	return nil
}

// newExtractor builds an extractor from the resolved config and flags.
func newExtractor(cmd *cobra.Command) (*dataflow.Extractor, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	specs, err := loadSpecs(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return dataflow.NewExtractor(specs), nil
}

func init() {
	dataflowCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	dataflowCmd.Flags().Bool("no-cache", false, "Skip the result cache")
	dataflowCmd.Flags().String("specs", "", "Mutation-rule YAML file")
	RootCmd.AddCommand(dataflowCmd)
}
