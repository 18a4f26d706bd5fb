// Package commands provides the CLI commands for the py-dataflow-query tool.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/py-dataflow-query/internal/config"
	"github.com/l3aro/py-dataflow-query/internal/log"
	"github.com/l3aro/py-dataflow-query/pkg/ast"
	"github.com/l3aro/py-dataflow-query/pkg/cfg"
	"github.com/l3aro/py-dataflow-query/pkg/dataflow"
	"github.com/l3aro/py-dataflow-query/pkg/parse"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "pdq",
	Short: "py-dataflow-query - Static dataflow edges for Python source",
	Long: `py-dataflow-query computes static def→use dataflow edges for Python
programs and derives backward program slices from them.

Commands:
  defs        Show per-statement definitions and uses
  dataflow    Compute def→use edges for a file
  slice       Backward slice from a seed line
  init        Initialize pdq configuration interactively

Use "pdq [command] --help" for more information about a command.`,
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// loadSpecs resolves the mutation-rule set: an explicit --specs flag wins,
// then the configured file, then the built-in defaults.
func loadSpecs(cmd *cobra.Command, cfg *config.Config) (*dataflow.Specs, error) {
	if cmd.Flags().Changed("specs") {
		path, _ := cmd.Flags().GetString("specs")
		return dataflow.LoadSpecs(path)
	}
	if cfg.SpecsPath != "" {
		return dataflow.LoadSpecs(cfg.SpecsPath)
	}
	return dataflow.DefaultSpecs(), nil
}

// loadConfig loads configuration and applies verbosity to the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Verbose {
		log.Default().SetLevel(log.DebugLevel)
	}
	return cfg, nil
}

// analyzeSource runs the full pipeline over a source buffer.
func analyzeSource(src []byte, specs *dataflow.Specs) (*cfg.Graph, *dataflow.Result, error) {
	stmts, err := parse.Module(src)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing source: %w", err)
	}
	graph := cfg.Build(stmts)
	result := dataflow.NewAnalyzer(specs).Analyze(graph)
	return graph, result, nil
}

// readSourceFile stats and reads a Python file argument.
func readSourceFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

func locString(l ast.Location) string {
	return fmt.Sprintf("%d:%d-%d:%d", l.FirstLine, l.FirstColumn, l.LastLine, l.LastColumn)
}
