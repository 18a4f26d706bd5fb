package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/py-dataflow-query/pkg/slicer"
)

var sliceCmd = &cobra.Command{
	Use:   "slice <file> <line>",
	Short: "Backward slice from a seed line",
	Long: `Computes the backward program slice for the statement at the given line:
every statement whose produced value may reach it along some control-flow
path, transitively.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		specs, err := loadSpecs(cmd, cfg)
		if err != nil {
			return err
		}

		seedLine, err := strconv.Atoi(args[1])
		if err != nil || seedLine <= 0 {
			return fmt.Errorf("line number must be a positive integer: %s", args[1])
		}

		src, err := readSourceFile(args[0])
		if err != nil {
			return err
		}
		graph, result, err := analyzeSource(src, specs)
		if err != nil {
			return err
		}

		slice := slicer.Backward(graph, result.Edges, seedLine)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, err := json.MarshalIndent(map[string]any{"lines": slice.Lines}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		srcLines := strings.Split(string(src), "\n")
		fmt.Printf("=== Backward slice for %s:%d (%d lines) ===\n", args[0], seedLine, len(slice.Lines))
		for _, line := range slice.Lines {
			text := ""
			if line-1 >= 0 && line-1 < len(srcLines) {
				text = srcLines[line-1]
			}
			fmt.Printf("%4d  %s\n", line, text)
		}
		return nil
	},
}

func init() {
	sliceCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	sliceCmd.Flags().String("specs", "", "Mutation-rule YAML file")
	RootCmd.AddCommand(sliceCmd)
}
