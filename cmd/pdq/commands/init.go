package commands

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/py-dataflow-query/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pdq configuration interactively",
	Long: `Guides you through setting up pdq configuration step by step.
Creates a config file with output format, mutation-rule file and cache
settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	var format string
	var specsPath string
	var verbose bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default output format").
				Description("How analysis results are printed without flags").
				Options(
					huh.NewOption("Text", "text"),
					huh.NewOption("JSON", "json"),
				).
				Value(&format),
			huh.NewInput().
				Title("Mutation-rule YAML file").
				Description("Leave empty to use the built-in rules for the Python builtins").
				Placeholder("specs.yaml").
				Value(&specsPath),
			huh.NewConfirm().
				Title("Enable verbose logging?").
				Value(&verbose),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cfg.Format = format
	cfg.SpecsPath = specsPath
	cfg.Verbose = verbose

	if err := cfg.Validate(); err != nil {
		return err
	}

	path := config.GlobalPath()
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
