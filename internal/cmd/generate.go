package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/quartermaster/internal/generator"
	"github.com/cameronsjo/quartermaster/internal/ui"
)

var generateCmd = &cobra.Command{
	Use:     "generate <path>",
	Aliases: []string{"gen"},
	Short:   "Generate deploy configs for a service directory",
	Long: `Generate deploy configs for a service directory.

Loads vars for the selected cluster, parses deploy/config.yml, validates
each application against the output plugins that claim it, and writes one
artifact per application per plugin into the output directory.

Examples:
  quartermaster generate .
  quartermaster generate services/api -c prod -o out/`,
	Args: cobra.ExactArgs(1),
	Run:  runGenerate,
}

var (
	generateCluster   string
	generateOutputDir string
	generateVerbosity int
)

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateCluster, "cluster", "c", "local", "Cluster to generate deploy configs for")
	generateCmd.Flags().StringVarP(&generateOutputDir, "output-dir", "o", ".", "Directory to write generated artifacts to")
	generateCmd.Flags().CountVarP(&generateVerbosity, "verbose", "v", "Increase diagnostic verbosity (repeatable)")
}

func runGenerate(cmd *cobra.Command, args []string) {
	display := ui.New(generateVerbosity)

	report, err := generator.Run(generator.Options{
		Path:      args[0],
		Cluster:   generateCluster,
		OutputDir: generateOutputDir,
		Display:   display,
	})
	if err != nil {
		ui.Fatal("%v", err)
	}

	if report.HasErrors() {
		display.Error("Generation finished with %d error(s)", len(report.Errors))
		os.Exit(1)
	}
	display.Success("Generated deploy configs for %s", args[0])
}
