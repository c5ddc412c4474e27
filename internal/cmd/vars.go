package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/quartermaster/internal/generator"
	"github.com/cameronsjo/quartermaster/internal/ui"
)

var varsCmd = &cobra.Command{
	Use:   "vars <path>",
	Short: "Show the resolved variable scope for a cluster",
	Long: `Show the resolved variable scope for a cluster.

Loads builtins, git metadata, var files, and SOPS secrets exactly as the
generate command would, then prints the final key/value pairs. Useful for
debugging override order before generating.`,
	Args: cobra.ExactArgs(1),
	Run:  runVars,
}

var varsCluster string

func init() {
	rootCmd.AddCommand(varsCmd)
	varsCmd.Flags().StringVarP(&varsCluster, "cluster", "c", "local", "Cluster to resolve vars for")
}

func runVars(cmd *cobra.Command, args []string) {
	display := ui.New(0)

	deployDir, err := generator.FindDeployDir(args[0])
	if err != nil {
		ui.Fatal("%v", err)
	}

	varset, err := generator.LoadVars(deployDir, generator.Options{
		Path:    args[0],
		Cluster: varsCluster,
	}, display)
	if err != nil {
		ui.Fatal("%v", err)
	}

	ui.Bold.Printf("Vars for cluster %s:\n", varsCluster)
	width := ui.Width()
	for _, kv := range varset.Snapshot() {
		line := fmt.Sprintf("  %s: %v", kv.Key, kv.Value)
		if len(line) > width {
			line = line[:width-3] + "..."
		}
		fmt.Println(line)
	}
}
