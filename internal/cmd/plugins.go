package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/quartermaster/internal/output"
	"github.com/cameronsjo/quartermaster/internal/template"
	"github.com/cameronsjo/quartermaster/internal/ui"
	"github.com/cameronsjo/quartermaster/internal/vars"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List available output plugins",
	Run:   runPlugins,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, args []string) {
	ctx := &output.Context{Vars: vars.New(), Engine: template.New()}

	ui.Bold.Println("Available output plugins:")
	fmt.Println()
	for _, p := range output.Registry(ctx) {
		ui.Cyan.Printf("  %-10s", p.Name())
		fmt.Printf(" %s (*%s)\n", p.Descr(), p.FileExt())
	}
}
