// Package cmd provides the CLI commands for quartermaster.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "quartermaster",
	Short: "Deploy config generator for container schedulers",
	Long: `quartermaster - deploy config generator

Renders per-cluster deploy configs from a service's deploy/ directory.
Variables come from var files, SOPS-encrypted secrets, git metadata, and
builtins; each application in config.yml is validated against the output
plugins that claim it and written out as one artifact per plugin.

COMMANDS
  generate <path>       Generate deploy configs for a service directory
    --cluster, -c       Cluster to generate for (default "local")
    --output-dir, -o    Directory to write artifacts to (default ".")
    -v, -vv, -vvv       Increase diagnostic verbosity
  vars <path>           Show the resolved variable scope for a cluster
  plugins               List available output plugins
  update                Update quartermaster to the latest release`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("quartermaster version {{.Version}}\n")
}
