package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/quartermaster/internal/ui"
	"github.com/cameronsjo/quartermaster/internal/update"
)

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"upgrade", "selfupdate"},
	Short:   "Update quartermaster to the latest version",
	Long: `Update quartermaster to the latest version from GitHub releases.

This command will:
1. Check for a newer version on GitHub
2. Download the appropriate binary for your platform
3. Replace the current binary with the new version

Examples:
  quartermaster update           # Update to latest version
  quartermaster update --check   # Check for updates without installing`,
	Run: runUpdate,
}

var checkOnly bool

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for updates, don't install")
}

func runUpdate(cmd *cobra.Command, args []string) {
	display := ui.New(0)
	ui.Blue.Printf("Current version: %s (%s)\n", version, update.GetPlatformInfo())

	if checkOnly {
		checkForUpdate(display)
		return
	}
	performUpdate(display)
}

func checkForUpdate(display *ui.Display) {
	ui.Blue.Println("Checking for updates...")

	release, available, err := update.CheckForUpdate(version)
	if err != nil {
		display.Error("Failed to check for updates: %v", err)
		return
	}
	if !available {
		display.Success("You're running the latest version!")
		return
	}

	display.Success("New version available: %s (released %s)", release.Version, release.PublishedAt)
	fmt.Println()
	ui.Blue.Println("To update, run: quartermaster update")
	printChangelog(release.Changelog)
}

func performUpdate(display *ui.Display) {
	ui.Blue.Println("Checking for updates...")

	release, err := update.Update(version)
	if err != nil {
		display.Error("Update failed: %v", err)
		return
	}
	if release == nil {
		display.Success("You're already running the latest version!")
		return
	}

	display.Success("Successfully updated to version %s!", release.Version)
	printChangelog(release.Changelog)
	fmt.Println()
	ui.Blue.Println("Restart quartermaster to use the new version.")
}

func printChangelog(changelog string) {
	if changelog == "" {
		return
	}
	fmt.Println()
	ui.Yellow.Println("What's new:")
	lines := strings.Split(changelog, "\n")
	maxLines := 10
	if len(lines) < maxLines {
		maxLines = len(lines)
	}
	for i := 0; i < maxLines; i++ {
		fmt.Printf("  %s\n", lines[i])
	}
	if len(lines) > maxLines {
		fmt.Printf("  ... (%d more lines)\n", len(lines)-maxLines)
	}
}
