package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/steamdesk/internal/desktop"
	"github.com/blackwell-systems/steamdesk/internal/output"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every generated launcher",
	Long: `Remove all steam-<appid>.desktop files from the launcher directory.
Other files in the directory are never touched.

Use --dry-run to list the files without removing them.`,
	Example: `  # Preview
  steamdesk clean --dry-run

  # Remove
  steamdesk clean`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dir := cfg.AppDir
	if dir == "" {
		dir = desktop.DefaultDir()
	}

	writer := desktop.NewWriter(appFs, dir, dryRun)
	removed, err := writer.Prune(nil)
	for _, path := range removed {
		fmt.Fprintln(out, " ", path)
	}

	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	fmt.Fprintf(out, "%s %d %s from %s.\n", verb, len(removed), output.Plural(len(removed), "launcher", "launchers"), dir)

	if err != nil {
		return fmt.Errorf("failed to remove launchers: %w", err)
	}
	return nil
}
