package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/steamdesk/internal/output"
	"github.com/blackwell-systems/steamdesk/internal/syncer"
)

// runSync performs one scan of every Steam library and writes (or, with
// --dry-run, previews) the launchers.
func runSync(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	opts := syncOptions()

	if !quiet {
		mode := "Writing launchers"
		if opts.DryRun {
			mode = "Dry run, nothing will be written"
		}
		fmt.Fprintf(out, "Scanning Steam libraries in %s (%s)...\n\n", opts.SteamDir, mode)
	}

	report, err := syncer.New(appFs, opts, appClock).Run(cmd.Context())
	if err != nil {
		return err
	}

	if report.DryRun {
		fmt.Fprintln(out, output.RenderEntryTable(report.Items))
	}
	if verbose && len(report.Skips) > 0 {
		fmt.Fprintln(out, output.RenderSkipTable(report.Skips))
	}
	fmt.Fprint(out, output.RenderSummary(report, opts.AppDir))

	if strict && len(report.WriteErrors) > 0 {
		first := report.WriteErrors[0]
		return fmt.Errorf("%d launcher(s) could not be written, first: %w", len(report.WriteErrors), first)
	}
	return nil
}
