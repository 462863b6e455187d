package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/steamdesk/internal/output"
	"github.com/blackwell-systems/steamdesk/internal/steam"
	"github.com/blackwell-systems/steamdesk/internal/syncer"
	"github.com/blackwell-systems/steamdesk/internal/watcher"
)

var (
	watchDebounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Keep launchers in sync while Steam installs and removes games",
		Long: `Run a sync, then watch the Steam library configuration and every
library's steamapps directory. Each burst of changes (a game installed,
updated or uninstalled, or a library added) triggers another sync once
things have been quiet for the debounce period.

A failed sync is logged and watching continues. Press Ctrl+C to stop.`,
		Example: `  # Watch with the default settings
  steamdesk watch

  # React faster
  steamdesk watch --debounce 500ms`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a sync")
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	opts := syncOptions()
	s := syncer.New(appFs, opts, appClock)

	// Roots from the last successful run; touched only from the watcher loop.
	var roots []steam.LibraryRoot

	run := func(ctx context.Context) error {
		report, err := s.Run(ctx)
		if err != nil {
			return err
		}
		roots = report.Roots
		fmt.Fprint(out, output.RenderSummary(report, opts.AppDir))
		return nil
	}
	paths := func() []string {
		dirs := []string{filepath.Dir(s.LibraryFoldersPath())}
		for _, root := range roots {
			dirs = append(dirs, root.SteamAppsDir())
		}
		return dirs
	}

	fmt.Fprintf(out, "Watching Steam libraries in %s (Ctrl+C to stop)...\n\n", opts.SteamDir)
	log.Debug().Dur("debounce", watchDebounce).Msg("starting watcher")

	w := watcher.New(run, paths, watcher.WithDebounce(watchDebounce), watcher.WithClock(appClock))
	if err := w.Run(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintln(out, "Stopped watching.")
	return nil
}
