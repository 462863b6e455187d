package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

var (
	configPath    string
	steamPath     string
	appDir        string
	skipKeywords  string
	ignoredAppIDs string
	dryRun        bool
	noPrune       bool
	strict        bool
	verbose       bool
	quiet         bool

	// RootCmd is the root command for steamdesk. Running it without a
	// subcommand performs one sync.
	RootCmd = &cobra.Command{
		Use:   "steamdesk",
		Short: "Create desktop launchers for installed Steam games",
		Long: `steamdesk scans every Steam library on this machine and writes one
freedesktop.org launcher (steam-<appid>.desktop) per installed game, so games
show up in your application menu and launcher.

Compatibility tools, runtimes, SDKs, dedicated servers and soundtracks are
skipped by keyword. Launchers for games that are no longer installed are
removed.

Settings are read from $XDG_CONFIG_HOME/steamdesk/config.toml when present.
Flags override the file.`,
		Example: `  # Create or refresh launchers
  steamdesk

  # Show what would be written without touching anything
  steamdesk --dry-run

  # Custom Steam location and extra skip keywords
  steamdesk -s ~/.var/app/com.valvesoftware.Steam/.local/share/Steam -k "Proton,Demo"

  # Keep launchers in sync while Steam installs and removes games
  steamdesk watch`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: prepare,
		RunE:              runSync,
	}
)

func init() {
	// Global flags
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/steamdesk/config.toml)")
	pf.StringVarP(&steamPath, "steam-path", "s", "", "Steam installation directory (default: autodetect)")
	pf.StringVarP(&appDir, "app-dir", "a", "", "directory for launchers (default: $XDG_DATA_HOME/applications)")
	pf.BoolVarP(&dryRun, "dry-run", "d", false, "show what would be done without writing or removing files")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")

	pf.StringVarP(&skipKeywords, "skip-keywords", "k", "", "comma separated name keywords to skip; replaces the configured list, \"\" skips nothing")
	pf.StringVarP(&ignoredAppIDs, "ignored-app-ids", "i", "", "comma separated app ids to skip; replaces the configured list, \"\" skips none")
	pf.BoolVar(&noPrune, "no-prune", false, "keep launchers of games that are no longer installed")
	RootCmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when any launcher could not be written")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(cleanCmd)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}

// prepare sets up logging and loads the configuration before any command.
func prepare(cmd *cobra.Command, args []string) error {
	setupLogging(cmd.ErrOrStderr())
	return loadConfig(cmd)
}
