package app

import (
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/steamdesk/internal/config"
	"github.com/blackwell-systems/steamdesk/internal/desktop"
	"github.com/blackwell-systems/steamdesk/internal/output"
	"github.com/blackwell-systems/steamdesk/internal/steam"
	"github.com/blackwell-systems/steamdesk/internal/syncer"
)

var (
	// appFs and appClock are replaced in tests.
	appFs    afero.Fs        = afero.NewOsFs()
	appClock clockwork.Clock = clockwork.NewRealClock()

	// cfg is the effective configuration: defaults, then the config file,
	// then flags.
	cfg config.Config
)

// setupLogging points the global zerolog logger at w. The level follows
// --verbose and --quiet.
func setupLogging(w io.Writer) {
	level := zerolog.InfoLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    !output.IsColorEnabled(),
	}).With().Timestamp().Logger()
}

// loadConfig reads the config file and applies the flags set on cmd.
// An explicitly empty -k or -i clears the list.
func loadConfig(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	c, err := config.Load(appFs, path)
	if err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("configuration loaded")

	if steamPath != "" {
		c.SteamPath = steamPath
	}
	if appDir != "" {
		c.AppDir = appDir
	}
	if flagChanged(cmd, "skip-keywords") {
		c.SkipKeywords = config.SplitList(skipKeywords)
	}
	if flagChanged(cmd, "ignored-app-ids") {
		c.IgnoredAppIDs = config.SplitList(ignoredAppIDs)
	}
	if noPrune {
		c.Prune = false
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	cfg = c
	return nil
}

// flagChanged reports whether the named local or inherited flag was set on
// the command line.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// syncOptions turns the effective configuration into syncer options,
// autodetecting the Steam directory when none is configured.
func syncOptions() syncer.Options {
	steamDir := cfg.SteamPath
	if steamDir == "" {
		steamDir = steam.FindSteamDir(appFs)
	}
	dir := cfg.AppDir
	if dir == "" {
		dir = desktop.DefaultDir()
	}

	return syncer.Options{
		SteamDir:      steamDir,
		AppDir:        dir,
		SkipKeywords:  cfg.SkipKeywords,
		IgnoredAppIDs: cfg.IgnoredAppIDs,
		Entry: desktop.EntryOptions{
			LaunchCommand: cfg.LaunchCommand,
			FallbackIcon:  cfg.FallbackIcon,
		},
		DryRun:       dryRun,
		Prune:        cfg.Prune,
		EnsureAppDir: true,
	}
}
