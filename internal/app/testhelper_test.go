package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/steamdesk/internal/config"
	"github.com/blackwell-systems/steamdesk/internal/steam"
	"github.com/blackwell-systems/steamdesk/internal/watcher"
)

const (
	testSteamDir   = "/home/u/.local/share/Steam"
	testLibrary    = "/mnt/games"
	testAppDir     = "/home/u/.local/share/applications"
	testConfigPath = "/home/u/.config/steamdesk/config.toml"
)

// useMemFs swaps the package filesystem and clock for the test and resets
// all flag variables before and after.
func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	oldFs, oldClock := appFs, appClock
	appFs = fs
	appClock = clockwork.NewFakeClock()
	resetFlags()
	t.Cleanup(func() {
		appFs, appClock = oldFs, oldClock
		resetFlags()
	})
	return fs
}

// resetFlags restores every flag to its default and clears pflag's Changed
// marks, which otherwise survive between executions of RootCmd.
func resetFlags() {
	for _, set := range []*pflag.FlagSet{RootCmd.PersistentFlags(), RootCmd.Flags(), watchCmd.Flags()} {
		set.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	configPath, steamPath, appDir = "", "", ""
	skipKeywords, ignoredAppIDs = "", ""
	dryRun, noPrune, strict, verbose, quiet = false, false, false, false, false
	watchDebounce = watcher.DefaultDebounce
	cfg = config.Config{}
}

// execute runs RootCmd with args and returns everything written to stdout
// and stderr.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	RootCmd.SetOut(buf)
	RootCmd.SetErr(buf)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})
	err := RootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// baseArgs points a command at the fixture paths.
func baseArgs(cmd ...string) []string {
	return append(cmd, "--config", testConfigPath, "-s", testSteamDir, "-a", testAppDir)
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func writeManifest(t *testing.T, fs afero.Fs, lib, appID, name string) {
	t.Helper()
	writeFile(t, fs, filepath.Join(lib, "steamapps", "appmanifest_"+appID+".acf"), `"AppState"
{
	"appid"		"`+appID+`"
	"name"		"`+name+`"
	"installdir"		"`+name+`"
}`)
}

// installSteam creates two libraries: the Steam dir with one game and one
// runtime, and a second drive with one game.
func installSteam(t *testing.T, fs afero.Fs) {
	t.Helper()
	writeFile(t, fs, steam.LibraryFoldersPath(testSteamDir), `"libraryfolders"
{
	"contentstatsid"		"-123"
	"0"
	{
		"path"		"`+testSteamDir+`"
		"label"		""
	}
	"1"
	{
		"path"		"`+testLibrary+`"
		"label"		"games"
	}
}`)
	writeManifest(t, fs, testSteamDir, "100", "Game One")
	writeManifest(t, fs, testSteamDir, "1628350", "Steam Linux Runtime 3.0 (sniper)")
	writeManifest(t, fs, testLibrary, "200", "Game Two")
}

func launcherPath(appID string) string {
	return filepath.Join(testAppDir, "steam-"+appID+".desktop")
}
