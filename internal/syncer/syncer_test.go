package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/blackwell-systems/steamdesk/internal/desktop"
	"github.com/blackwell-systems/steamdesk/internal/filter"
	"github.com/blackwell-systems/steamdesk/internal/steam"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	steamDir = "/home/u/.local/share/Steam"
	libB     = "/mnt/games"
	appDir   = "/home/u/.local/share/applications"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func manifestFile(t *testing.T, fs afero.Fs, lib, appID, name string) {
	t.Helper()
	content := "\"AppState\"\n{\n\t\"appid\"\t\t\"" + appID + "\"\n"
	if name != "" {
		content += "\t\"name\"\t\t\"" + name + "\"\n"
	}
	content += "\t\"installdir\"\t\t\"dir" + appID + "\"\n}\n"
	writeFile(t, fs, filepath.Join(lib, "steamapps", "appmanifest_"+appID+".acf"), content)
}

// twoLibraries builds a Steam install with two library roots: the Steam dir
// holds a game and a manifest without a name, the second drive holds a
// runtime.
func twoLibraries(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFile(t, fs, steam.LibraryFoldersPath(steamDir), `"libraryfolders"
{
	"0"
	{
		"path"		"`+steamDir+`"
	}
	"1"
	{
		"path"		"`+libB+`"
	}
}`)
	manifestFile(t, fs, steamDir, "100", "Game One")
	manifestFile(t, fs, steamDir, "101", "")
	manifestFile(t, fs, libB, "200", "Steam Linux Runtime")
	return fs
}

func defaultOptions() Options {
	return Options{
		SteamDir:      steamDir,
		AppDir:        appDir,
		SkipKeywords:  []string{"Proton", "Steam Linux Runtime", "Soundtrack"},
		IgnoredAppIDs: []string{"480"},
		EnsureAppDir:  true,
	}
}

func listDir(t *testing.T, fs afero.Fs, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	infos, err := afero.ReadDir(fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return out
	}
	require.NoError(t, err)
	for _, info := range infos {
		data, err := afero.ReadFile(fs, filepath.Join(dir, info.Name()))
		require.NoError(t, err)
		out[info.Name()] = string(data)
	}
	return out
}

func TestRunTwoLibraries(t *testing.T) {
	t.Parallel()

	fs := twoLibraries(t)
	report, err := New(fs, defaultOptions(), clockwork.NewFakeClock()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []steam.LibraryRoot{{Path: steamDir}, {Path: libB}}, report.Roots)

	require.Len(t, report.Items, 1)
	assert.Equal(t, "100", report.Items[0].Record.AppID)
	assert.Equal(t, "Game One", report.Items[0].Entry.Name)
	assert.Equal(t, desktop.Created, report.Items[0].Result)

	require.Len(t, report.Malformed, 1)
	assert.Equal(t, "missing name", report.Malformed[0].Reason)

	require.Len(t, report.Skips, 1)
	assert.Equal(t, "200", report.Skips[0].Record.AppID)
	assert.Equal(t, filter.ReasonKeyword, report.Skips[0].Decision.Reason)

	files := listDir(t, fs, appDir)
	require.Len(t, files, 1)
	assert.Contains(t, files["steam-100.desktop"], "Name=Game One\n")
	assert.Contains(t, files["steam-100.desktop"], "Exec=steam steam://rungameid/100\n")
}

func TestRunMissingConfiguration(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	report, err := New(fs, defaultOptions(), nil).Run(context.Background())
	assert.Nil(t, report)

	var cfgErr *steam.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, steam.LibraryFoldersPath(steamDir), cfgErr.Path)

	exists, err := afero.DirExists(fs, appDir)
	require.NoError(t, err)
	assert.False(t, exists, "nothing may be written before configuration resolves")
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	fs := twoLibraries(t)
	s := New(fs, defaultOptions(), nil)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	first := listDir(t, fs, appDir)

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	second := listDir(t, fs, appDir)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, report.Count(desktop.Unchanged))
	assert.Equal(t, 0, report.Count(desktop.Created))
}

func TestRunDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	fs := twoLibraries(t)
	for i := 0; i < 20; i++ {
		manifestFile(t, fs, libB, strconv.Itoa(900+i), "Extra Game")
	}
	writeFile(t, fs, filepath.Join(appDir, "steam-555.desktop"), "stale")

	opts := defaultOptions()
	opts.DryRun = true
	opts.Prune = true

	report, err := New(fs, opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, report.Items, 21)
	assert.Equal(t, 21, report.Count(desktop.Previewed))
	assert.Equal(t, []string{filepath.Join(appDir, "steam-555.desktop")}, report.Pruned)

	assert.Equal(t, map[string]string{"steam-555.desktop": "stale"}, listDir(t, fs, appDir))
}

func TestRunDryRunDoesNotCreateAppDir(t *testing.T) {
	t.Parallel()

	fs := twoLibraries(t)
	opts := defaultOptions()
	opts.DryRun = true

	_, err := New(fs, opts, nil).Run(context.Background())
	require.NoError(t, err)

	exists, err := afero.DirExists(fs, appDir)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunIgnoredAppID(t *testing.T) {
	t.Parallel()

	fs := twoLibraries(t)
	manifestFile(t, fs, libB, "480", "Spacewar")

	report, err := New(fs, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	var skipped []string
	for _, s := range report.Skips {
		skipped = append(skipped, s.Record.AppID)
	}
	assert.ElementsMatch(t, []string{"200", "480"}, skipped)
	assert.NotContains(t, listDir(t, fs, appDir), "steam-480.desktop")
}

func TestRunDeduplicatesAcrossRoots(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, steam.LibraryFoldersPath(steamDir), `"libraryfolders"
{
	"0" { "path" "`+steamDir+`" }
	"1" { "path" "`+steamDir+`" }
}`)
	manifestFile(t, fs, steamDir, "100", "Game One")

	report, err := New(fs, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Roots, 2)
	assert.Len(t, report.Items, 1)
	assert.Len(t, report.Duplicates, 1)
}

func TestRunUsesCachedIcon(t *testing.T) {
	t.Parallel()

	fs := twoLibraries(t)
	icon := filepath.Join(steam.IconCacheDir(steamDir), "100_icon.jpg")
	writeFile(t, fs, icon, "jpg")

	_, err := New(fs, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, listDir(t, fs, appDir)["steam-100.desktop"], "Icon="+icon+"\n")
}

func TestRunPrune(t *testing.T) {
	t.Parallel()

	fs := twoLibraries(t)
	writeFile(t, fs, filepath.Join(appDir, "steam-555.desktop"), "uninstalled game")
	writeFile(t, fs, filepath.Join(appDir, "steam-200.desktop"), "now skipped")
	writeFile(t, fs, filepath.Join(appDir, "firefox.desktop"), "not ours")

	opts := defaultOptions()
	opts.Prune = true

	report, err := New(fs, opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(appDir, "steam-200.desktop"),
		filepath.Join(appDir, "steam-555.desktop"),
	}, report.Pruned)

	files := listDir(t, fs, appDir)
	assert.Len(t, files, 2)
	assert.Contains(t, files, "steam-100.desktop")
	assert.Contains(t, files, "firefox.desktop")
}

// failingFs fails renames onto one target, simulating a single bad write.
type failingFs struct {
	afero.Fs
	target string
}

func (f failingFs) Rename(oldname, newname string) error {
	if filepath.Base(newname) == f.target {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
	}
	return f.Fs.Rename(oldname, newname)
}

func TestRunContinuesAfterWriteError(t *testing.T) {
	t.Parallel()

	mem := twoLibraries(t)
	manifestFile(t, mem, libB, "300", "Game Three")
	writeFile(t, mem, filepath.Join(appDir, "steam-100.desktop"), "old content")

	opts := defaultOptions()
	opts.Prune = true

	fs := failingFs{Fs: mem, target: "steam-100.desktop"}
	report, err := New(fs, opts, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.WriteErrors, 1)
	assert.Equal(t, "100", report.WriteErrors[0].AppID)
	assert.ErrorIs(t, report.WriteErrors[0], os.ErrPermission)

	require.Len(t, report.Items, 1)
	assert.Equal(t, "300", report.Items[0].Record.AppID)

	// The failed entry keeps its previous file rather than being pruned.
	files := listDir(t, mem, appDir)
	assert.Equal(t, "old content", files["steam-100.desktop"])
	assert.Contains(t, files, "steam-300.desktop")
}

func TestRunAllWritesFailSkipsPrune(t *testing.T) {
	t.Parallel()

	mem := twoLibraries(t)
	writeFile(t, mem, filepath.Join(appDir, "steam-555.desktop"), "stale")

	opts := defaultOptions()
	opts.Prune = true
	opts.EnsureAppDir = false

	report, err := New(afero.NewReadOnlyFs(mem), opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.WriteErrors, 1)
	assert.Empty(t, report.Items)
	assert.Empty(t, report.Pruned)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(twoLibraries(t), defaultOptions(), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunElapsed(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	report, err := New(twoLibraries(t), defaultOptions(), clock).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), report.Elapsed)
}

func TestOptionOverrides(t *testing.T) {
	t.Parallel()

	s := New(afero.NewMemMapFs(), Options{SteamDir: "/s"}, nil)
	assert.Equal(t, "/s/steamapps/libraryfolders.vdf", s.LibraryFoldersPath())

	s = New(afero.NewMemMapFs(), Options{SteamDir: "/s", LibraryFolders: "/x.vdf"}, nil)
	assert.Equal(t, "/x.vdf", s.LibraryFoldersPath())
}
