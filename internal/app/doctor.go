package app

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/steamdesk/internal/output"
	"github.com/blackwell-systems/steamdesk/internal/steam"
)

// lookPath is replaced in tests.
var lookPath = exec.LookPath

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues with the Steam setup",
	Long: `Runs diagnostic checks on the Steam installation and launcher directory.

Checks:
  • Steam directory exists
  • libraryfolders.vdf parses and lists libraries
  • Every library has a steamapps directory with app manifests
  • Icon cache is present
  • Launcher directory is writable
  • The launch command is on PATH

Missing pieces that only degrade the result are reported as warnings.
The command fails only when a sync could not run at all.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	opts := syncOptions()

	fmt.Fprintln(out, "Running steamdesk diagnostics...")
	fmt.Fprintln(out)

	criticalIssues := 0
	warningIssues := 0

	// Check 1: Steam directory
	if isDir(opts.SteamDir) {
		fmt.Fprintln(out, "✓ Steam directory found:", opts.SteamDir)
	} else {
		fmt.Fprintln(out, "✗ Steam directory not found:", opts.SteamDir)
		fmt.Fprintln(out, "  Action: Pass --steam-path or set steam_path in the config file")
		criticalIssues++
	}

	// Check 2: library configuration
	vdfPath := steam.LibraryFoldersPath(opts.SteamDir)
	roots, err := steam.ResolveLibraryRoots(appFs, vdfPath)
	switch {
	case err != nil:
		fmt.Fprintln(out, "✗", err)
		criticalIssues++
	case len(roots) == 0:
		fmt.Fprintln(out, "⚠ No libraries listed in", vdfPath)
		warningIssues++
	default:
		fmt.Fprintf(out, "✓ %d %s configured\n", len(roots), output.Plural(len(roots), "library", "libraries"))
	}

	// Check 3: each library
	for _, root := range roots {
		if !isDir(root.SteamAppsDir()) {
			fmt.Fprintf(out, "⚠ %s: no steamapps directory (drive unmounted?)\n", root.Path)
			warningIssues++
			continue
		}
		scan, err := steam.ScanLibrary(appFs, root)
		if err != nil {
			fmt.Fprintf(out, "⚠ %s: %v\n", root.Path, err)
			warningIssues++
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d %s\n", root.Path, len(scan.Records), output.Plural(len(scan.Records), "app", "apps"))
		if n := len(scan.Malformed); n > 0 {
			fmt.Fprintf(out, "⚠ %s: %d unreadable %s\n", root.Path, n, output.Plural(n, "manifest", "manifests"))
			warningIssues++
		}
	}

	// Check 4: icon cache
	if cache := steam.IconCacheDir(opts.SteamDir); isDir(cache) {
		fmt.Fprintln(out, "✓ Icon cache found:", cache)
	} else {
		fmt.Fprintln(out, "⚠ Icon cache not found, launchers will have no icon:", cache)
		fmt.Fprintln(out, "  Action: Open the Steam library once so the client downloads artwork")
		warningIssues++
	}

	// Check 5: launcher directory
	if !isDir(opts.AppDir) {
		fmt.Fprintln(out, "⚠ Launcher directory does not exist yet:", opts.AppDir)
		fmt.Fprintln(out, "  It will be created on the next sync")
		warningIssues++
	} else if err := checkWritable(opts.AppDir); err != nil {
		fmt.Fprintln(out, "✗ Launcher directory is not writable:", err)
		criticalIssues++
	} else {
		fmt.Fprintln(out, "✓ Launcher directory is writable:", opts.AppDir)
	}

	// Check 6: launch command
	warningIssues += checkLaunchCommand(out, opts.Entry.LaunchCommand)

	fmt.Fprintln(out)
	if criticalIssues == 0 && warningIssues == 0 {
		fmt.Fprintln(out, "✓ All checks passed!")
		return nil
	}
	if criticalIssues > 0 {
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", criticalIssues, warningIssues)
		return fmt.Errorf("diagnostics failed")
	}
	fmt.Fprintf(out, "Found %d warning(s). Launchers can be generated but may be incomplete.\n", warningIssues)
	return nil
}

// checkLaunchCommand reports whether the program in command is on PATH and
// returns the number of warnings.
func checkLaunchCommand(out io.Writer, command string) int {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{"steam"}
	}
	path, err := lookPath(fields[0])
	if err != nil {
		fmt.Fprintf(out, "⚠ %s not found on PATH, launchers will not start games\n", fields[0])
		fmt.Fprintln(out, "  Action: Install Steam or set launch_command in the config file")
		return 1
	}
	fmt.Fprintln(out, "✓ Launch command found:", path)
	return 0
}

func isDir(path string) bool {
	ok, err := afero.DirExists(appFs, path)
	return err == nil && ok
}

// checkWritable creates and removes a temporary file in dir.
func checkWritable(dir string) error {
	f, err := afero.TempFile(appFs, dir, ".steamdesk-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	if err := appFs.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
