// Package output provides terminal output utilities for steamdesk.
//
// This package includes:
//   - Table rendering for generated launchers and skipped packages
//   - A one-paragraph run summary
//
// Tables are sorted by name so output is stable even though scan order is not.
// ANSI colors are emitted only when stdout is a TTY and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/steamdesk/internal/desktop"
	"github.com/blackwell-systems/steamdesk/internal/syncer"
)

// ANSI color codes for result display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderEntryTable renders the launchers produced (or previewed) by a run.
func RenderEntryTable(items []syncer.Item) string {
	if len(items) == 0 {
		return "No games found.\n"
	}

	sorted := make([]syncer.Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Entry.Name != sorted[j].Entry.Name {
			return sorted[i].Entry.Name < sorted[j].Entry.Name
		}
		return sorted[i].Entry.AppID < sorted[j].Entry.AppID
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-10s %-40s %-5s %s\n", "App ID", "Name", "Icon", "Status"))
	sb.WriteString(strings.Repeat("─", 68))
	sb.WriteString("\n")

	for _, it := range sorted {
		icon := "-"
		if it.Entry.Icon != "" {
			icon = "✓"
		}
		status := colorize(resultColor(it.Result), it.Result.String())
		sb.WriteString(fmt.Sprintf("%-10s %-40s %-5s %s\n",
			it.Entry.AppID,
			truncate(it.Entry.Name, 40),
			icon,
			status))
	}

	return sb.String()
}

// RenderSkipTable renders packages the filter rejected and why.
func RenderSkipTable(skips []syncer.Skip) string {
	if len(skips) == 0 {
		return "No packages skipped.\n"
	}

	sorted := make([]syncer.Skip, len(skips))
	copy(sorted, skips)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Record.Name < sorted[j].Record.Name
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-10s %-40s %s\n", "App ID", "Name", "Reason"))
	sb.WriteString(strings.Repeat("─", 68))
	sb.WriteString("\n")

	for _, s := range sorted {
		reason := s.Decision.Reason.String()
		if s.Decision.Keyword != "" {
			reason = fmt.Sprintf("%s %q", reason, s.Decision.Keyword)
		}
		sb.WriteString(fmt.Sprintf("%-10s %-40s %s\n",
			s.Record.AppID,
			truncate(s.Record.Name, 40),
			colorize(colorGray, reason)))
	}

	return sb.String()
}

// RenderSummary renders the closing summary of a run.
// Format (write mode): "Done! 12 launchers in /dir (3 new, 1 updated, 8 unchanged), skipped 4 tools. Took 18ms."
func RenderSummary(r *syncer.Report, appDir string) string {
	var sb strings.Builder

	skipped := len(r.Skips)
	if r.DryRun {
		sb.WriteString(fmt.Sprintf("Dry run complete. Found %d %s, skipped %d %s. Took %s.\n",
			len(r.Items), Plural(len(r.Items), "game", "games"),
			skipped, Plural(skipped, "tool", "tools"),
			formatDuration(r.Elapsed)))
	} else {
		sb.WriteString(fmt.Sprintf("Done! %d %s in %s (%d new, %d updated, %d unchanged), skipped %d %s. Took %s.\n",
			len(r.Items), Plural(len(r.Items), "launcher", "launchers"),
			appDir,
			r.Count(desktop.Created), r.Count(desktop.Updated), r.Count(desktop.Unchanged),
			skipped, Plural(skipped, "tool", "tools"),
			formatDuration(r.Elapsed)))
	}

	if n := len(r.Pruned); n > 0 {
		verb := "Removed"
		if r.DryRun {
			verb = "Would remove"
		}
		sb.WriteString(fmt.Sprintf("%s %d stale %s.\n", verb, n, Plural(n, "launcher", "launchers")))
	}
	if n := len(r.Malformed); n > 0 {
		sb.WriteString(colorize(colorYellow,
			fmt.Sprintf("⚠ %d unreadable app %s ignored.", n, Plural(n, "manifest", "manifests"))))
		sb.WriteString("\n")
	}
	if n := len(r.WriteErrors); n > 0 {
		sb.WriteString(colorize(colorRed,
			fmt.Sprintf("✗ %d %s could not be written.", n, Plural(n, "launcher", "launchers"))))
		sb.WriteString("\n")
	}

	return sb.String()
}

// resultColor returns the ANSI color code for a write result.
func resultColor(r desktop.Result) string {
	switch r {
	case desktop.Created:
		return colorGreen
	case desktop.Updated:
		return colorYellow
	default:
		return colorGray
	}
}

// formatDuration rounds to milliseconds, or microseconds below 1ms.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}

// Plural returns one when n is 1 and many otherwise.
func Plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// truncate truncates a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
