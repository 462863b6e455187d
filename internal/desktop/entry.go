// Package desktop renders and writes freedesktop.org launcher entries for
// Steam apps.
//
// Layout:
//   - One file per app, named steam-<appid>.desktop, in the applications dir.
//   - The name depends only on the app id, so re-runs overwrite in place.
//   - Files matching steam-*.desktop are owned by this package: Prune and
//     the clean command remove them, nothing else in the directory is touched.
package desktop

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/steamdesk/internal/steam"
)

const (
	// DefaultLaunchCommand is prefixed to the steam:// URL in Exec=.
	DefaultLaunchCommand = "steam"
	// Category is written to Categories=.
	Category = "Game"

	filePrefix = "steam-"
	fileExt    = ".desktop"
)

// EntryOptions controls the parts of an entry that are not derived from the
// package record.
type EntryOptions struct {
	// LaunchCommand runs the steam:// URL. "steam" works for native installs;
	// "xdg-open" also works with Flatpak Steam.
	LaunchCommand string
	// FallbackIcon is used when no cached icon exists. Empty omits Icon=.
	FallbackIcon string
}

// Entry is a rendered launcher descriptor. It is a value type and is never
// modified after NewEntry returns.
type Entry struct {
	AppID      string
	Name       string
	Exec       string
	Icon       string
	Categories []string
}

// NewEntry builds the entry for rec. iconPath is the resolved cached icon,
// or "" when there is none.
func NewEntry(rec steam.PackageRecord, iconPath string, opts EntryOptions) Entry {
	cmd := strings.TrimSpace(opts.LaunchCommand)
	if cmd == "" {
		cmd = DefaultLaunchCommand
	}

	icon := iconPath
	if icon == "" {
		icon = opts.FallbackIcon
	}

	return Entry{
		AppID:      rec.AppID,
		Name:       rec.Name,
		Exec:       fmt.Sprintf("%s steam://rungameid/%s", cmd, rec.AppID),
		Icon:       icon,
		Categories: []string{Category},
	}
}

// FileName returns the entry file name for an app id.
func FileName(appID string) string {
	return filePrefix + appID + fileExt
}

// FileName returns the file name this entry is written to.
func (e Entry) FileName() string {
	return FileName(e.AppID)
}

// Render returns the entry in Desktop Entry format.
func (e Entry) Render() string {
	var sb strings.Builder
	sb.WriteString("[Desktop Entry]\n")
	sb.WriteString("Type=Application\n")
	fmt.Fprintf(&sb, "Name=%s\n", escapeValue(e.Name))
	fmt.Fprintf(&sb, "Exec=%s\n", e.Exec)
	if e.Icon != "" {
		fmt.Fprintf(&sb, "Icon=%s\n", escapeValue(e.Icon))
	}
	sb.WriteString("Terminal=false\n")
	fmt.Fprintf(&sb, "Categories=%s;\n", strings.Join(e.Categories, ";"))
	return sb.String()
}

var valueEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// escapeValue applies the Desktop Entry string escapes. App names are free
// text and a raw newline would end the key.
func escapeValue(s string) string {
	return valueEscaper.Replace(s)
}
