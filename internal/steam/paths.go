package steam

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// FlatpakSteamID is the Flatpak app ID for Steam.
const FlatpakSteamID = "com.valvesoftware.Steam"

// CandidateDirs returns the locations Steam is commonly installed to on
// Linux, most likely first.
func CandidateDirs() []string {
	return []string{
		filepath.Join(xdg.DataHome, "Steam"),
		filepath.Join(xdg.Home, ".steam", "steam"),
		filepath.Join(xdg.Home, ".var", "app", FlatpakSteamID, ".local", "share", "Steam"),
		filepath.Join(xdg.Home, ".var", "app", FlatpakSteamID, ".steam", "steam"),
		filepath.Join(xdg.Home, "snap", "steam", "common", ".local", "share", "Steam"),
	}
}

// FindSteamDir returns the first candidate directory that contains a
// libraryfolders.vdf. When none does, the XDG data location is returned so
// the caller reports a clear "not found" for the default path.
func FindSteamDir(fs afero.Fs) string {
	candidates := CandidateDirs()
	for _, dir := range candidates {
		if _, err := fs.Stat(LibraryFoldersPath(dir)); err == nil {
			log.Debug().Str("path", dir).Msg("found Steam installation")
			return dir
		}
	}
	log.Debug().Str("fallback", candidates[0]).Msg("Steam detection failed")
	return candidates[0]
}

// LibraryFoldersPath returns the path of libraryfolders.vdf for a Steam dir.
func LibraryFoldersPath(steamDir string) string {
	return filepath.Join(steamDir, "steamapps", "libraryfolders.vdf")
}

// IconCacheDir returns the client's library artwork cache for a Steam dir.
func IconCacheDir(steamDir string) string {
	return filepath.Join(steamDir, "appcache", "librarycache")
}
