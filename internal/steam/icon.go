package steam

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// iconExts is the extension priority; every layout is tried for one
// extension before moving to the next.
var iconExts = []string{".jpg", ".png"}

// ResolveIcon returns a cached icon for appID under cacheDir
// (<steam>/appcache/librarycache), or false when none exists. Two layouts
// are probed for each extension:
//
//	<cacheDir>/<appid>/<sha1>.<ext>   current client, icon named by content hash
//	<cacheDir>/<appid>_icon.<ext>     older flat cache
func ResolveIcon(fs afero.Fs, cacheDir, appID string) (string, bool) {
	if cacheDir == "" || appID == "" {
		return "", false
	}

	// ReadDir sorts by name, so the first hash match is stable across runs.
	hashed, _ := afero.ReadDir(fs, filepath.Join(cacheDir, appID))

	for _, ext := range iconExts {
		for _, entry := range hashed {
			if !entry.IsDir() && isHashName(entry.Name(), ext) {
				return filepath.Join(cacheDir, appID, entry.Name()), true
			}
		}

		legacy := filepath.Join(cacheDir, appID+"_icon"+ext)
		if info, err := fs.Stat(legacy); err == nil && !info.IsDir() {
			return legacy, true
		}
	}

	return "", false
}

// isHashName reports whether name is a 40 character hex digest plus ext.
func isHashName(name, ext string) bool {
	if !strings.HasSuffix(name, ext) {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	if len(stem) != 40 {
		return false
	}
	for _, c := range stem {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
