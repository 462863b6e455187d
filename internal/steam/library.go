// Package steam reads the on-disk state of a Steam installation: the library
// list in libraryfolders.vdf, the per-app manifests inside each library, and
// the client's icon cache. Every function takes an afero.Fs so the package
// never writes and can be exercised against an in-memory filesystem.
package steam

import (
	"errors"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// LibraryRoot is a directory registered with Steam as an install location.
type LibraryRoot struct {
	Path  string
	Label string
}

// SteamAppsDir returns the directory holding the root's app manifests.
func (r LibraryRoot) SteamAppsDir() string {
	return filepath.Join(r.Path, "steamapps")
}

// CommonDir returns the directory install dirs are relative to.
func (r LibraryRoot) CommonDir() string {
	return filepath.Join(r.Path, "steamapps", "common")
}

var errNoLibraryFolders = errors.New(`no "libraryfolders" scope`)

// ResolveLibraryRoots reads libraryfolders.vdf at path and returns the
// library roots it declares, in document order. Duplicates are kept, and
// every child scope with a path is a library whatever its key.
//
// Both layouts Steam has used are understood:
//
//	"libraryfolders" { "0" { "path" "/home/u/.local/share/Steam" ... } }
//	"LibraryFolders" { "ContentStatsID" "..." "1" "/mnt/games" }
func ResolveLibraryRoots(fs afero.Fs, path string) ([]LibraryRoot, error) {
	tree, err := readKeyValues(fs, path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	folders, ok := tree.Scope("libraryfolders")
	if !ok {
		return nil, &ConfigurationError{Path: path, Err: errNoLibraryFolders}
	}

	var roots []LibraryRoot
	for _, pair := range folders.Pairs() {
		switch v := pair.Value.(type) {
		case string:
			// Legacy layout: numbered string leaves are library paths,
			// other leaves (contentstatsid, timenextstatsreport) are metadata.
			if !isNumeric(pair.Key) {
				continue
			}
			if v == "" {
				log.Warn().Str("file", path).Str("library", pair.Key).Msg("library has no path, skipping")
				continue
			}
			roots = append(roots, LibraryRoot{Path: v})
		case Tree:
			p, ok := v.String("path")
			if !ok || p == "" {
				log.Warn().Str("file", path).Str("library", pair.Key).Msg("library has no path, skipping")
				continue
			}
			label, _ := v.String("label")
			roots = append(roots, LibraryRoot{Path: p, Label: label})
		}
	}

	log.Debug().Str("file", path).Int("count", len(roots)).Msg("resolved library roots")
	return roots, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
