package steam

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	manifestPrefix = "appmanifest_"
	manifestExt    = ".acf"
)

// PackageRecord is the parsed content of one appmanifest_*.acf file.
type PackageRecord struct {
	AppID        string
	Name         string
	InstallDir   string // relative to Library.CommonDir()
	ManifestPath string
	Library      LibraryRoot
}

// InstallPath returns the absolute install directory, or "" when the
// manifest did not name one.
func (r PackageRecord) InstallPath() string {
	if r.InstallDir == "" {
		return ""
	}
	return filepath.Join(r.Library.CommonDir(), r.InstallDir)
}

// ScanResult holds the outcome of scanning one library root.
type ScanResult struct {
	Records   []PackageRecord
	Malformed []*MalformedRecordError
}

// ScanLibrary parses every app manifest in root. Manifests that cannot be
// read or lack an app id or name are reported in Malformed and skipped. A
// root without a steamapps directory yields an empty result.
func ScanLibrary(fs afero.Fs, root LibraryRoot) (ScanResult, error) {
	var result ScanResult

	dir := root.SteamAppsDir()
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("library", root.Path).Msg("library has no steamapps directory")
			return result, nil
		}
		return result, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, manifestPrefix) || !strings.HasSuffix(name, manifestExt) {
			continue
		}

		path := filepath.Join(dir, name)
		rec, merr := readManifest(fs, path)
		if merr != nil {
			log.Warn().Err(merr.Err).Str("manifest", path).Msg(merr.Reason)
			result.Malformed = append(result.Malformed, merr)
			continue
		}
		rec.Library = root
		result.Records = append(result.Records, rec)
	}

	log.Debug().
		Str("library", root.Path).
		Int("records", len(result.Records)).
		Int("malformed", len(result.Malformed)).
		Msg("scanned library")

	return result, nil
}

func readManifest(fs afero.Fs, path string) (PackageRecord, *MalformedRecordError) {
	tree, err := readKeyValues(fs, path)
	if err != nil {
		return PackageRecord{}, &MalformedRecordError{Path: path, Reason: "unreadable manifest", Err: err}
	}

	state, ok := tree.Scope("appstate")
	if !ok {
		return PackageRecord{}, &MalformedRecordError{Path: path, Reason: "no AppState scope"}
	}

	appID, _ := state.String("appid")
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return PackageRecord{}, &MalformedRecordError{Path: path, Reason: "missing appid"}
	}
	if _, err := strconv.ParseUint(appID, 10, 64); err != nil {
		return PackageRecord{}, &MalformedRecordError{Path: path, Reason: "appid is not numeric", Err: err}
	}

	name, _ := state.String("name")
	if strings.TrimSpace(name) == "" {
		return PackageRecord{}, &MalformedRecordError{Path: path, Reason: "missing name"}
	}

	installDir, _ := state.String("installdir")

	return PackageRecord{
		AppID:        appID,
		Name:         name,
		InstallDir:   installDir,
		ManifestPath: path,
	}, nil
}
