// Package syncer runs the discovery pipeline end to end: resolve library
// roots, scan manifests, classify, resolve icons, and write launcher entries.
// One Run is a full re-scan; nothing is carried between runs.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/steamdesk/internal/desktop"
	"github.com/blackwell-systems/steamdesk/internal/filter"
	"github.com/blackwell-systems/steamdesk/internal/steam"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Options configures a run. SteamDir and AppDir must be set.
type Options struct {
	SteamDir string
	// LibraryFolders overrides <SteamDir>/steamapps/libraryfolders.vdf.
	LibraryFolders string
	// IconCacheDir overrides <SteamDir>/appcache/librarycache.
	IconCacheDir string
	AppDir       string

	SkipKeywords  []string
	IgnoredAppIDs []string
	Entry         desktop.EntryOptions

	DryRun bool
	// Prune removes generated entries for apps that are no longer installed.
	Prune bool
	// EnsureAppDir creates AppDir before writing. Without it a missing
	// directory surfaces as one WriteError per entry.
	EnsureAppDir bool
}

// Item is one record that produced a launcher entry.
type Item struct {
	Record steam.PackageRecord
	Entry  desktop.Entry
	Result desktop.Result
}

// Skip is one record the filter rejected.
type Skip struct {
	Record   steam.PackageRecord
	Decision filter.Decision
}

// Report summarizes a run. Items and Skips follow scan order, which depends
// on filesystem enumeration and is not stable across platforms.
type Report struct {
	DryRun      bool
	Roots       []steam.LibraryRoot
	Items       []Item
	Skips       []Skip
	Duplicates  []steam.PackageRecord
	Malformed   []*steam.MalformedRecordError
	WriteErrors []*desktop.WriteError
	Pruned      []string
	PruneErr    error
	Elapsed     time.Duration
}

// Count returns how many items ended with result r.
func (r *Report) Count(res desktop.Result) int {
	n := 0
	for _, it := range r.Items {
		if it.Result == res {
			n++
		}
	}
	return n
}

// Syncer executes runs against a filesystem.
type Syncer struct {
	fs    afero.Fs
	opts  Options
	clock clockwork.Clock
}

// New creates a Syncer. A nil clock uses the real clock.
func New(fs afero.Fs, opts Options, clock clockwork.Clock) *Syncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Syncer{fs: fs, opts: opts, clock: clock}
}

// Options returns the options the Syncer was created with.
func (s *Syncer) Options() Options {
	return s.opts
}

// LibraryFoldersPath returns the library configuration file this Syncer reads.
func (s *Syncer) LibraryFoldersPath() string {
	if s.opts.LibraryFolders != "" {
		return s.opts.LibraryFolders
	}
	return steam.LibraryFoldersPath(s.opts.SteamDir)
}

func (s *Syncer) iconCacheDir() string {
	if s.opts.IconCacheDir != "" {
		return s.opts.IconCacheDir
	}
	return steam.IconCacheDir(s.opts.SteamDir)
}

// Run performs one full pass. The only error returned is a
// *steam.ConfigurationError (or ctx's error); per-record and per-entry
// failures are collected in the Report.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	start := s.clock.Now()
	report := &Report{DryRun: s.opts.DryRun}

	vdfPath := s.LibraryFoldersPath()
	roots, err := steam.ResolveLibraryRoots(s.fs, vdfPath)
	if err != nil {
		return nil, err
	}
	report.Roots = roots

	writer := desktop.NewWriter(s.fs, s.opts.AppDir, s.opts.DryRun)
	if s.opts.EnsureAppDir && !s.opts.DryRun {
		if err := s.fs.MkdirAll(s.opts.AppDir, 0o755); err != nil {
			// Each write will fail and be reported individually.
			log.Error().Err(err).Str("dir", s.opts.AppDir).Msg("cannot create applications directory")
		}
	}

	f := filter.New(s.opts.SkipKeywords, s.opts.IgnoredAppIDs)
	iconDir := s.iconCacheDir()
	seen := make(map[string]bool)

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info().Str("library", root.Path).Msg("checking library")
		scan, err := steam.ScanLibrary(s.fs, root)
		if err != nil {
			log.Warn().Err(err).Str("library", root.Path).Msg("cannot read library")
			continue
		}
		report.Malformed = append(report.Malformed, scan.Malformed...)

		for _, rec := range scan.Records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if seen[rec.AppID] {
				log.Debug().Str("appid", rec.AppID).Str("library", root.Path).Msg("app already seen, skipping duplicate")
				report.Duplicates = append(report.Duplicates, rec)
				continue
			}
			seen[rec.AppID] = true

			if d := f.Classify(rec); d.Skip {
				log.Debug().
					Str("appid", rec.AppID).
					Str("name", rec.Name).
					Stringer("reason", d.Reason).
					Str("keyword", d.Keyword).
					Msg("skipping tool or runtime")
				report.Skips = append(report.Skips, Skip{Record: rec, Decision: d})
				continue
			}

			icon, _ := steam.ResolveIcon(s.fs, iconDir, rec.AppID)
			entry := desktop.NewEntry(rec, icon, s.opts.Entry)

			res, err := writer.Write(entry)
			if err != nil {
				var werr *desktop.WriteError
				if !errors.As(err, &werr) {
					werr = &desktop.WriteError{AppID: rec.AppID, Path: writer.Path(rec.AppID), Err: err}
				}
				log.Error().Err(werr.Err).Str("appid", rec.AppID).Str("path", werr.Path).Msg("cannot write launcher")
				report.WriteErrors = append(report.WriteErrors, werr)
				continue
			}

			log.Debug().Str("appid", rec.AppID).Str("name", rec.Name).Stringer("result", res).Msg("launcher")
			report.Items = append(report.Items, Item{Record: rec, Entry: entry, Result: res})
		}
	}

	if s.opts.Prune {
		s.prune(writer, report)
	}

	report.Elapsed = s.clock.Since(start)
	return report, nil
}

// prune removes entries for apps that did not produce a launcher this run.
// Skipped apps are not kept, so adding a skip keyword also removes the
// matching entries. Pruning is withheld when every write failed.
func (s *Syncer) prune(writer *desktop.Writer, report *Report) {
	if len(report.WriteErrors) > 0 && len(report.Items) == 0 {
		log.Warn().Msg("all writes failed, not pruning stale launchers")
		return
	}

	keep := make(map[string]bool, len(report.Items)+len(report.WriteErrors))
	for _, it := range report.Items {
		keep[it.Entry.FileName()] = true
	}
	for _, werr := range report.WriteErrors {
		keep[desktop.FileName(werr.AppID)] = true
	}

	removed, err := writer.Prune(keep)
	if err != nil {
		log.Warn().Err(err).Msg("pruning stale launchers incomplete")
		report.PruneErr = fmt.Errorf("prune: %w", err)
	}
	for _, path := range removed {
		log.Info().Str("path", path).Bool("dry_run", s.opts.DryRun).Msg("removing stale launcher")
	}
	report.Pruned = removed
}
