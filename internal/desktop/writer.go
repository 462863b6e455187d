package desktop

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// DefaultDir returns the per-user applications directory,
// $XDG_DATA_HOME/applications.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "applications")
}

// Result describes what Write did with an entry.
type Result int

const (
	Created Result = iota
	Updated
	Unchanged
	Previewed
)

func (r Result) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	case Previewed:
		return "previewed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// WriteError reports an entry that could not be persisted. It is scoped to
// one entry; callers continue with the rest of the batch.
type WriteError struct {
	AppID string
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (app %s): %v", e.Path, e.AppID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer persists entries into an applications directory. In dry-run mode
// it never touches the filesystem beyond reads.
type Writer struct {
	fs     afero.Fs
	dir    string
	dryRun bool
}

// NewWriter creates a Writer for dir. The directory is not created; a
// missing directory surfaces as a WriteError per entry.
func NewWriter(fs afero.Fs, dir string, dryRun bool) *Writer {
	return &Writer{fs: fs, dir: dir, dryRun: dryRun}
}

// Dir returns the target directory.
func (w *Writer) Dir() string { return w.dir }

// DryRun reports whether the writer is in preview mode.
func (w *Writer) DryRun() bool { return w.dryRun }

// Path returns the file path for an app id.
func (w *Writer) Path(appID string) string {
	return filepath.Join(w.dir, FileName(appID))
}

// Write persists e. An existing file with identical content is left alone
// so re-runs do not bump modification times.
func (w *Writer) Write(e Entry) (Result, error) {
	if w.dryRun {
		return Previewed, nil
	}

	path := w.Path(e.AppID)
	content := []byte(e.Render())

	result := Created
	if existing, err := afero.ReadFile(w.fs, path); err == nil {
		if bytes.Equal(existing, content) {
			return Unchanged, nil
		}
		result = Updated
	}

	if err := w.writeAtomic(path, content); err != nil {
		return result, &WriteError{AppID: e.AppID, Path: path, Err: err}
	}
	return result, nil
}

// writeAtomic writes content to a temp file in the same directory and renames
// it over path, so menus never read a half-written entry.
func (w *Writer) writeAtomic(path string, content []byte) error {
	tmp, err := afero.TempFile(w.fs, w.dir, ".steamdesk-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		w.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		w.fs.Remove(tmpName)
		return err
	}
	if err := w.fs.Chmod(tmpName, 0o644); err != nil {
		w.fs.Remove(tmpName)
		return err
	}
	if err := w.fs.Rename(tmpName, path); err != nil {
		w.fs.Remove(tmpName)
		return err
	}
	return nil
}

// List returns the paths of all generated entries in the directory, sorted.
// A missing directory yields an empty list.
func (w *Writer) List() ([]string, error) {
	entries, err := afero.ReadDir(w.fs, w.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read applications dir %s: %w", w.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsGeneratedName(name) {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// Prune removes generated entries whose file name is not in keep and returns
// the paths removed (or, in dry-run mode, the paths that would be removed).
// Removal failures do not stop the sweep; the first one is returned.
func (w *Writer) Prune(keep map[string]bool) ([]string, error) {
	paths, err := w.List()
	if err != nil {
		return nil, err
	}

	var removed []string
	var firstErr error
	for _, path := range paths {
		if keep[filepath.Base(path)] {
			continue
		}
		if !w.dryRun {
			if err := w.fs.Remove(path); err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("cannot remove %s: %w", path, err)
				}
				continue
			}
		}
		removed = append(removed, path)
	}
	return removed, firstErr
}

// IsGeneratedName reports whether name looks like a file this package writes.
func IsGeneratedName(name string) bool {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
		return false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt)
	if id == "" {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
