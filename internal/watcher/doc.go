// Package watcher re-runs launcher generation when Steam's library state
// changes on disk.
//
// Steam rewrites libraryfolders.vdf when a library is added or removed and
// writes an appmanifest_<id>.acf when an app is installed, updated or
// uninstalled. The Watcher subscribes to the directories holding those files
// with fsnotify, coalesces bursts of events (an install touches a manifest
// many times) behind a debounce timer, and then invokes a full run. Runs are
// never concurrent: events arriving during a run only re-arm the timer.
//
// Key features:
//   - Directory watches, so atomic rename-over writes are seen
//   - Debounced triggering via an injectable clockwork.Clock
//   - Watch set recomputed after each run as libraries come and go
//   - Graceful shutdown on context cancellation
//
// Example usage:
//
//	w := watcher.New(
//		func(ctx context.Context) error { _, err := s.Run(ctx); return err },
//		func() []string { return dirs },
//	)
//	if err := w.Run(ctx); err != nil {
//		log.Fatal().Err(err).Msg("watch failed")
//	}
package watcher
