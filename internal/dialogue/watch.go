package dialogue

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// #region watch
// Watch reloads repo whenever the corpus file at path is written or replaced.
// A file that fails validation is logged and the previous corpus stays active.
// Blocks until ctx is done.
func Watch(ctx context.Context, path string, repo *Repository, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reload(path, repo, logger)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("corpus watcher error", zap.Error(err))
		}
	}
}

func reload(path string, repo *Repository, logger *zap.Logger) {
	lines, err := LoadCorpus(path)
	if err != nil {
		logger.Warn("corpus reload rejected, keeping previous corpus",
			zap.String("path", path), zap.Error(err))
		return
	}
	repo.Replace(lines)
	logger.Info("corpus reloaded", zap.String("path", path), zap.Int("lines", len(lines)))
}

// #endregion watch
