package report

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates cached records when an offline job rewrites an
// evaluation file. Directories are watched rather than files so that atomic
// rename-over writes are seen.
type Watcher struct {
	source  *FileSource
	watcher *fsnotify.Watcher
	tracked map[string]bool
	logger  *zap.Logger
}

func NewWatcher(source *FileSource, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		source:  source,
		watcher: fw,
		tracked: make(map[string]bool),
		logger:  logger,
	}
	dirs := make(map[string]bool)
	for _, path := range source.Paths() {
		w.tracked[path] = true
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run handles events until ctx is done, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("accuracy watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.tracked[path] {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.source.Invalidate(path)
	w.logger.Info("accuracy record changed", zap.String("path", path), zap.String("op", event.Op.String()))
}
