package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a fixed set of config files.
//
// Parent directories are watched rather than the files themselves so that
// editors which replace the file on save are still seen. Bursts of events are
// debounced into a single callback.
type Watcher struct {
	files    map[string]struct{}
	fsw      *fsnotify.Watcher
	logger   *log.Logger
	debounce time.Duration
}

// NewWatcher watches paths. Paths whose directory does not exist are skipped.
func NewWatcher(paths []string, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new fsnotify watcher: %w", err)
	}

	w := &Watcher{
		files:    make(map[string]struct{}),
		fsw:      fsw,
		logger:   logger.WithPrefix("config"),
		debounce: 200 * time.Millisecond,
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		w.files[p] = struct{}{}
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			w.logger.Debug("not watching missing config dir", "dir", dir)
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run calls onChange after watched files change, until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.fsw.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "err", err)
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if _, watched := w.files[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			w.logger.Debug("config file changed", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
		case <-timerC:
			timer, timerC = nil, nil
			onChange()
		}
	}
}
