package converter

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/source"
)

// debounceDelay is how long a file must stay quiet before conversion
// starts; editors and copies produce bursts of write events.
const debounceDelay = 500 * time.Millisecond

// Watch starts an fsnotify watcher on the input root and converts matching
// files as they appear or change, until ctx is cancelled. New directories
// created at runtime are added to the watch list.
func (s *Service) Watch(ctx context.Context, root string, include, exclude []string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	ready := make(chan string, 64)

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(debounceDelay)
			return
		}
		timers[path] = time.AfterFunc(debounceDelay, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case path := <-ready:
			if _, err := s.ProcessFile(ctx, path); err != nil {
				logger.Warn("watcher: convert failed",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
				if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
					logger.Warn("watcher: add dir failed",
						slog.String("path", ev.Name),
						slog.String("error", addErr.Error()))
				}
				// Pick up files already inside the new directory.
				if found, findErr := source.Find(ev.Name, include, exclude); findErr == nil {
					for _, p := range found {
						schedule(p)
					}
				}
				continue
			}
			if matched, _ := source.Find(ev.Name, include, exclude); len(matched) > 0 {
				schedule(ev.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
