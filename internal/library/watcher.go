package library

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay unchanged before it is reported.
const DefaultSettle = 2 * time.Second

// EnqueueFunc receives the path of a new or changed EPUB file.
type EnqueueFunc func(ctx context.Context, path string) error

// Watcher reports EPUB files created or rewritten under a directory tree.
// Events for one file are collapsed until the file has been quiet for the
// settle period, so a file still being copied is reported once.
type Watcher struct {
	root    string
	settle  time.Duration
	enqueue EnqueueFunc
	fsw     *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher starts watching dir and all of its subdirectories.
func NewWatcher(dir string, settle time.Duration, enqueue EnqueueFunc) (*Watcher, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		root:    root,
		settle:  settle,
		enqueue: enqueue,
		fsw:     fsw,
		pending: make(map[string]time.Time),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers settled files to the enqueue function until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.settle / 4)
	defer ticker.Stop()

	log.Printf("[LIBRARY] Watching %s for new books", w.root)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[LIBRARY] Watcher error: %v", err)
		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				if err := w.enqueue(ctx, path); err != nil {
					log.Printf("[LIBRARY] Failed to enqueue %s: %v", path, err)
				}
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(event.Name); err != nil {
			log.Printf("[LIBRARY] %v", err)
		}
		return
	}
	if !IsEpub(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
