package guidesource

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

const defaultDebounce = 500 * time.Millisecond

// ApplyFunc receives the guides decoded from files that changed.
type ApplyFunc func(ctx context.Context, entries []Entry) error

// Watcher re-reads guide files in a directory when they change. Bursts of
// events are coalesced for the debounce window before the files are decoded.
type Watcher struct {
	dir      string
	debounce time.Duration
	apply    ApplyFunc
	log      *logger.Logger
	fsw      *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]struct{}

	done chan struct{}
}

func NewWatcher(dir string, debounce time.Duration, apply ApplyFunc, log *logger.Logger) (*Watcher, error) {
	if apply == nil {
		return nil, fmt.Errorf("apply callback required")
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		apply:    apply,
		log:      log.With("service", "GuideWatcher", "dir", dir),
		fsw:      fsw,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		_ = w.fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	go w.loop(ctx)
	w.log.Info("Guide watcher started", "debounce", w.debounce)
	return nil
}

// Stop closes the underlying watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.pendingMu.Lock()
			w.pending[ev.Name] = struct{}{}
			w.pendingMu.Unlock()
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("guide watcher error", "error", err)
		case <-timer.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !Supported(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		// Stored guides outlive their files; removal only needs a log line.
		w.log.Info("guide file removed; stored guide kept", "file", filepath.Base(ev.Name))
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()
	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		e, err := LoadFile(p)
		if err != nil {
			w.log.Warn("skipping unreadable guide file", "file", filepath.Base(p), "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return
	}
	if err := w.apply(ctx, entries); err != nil {
		w.log.Error("guide reload failed", "error", err)
		return
	}
	w.log.Info("Guides reloaded", "count", len(entries))
}
