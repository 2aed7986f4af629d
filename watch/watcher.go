// Package watch re-runs work when term images or the vocabulary data file change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/vocabsync/gallery"
)

const (
	// DefaultDebounceDelay applies when Config.DebounceDelay is zero.
	DefaultDebounceDelay = 500 * time.Millisecond

	eventChannelBuffer = 16
)

// Config configures a Watcher.
type Config struct {
	// ImagesDir is watched recursively for image files.
	ImagesDir string
	// DataFile is the vocabulary data file. Its directory is watched so
	// editors that replace the file on save are still seen.
	DataFile string
	// DebounceDelay is how long the tree must be quiet before a change is emitted.
	DebounceDelay time.Duration
}

// Change is one debounced batch of file system activity.
type Change struct {
	// Paths lists the changed files, sorted.
	Paths []string
	// DataChanged is set when the vocabulary data file is among Paths.
	DataChanged bool
}

// Watcher collects image and data file changes and emits them as Changes.
type Watcher struct {
	config    Config
	imagesDir string
	dataFile  string
	fsw       *fsnotify.Watcher
	logger    *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events  chan Change
	dropped atomic.Int64
}

// New creates a watcher. Start must be called before Events yields anything.
func New(config Config, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = DefaultDebounceDelay
	}

	imagesDir, err := filepath.Abs(config.ImagesDir)
	if err != nil {
		return nil, err
	}
	dataFile := ""
	if config.DataFile != "" {
		if dataFile, err = filepath.Abs(config.DataFile); err != nil {
			return nil, err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:    config,
		imagesDir: imagesDir,
		dataFile:  dataFile,
		fsw:       fsw,
		logger:    logger,
		pending:   make(map[string]fsnotify.Op),
		events:    make(chan Change, eventChannelBuffer),
	}, nil
}

// Events returns the channel of debounced changes. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Change {
	return w.events
}

// Start adds the watches and begins processing in the background until ctx
// is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.imagesDir); err != nil {
		return err
	}
	if w.dataFile != "" {
		dir := filepath.Dir(w.dataFile)
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.logger.Debug("Watching data file", "path", w.dataFile)
	}

	go w.processEvents(ctx)

	w.logger.Info("Watcher started",
		"images_dir", w.imagesDir,
		"data_file", w.dataFile,
		"debounce", w.config.DebounceDelay)
	return nil
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// DroppedEvents returns how many changes were dropped because nobody was reading.
func (w *Watcher) DroppedEvents() int64 {
	return w.dropped.Load()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

// processEvents debounces fsnotify events: every relevant event restarts the
// timer and the batch is flushed once the timer fires.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	timer := time.NewTimer(w.config.DebounceDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.handleFSEvent(event) {
				timer.Reset(w.config.DebounceDelay)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-timer.C:
			w.flushPending()
		}
	}
}

// handleFSEvent records a relevant event and reports whether it was kept.
func (w *Watcher) handleFSEvent(event fsnotify.Event) bool {
	path := event.Name
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if !w.relevant(path) {
		if event.Has(fsnotify.Create) && w.inImagesDir(path) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return false
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Change detected", "path", path, "op", event.Op.String())
	return true
}

func (w *Watcher) handleNewDirectory(path string) {
	if err := w.addWatchesRecursive(path); err != nil {
		w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
	}
}

// relevant reports whether path is the data file or an image below the images directory.
func (w *Watcher) relevant(path string) bool {
	if w.dataFile != "" && path == w.dataFile {
		return true
	}
	if !w.inImagesDir(path) {
		return false
	}
	rel, err := filepath.Rel(w.imagesDir, path)
	if err != nil {
		return false
	}
	return gallery.IsImage(rel)
}

func (w *Watcher) inImagesDir(path string) bool {
	return strings.HasPrefix(path, w.imagesDir+string(filepath.Separator))
}

func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	change := Change{Paths: make([]string, 0, len(w.pending))}
	for path := range w.pending {
		change.Paths = append(change.Paths, path)
		if path == w.dataFile {
			change.DataChanged = true
		}
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	sort.Strings(change.Paths)

	select {
	case w.events <- change:
		w.logger.Debug("Sent change", "paths", len(change.Paths), "data_changed", change.DataChanged)
	default:
		dropped := w.dropped.Add(1)
		w.logger.Warn("Change channel full, dropping change", "paths", len(change.Paths), "total_dropped", dropped)
	}
}

// Run starts the watcher and calls fn for every change until ctx is
// cancelled. Errors from fn are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context, Change) error) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.events:
			if !ok {
				return nil
			}
			if err := fn(ctx, change); err != nil {
				w.logger.Error("Change handler failed", "error", err)
			}
		}
	}
}
