// Package inbox watches a folder and submits documents dropped into it.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before it is submitted.
const DefaultSettle = time.Second

// Result reports one submission attempt.
type Result struct {
	Path       string
	Submission *driving.Submission
	Err        error
}

// Options configures a Watcher.
type Options struct {
	// Settle delays submission until writes stop (default: 1s).
	Settle time.Duration

	// IncludeExisting submits the files already in the folder on start.
	IncludeExisting bool

	// OnResult is called after every submission attempt.
	OnResult func(Result)
}

// Watcher submits new or changed files in one folder.
type Watcher struct {
	dir     string
	ingest  driving.IngestService
	formats []string
	opts    Options

	mu        sync.Mutex
	pending   map[string]*time.Timer
	submitted map[string]time.Time
	wg        sync.WaitGroup
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox: %s is not a directory", dir)
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	return &Watcher{
		dir:       dir,
		ingest:    ingest,
		formats:   ingest.SupportedFormats(),
		opts:      opts,
		pending:   make(map[string]*time.Timer),
		submitted: make(map[string]time.Time),
	}, nil
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", w.dir, err)
	}
	logger.Info("watching %s for %s", w.dir, strings.Join(w.formats, ", "))

	if w.opts.IncludeExisting {
		if err := w.scanExisting(ctx); err != nil {
			return err
		}
	}

	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path := w.accept(event); path != "" {
				w.schedule(ctx, path)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox watcher error: %v", err)
		}
	}
}

func (w *Watcher) scanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("inbox: read %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() || w.hidden(path) || !w.supported(path) {
			continue
		}
		w.submit(ctx, path)
	}
	return nil
}

// accept returns the path of a file worth submitting, or "".
func (w *Watcher) accept(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return ""
	}
	if w.hidden(event.Name) || !w.supported(event.Name) {
		return ""
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return ""
	}
	return event.Name
}

func (w *Watcher) supported(path string) bool {
	return slices.Contains(w.formats, strings.ToLower(filepath.Ext(path)))
}

// schedule (re)starts the settle timer of path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.opts.Settle)
		return
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.opts.Settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if ctx.Err() == nil {
			w.submit(ctx, path)
		}
	})
	w.pending[path] = t
}

// submit skips files whose modification time has already been submitted.
func (w *Watcher) submit(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	last, seen := w.submitted[path]
	if seen && !info.ModTime().After(last) {
		w.mu.Unlock()
		return
	}
	w.submitted[path] = info.ModTime()
	w.mu.Unlock()

	sub, err := w.ingest.Submit(ctx, path, "")
	if err != nil {
		logger.Warn("inbox: submit %s: %v", path, err)
	} else {
		logger.Info("inbox: submitted %s as %s", path, sub.Document.ID)
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(Result{Path: path, Submission: sub, Err: err})
	}
}

// stop cancels timers that have not fired and waits for running ones.
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// hidden checks path relative to the watched directory, so a dot-directory
// above the inbox does not hide its files.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return isHidden(filepath.Base(path))
	}
	return isHidden(rel)
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." do not count.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
