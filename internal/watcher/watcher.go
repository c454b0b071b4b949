package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sori/internal/logging"
	"sori/internal/services"
)

// DefaultSettle is how long events must stay quiet before a change fires.
// Editors and git checkouts write documents in bursts; one run per burst
// is enough.
const DefaultSettle = 2 * time.Second

const pollInterval = 250 * time.Millisecond

// Watcher watches one directory for changes to a fixed set of documents
// and invokes a callback once the changes settle.
type Watcher struct {
	dir      string
	names    map[string]struct{}
	settle   time.Duration
	logger   *slog.Logger
	onChange func(context.Context)

	mu      sync.Mutex
	pending map[string]time.Time
}

// Options configure a Watcher.
type Options struct {
	// Dir is the directory to watch.
	Dir string
	// Names are the file basenames that trigger the callback. Events for
	// other files in the directory are ignored.
	Names []string
	// Settle is the quiet period before the callback fires. Zero means
	// DefaultSettle.
	Settle time.Duration
	// OnChange runs after events settle. Required.
	OnChange func(context.Context)
	// Logger receives watch diagnostics. Nil discards them.
	Logger *slog.Logger
}

// New validates opts and builds a Watcher.
func New(opts Options) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, services.Wrap(services.ErrValidation, "watch", "configure", "directory required", nil)
	}
	if len(opts.Names) == 0 {
		return nil, services.Wrap(services.ErrValidation, "watch", "configure", "at least one file name required", nil)
	}
	if opts.OnChange == nil {
		return nil, services.Wrap(services.ErrValidation, "watch", "configure", "change callback required", nil)
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	names := make(map[string]struct{}, len(opts.Names))
	for _, name := range opts.Names {
		names[name] = struct{}{}
	}
	return &Watcher{
		dir:      opts.Dir,
		names:    names,
		settle:   settle,
		logger:   logging.NewComponentLogger(opts.Logger, "watcher"),
		onChange: opts.OnChange,
		pending:  make(map[string]time.Time),
	}, nil
}

// Run watches until ctx is cancelled. The callback runs on the watch
// goroutine, so a slow callback delays later triggers instead of stacking
// runs on top of each other.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(nil, "watch", "start", "create filesystem watcher", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return services.Wrap(services.ErrConfiguration, "watch", "start", "watch "+w.dir, err)
	}
	w.logger.Info("watching for document changes",
		logging.String("dir", w.dir),
		logging.Duration("settle", w.settle))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.record(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a document change may have been missed"))
		case <-ticker.C:
			if w.takeSettled() {
				w.onChange(ctx)
			}
		}
	}
}

// record notes an event for a watched document. All watched documents
// share one debounce window; a single run covers every document anyway.
func (w *Watcher) record(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(event.Name)
	if _, ok := w.names[name]; !ok {
		return
	}
	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
	w.logger.Debug("document changed",
		logging.String("file", name),
		logging.String("op", event.Op.String()))
}

// takeSettled reports whether pending changes have stayed quiet for the
// settle window, clearing them when they have.
func (w *Watcher) takeSettled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return false
	}
	now := time.Now()
	for _, at := range w.pending {
		if now.Sub(at) < w.settle {
			return false
		}
	}
	w.pending = make(map[string]time.Time)
	return true
}
