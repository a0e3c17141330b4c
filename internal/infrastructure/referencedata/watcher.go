package referencedata

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// Static serves a fixed snapshot.
type Static struct {
	snap *Snapshot
}

// NewStatic wraps snap.
func NewStatic(snap *Snapshot) *Static {
	return &Static{snap: snap}
}

// Snapshot returns the wrapped snapshot.
func (s *Static) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.snap == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "reference data not loaded")
	}
	return s.snap, nil
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the Watcher's logger.
func WithLogger(l logging.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithMetrics records reloads on m.
func WithMetrics(m *prometheus.EngineMetrics) WatcherOption {
	return func(w *Watcher) { w.metrics = m }
}

// OnReload registers fn to run after every successful reload.
func OnReload(fn func(*Snapshot)) WatcherOption {
	return func(w *Watcher) { w.hooks = append(w.hooks, fn) }
}

// Watcher holds the current snapshot of a file and swaps in a new revision
// whenever the file changes.  A revision that fails to parse or validate is
// logged and dropped; the previous one stays in service.
type Watcher struct {
	path    string
	logger  logging.Logger
	metrics *prometheus.EngineMetrics
	hooks   []func(*Snapshot)

	mu   sync.RWMutex
	snap *Snapshot

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher loads path once.  Call Start to follow changes.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:   filepath.Clean(path),
		logger: logging.NewNopLogger(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("referencedata")

	if err := w.Reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Snapshot returns the current revision.
func (w *Watcher) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap, nil
}

// Reload re-reads the file and swaps the revision in on success.
func (w *Watcher) Reload() error {
	snap, err := LoadFile(w.path)
	w.metrics.RecordReload(err)
	if err != nil {
		w.logger.WithError(err).Error("reference data reload failed", logging.String("path", w.path))
		return err
	}

	w.mu.Lock()
	w.snap = snap
	w.mu.Unlock()

	w.logger.Info("reference data loaded",
		logging.String("path", w.path),
		logging.Int("fee_structures", len(snap.FeeStructures)),
		logging.Int("exchange_rates", len(snap.ExchangeRates)),
		logging.Int("opportunities", len(snap.Opportunities)),
	)
	for _, fn := range w.hooks {
		fn(snap)
	}
	return nil
}

// Start follows the file until ctx is cancelled or Close is called.  The
// parent directory is watched so that editors replacing the file by rename
// are picked up.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create file watcher")
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to watch reference data directory").WithDetail(w.path)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				_ = w.Reload()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", logging.Err(err))
		}
	}
}

// Close stops following the file.  It is safe to call more than once.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	return err
}

//Personal.AI order the ending
