// Package forecast orchestrates the commission and engagement-intensity
// calculations over the current reference data.  Services hold only
// immutable dependencies and are safe for concurrent use.
package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/pipeline-engine/internal/domain/intensity"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/referencedata"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// ReferenceSource yields the current reference data revision.
type ReferenceSource interface {
	Snapshot(ctx context.Context) (*referencedata.Snapshot, error)
}

// ConfigStore persists the intensity configuration.
type ConfigStore interface {
	Load(ctx context.Context) (intensity.Config, error)
	Save(ctx context.Context, cfg intensity.Config) error
}

// MemoryConfigStore keeps the intensity configuration in process.
type MemoryConfigStore struct {
	mu  sync.RWMutex
	cfg intensity.Config
}

// NewMemoryConfigStore seeds the store with cfg.
func NewMemoryConfigStore(cfg intensity.Config) *MemoryConfigStore {
	return &MemoryConfigStore{cfg: cfg.Clone()}
}

func (s *MemoryConfigStore) Load(ctx context.Context) (intensity.Config, error) {
	if err := ctx.Err(); err != nil {
		return intensity.Config{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone(), nil
}

func (s *MemoryConfigStore) Save(ctx context.Context, cfg intensity.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg.Clone()
	s.mu.Unlock()
	return nil
}

// Option tunes a service.
type Option func(*options)

type options struct {
	logger  logging.Logger
	metrics *prometheus.EngineMetrics
	now     func() time.Time
}

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records calculations on m.
func WithMetrics(m *prometheus.EngineMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{
		logger: logging.NewNopLogger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}
	return o
}

func loadSnapshot(ctx context.Context, src ReferenceSource) (*referencedata.Snapshot, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "reference data not configured")
	}
	snap, err := src.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to read reference data")
	}
	if snap == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "reference data not loaded")
	}
	return snap, nil
}

//Personal.AI order the ending
