package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/pipeline-engine/internal/domain/intensity"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// IntensityConfigKey is the key, without prefix, holding the current
// intensity configuration as JSON.
const IntensityConfigKey = "intensity:config"

// IntensityConfigStore persists the intensity configuration.  Every Save
// replaces the stored value as a whole.
type IntensityConfigStore struct {
	client   *Client
	defaults intensity.Config
	logger   logging.Logger
}

// NewIntensityConfigStore returns a store that serves defaults until a
// configuration has been saved.
func NewIntensityConfigStore(client *Client, defaults intensity.Config, log logging.Logger) *IntensityConfigStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &IntensityConfigStore{
		client:   client,
		defaults: defaults.Clone(),
		logger:   log.Named("intensity_config_store"),
	}
}

func (s *IntensityConfigStore) key() string {
	return s.client.Key(IntensityConfigKey)
}

// Load returns the stored configuration, or the defaults when none is stored.
func (s *IntensityConfigStore) Load(ctx context.Context) (intensity.Config, error) {
	raw, err := s.client.Get(ctx, s.key()).Bytes()
	if stderrors.Is(err, redis.Nil) {
		s.logger.Debug("no stored intensity config, using defaults")
		return s.defaults.Clone(), nil
	}
	if err != nil {
		return intensity.Config{}, errors.Wrap(err, errors.ErrCodeCacheError, "failed to load intensity config")
	}

	var cfg intensity.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return intensity.Config{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode intensity config")
	}
	if err := cfg.Validate(); err != nil {
		return intensity.Config{}, err
	}
	return cfg, nil
}

// Save validates cfg and stores it.
func (s *IntensityConfigStore) Save(ctx context.Context, cfg intensity.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode intensity config")
	}
	if err := s.client.Set(ctx, s.key(), string(data), 0).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to save intensity config")
	}
	s.logger.Info("intensity config saved", logging.String("key", s.key()))
	return nil
}

//Personal.AI order the ending
