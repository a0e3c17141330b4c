// API server entry point for the pipeline engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/pipeline-engine/internal/application/forecast"
	"github.com/turtacn/pipeline-engine/internal/config"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/database/redis"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/referencedata"
	httpserver "github.com/turtacn/pipeline-engine/internal/interfaces/http"
	"github.com/turtacn/pipeline-engine/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var version = "dev"

// referenceSource is a snapshot source that may hold resources.
type referenceSource interface {
	forecast.ReferenceSource
	Close() error
}

type staticSource struct {
	*referencedata.Static
}

func (staticSource) Close() error { return nil }

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: PIPEFIN_* environment)")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	defer logger.Sync()

	if *configPath != "" {
		watchConfig(*configPath, logger)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("api server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting pipeline engine API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
		EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewEngineMetrics(collector)

	src, err := newReferenceSource(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer src.Close()

	snap, err := src.Snapshot(ctx)
	if err != nil {
		return err
	}
	seed := snap.IntensityConfig(cfg.Intensity)

	var (
		store    forecast.ConfigStore = forecast.NewMemoryConfigStore(seed)
		checkers                      = []handlers.HealthChecker{handlers.NewReferenceDataChecker(src)}
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		store = redis.NewIntensityConfigStore(client, seed, logger)
		checkers = append(checkers, client)
	}

	policy, err := cfg.Engine.Policy()
	if err != nil {
		return err
	}
	svcOpts := []forecast.Option{forecast.WithLogger(logger), forecast.WithMetrics(metrics)}
	commissionSvc := forecast.NewCommissionService(src, policy, svcOpts...)
	intensitySvc := forecast.NewIntensityService(src, store, svcOpts...)

	gin.SetMode(cfg.Server.Mode)
	routerCfg := httpserver.RouterConfig{
		CommissionHandler: handlers.NewCommissionHandler(commissionSvc, logger),
		IntensityHandler:  handlers.NewIntensityHandler(intensitySvc, logger),
		HealthHandler:     handlers.NewHealthHandler(version, checkers...),
		Logger:            logger,
		Metrics:           metrics,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = collector
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	if err := srv.Stop(context.Background()); err != nil {
		return err
	}
	logger.Info("api server stopped")
	return nil
}

// watchConfig reports configuration edits. Listener, store and reference
// data settings take effect on the next restart.
func watchConfig(path string, logger logging.Logger) {
	err := config.Watch(path, func(c *config.Config) {
		logger.Info("configuration file changed, restart to apply",
			logging.String("path", path),
			logging.String("addr", c.Server.Addr()),
			logging.String("failure_policy", c.Engine.FailurePolicy))
	}, func(err error) {
		logger.Warn("ignoring invalid configuration revision", logging.String("path", path), logging.Err(err))
	})
	if err != nil {
		logger.Warn("configuration watch disabled", logging.Err(err))
	}
}

// newReferenceSource watches the reference data file when configured, reads
// it once otherwise, and falls back to the built-in defaults without a path.
func newReferenceSource(ctx context.Context, cfg *config.Config, logger logging.Logger, metrics *prometheus.EngineMetrics) (referenceSource, error) {
	path := cfg.Engine.ReferenceDataPath
	if path == "" {
		logger.Warn("no reference data configured, serving built-in defaults")
		return staticSource{referencedata.NewStatic(referencedata.Default())}, nil
	}
	if !cfg.Engine.WatchReferenceData {
		snap, err := referencedata.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return staticSource{referencedata.NewStatic(snap)}, nil
	}

	w, err := referencedata.NewWatcher(path,
		referencedata.WithLogger(logger),
		referencedata.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

//Personal.AI order the ending
