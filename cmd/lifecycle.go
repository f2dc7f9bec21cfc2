package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"endlesshmon/internal/config"
	"endlesshmon/internal/exporter"
	"endlesshmon/internal/geo"
	"endlesshmon/internal/halloffame"
	"endlesshmon/internal/journal"
	"endlesshmon/internal/logging"
	"endlesshmon/internal/parser"
	"endlesshmon/internal/pipeline"
)

// buildResolver wires the geo cache and lookup client. A broken cache
// degrades to unpersisted resolution rather than refusing to start.
func buildResolver(cfg config.Config, log *logrus.Logger) (*geo.Resolver, func()) {
	cache, err := geo.OpenCache(cfg.GeoCachePath)
	if err != nil {
		log.WithError(err).Warn("geo cache unavailable, resolving without persistence")
		return geo.NewResolver(nil, geo.NewAPILookup(), cfg.GeoBudget, log), func() {}
	}
	return geo.NewResolver(cache, geo.NewAPILookup(), cfg.GeoBudget, log), func() { _ = cache.Close() }
}

// runDaemon starts the evaluation pipeline and the metrics endpoint.
func runDaemon(cfg config.Config) error {
	log := logging.GetLogger()

	fame := halloffame.New(cfg.FamePath, cfg.FameCap, log)
	fame.Load()

	resolver, closeCache := buildResolver(cfg, log)
	defer closeCache()

	pipe := pipeline.New(
		pipeline.Config{
			Window:        cfg.Window.Std(),
			CounterWindow: cfg.CounterWindow.Std(),
			Interval:      cfg.Interval.Std(),
		},
		journal.NewJournalctlSource(cfg.Unit),
		parser.New(log),
		fame,
		resolver,
		log,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(exporter.NewCollector(pipe.Snapshot))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("watching unit %q over a %s window", cfg.Unit, cfg.Window.Std())
	go pipe.Run(ctx)

	return exporter.Serve(ctx, cfg.Listen, reg, log)
}
