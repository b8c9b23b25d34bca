// Command monitor runs the disaster feed service: it polls the configured
// feeds (GDACS RSS, USGS earthquake catalog) on an interval, normalizes
// them into the canonical table, snapshots the result, and serves the
// tables and dashboard aggregates over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/disaster-feed-service/internal/adapter/feedcache"
	"github.com/couchcryptid/disaster-feed-service/internal/adapter/gdacs"
	httpadapter "github.com/couchcryptid/disaster-feed-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-feed-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-feed-service/internal/adapter/usgs"
	"github.com/couchcryptid/disaster-feed-service/internal/config"
	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/couchcryptid/disaster-feed-service/internal/pipeline"
	"github.com/couchcryptid/disaster-feed-service/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Kafka export is feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var publisher pipeline.Publisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("kafka export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka export disabled")
	}

	loaders := make([]*pipeline.Loader, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		loaders = append(loaders, buildLoader(cfg, src, publisher, metrics, logger))
	}

	monitor := pipeline.NewMonitor(loaders, cfg.RefreshInterval, nil, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, monitor, monitor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := monitor.Run(ctx); err != nil {
			logger.Error("monitor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildLoader assembles one source's fetch, parse, snapshot, and export
// stages from its config entry.
func buildLoader(cfg *config.Config, src config.SourceConfig, publisher pipeline.Publisher, metrics *observability.Metrics, logger *slog.Logger) *pipeline.Loader {
	store := snapshot.New(src.CacheFile, logger)

	switch src.Type {
	case config.SourceTypeUSGS:
		client := usgs.NewClient(src.URL, cfg.FetchTimeout, metrics, logger)
		var fetcher domain.Fetcher = client
		if cfg.FetchCacheTTL > 0 {
			fetcher = feedcache.New(client, domain.SourceUSGS, cfg.FetchCacheTTL, nil, metrics)
		}
		var exporter pipeline.Exporter
		if src.QuakeMLFile != "" {
			exporter = usgs.NewQuakeMLExporter(client, src.QuakeMLFile, logger)
		}
		window := pipeline.Window{DaysBack: src.DaysBack, MinMagnitude: src.MinMagnitude}
		return pipeline.NewLoader(domain.SourceUSGS, fetcher, usgs.NewParser(), store, exporter, publisher, window, logger, metrics)

	default: // gdacs
		client := gdacs.NewClient(src.URL, cfg.FetchTimeout, metrics, logger)
		var fetcher domain.Fetcher = client
		if cfg.FetchCacheTTL > 0 {
			fetcher = feedcache.New(client, domain.SourceGDACS, cfg.FetchCacheTTL, nil, metrics)
		}
		return pipeline.NewLoader(domain.SourceGDACS, fetcher, gdacs.NewParser(), store, nil, publisher, pipeline.Window{}, logger, metrics)
	}
}
