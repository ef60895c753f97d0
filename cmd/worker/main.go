package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	pgRepo "nordfeed/internal/infra/adapter/persistence/postgres"
	"nordfeed/internal/infra/db"
	"nordfeed/internal/infra/scraper"
	workerPkg "nordfeed/internal/infra/worker"
	"nordfeed/internal/pkg/config"
	"nordfeed/internal/usecase/ingest"
)

func main() {
	logger := initLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database := initDatabase(ctx, logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	metrics := workerPkg.NewHarvestMetrics()
	cfg := workerPkg.LoadConfigFromEnv(logger, metrics)
	logger.Info("worker configuration loaded",
		slog.String("harvest_schedule", cfg.HarvestSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("harvest_timeout", cfg.HarvestTimeout),
		slog.Int("health_port", cfg.HealthPort),
		slog.Int("metrics_port", cfg.MetricsPort))

	svc, err := setupIngestService(database, cfg)
	if err != nil {
		logger.Error("failed to set up ingest service", slog.Any("error", err))
		os.Exit(1)
	}
	if err := svc.RegisterPublications(ctx); err != nil {
		logger.Error("failed to register publications", slog.Any("error", err))
		os.Exit(1)
	}

	startMetricsServer(ctx, logger, cfg.MetricsPort)

	healthAddr := fmt.Sprintf(":%d", cfg.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	startScheduler(logger, svc, cfg, metrics, healthServer)
}

// initLogger initializes a structured JSON logger based on LOG_LEVEL.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if config.GetEnvString("LOG_LEVEL", "info") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the connection pool and applies the schema.
func initDatabase(ctx context.Context, logger *slog.Logger) *sql.DB {
	database, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupIngestService wires the repositories, normalizers, and fetchers into
// the ingest service.
func setupIngestService(database *sql.DB, cfg *workerPkg.Config) (*ingest.Service, error) {
	feedNormalizer, err := ingest.NewNormalizer([]string{time.RFC1123Z, time.RFC1123}, cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("feed normalizer: %w", err)
	}
	bulletinNormalizer, err := ingest.NewNormalizer([]string{time.RFC3339}, cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bulletin normalizer: %w", err)
	}

	feedClient := newHTTPClient(30 * time.Second)
	scrapeClient := newHTTPClient(10 * time.Second)

	lookup := scraper.NewMetaLookupClient(scrapeClient, cfg.LookupBaseURL)
	fetchers := map[string]ingest.SourceFetcher{
		ingest.SourceTypeFeed:     scraper.NewRSSFetcher(feedClient, feedNormalizer),
		ingest.SourceTypeBulletin: scraper.NewBulletinScraper(scrapeClient, lookup, bulletinNormalizer),
	}

	svc := ingest.NewService(
		pgRepo.NewPublicationRepo(database),
		pgRepo.NewArticleRepo(database),
		fetchers,
		ingest.SeedSources(),
	)
	return &svc, nil
}

// newHTTPClient creates an HTTP client with connection pooling and TLS 1.2+.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// startScheduler registers one cron entry per source and blocks forever.
// Each source gets its own entry wrapped in SkipIfStillRunning, so a slow
// tick of one source never overlaps with its next tick and never delays the
// other sources.
func startScheduler(logger *slog.Logger, svc *ingest.Service, cfg *workerPkg.Config, metrics *workerPkg.HarvestMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	cronLogger := cron.DiscardLogger
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)

	for _, src := range svc.Sources {
		if _, err := c.AddFunc(cfg.HarvestSchedule, func() {
			runHarvestTick(logger, svc, src, cfg, metrics)
		}); err != nil {
			logger.Error("failed to add cron entry",
				slog.String("source", src.Publication.ID),
				slog.Any("error", err))
			os.Exit(1)
		}
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.HarvestSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("sources", len(svc.Sources)))
	select {}
}

// runHarvestTick executes one harvest tick for a single source with a
// timeout and records its metrics.
func runHarvestTick(logger *slog.Logger, svc *ingest.Service, src ingest.Source, cfg *workerPkg.Config, metrics *workerPkg.HarvestMetrics) {
	start := time.Now()
	sourceID := src.Publication.ID
	logger.Info("harvest tick started", slog.String("source", sourceID))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HarvestTimeout)
	defer cancel()

	stats, err := svc.HarvestSource(ctx, src)
	metrics.RecordDuration(sourceID, time.Since(start).Seconds())
	if err != nil {
		logger.Error("harvest tick failed",
			slog.String("source", sourceID),
			slog.Any("error", err))
		metrics.RecordRun(sourceID, "failure")
		return
	}

	metrics.RecordRun(sourceID, "success")
	metrics.RecordArticles(sourceID, stats.Inserted, stats.Duplicated)
	metrics.RecordLastSuccess(sourceID)
}
