package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/rafacastellanos/listkeeper-backend/internal/audit"
	"github.com/rafacastellanos/listkeeper-backend/internal/connections"
	"github.com/rafacastellanos/listkeeper-backend/internal/cron"
	"github.com/rafacastellanos/listkeeper-backend/internal/listings"
	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace/squarecatalog"
	"github.com/rafacastellanos/listkeeper-backend/internal/repricing"
	syncengine "github.com/rafacastellanos/listkeeper-backend/internal/sync"
	"github.com/rafacastellanos/listkeeper-backend/pkg/config"
	"github.com/rafacastellanos/listkeeper-backend/pkg/db"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
	"github.com/rafacastellanos/listkeeper-backend/pkg/metrics"
	"github.com/rafacastellanos/listkeeper-backend/pkg/migrate"
	"github.com/rafacastellanos/listkeeper-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	service, err := buildScheduler(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build sync worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func buildScheduler(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	listingRepo := listings.NewRepository(dbClient.DB())
	auditSvc, err := audit.NewService(audit.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return nil, err
	}

	reconciler, err := syncengine.NewReconciler(listingRepo, auditSvc, logg, syncengine.ReconcilerOptions{
		PageSize:       cfg.Sync.PageSize,
		RequestTimeout: cfg.Sync.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	worker, err := syncengine.NewInventoryWorker(listingRepo, auditSvc, logg, syncengine.InventoryWorkerOptions{
		Delay:          cfg.Sync.InventoryDelay,
		RequestTimeout: cfg.Sync.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	sources := squarecatalog.NewFactory(cfg.Square.Environment(), logg)

	syncSvc, err := syncengine.NewService(
		reconciler,
		worker,
		syncengine.NewStatusRepository(dbClient.DB()),
		sources,
		auditSvc,
		logg,
		syncMetrics,
	)
	if err != nil {
		return nil, err
	}

	connectionRepo := connections.NewRepository(dbClient.DB())
	fullSync, err := cron.NewFullSyncJob(connectionRepo, syncSvc, logg)
	if err != nil {
		return nil, err
	}

	repricing.DefaultFeeRate = decimal.NewFromFloat(cfg.Repricing.DefaultFeeRate)
	engine, err := repricing.NewEngine(listingRepo, auditSvc, logg)
	if err != nil {
		return nil, err
	}
	floorSweep, err := cron.NewFloorSweepJob(connectionRepo, listingRepo, sources, engine, logg)
	if err != nil {
		return nil, err
	}

	lockKey := redisClient.LockKey(fmt.Sprintf("%s:%s", cfg.Cron.LockScope, cfg.App.Env))
	lock, err := cron.NewRedisLock(redisClient, lockKey, cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(fullSync, floorSweep),
		Lock:     lock,
		Metrics:  syncMetrics,
		Interval: cfg.Cron.Interval,
	})
}
