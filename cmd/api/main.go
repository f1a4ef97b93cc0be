package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Maiconloureiro96-cyber/distribuidora/api/routes"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/bot"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/catalog"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/cron"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/nlp"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/orders"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/receipts"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/reports"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/session"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/evolution"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/metrics"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/migrate"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	// Redis is optional: without it the webhook loses message dedupe and
	// cron falls back to a process-local lock.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, dedupe and cron locking degraded")
	}

	evolutionClient, err := evolution.NewClient(cfg.Evolution)
	if err != nil {
		logg.Error(context.Background(), "failed to build evolution client", err)
		os.Exit(1)
	}

	botMetrics := metrics.NewBotMetrics(prometheus.DefaultRegisterer)
	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	classifier, err := nlp.NewKeywordClassifier(catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create classifier", err)
		os.Exit(1)
	}

	sessionStore, err := session.NewStore(catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:        orders.NewRepository(dbClient.DB()),
		Stock:       catalogRepo,
		TX:          dbClient,
		Sender:      evolutionClient,
		Log:         logg,
		CompanyName: cfg.Bot.CompanyName,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	receiptsService, err := receipts.NewService(cfg.Receipts, cfg.Bot)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipts service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	botService := bot.NewService(bot.ServiceParams{
		Classifier:  classifier,
		Store:       sessionStore,
		Catalog:     catalogService,
		Orders:      ordersService,
		Receipts:    receiptsService,
		Transport:   evolutionClient,
		Metrics:     botMetrics,
		Log:         logg,
		CompanyName: cfg.Bot.CompanyName,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runCron(rootCtx, cfg, logg, cronMetrics, redisClient, sessionStore, receiptsService)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(rootCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient, evolutionClient,
			botService, catalogService, ordersService,
			reportsService, receiptsService, sessionStore,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-rootCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func runCron(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	cronMetrics *metrics.CronJobMetrics,
	redisClient *redis.Client,
	sessionStore *session.Store,
	receiptsService *receipts.Service,
) {
	sweepJob, err := cron.NewSessionSweepJob(sessionStore, cfg.Bot.SessionTTL, logg)
	if err != nil {
		logg.Error(ctx, "failed to create session sweep job", err)
		return
	}
	cleanupJob, err := cron.NewReceiptCleanupJob(receiptsService, 0, logg)
	if err != nil {
		logg.Error(ctx, "failed to create receipt cleanup job", err)
		return
	}

	// The sweep touches this process's in-memory sessions, so it runs in
	// every instance. Receipt cleanup hits shared storage and takes the
	// distributed lock when redis is available.
	sweeper, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     cron.LocalLock{},
		Metrics:  cronMetrics,
		Interval: cfg.Bot.SweepInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session sweeper", err)
		return
	}

	var cleanupLock cron.Lock = cron.LocalLock{}
	if redisClient != nil {
		redisLock, err := cron.NewRedisLock(redisClient, "receipt_cleanup", 0)
		if err != nil {
			logg.Error(ctx, "failed to create cron lock", err)
			return
		}
		cleanupLock = redisLock
	}
	cleaner, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(cleanupJob),
		Lock:     cleanupLock,
		Metrics:  cronMetrics,
		Interval: 24 * time.Hour,
	})
	if err != nil {
		logg.Error(ctx, "failed to create receipt cleaner", err)
		return
	}

	go func() {
		if err := cleaner.Run(ctx); err != nil && err != context.Canceled {
			logg.Error(ctx, "receipt cleaner stopped", err)
		}
	}()
	if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
		logg.Error(ctx, "session sweeper stopped", err)
	}
}
