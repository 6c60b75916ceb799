package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/leozw/uptime-guardian/internal/config"
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/logging"
	"github.com/leozw/uptime-guardian/internal/metrics"
	"github.com/leozw/uptime-guardian/internal/notify"
	"github.com/leozw/uptime-guardian/internal/publicstatus"
	"github.com/leozw/uptime-guardian/internal/rollup"
	"github.com/leozw/uptime-guardian/internal/scheduler"
	"github.com/leozw/uptime-guardian/internal/secretstore"
	"github.com/leozw/uptime-guardian/internal/timeutil"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	logger, err := logging.New(cfg.Server.Mode)
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()

	conn, err := db.NewConnection(cfg.Database.URL, cfg.Database.MaxConnections, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	repo := db.NewRepository(conn)
	collector := metrics.NewCollector()
	secrets := secretstore.NewEnvStore("WEBHOOK_SECRET_")
	dispatcher := notify.NewDispatcher(repo, secrets, collector, logger)

	builder := publicstatus.NewBuilder(repo)
	snapshots := publicstatus.NewStore(repo, builder, collector, logger)

	sched := scheduler.NewScheduler(repo, collector, dispatcher, snapshots, logger, &cfg.Scheduler)
	rollupRunner := rollup.NewRunner(repo, collector, logger)

	cron, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("failed to build cron scheduler", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := cron.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			sched.Tick(ctx, timeutil.RealClock())
		}),
	); err != nil {
		logger.Fatal("failed to register tick job", zap.Error(err))
	}

	if _, err := cron.NewJob(
		gocron.CronJob("0 0 * * *", false),
		gocron.NewTask(func() {
			rollupRunner.Run(timeutil.RealClock())
		}),
	); err != nil {
		logger.Fatal("failed to register rollup job", zap.Error(err))
	}

	cron.Start()
	logger.Info("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	cancel()
	if err := cron.Shutdown(); err != nil {
		logger.Error("cron shutdown error", zap.Error(err))
	}
	logger.Info("scheduler stopped")
}
