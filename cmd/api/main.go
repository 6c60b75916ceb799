package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/leozw/uptime-guardian/internal/analytics"
	"github.com/leozw/uptime-guardian/internal/api"
	"github.com/leozw/uptime-guardian/internal/api/handlers"
	"github.com/leozw/uptime-guardian/internal/config"
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/db/migrate"
	"github.com/leozw/uptime-guardian/internal/logging"
	"github.com/leozw/uptime-guardian/internal/metrics"
	"github.com/leozw/uptime-guardian/internal/notify"
	"github.com/leozw/uptime-guardian/internal/publicstatus"
	"github.com/leozw/uptime-guardian/internal/rollup"
	"github.com/leozw/uptime-guardian/internal/scheduler"
	"github.com/leozw/uptime-guardian/internal/secretstore"
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

	if err := migrate.Up(conn.DB); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	repo := db.NewRepository(conn)
	collector := metrics.NewCollector()
	secrets := secretstore.NewEnvStore("WEBHOOK_SECRET_")
	dispatcher := notify.NewDispatcher(repo, secrets, collector, logger)

	builder := publicstatus.NewBuilder(repo)
	snapshots := publicstatus.NewStore(repo, builder, collector, logger)

	sched := scheduler.NewScheduler(repo, collector, dispatcher, snapshots, logger, &cfg.Scheduler)
	rollupRunner := rollup.NewRunner(repo, collector, logger)
	analyticsSvc := analytics.NewService(repo)

	handler := handlers.NewHandler(repo, collector, logger, analyticsSvc, snapshots, sched, rollupRunner)
	server := api.NewServer(cfg, handler, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("api server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
