package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/emall-pickup/internal/config"
	kafkax "github.com/ariefcatur/emall-pickup/internal/kafka"
	"github.com/ariefcatur/emall-pickup/internal/logger"
	"github.com/ariefcatur/emall-pickup/internal/notify"
	"github.com/ariefcatur/emall-pickup/internal/orders"
	"github.com/ariefcatur/emall-pickup/internal/postgres"
	"github.com/ariefcatur/emall-pickup/internal/redisx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notifier: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	name := cfg.ServiceName + "-notifier"
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, ServiceName: name})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		// dedup degrades to at-least-once delivery without redis
		log.Warn("redis unreachable", zap.Error(err))
	}

	svc := &notify.Service{
		Store:       &notify.Repo{DB: db},
		Redis:       rdb,
		ServiceName: name,
		Log:         log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicNotifications, cfg.NotifierWorkers, log)
	log.Info("notifier consumer started",
		zap.String("group", cfg.NotifierGroup),
		zap.String("topic", orders.TopicNotifications),
		zap.Int("workers", cfg.NotifierWorkers))

	// Start returns nil once ctx is cancelled by a signal
	if err := cons.Start(ctx, svc.HandleMessage); err != nil {
		return fmt.Errorf("consumer exit: %w", err)
	}
	log.Info("notifier stopped")
	return nil
}
