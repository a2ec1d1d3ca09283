package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ariefcatur/emall-pickup/internal/config"
	"github.com/ariefcatur/emall-pickup/internal/httpx"
	kafkax "github.com/ariefcatur/emall-pickup/internal/kafka"
	"github.com/ariefcatur/emall-pickup/internal/logger"
	"github.com/ariefcatur/emall-pickup/internal/metrics"
	"github.com/ariefcatur/emall-pickup/internal/notify"
	"github.com/ariefcatur/emall-pickup/internal/orders"
	"github.com/ariefcatur/emall-pickup/internal/pickup"
	"github.com/ariefcatur/emall-pickup/internal/postgres"
	"github.com/ariefcatur/emall-pickup/internal/redisx"
	"github.com/ariefcatur/emall-pickup/internal/rewards"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPI(); err != nil {
		return err
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	milestones, err := rewards.LoadMilestones(cfg.MilestonesFile)
	if err != nil {
		return err
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		// code uniqueness and dedup degrade without redis; keep serving
		log.Warn("redis unreachable", zap.Error(err))
	}

	// Kafka: domain events and notification requests go to separate topics
	events := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPickupEvents, 1024, log)
	events.Start()
	notifications := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicNotifications, 1024, log)
	notifications.Start()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, cfg.ServiceName)

	statusCache := &redisx.StatusCache{RDB: rdb}
	pickups := &pickup.Service{
		Store:          &orders.Repo{DB: db},
		Codes:          &redisx.CodeRegistry{RDB: rdb},
		Notifier:       &notify.Dispatcher{Producer: notifications, ServiceName: cfg.ServiceName},
		Events:         events,
		Cache:          statusCache,
		Milestones:     milestones,
		Points:         cfg.PickupRewardPoints,
		CodeTTLMinutes: cfg.PickupCodeTTLMinutes,
		ServiceName:    cfg.ServiceName,
		Log:            log.Named("pickup"),
		Metrics:        m,
	}
	rewardsSvc := &rewards.Service{Store: &orders.RewardsRepo{DB: db}, Milestones: milestones}

	router := httpx.NewRouter(log, m, reg)
	auth := httpx.Authenticator([]byte(cfg.JWTSecret))
	(&httpx.OrdersHandler{Pickups: pickups, Cache: statusCache, QRSize: cfg.QRSize}).Register(router, auth)
	(&httpx.PickupHandler{Pickups: pickups}).Register(router, auth)
	(&httpx.RewardsHandler{Rewards: rewardsSvc}).Register(router, auth)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.Int("milestones", len(milestones)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("listen", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	events.Close()
	notifications.Close()
	events.WaitClosed()
	notifications.WaitClosed()
	return err
}
