package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sellora/sellora-backend/internal/consumers/orderstatus"
	"github.com/sellora/sellora-backend/internal/inventory"
	"github.com/sellora/sellora-backend/internal/orders"
	"github.com/sellora/sellora-backend/pkg/config"
	"github.com/sellora/sellora-backend/pkg/db"
	"github.com/sellora/sellora-backend/pkg/instance"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/metrics"
	"github.com/sellora/sellora-backend/pkg/outbox"
	"github.com/sellora/sellora-backend/pkg/outbox/idempotency"
	"github.com/sellora/sellora-backend/pkg/pubsub"
	"github.com/sellora/sellora-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	publisher := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	inventoryMetrics := metrics.NewInventoryMetrics(prometheus.DefaultRegisterer)

	inventoryService, err := inventory.NewService(
		inventory.NewRepository(dbClient.DB()),
		dbClient,
		publisher,
		inventoryMetrics,
		logg,
		cfg.Inventory.ReservationTTL,
	)
	requireResource(ctx, logg, "inventory service", err)

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		publisher,
		inventoryService,
		logg,
	)
	requireResource(ctx, logg, "orders service", err)

	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	consumer, err := orderstatus.NewConsumer(ordersService, idempotencyManager, logg)
	requireResource(ctx, logg, "order status consumer", err)

	runner, err := orderstatus.NewRunner(consumer, pubsubClient.OrderStatusSubscription(), logg)
	requireResource(ctx, logg, "order status runner", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})
	logg.Info(runCtx, "worker ready")

	go runExpirySweep(runCtx, cfg, inventoryService, logg)

	if err := runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
