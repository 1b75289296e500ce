package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/config"
	kafkax "github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/kafka"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/logger"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/notify"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/postgres"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel, cfg.NotifierGroup)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Store:   &notify.PgStore{DB: db},
		Dedup:   &notify.RedisDedup{RDB: rdb, Service: cfg.NotifierGroup},
		Sellers: notify.OrderSellers(orders.NewRepo(db)),
		Log:     log.Named("notify"),
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, notify.Topics, cfg.NotifierWorkers, log.Named("consumer"))
	log.Info("seller notifier started",
		zap.String("group", cfg.NotifierGroup),
		zap.Strings("topics", notify.Topics),
		zap.Int("workers", cfg.NotifierWorkers))

	if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
		log.Error("consumer exit", zap.Error(err))
	}
	log.Info("seller notifier stopped")
}
