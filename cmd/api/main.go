package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/config"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/httpx"
	kafkax "github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/kafka"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/logger"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/postgres"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/redisx"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/referral"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("order-api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer, flushed after the HTTP server stops
	prodCtx, stopProd := context.WithCancel(context.Background())
	defer stopProd()
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log.Named("producer"))
	prod.Start(prodCtx)

	svc := &orders.Service{
		Store:     orders.NewRepo(db),
		Referrals: referral.NewService(log.Named("referral")),
		Events:    &kafkax.Publisher{Producer: prod, ServiceName: cfg.ServiceName},
		Cache:     redisx.NewStatusCache(rdb, log.Named("cache")),
		Log:       log.Named("orders"),
	}

	router := httpx.NewRouter(log.Named("http"))
	oh := &httpx.OrdersHandler{
		Service: svc,
		Auth:    &httpx.Authenticator{Secret: []byte(cfg.JWTSecret)},
		Log:     log.Named("http"),
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutCtx)
		prod.Close()
		prod.WaitClosed()
		return err
	})
	return g.Wait()
}

