package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"laundry/internal/carts"
	"laundry/internal/config"
	"laundry/internal/database"
	"laundry/internal/handlers"
	"laundry/internal/lock"
	"laundry/internal/logging"
	"laundry/internal/metrics"
	"laundry/internal/notify"
	"laundry/internal/orders"
	"laundry/internal/store"
	"laundry/internal/voucher"
)

func main() {
	config.Load()
	cfg := config.AppEnv
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.DBName)
	logger.Info("MongoDB connected", zap.String("db", db.Name()))

	if err := database.EnsureIndexes(ctx, db, logger); err != nil {
		logger.Warn("index bootstrap incomplete", zap.Error(err))
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		locker = lock.NewRedis(rdb, "laundry:lock:", cfg.LockTTL(), logger)
		logger.Info("redis cart lock enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.LockTTL()))
	}

	m := metrics.NewWithRuntime()
	st := store.New(db, cfg.RequestTimeout)
	dispatcher := notify.NewDispatcher(st, st, time.Now, m, logger)

	orderSvc, err := orders.New(orders.Deps{
		Orders:   st,
		Vouchers: st,
		Carts:    st,
		Catalog:  st,
		Notifier: dispatcher,
		Locker:   locker,
		Window:   orders.DefaultWindow(cfg.BusinessUTCOffset),
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("order service init failed", zap.Error(err))
	}

	services := handlers.Services{
		Orders:        orderSvc,
		Carts:         carts.NewService(st, st, locker, time.Now),
		Vouchers:      voucher.NewService(st, st, st, dispatcher, time.Now, logger),
		Notifications: dispatcher,
	}

	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger))
	if cfg.PaymentCallbackKey == "" {
		logger.Warn("PAYMENT_CALLBACK_KEY is unset; gateway callbacks will be refused")
	}
	handlers.Register(r, services, handlers.RouteOptions{
		JWTSecret:      cfg.JWTSecret,
		CallbackKey:    cfg.PaymentCallbackKey,
		BusinessOffset: cfg.BusinessUTCOffset,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
		Metrics: m.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
}
