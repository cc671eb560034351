package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cartpulse/order-tracker/internal/config"
	kafkax "github.com/cartpulse/order-tracker/internal/kafka"
	"github.com/cartpulse/order-tracker/internal/logx"
	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/postgres"
	"github.com/cartpulse/order-tracker/internal/redisx"
	"github.com/cartpulse/order-tracker/internal/refresh"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.ServiceName + "-refresher")
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logx.WithLogger(ctx, log)

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalw("db connect", "err", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStepCompleted, 1024)
	prod.Start(ctx)

	rf := &refresh.Refresher{
		Orders:   &orders.OrderRepo{DB: db},
		Redis:    rdb,
		Producer: prod,
		Service:  cfg.ServiceName + "-refresher",
		Batch:    cfg.RefreshBatch,
	}

	go func() {
		log.Infow("refresher started", "interval", cfg.RefreshInterval)
		rf.Run(ctx, cfg.RefreshInterval)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down refresher...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}
