package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cartpulse/order-tracker/internal/config"
	"github.com/cartpulse/order-tracker/internal/httpx"
	"github.com/cartpulse/order-tracker/internal/ingest"
	kafkax "github.com/cartpulse/order-tracker/internal/kafka"
	"github.com/cartpulse/order-tracker/internal/logx"
	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/postgres"
	"github.com/cartpulse/order-tracker/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.ServiceName)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalw("db connect", "err", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderIngested, 1024)
	prod.Start(ctx)

	// Repos & handlers
	productRepo := &orders.ProductRepo{DB: db}
	orderRepo := &orders.OrderRepo{DB: db}

	router := httpx.NewRouter(log)
	(&httpx.ProductsHandler{
		Repo:           productRepo,
		WebhookBaseURL: cfg.WebhookBaseURL,
	}).Register(router)
	(&httpx.WebhookHandler{
		Ingestor: &ingest.Ingestor{
			Products: productRepo,
			Orders:   orderRepo,
			Idem:     redisx.IdemCache{RDB: rdb},
		},
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}).Register(router)
	(&httpx.OrdersHandler{
		Repo:  orderRepo,
		Redis: rdb,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Infow("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("listen", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop intake, flush buffered events
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
