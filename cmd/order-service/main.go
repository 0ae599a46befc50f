package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Stealz-com/order/internal/config"
	"github.com/Stealz-com/order/internal/order/application"
	orderhttp "github.com/Stealz-com/order/internal/order/infrastructure/http"
	"github.com/Stealz-com/order/internal/order/infrastructure/inventory"
	orderkafka "github.com/Stealz-com/order/internal/order/infrastructure/kafka"
	orderpg "github.com/Stealz-com/order/internal/order/infrastructure/postgres"
	"github.com/Stealz-com/order/pkg/breaker"
	"github.com/Stealz-com/order/pkg/idempotency"
	"github.com/Stealz-com/order/pkg/logging"
	"github.com/Stealz-com/order/pkg/metrics"
	"github.com/Stealz-com/order/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	publisher := orderkafka.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	repo := orderpg.NewRepository(log, pool)
	inv := inventory.NewClient(log, cfg.InventoryURL, cfg.InventoryTimeout)
	svc := application.NewService(log, repo, repo, inv, publisher, cfg.NotifyFallbackEmail)

	m := metrics.NewServerMetrics("order_service")
	placeBreaker := breaker.New("inventory", breaker.DefaultConfig(), log, m, func(err error) bool {
		return err == nil || application.IsClientError(err)
	})
	idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	handler := orderhttp.NewHandler(log, svc, placeBreaker, idem, m)

	r := chi.NewRouter()
	r.Use(orderhttp.Instrument(m))
	r.Mount("/api/orders", handler.Routes())
	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("order-service shutdown complete")
}
