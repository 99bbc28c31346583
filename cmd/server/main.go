package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jpradley/asset-ledger-service/internal/api"
	"github.com/jpradley/asset-ledger-service/internal/config"
	"github.com/jpradley/asset-ledger-service/internal/database"
	"github.com/jpradley/asset-ledger-service/internal/kafka"
	"github.com/jpradley/asset-ledger-service/internal/ledger"
	"github.com/jpradley/asset-ledger-service/internal/prices"
	"github.com/jpradley/asset-ledger-service/internal/scheduler"
	"github.com/jpradley/asset-ledger-service/internal/valuation"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	priceCache := prices.NewCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PriceTTL)
	defer priceCache.Close()
	priceSource := prices.NewSource(db, priceCache, cfg.Backfill.PriceTimeout)

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.LedgerTopic)
		defer producer.Close()
	}

	var publisher ledger.EventPublisher
	if producer != nil {
		publisher = producer
	}
	ledgerSvc := ledger.NewService(db, priceSource, publisher, log)

	backfiller := valuation.NewBackfiller(db, priceSource, cfg.Backfill.Workers, cfg.Backfill.Pacing, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TradesTopic, cfg.Kafka.ConsumerGroup, ledgerSvc, log)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("trade consumer stopped")
			}
		}()
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(log)
		if err := sched.AddJob(cfg.Scheduler.SnapshotCron, scheduler.NewSnapshotJob(backfiller)); err != nil {
			log.Fatal().Err(err).Msg("failed to register snapshot job")
		}
		sched.Start()
		defer sched.Stop()
	}

	handler := api.NewHandler(db, ledgerSvc, backfiller, priceSource)
	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      api.SetupRoutes(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}
