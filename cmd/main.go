package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	c "github.com/fjod/swiftserve/internal/cache"
	"github.com/fjod/swiftserve/internal/config"
	h "github.com/fjod/swiftserve/internal/http"
	"github.com/fjod/swiftserve/internal/logger"
	"github.com/fjod/swiftserve/internal/publisher"
	"github.com/fjod/swiftserve/internal/repository"
	s "github.com/fjod/swiftserve/internal/service"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := logger.Init(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName, cfg.StoreTimeout)
	if err != nil {
		fatal(log, "failed to connect to MongoDB", err)
	}
	if err := repository.CreateIndexes(ctx, mongoDB); err != nil {
		fatal(log, "failed to create indexes", err)
	}
	log.Info("connected to MongoDB", "database", cfg.MongoDBName)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// Carts are served from MongoDB while Redis is away.
		log.Warn("redis ping failed, cart cache degraded", "addr", cfg.RedisAddr, "error", err)
	}

	outbox := repository.NewOutboxRepository(mongoDB)
	carts := s.NewCartService(repository.NewMongoRepository(mongoDB), c.NewRedisCache(redisClient, cfg.CartCacheTTL))
	bookings := s.NewBookingService(
		repository.NewBookingRepository(mongoDB),
		carts,
		s.NewVendorDirectory(repository.NewVendorRepository(mongoDB)),
		outbox,
	)

	var workers sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(outbox, cfg.BookingEventsTopic, cfg.KafkaBrokers...)
		workers.Add(1)
		go func() {
			defer workers.Done()
			log.Info("outbox poller started", "topic", cfg.BookingEventsTopic, "brokers", cfg.KafkaBrokers)
			poller.Run(ctx)
			if err := poller.Close(); err != nil {
				log.Error("failed to close kafka writer", "error", err)
			}
		}()
	} else {
		log.Warn("KAFKA_BROKERS not set, booking events stay in the outbox")
	}

	router := h.NewRouter(h.Deps{
		Carts:    carts,
		Bookings: bookings,
		Health: func(ctx context.Context) error {
			return mongoDB.Client().Ping(ctx, nil)
		},
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		CORSAllowOrigins:   cfg.CORSAllowOrigins,
		JWTSecret:          cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("swiftserve listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	workers.Wait()
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Error("failed to disconnect from MongoDB", "error", err)
	}

	log.Info("server exited")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
