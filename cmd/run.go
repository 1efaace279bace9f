package cmd

import (
	"context"
	"fmt"
	"time"

	"trooc/api"
	"trooc/config"
	"trooc/database"
	"trooc/events"
	"trooc/repository"
	"trooc/scheduler"
	"trooc/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the settlement service
func Run(ctx context.Context) error {
	cfg := config.Get()

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.Info("Starting settlement service...")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	subscribeEventLogging(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	ledgerService := service.NewLedgerService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory)
	shopService := service.NewShopService(uowFactory)

	auth := api.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL, cfg.AdminEmail, cfg.AdminPasswordHash)
	handlers := api.NewHandlers(auth, ledgerService, settlementService, shopService, cfg.SettlementWindowDays)
	router := api.NewRouter(handlers, cfg.DefaultCommissionRate, cfg.Environment)
	server := api.NewServer(cfg.ListenAddr, router)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	if cfg.SchedulerEnabled {
		var redisClient *redis.Client
		if cfg.RedisURL != "" {
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("invalid REDIS_URL: %w", err)
			}
			redisClient = redis.NewClient(opts)
			defer redisClient.Close()
		}

		client := scheduler.NewClient(cfg.BaseURL, cfg.HTTPTimeout)
		sched := scheduler.NewScheduler(client, redisClient, cfg.SchedulerInterval, cfg.AdminEmail, cfg.SchedulerPassword)
		go sched.Run(ctx)
	}

	log.WithField("environment", cfg.Environment).Info("Settlement service is running")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("Shutdown completed")
	return nil
}

// subscribeEventLogging attaches audit log handlers for settlement events.
func subscribeEventLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBatchCreated, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BatchCreatedEvent); ok {
			log.WithFields(log.Fields{
				"batch_id":     e.BatchID,
				"total_shops":  e.TotalShops,
				"total_amount": e.TotalAmount,
			}).Info("Payment batch created")
		}
	})
	bus.Subscribe(events.EventTypeBatchProcessed, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BatchProcessedEvent); ok {
			log.WithFields(log.Fields{
				"batch_id":        e.BatchID,
				"payment_id":      e.PaymentID,
				"records_updated": e.RecordsUpdated,
			}).Info("Payment batch settled")
		}
	})
	bus.Subscribe(events.EventTypeBatchFailed, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BatchFailedEvent); ok {
			log.WithFields(log.Fields{
				"batch_id": e.BatchID,
				"reason":   e.Reason,
			}).Warn("Payment batch failed")
		}
	})
}
