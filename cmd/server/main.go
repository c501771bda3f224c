package main

import (
	"context"   // context package is needed for Redis operations
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // Signal numbers
	"time"      // Shutdown timeout

	"smart_wallet/internal/account" // Accounts and admin bootstrap
	"smart_wallet/internal/advice"  // Advice collaborator
	"smart_wallet/internal/api"     // Custom package for API handlers
	"smart_wallet/internal/catalog" // Category catalog
	"smart_wallet/internal/config"  // Custom package for configuration
	"smart_wallet/internal/db"      // Database connection and schema
	"smart_wallet/internal/events"  // Change notifications
	"smart_wallet/internal/ledger"  // Balance reconciliation
	"smart_wallet/internal/session" // Session lifecycle
	"smart_wallet/internal/store"   // Storage

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err) // Fatal error on invalid configuration
	}

	// Connect to the database and bring the schema up to date
	conn, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("%v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Change bus: Redis pub/sub for live views, optionally mirrored to a broker
	var bus events.Bus = events.NewRedisBus(redisClient)
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logrus.Fatalf("failed to connect to AMQP broker: %v", err)
		}
		defer amqpPublisher.Close()
		bus = events.Tee(bus, amqpPublisher)
		logrus.WithFields(logrus.Fields{"exchange": cfg.AMQPExchange}).Info("Publishing changes to AMQP")
	}

	st := store.NewGormStore(conn)
	deps := api.Deps{
		Store:    st,
		Accounts: account.NewService(st, bus, account.Credentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword}),
		Ledger:   ledger.NewService(st, bus),
		Catalog:  catalog.NewService(st, bus),
		Sessions: session.NewManager(session.NewRedisStore(redisClient), cfg.IdleTimeout, cfg.JWTSecret),
		Events:   bus,
		Advisor:  advice.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel),
		Redis:    redisClient,
		CacheTTL: cfg.CacheTTL,
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	api.RegisterRoutes(r, deps)

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server forced to shutdown: %v", err)
	}
}
