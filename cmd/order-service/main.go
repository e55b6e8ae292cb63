package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/broker"
	"github.com/anirudhsingh811/order-choreography/internal/cache"
	"github.com/anirudhsingh811/order-choreography/internal/config"
	"github.com/anirudhsingh811/order-choreography/internal/db"
	"github.com/anirudhsingh811/order-choreography/internal/discovery"
	"github.com/anirudhsingh811/order-choreography/internal/handlers"
	"github.com/anirudhsingh811/order-choreography/internal/logging"
	"github.com/anirudhsingh811/order-choreography/internal/publisher"
)

const (
	serviceName = "order-service"
	serviceID   = "order-service-1"
)

func main() {
	cfg := config.MustLoad[config.OrderService]()

	logger, err := logging.NewLogger(cfg.Env, serviceName)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(
		cfg.Postgres.Host, cfg.Postgres.Port,
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	// Connect to Redis
	redisCache, err := cache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.TTL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	// Connect to the message broker
	bus, err := broker.DialAMQP(cfg.Broker.Host, cfg.Broker.Port, cfg.Broker.User, cfg.Broker.Password, logger)
	if err != nil {
		logger.Fatal("Failed to connect to broker", zap.Error(err))
	}
	defer bus.Close()

	// Register with Consul when configured
	var consul *discovery.ConsulClient
	if cfg.Consul.Host != "" {
		consul, err = discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port, logger)
		if err != nil {
			logger.Warn("⚠️ Failed to connect to Consul, continuing without registration", zap.Error(err))
			consul = nil
		} else {
			err = consul.Register(discovery.ServiceConfig{
				Name: serviceName,
				ID:   serviceID,
				Port: cfg.HTTPPort,
				Tags: []string{"api", "orders"},
			})
			if err != nil {
				logger.Fatal("Failed to register service", zap.Error(err))
			}
		}
	}

	// Wire repository → publisher → handler
	orderRepo := db.NewOrderRepository(database)
	cachedRepo := db.NewCachedOrderRepository(orderRepo, redisCache, logger)
	events := publisher.NewEventPublisher(bus, logger)
	orderHandler := handlers.NewOrderHandler(cachedRepo, events, logger)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.GET("/health", orderHandler.HealthCheck)
	router.GET("/orders", orderHandler.ListOrders)
	router.GET("/orders/:id", orderHandler.GetOrder)
	router.POST("/orders", orderHandler.CreateOrder)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		logger.Info("🚀 Order service starting", zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if consul != nil {
		if err := consul.Deregister(serviceID); err != nil {
			logger.Warn("⚠️ Failed to deregister", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("⚠️ HTTP shutdown did not finish cleanly", zap.Error(err))
	}
}
