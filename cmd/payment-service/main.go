package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/broker"
	"github.com/anirudhsingh811/order-choreography/internal/config"
	"github.com/anirudhsingh811/order-choreography/internal/logging"
	"github.com/anirudhsingh811/order-choreography/internal/publisher"
	"github.com/anirudhsingh811/order-choreography/internal/service"
)

const serviceName = "payment-service"

func main() {
	cfg := config.MustLoad[config.PaymentService]()

	logger, err := logging.NewLogger(cfg.Env, serviceName)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	bus, err := broker.DialAMQP(cfg.Broker.Host, cfg.Broker.Port, cfg.Broker.User, cfg.Broker.Password, logger)
	if err != nil {
		logger.Fatal("Failed to connect to broker", zap.Error(err))
	}
	defer bus.Close()

	events := publisher.NewEventPublisher(bus, logger)
	payments := service.NewPaymentService(bus, events, cfg.ProcessingDelay, logger)

	if err := payments.Start(); err != nil {
		logger.Fatal("Failed to subscribe", zap.Error(err))
	}

	logger.Info("🚀 Payment service running",
		zap.Duration("processing_delay", cfg.ProcessingDelay),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := payments.Stop(ctx); err != nil {
		logger.Warn("⚠️ Abandoning in-flight payments", zap.Error(err))
	}
}
