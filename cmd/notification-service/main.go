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
	"github.com/anirudhsingh811/order-choreography/internal/service"
)

const serviceName = "notification-service"

func main() {
	cfg := config.MustLoad[config.NotificationService]()

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

	sender := service.NewLogSender(logger)
	notifications := service.NewNotificationService(bus, sender, logger)

	if err := notifications.Start(); err != nil {
		logger.Fatal("Failed to subscribe", zap.Error(err))
	}

	logger.Info("🚀 Notification service running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := notifications.Stop(ctx); err != nil {
		logger.Warn("⚠️ Abandoning in-flight notifications", zap.Error(err))
	}
}
