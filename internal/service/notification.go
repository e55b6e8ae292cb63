package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/broker"
	"github.com/anirudhsingh811/order-choreography/internal/models"
)

// Sender delivers a customer-facing message about an order. The log-based
// implementation stands in for an email or SMS gateway.
type Sender interface {
	Notify(orderID, message string) error
}

type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Notify(orderID, message string) error {
	s.logger.Info("📧 Notification sent",
		zap.String("order_id", orderID),
		zap.String("message", message),
	)
	return nil
}

// NotificationService is the pipeline's terminal consumer: it subscribes to
// all three topics and publishes nothing. Each topic's handler is independent;
// the three facts of one order are never aggregated.
type NotificationService struct {
	broker broker.Broker
	sender Sender
	logger *zap.Logger

	stopping atomic.Bool
	inflight sync.WaitGroup
}

func NewNotificationService(b broker.Broker, sender Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		broker: b,
		sender: sender,
		logger: logger,
	}
}

func (s *NotificationService) Start() error {
	if err := s.broker.Subscribe(models.TopicOrderCreated, s.handleOrderCreated); err != nil {
		return err
	}
	if err := s.broker.Subscribe(models.TopicPaymentProcessed, s.handlePaymentProcessed); err != nil {
		return err
	}
	return s.broker.Subscribe(models.TopicInventoryReserved, s.handleInventoryReserved)
}

func (s *NotificationService) handleOrderCreated(_ context.Context, body []byte) error {
	if s.stopping.Load() {
		return nil
	}
	s.inflight.Add(1)
	defer s.inflight.Done()

	var event models.OrderCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse OrderCreated: %w", err)
	}

	msg := fmt.Sprintf("We received your order for %s.", event.TotalAmount.StringFixed(2))
	return s.sender.Notify(event.OrderID, msg)
}

func (s *NotificationService) handlePaymentProcessed(_ context.Context, body []byte) error {
	if s.stopping.Load() {
		return nil
	}
	s.inflight.Add(1)
	defer s.inflight.Done()

	var event models.PaymentProcessedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse PaymentProcessed: %w", err)
	}

	msg := fmt.Sprintf("Your payment of %s was processed.", event.Amount.StringFixed(2))
	if !event.Success {
		msg = "Your payment could not be processed."
	}
	return s.sender.Notify(event.OrderID, msg)
}

func (s *NotificationService) handleInventoryReserved(_ context.Context, body []byte) error {
	if s.stopping.Load() {
		return nil
	}
	s.inflight.Add(1)
	defer s.inflight.Done()

	var event models.InventoryReservedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse InventoryReserved: %w", err)
	}

	msg := "Your items are reserved."
	if !event.Success {
		msg = "We could not reserve your items."
	}
	return s.sender.Notify(event.OrderID, msg)
}

// Stop stops accepting new facts and drains in-flight notifications until ctx
// expires.
func (s *NotificationService) Stop(ctx context.Context) error {
	s.stopping.Store(true)

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
