// Package service holds the event-driven workers of the pipeline. Each worker
// reacts to facts arriving on the broker, constructs new facts, and never
// mutates what it received. Workers keep no shared mutable state between
// handler invocations; any number of orders may be in flight at once.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/broker"
	"github.com/anirudhsingh811/order-choreography/internal/models"
	"github.com/anirudhsingh811/order-choreography/internal/publisher"
)

// PaymentService charges each created order. The payment gateway is simulated
// by a configured delay; the charge itself always succeeds.
type PaymentService struct {
	broker broker.Broker
	events *publisher.EventPublisher
	delay  time.Duration
	logger *zap.Logger

	stopping atomic.Bool
	inflight sync.WaitGroup
}

func NewPaymentService(b broker.Broker, events *publisher.EventPublisher, delay time.Duration, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		broker: b,
		events: events,
		delay:  delay,
		logger: logger,
	}
}

// Start subscribes to orders/created. Handling happens asynchronously; Start
// returns immediately.
func (s *PaymentService) Start() error {
	return s.broker.Subscribe(models.TopicOrderCreated, s.handleOrderCreated)
}

func (s *PaymentService) handleOrderCreated(ctx context.Context, body []byte) error {
	if s.stopping.Load() {
		return nil
	}
	s.inflight.Add(1)
	defer s.inflight.Done()

	var event models.OrderCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse OrderCreated: %w", err)
	}

	s.logger.Info("💳 Processing payment",
		zap.String("order_id", event.OrderID),
		zap.String("amount", event.TotalAmount.String()),
	)

	// Stand-in for payment-gateway latency. Interrupted only by shutdown.
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	processed := models.PaymentProcessedEvent{
		OrderID:     event.OrderID,
		PaymentID:   uuid.NewString(),
		Amount:      event.TotalAmount,
		Success:     true,
		ProcessedAt: time.Now().UTC(),
	}
	return s.events.PublishPaymentProcessed(ctx, processed)
}

// Stop stops accepting new facts and waits for in-flight payments until ctx
// expires; whatever is still running then is abandoned, matching the broker's
// own disconnect semantics.
func (s *PaymentService) Stop(ctx context.Context) error {
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
