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

// InventoryService reserves stock for each created order. It races the payment
// service with no coordination; either may finish first. Reservation always
// succeeds and its simulated latency is shorter than the payment one.
type InventoryService struct {
	broker broker.Broker
	events *publisher.EventPublisher
	delay  time.Duration
	logger *zap.Logger

	stopping atomic.Bool
	inflight sync.WaitGroup
}

func NewInventoryService(b broker.Broker, events *publisher.EventPublisher, delay time.Duration, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		broker: b,
		events: events,
		delay:  delay,
		logger: logger,
	}
}

func (s *InventoryService) Start() error {
	return s.broker.Subscribe(models.TopicOrderCreated, s.handleOrderCreated)
}

func (s *InventoryService) handleOrderCreated(ctx context.Context, body []byte) error {
	if s.stopping.Load() {
		return nil
	}
	s.inflight.Add(1)
	defer s.inflight.Done()

	var event models.OrderCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse OrderCreated: %w", err)
	}

	s.logger.Info("📦 Reserving inventory",
		zap.String("order_id", event.OrderID),
		zap.Int("items", len(event.Items)),
	)

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	reserved := models.InventoryReservedEvent{
		OrderID:       event.OrderID,
		ReservationID: uuid.NewString(),
		Success:       true,
		ReservedAt:    time.Now().UTC(),
	}
	return s.events.PublishInventoryReserved(ctx, reserved)
}

// Stop stops accepting new facts and drains in-flight reservations until ctx
// expires.
func (s *InventoryService) Stop(ctx context.Context) error {
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
