// Package publisher owns the producing side of the pipeline's protocol: which
// event goes to which topic, and how it is encoded on the wire.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/broker"
	"github.com/anirudhsingh811/order-choreography/internal/models"
)

type EventPublisher struct {
	broker broker.Broker
	logger *zap.Logger
}

func NewEventPublisher(b broker.Broker, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{broker: b, logger: logger}
}

// PublishOrderCreated puts an OrderCreated fact on orders/created.
func (p *EventPublisher) PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error {
	if err := p.publish(ctx, models.TopicOrderCreated, event); err != nil {
		return err
	}
	p.logger.Info("📤 Published OrderCreated",
		zap.String("order_id", event.OrderID),
		zap.String("total", event.TotalAmount.String()),
	)
	return nil
}

// PublishPaymentProcessed puts a PaymentProcessed fact on payments/processed.
func (p *EventPublisher) PublishPaymentProcessed(ctx context.Context, event models.PaymentProcessedEvent) error {
	if err := p.publish(ctx, models.TopicPaymentProcessed, event); err != nil {
		return err
	}
	p.logger.Info("📤 Published PaymentProcessed",
		zap.String("order_id", event.OrderID),
		zap.String("payment_id", event.PaymentID),
		zap.Bool("success", event.Success),
	)
	return nil
}

// PublishInventoryReserved puts an InventoryReserved fact on inventory/reserved.
func (p *EventPublisher) PublishInventoryReserved(ctx context.Context, event models.InventoryReservedEvent) error {
	if err := p.publish(ctx, models.TopicInventoryReserved, event); err != nil {
		return err
	}
	p.logger.Info("📤 Published InventoryReserved",
		zap.String("order_id", event.OrderID),
		zap.String("reservation_id", event.ReservationID),
		zap.Bool("success", event.Success),
	)
	return nil
}

func (p *EventPublisher) publish(ctx context.Context, topic string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.broker.Publish(ctx, topic, body)
}
