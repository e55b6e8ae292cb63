package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/broker"
	"github.com/anirudhsingh811/order-choreography/internal/models"
	"github.com/anirudhsingh811/order-choreography/internal/publisher"
)

func TestInventoryReservesOrder(t *testing.T) {
	bus := broker.NewInMemory()
	t.Cleanup(func() { bus.Close() })

	reserved := captureEvents[models.InventoryReservedEvent](t, bus, models.TopicInventoryReserved)

	svc := NewInventoryService(bus, publisher.NewEventPublisher(bus, zap.NewNop()), 10*time.Millisecond, zap.NewNop())
	require.NoError(t, svc.Start())

	order := testOrderCreated()
	publishOrderCreated(t, bus, order)

	select {
	case ev := <-reserved:
		assert.Equal(t, order.OrderID, ev.OrderID, "orderId must correlate back to OrderCreated")
		assert.True(t, ev.Success)
		assert.False(t, ev.ReservedAt.IsZero())
		_, err := uuid.Parse(ev.ReservationID)
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("no InventoryReserved published")
	}

	// Exactly one reservation per order.
	select {
	case ev := <-reserved:
		t.Fatalf("unexpected second InventoryReserved: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInventoryDoesNotHearOtherTopics(t *testing.T) {
	bus := broker.NewInMemory()
	t.Cleanup(func() { bus.Close() })

	reserved := captureEvents[models.InventoryReservedEvent](t, bus, models.TopicInventoryReserved)

	svc := NewInventoryService(bus, publisher.NewEventPublisher(bus, zap.NewNop()), time.Millisecond, zap.NewNop())
	require.NoError(t, svc.Start())

	// A payment fact must not trigger a reservation.
	require.NoError(t, bus.Publish(context.Background(), models.TopicPaymentProcessed, []byte(`{"order_id":"x"}`)))

	select {
	case ev := <-reserved:
		t.Fatalf("inventory reacted to a payments/processed message: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInventoryStopDrainsInFlight(t *testing.T) {
	bus := broker.NewInMemory()
	t.Cleanup(func() { bus.Close() })

	reserved := captureEvents[models.InventoryReservedEvent](t, bus, models.TopicInventoryReserved)

	svc := NewInventoryService(bus, publisher.NewEventPublisher(bus, zap.NewNop()), 50*time.Millisecond, zap.NewNop())
	require.NoError(t, svc.Start())

	publishOrderCreated(t, bus, testOrderCreated())
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))

	select {
	case <-reserved:
	case <-time.After(time.Second):
		t.Fatal("drained handler never published its fact")
	}
}
