package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic names. Matching is exact-string; the topic alone selects the decode
// schema, the payload carries no type tag.
const (
	TopicOrderCreated      = "orders/created"
	TopicPaymentProcessed  = "payments/processed"
	TopicInventoryReserved = "inventory/reserved"
)

// OrderCreatedEvent is published by the order service once per accepted order.
// OrderID is the correlation key for every downstream event.
type OrderCreatedEvent struct {
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentProcessedEvent is published by the payment service.
type PaymentProcessedEvent struct {
	OrderID     string          `json:"order_id"`
	PaymentID   string          `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	Success     bool            `json:"success"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// InventoryReservedEvent is published by the inventory service.
type InventoryReservedEvent struct {
	OrderID       string    `json:"order_id"`
	ReservationID string    `json:"reservation_id"`
	Success       bool      `json:"success"`
	ReservedAt    time.Time `json:"reserved_at"`
}
