package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/models"
	"github.com/anirudhsingh811/order-choreography/internal/publisher"
)

// OrderStore is what the handler needs from storage. OrderRepository and
// CachedOrderRepository both satisfy it.
type OrderStore interface {
	Create(order *models.Order) error
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
}

type OrderHandler struct {
	store     OrderStore
	publisher *publisher.EventPublisher
	logger    *zap.Logger
}

func NewOrderHandler(store OrderStore, pub *publisher.EventPublisher, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		store:     store,
		publisher: pub,
		logger:    logger,
	}
}

// HealthCheck returns server status.
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
}

// ListOrders returns all accepted orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.store.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order with items.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder accepts a new order, stores it and publishes OrderCreated. The
// response does not wait for anything downstream of the publish.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order := models.Order{
		ID:         uuid.NewString(),
		CustomerID: req.CustomerID,
		CreatedAt:  time.Now().UTC(),
	}

	for _, item := range req.Items {
		if item.Price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item price must not be negative"})
			return
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	order.TotalAmount = order.Total()

	if err := h.store.Create(&order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	event := models.OrderCreatedEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
	if err := h.publisher.PublishOrderCreated(c.Request.Context(), event); err != nil {
		// The order is already accepted and stored; downstream consumers just
		// won't hear about it. Surface the failure in the log, not the response.
		h.logger.Error("⚠️ Failed to publish OrderCreated",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	h.logger.Info("✅ Order created",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.String("total", order.TotalAmount.String()),
	)

	c.JSON(http.StatusCreated, models.CreateOrderResponse{
		OrderID: order.ID,
		Message: "Order created successfully",
	})
}
