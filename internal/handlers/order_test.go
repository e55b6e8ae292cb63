package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/broker"
	"github.com/anirudhsingh811/order-choreography/internal/models"
	"github.com/anirudhsingh811/order-choreography/internal/publisher"
)

type fakeStore struct {
	mu     sync.Mutex
	orders []models.Order
}

func (s *fakeStore) Create(order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, *order)
	return nil
}

func (s *fakeStore) GetAll() ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order(nil), s.orders...), nil
}

func (s *fakeStore) GetByID(id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

type testEnv struct {
	router  *gin.Engine
	store   *fakeStore
	bus     *broker.InMemory
	created chan models.OrderCreatedEvent
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := broker.NewInMemory()
	t.Cleanup(func() { bus.Close() })

	created := make(chan models.OrderCreatedEvent, 8)
	require.NoError(t, bus.Subscribe(models.TopicOrderCreated, func(_ context.Context, body []byte) error {
		var ev models.OrderCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return err
		}
		created <- ev
		return nil
	}))

	store := &fakeStore{}
	pub := publisher.NewEventPublisher(bus, zap.NewNop())
	h := NewOrderHandler(store, pub, zap.NewNop())

	router := gin.New()
	router.GET("/health", h.HealthCheck)
	router.GET("/orders", h.ListOrders)
	router.GET("/orders/:id", h.GetOrder)
	router.POST("/orders", h.CreateOrder)

	return &testEnv{router: router, store: store, bus: bus, created: created}
}

func (e *testEnv) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, `{"customer_id":"cust-1","items":[{"product_id":"p1","quantity":2,"price":10.00}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.CreateOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Order created successfully", resp.Message)

	orderID, err := uuid.Parse(resp.OrderID)
	require.NoError(t, err, "orderId must be a well-formed UUID")

	select {
	case ev := <-env.created:
		assert.Equal(t, orderID.String(), ev.OrderID)
		assert.Equal(t, "cust-1", ev.CustomerID)
		assert.True(t, ev.TotalAmount.Equal(decimal.RequireFromString("20.00")),
			"totalAmount must equal quantity × price exactly, got %s", ev.TotalAmount)
		require.Len(t, ev.Items, 1)
		assert.Equal(t, "p1", ev.Items[0].ProductID)
	case <-time.After(time.Second):
		t.Fatal("no OrderCreated published")
	}

	stored, err := env.store.GetByID(orderID.String())
	require.NoError(t, err)
	require.NotNil(t, stored, "accepted order must be stored")
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("20.00")))
}

func TestCreateOrderExactTotal(t *testing.T) {
	env := newTestEnv(t)

	// 3 × 0.10 + 1 × 19.99 — drift-prone under float64.
	w := env.post(t, `{"customer_id":"cust-2","items":[
		{"product_id":"p1","quantity":3,"price":0.10},
		{"product_id":"p2","quantity":1,"price":19.99}
	]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	select {
	case ev := <-env.created:
		assert.True(t, ev.TotalAmount.Equal(decimal.RequireFromString("20.29")),
			"got %s", ev.TotalAmount)
	case <-time.After(time.Second):
		t.Fatal("no OrderCreated published")
	}
}

func TestCreateOrderUniqueIDs(t *testing.T) {
	env := newTestEnv(t)

	body := `{"customer_id":"cust-1","items":[{"product_id":"p1","quantity":1,"price":5.00}]}`
	var ids []string
	for i := 0; i < 3; i++ {
		w := env.post(t, body)
		require.Equal(t, http.StatusCreated, w.Code)
		var resp models.CreateOrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		ids = append(ids, resp.OrderID)
	}

	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
	assert.NotEqual(t, ids[0], ids[2])
}

func TestCreateOrderEmptyItemsRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, `{"customer_id":"cust-1","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	select {
	case ev := <-env.created:
		t.Fatalf("no fact must be published for a rejected request, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	orders, err := env.store.GetAll()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderInvalidItemsRejected(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]string{
		"missing items":      `{"customer_id":"cust-1"}`,
		"zero quantity":      `{"customer_id":"cust-1","items":[{"product_id":"p1","quantity":0,"price":1.00}]}`,
		"negative quantity":  `{"customer_id":"cust-1","items":[{"product_id":"p1","quantity":-1,"price":1.00}]}`,
		"negative price":     `{"customer_id":"cust-1","items":[{"product_id":"p1","quantity":1,"price":-0.01}]}`,
		"missing product id": `{"customer_id":"cust-1","items":[{"quantity":1,"price":1.00}]}`,
		"missing customer":   `{"items":[{"product_id":"p1","quantity":1,"price":1.00}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.post(t, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	select {
	case ev := <-env.created:
		t.Fatalf("no fact must be published for rejected requests, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGetOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, `{"customer_id":"cust-1","items":[{"product_id":"p1","quantity":2,"price":10.00}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.CreateOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+resp.OrderID, nil)
	get := httptest.NewRecorder()
	env.router.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &order))
	assert.Equal(t, resp.OrderID, order.ID)
}

func TestGetOrderNotFound(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderInvalidID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
