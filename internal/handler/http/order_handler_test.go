package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	handler "github.com/KeeperOfTheLights/best-project-backend/internal/handler/http"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/KeeperOfTheLights/best-project-backend/internal/order"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleOrder(consumerID, supplierID uuid.UUID) *order.Order {
	now := time.Now().UTC()
	productID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	return &order.Order{
		ID:         orderID,
		ConsumerID: consumerID,
		SupplierID: supplierID,
		Status:     order.StatusPending,
		TotalPrice: decimal.NewFromInt(300),
		Items: []order.OrderItem{{
			ID:          uuid.Must(uuid.NewV4()),
			OrderID:     orderID,
			ProductID:   &productID,
			ProductName: "Milk",
			Quantity:    3,
			UnitPrice:   decimal.NewFromInt(100),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderHandler_Checkout_Success(t *testing.T) {
	mockService := new(MockOrderService)
	h := handler.NewOrderHandler(mockService)
	consumer := newUser(identity.RoleConsumer)
	placed := sampleOrder(consumer.ID, uuid.Must(uuid.NewV4()))

	mockService.On("Checkout", mock.Anything, consumer).Return(placed, nil).Once()

	rr := serve(h, &consumer, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	var actualResponse order.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actualResponse))
	assert.Equal(t, placed.ID, actualResponse.ID)
	assert.Equal(t, order.StatusPending, actualResponse.Status)
	assert.True(t, placed.TotalPrice.Equal(actualResponse.TotalPrice), "total mismatch")
	require.Len(t, actualResponse.Items, 1)
	assert.Equal(t, "Milk", actualResponse.Items[0].ProductName)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_Checkout_InsufficientStock(t *testing.T) {
	mockService := new(MockOrderService)
	h := handler.NewOrderHandler(mockService)
	consumer := newUser(identity.RoleConsumer)
	productID := uuid.Must(uuid.NewV4())

	stockErr := &apperr.StockError{ProductID: productID, Requested: 5, Available: 2}
	mockService.On("Checkout", mock.Anything, consumer).
		Return(nil, fmt.Errorf("service: checkout refused: %w", stockErr)).
		Once()

	rr := serve(h, &consumer, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var errorResponse handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
	assert.Equal(t, "insufficient_stock", errorResponse.Code)
	require.NotNil(t, errorResponse.ProductID)
	assert.Equal(t, productID, *errorResponse.ProductID)
	require.NotNil(t, errorResponse.Requested)
	require.NotNil(t, errorResponse.Available)
	assert.Equal(t, 5, *errorResponse.Requested)
	assert.Equal(t, 2, *errorResponse.Available)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_Checkout_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "empty cart",
			err:        apperr.ErrEmptyCart,
			wantStatus: http.StatusBadRequest,
			wantCode:   "empty_cart",
		},
		{
			name:       "not linked",
			err:        fmt.Errorf("%w: consumer is not linked to supplier", apperr.ErrForbidden),
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "retries exhausted",
			err:        fmt.Errorf("%w: %w", apperr.ErrTransient, apperr.ErrConcurrentUpdate),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "transient",
		},
		{
			name:       "database down",
			err:        errors.New("repository: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
			wantError:  "Failed to check out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			h := handler.NewOrderHandler(mockService)
			consumer := newUser(identity.RoleConsumer)
			mockService.On("Checkout", mock.Anything, consumer).Return(nil, tt.err).Once()

			rr := serve(h, &consumer, httptest.NewRequest(http.MethodPost, "/checkout", nil))
			require.Equal(t, tt.wantStatus, rr.Code)

			var errorResponse handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
			assert.Equal(t, tt.wantCode, errorResponse.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, errorResponse.Error, "internal errors must not leak")
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_RequiresPrincipal(t *testing.T) {
	mockService := new(MockOrderService)
	h := handler.NewOrderHandler(mockService)

	rr := serve(h, nil, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	mockService.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
}

func TestOrderHandler_Transitions(t *testing.T) {
	owner := newUser(identity.RoleOwner)
	sales := newUser(identity.RoleSales)
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		path       string
		method     string
		actor      identity.User
		result     *order.Order
		err        error
		wantStatus int
	}{
		{name: "accept", path: "accept", method: "Accept", actor: owner, result: &order.Order{ID: orderID, Status: order.StatusApproved}, wantStatus: http.StatusOK},
		{name: "reject", path: "reject", method: "Reject", actor: owner, result: &order.Order{ID: orderID, Status: order.StatusCancelled}, wantStatus: http.StatusOK},
		{name: "deliver", path: "deliver", method: "Deliver", actor: owner, result: &order.Order{ID: orderID, Status: order.StatusDelivered}, wantStatus: http.StatusOK},
		{name: "sales cannot accept", path: "accept", method: "Accept", actor: sales, err: apperr.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "deliver pending", path: "deliver", method: "Deliver", actor: owner, err: apperr.ErrInvalidState, wantStatus: http.StatusBadRequest},
		{name: "other company", path: "reject", method: "Reject", actor: owner, err: apperr.ErrNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			h := handler.NewOrderHandler(mockService)
			if tt.err != nil {
				mockService.On(tt.method, mock.Anything, tt.actor, orderID).Return(nil, tt.err).Once()
			} else {
				mockService.On(tt.method, mock.Anything, tt.actor, orderID).Return(tt.result, nil).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/"+tt.path, nil)
			rr := serve(h, &tt.actor, req)
			require.Equal(t, tt.wantStatus, rr.Code)

			if tt.result != nil {
				var actualResponse order.Order
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&actualResponse))
				assert.Equal(t, tt.result.Status, actualResponse.Status)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_InvalidOrderID(t *testing.T) {
	mockService := new(MockOrderService)
	h := handler.NewOrderHandler(mockService)
	owner := newUser(identity.RoleOwner)

	rr := serve(h, &owner, httptest.NewRequest(http.MethodPost, "/orders/not-a-uuid/accept", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderHandler_ListOrders_StatusFilter(t *testing.T) {
	mockService := new(MockOrderService)
	h := handler.NewOrderHandler(mockService)
	consumer := newUser(identity.RoleConsumer)
	approved := order.StatusApproved

	mockService.On("List", mock.Anything, consumer, &approved).
		Return([]order.Order{{ID: uuid.Must(uuid.NewV4()), Status: order.StatusApproved}}, nil).
		Once()

	rr := serve(h, &consumer, httptest.NewRequest(http.MethodGet, "/orders?status=approved", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var orders []order.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, order.StatusApproved, orders[0].Status)

	rr = serve(h, &consumer, httptest.NewRequest(http.MethodGet, "/orders?status=shipped", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_Stats(t *testing.T) {
	mockService := new(MockOrderService)
	h := handler.NewOrderHandler(mockService)
	manager := newUser(identity.RoleManager)
	want := &order.Stats{Pending: 2, Delivered: 1, Total: 3, PendingComplaints: 1, LinkedConsumers: 4}

	mockService.On("Stats", mock.Anything, manager).Return(want, nil).Once()

	rr := serve(h, &manager, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got order.Stats
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, *want, got)
	mockService.AssertExpectations(t)
}
