package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Podzilla/order/internal/domain"
	"github.com/Podzilla/order/internal/dto"
	apperrors "github.com/Podzilla/order/internal/errors"
	"github.com/Podzilla/order/internal/order/service"
)

type mockOrderService struct {
	CreateOrderFunc       func(ctx context.Context, draft service.OrderDraft) (*domain.Order, error)
	GetOrderFunc          func(ctx context.Context, id uint) (*domain.Order, error)
	ListOrdersFunc        func(ctx context.Context) ([]domain.Order, error)
	GetOrderByUserFunc    func(ctx context.Context, userID uint) (*domain.Order, error)
	UpdateOrderFunc       func(ctx context.Context, id uint, patch service.OrderPatch) (*domain.Order, error)
	UpdateOrderStatusFunc func(ctx context.Context, id uint, newStatus string) (*domain.Order, error)
	CancelOrderFunc       func(ctx context.Context, id uint) (*domain.Order, error)
	CheckoutOrderFunc     func(ctx context.Context, id uint) (*domain.Order, error)
	DeleteOrderFunc       func(ctx context.Context, id uint) error
}

func (m *mockOrderService) CreateOrder(ctx context.Context, draft service.OrderDraft) (*domain.Order, error) {
	return m.CreateOrderFunc(ctx, draft)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	return m.GetOrderFunc(ctx, id)
}

func (m *mockOrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.ListOrdersFunc(ctx)
}

func (m *mockOrderService) GetOrderByUser(ctx context.Context, userID uint) (*domain.Order, error) {
	return m.GetOrderByUserFunc(ctx, userID)
}

func (m *mockOrderService) UpdateOrder(ctx context.Context, id uint, patch service.OrderPatch) (*domain.Order, error) {
	return m.UpdateOrderFunc(ctx, id, patch)
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, id uint, newStatus string) (*domain.Order, error) {
	return m.UpdateOrderStatusFunc(ctx, id, newStatus)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, id uint) (*domain.Order, error) {
	return m.CancelOrderFunc(ctx, id)
}

func (m *mockOrderService) CheckoutOrder(ctx context.Context, id uint) (*domain.Order, error) {
	return m.CheckoutOrderFunc(ctx, id)
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, id uint) error {
	return m.DeleteOrderFunc(ctx, id)
}

func newTestRouter(svc OrderService) http.Handler {
	ctrl := NewOrderController(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", ctrl.CreateOrder)
		r.Get("/", ctrl.ListOrders)
		r.Get("/{id}", ctrl.GetOrder)
		r.Put("/{id}", ctrl.UpdateOrder)
		r.Delete("/{id}", ctrl.DeleteOrder)
		r.Get("/user/{userId}", ctrl.GetOrderByUser)
		r.Put("/cancel/{id}", ctrl.CancelOrder)
		r.Put("/status/{id}", ctrl.UpdateOrderStatus)
		r.Put("/checkout/{id}", ctrl.CheckoutOrder)
	})
	return r
}

func TestCreateOrder_Created(t *testing.T) {
	svc := &mockOrderService{
		CreateOrderFunc: func(ctx context.Context, draft service.OrderDraft) (*domain.Order, error) {
			return &domain.Order{
				ID:          1,
				UserID:      draft.UserID,
				TotalAmount: draft.TotalAmount,
				Status:      domain.OrderStatusCreated,
				Items:       draft.Items,
			}, nil
		},
	}

	body := `{"userId": 42, "totalAmount": 19.99, "items": [{"productId": 7, "quantity": 1, "price": 19.99}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp dto.OrderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != 1 || resp.UserID != 42 || resp.Status != domain.OrderStatusCreated {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	svc := &mockOrderService{}

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp dto.ValidationErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Code != "VALIDATION_ERROR" {
		t.Errorf("expected code VALIDATION_ERROR, got %s", resp.Code)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	svc := &mockOrderService{
		GetOrderFunc: func(ctx context.Context, id uint) (*domain.Order, error) {
			return nil, apperrors.NewNotFoundError("order with id 999 not found")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/orders/999", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Code != "NOT_FOUND" {
		t.Errorf("expected code NOT_FOUND, got %s", resp.Code)
	}
	if resp.TraceID == "" {
		t.Errorf("expected traceId in error response")
	}
}

func TestGetOrder_InvalidID(t *testing.T) {
	svc := &mockOrderService{}

	req := httptest.NewRequest(http.MethodGet, "/orders/abc", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCancelOrder_InvalidAction(t *testing.T) {
	svc := &mockOrderService{
		CancelOrderFunc: func(ctx context.Context, id uint) (*domain.Order, error) {
			return nil, apperrors.NewInvalidActionError("order 1 is in terminal status CHECKED_OUT")
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/orders/cancel/1", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Code != "INVALID_ACTION" {
		t.Errorf("expected code INVALID_ACTION, got %s", resp.Code)
	}
}

func TestUpdateOrderStatus_Conflict(t *testing.T) {
	svc := &mockOrderService{
		UpdateOrderStatusFunc: func(ctx context.Context, id uint, newStatus string) (*domain.Order, error) {
			return nil, apperrors.NewConflictError("order 1 was modified concurrently")
		},
	}

	body := `{"status": "CANCELLED"}`
	req := httptest.NewRequest(http.MethodPut, "/orders/status/1", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestUpdateOrderStatus_PassesStatusThrough(t *testing.T) {
	var gotStatus string
	svc := &mockOrderService{
		UpdateOrderStatusFunc: func(ctx context.Context, id uint, newStatus string) (*domain.Order, error) {
			gotStatus = newStatus
			return &domain.Order{ID: id, Status: newStatus}, nil
		},
	}

	body := `{"status": "CONFIRMED"}`
	req := httptest.NewRequest(http.MethodPut, "/orders/status/1", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotStatus != domain.OrderStatusConfirmed {
		t.Errorf("expected CONFIRMED passed to service, got %s", gotStatus)
	}
}

func TestDeleteOrder_NoContent(t *testing.T) {
	svc := &mockOrderService{
		DeleteOrderFunc: func(ctx context.Context, id uint) error {
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/orders/1", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestCheckoutOrder_OK(t *testing.T) {
	svc := &mockOrderService{
		CheckoutOrderFunc: func(ctx context.Context, id uint) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusCheckedOut}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/orders/checkout/1", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.OrderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != domain.OrderStatusCheckedOut {
		t.Errorf("expected status CHECKED_OUT, got %s", resp.Status)
	}
}

func TestGetOrderByUser_OK(t *testing.T) {
	svc := &mockOrderService{
		GetOrderByUserFunc: func(ctx context.Context, userID uint) (*domain.Order, error) {
			return &domain.Order{ID: 3, UserID: userID, Status: domain.OrderStatusCreated}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/orders/user/42", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.OrderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.UserID != 42 {
		t.Errorf("expected userId 42, got %d", resp.UserID)
	}
}

func TestUpdateOrder_ValidationErrorFromService(t *testing.T) {
	svc := &mockOrderService{
		UpdateOrderFunc: func(ctx context.Context, id uint, patch service.OrderPatch) (*domain.Order, error) {
			return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
				Field:   "totalAmount",
				Message: "totalAmount must be non-negative",
			})
		},
	}

	body := `{"totalAmount": -5}`
	req := httptest.NewRequest(http.MethodPut, "/orders/1", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp dto.ValidationErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Details) != 1 || resp.Details[0].Field != "totalAmount" {
		t.Errorf("unexpected details: %+v", resp.Details)
	}
}

func TestInternalError_Opaque(t *testing.T) {
	svc := &mockOrderService{
		ListOrdersFunc: func(ctx context.Context) ([]domain.Order, error) {
			return nil, apperrors.NewInternalError("querying orders", context.DeadlineExceeded)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message != "an unexpected error occurred" {
		t.Errorf("internal detail leaked to caller: %q", resp.Message)
	}
}
