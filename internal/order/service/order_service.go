package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Podzilla/order/internal/domain"
	apperrors "github.com/Podzilla/order/internal/errors"
)

// OrderRepository is the store contract the lifecycle manager requires. All
// operations are atomic per order record; Update and UpdateStatus are
// compare-and-sets on the previously read status and report a lost race as
// a conflict.
type OrderRepository interface {
	Insert(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id uint) (*domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	FindLatestByUserID(ctx context.Context, userID uint) (*domain.Order, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uint, fromStatus, toStatus string, updatedAt time.Time) error
	DeleteByID(ctx context.Context, id uint) error
}

// OrderService owns every business rule for mutating an order: input
// validation, the status transition table, checkout preconditions, and the
// merge semantics of the generic update. It is the sole writer of order
// state.
type OrderService struct {
	orders OrderRepository
	logger *zap.Logger
}

func NewOrderService(orders OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: logger,
	}
}

// OrderDraft is the caller-supplied input for creating an order.
type OrderDraft struct {
	UserID      uint
	TotalAmount float64
	Items       []domain.OrderItem
}

func (s *OrderService) CreateOrder(ctx context.Context, draft OrderDraft) (*domain.Order, error) {
	if err := validateDraft(draft.UserID, draft.TotalAmount, draft.Items, true); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		UserID:      draft.UserID,
		TotalAmount: draft.TotalAmount,
		Status:      domain.OrderStatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       draft.Items,
	}

	created, err := s.orders.Insert(ctx, order)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Uint("orderId", created.ID),
		zap.Uint("userId", created.UserID),
		zap.Int("itemCount", len(created.Items)),
	)

	return created, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.FindAll(ctx)
}

// GetOrderByUser returns the user's most recently updated order.
func (s *OrderService) GetOrderByUser(ctx context.Context, userID uint) (*domain.Order, error) {
	return s.orders.FindLatestByUserID(ctx, userID)
}

// OrderPatch is the complete desired post-update state of an order's
// informational fields. Identity fields (id, userId, createdAt) are never
// merged; a status differing from the stored one is rejected, status changes
// go through UpdateOrderStatus only.
type OrderPatch struct {
	TotalAmount float64
	Status      string
	Items       []domain.OrderItem
}

func (s *OrderService) UpdateOrder(ctx context.Context, id uint, patch OrderPatch) (*domain.Order, error) {
	if err := validateDraft(0, patch.TotalAmount, patch.Items, false); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if domain.IsTerminalStatus(order.Status) {
		return nil, apperrors.NewInvalidActionError(
			fmt.Sprintf("order %d is in terminal status %s", order.ID, order.Status),
		)
	}

	if patch.Status != "" && patch.Status != order.Status {
		return nil, apperrors.NewInvalidActionError(
			fmt.Sprintf("order status cannot be changed through update, use the status endpoint (current: %s)", order.Status),
		)
	}

	order.TotalAmount = patch.TotalAmount
	order.Items = patch.Items
	order.UpdatedAt = time.Now().UTC()

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			s.logger.Warn("order update race lost",
				zap.Uint("orderId", order.ID),
				zap.String("status", order.Status),
			)
		}
		return nil, err
	}

	s.logger.Info("order updated", zap.Uint("orderId", updated.ID))

	return updated, nil
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, newStatus string) (*domain.Order, error) {
	if !domain.IsValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("invalid order status", apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of %v", domain.OrderStatuses()),
		})
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, order, newStatus)
}

func (s *OrderService) CancelOrder(ctx context.Context, id uint) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, order, domain.OrderStatusCancelled)
}

// CheckoutOrder transitions the order to CHECKED_OUT. An order without items
// or with a zero total cannot be checked out.
func (s *OrderService) CheckoutOrder(ctx context.Context, id uint) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(order.Items) == 0 {
		return nil, apperrors.NewInvalidActionError(fmt.Sprintf("order %d has no items to check out", id))
	}
	if order.TotalAmount <= 0 {
		return nil, apperrors.NewInvalidActionError(fmt.Sprintf("order %d has no amount to check out", id))
	}

	return s.transition(ctx, order, domain.OrderStatusCheckedOut)
}

func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	exists, err := s.orders.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	if err := s.orders.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.logger.Info("order deleted", zap.Uint("orderId", id))

	return nil
}

// transition applies newStatus after checking the transition table. The store
// write is guarded by the status the order was read with, so two racing
// mutually exclusive transitions cannot both succeed.
func (s *OrderService) transition(ctx context.Context, order *domain.Order, newStatus string) (*domain.Order, error) {
	if domain.IsTerminalStatus(order.Status) {
		return nil, apperrors.NewInvalidActionError(
			fmt.Sprintf("order %d is in terminal status %s", order.ID, order.Status),
		)
	}
	if !domain.CanTransition(order.Status, newStatus) {
		return nil, apperrors.NewInvalidActionError(
			fmt.Sprintf("order %d cannot transition from %s to %s", order.ID, order.Status, newStatus),
		)
	}

	updatedAt := time.Now().UTC()
	if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, newStatus, updatedAt); err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			exists, exErr := s.orders.ExistsByID(ctx, order.ID)
			if exErr == nil && !exists {
				return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", order.ID))
			}
			s.logger.Warn("order status race lost",
				zap.Uint("orderId", order.ID),
				zap.String("fromStatus", order.Status),
				zap.String("toStatus", newStatus),
			)
		}
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.Uint("orderId", order.ID),
		zap.String("fromStatus", order.Status),
		zap.String("toStatus", newStatus),
	)

	order.Status = newStatus
	order.UpdatedAt = updatedAt

	return order, nil
}

// validateDraft checks the caller-supplied fields shared by create and
// update. requireUser is false for updates, where userId is immutable and
// ignored.
func validateDraft(userID uint, totalAmount float64, items []domain.OrderItem, requireUser bool) error {
	var details []apperrors.ValidationDetail

	if requireUser && userID == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "userId",
			Message: "userId is required",
		})
	}

	if totalAmount < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "totalAmount",
			Message: "totalAmount must be non-negative",
		})
	}

	for idx, item := range items {
		if item.ProductID <= 0 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].productId",
				Message: "productId must be a positive integer",
			})
		}
		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].quantity",
				Message: "quantity must be at least 1",
			})
		}
		if item.Price < 0 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].price",
				Message: "price must be non-negative",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}
