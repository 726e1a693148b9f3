package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Podzilla/order/internal/domain"
	"github.com/Podzilla/order/internal/errors"
)

// MySQLOrderRepository is the durable store for Order aggregates. Writes that
// touch both the order row and its items run inside a single transaction so
// every operation is atomic per order record.
type MySQLOrderRepository struct {
	db    *sql.DB
	items *MySQLOrderItemRepository
}

func NewMySQLOrderRepository(db *sql.DB, items *MySQLOrderItemRepository) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db, items: items}
}

func (r *MySQLOrderRepository) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO Orders (userId, totalAmount, status, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		order.UserID, order.TotalAmount, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting last insert id: %w", err)
	}
	order.ID = uint(lastInsertID)

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		itemID, err := r.items.Insert(ctx, tx, order.Items[i])
		if err != nil {
			return nil, err
		}
		order.Items[i].ID = itemID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order insert: %w", err)
	}

	return order, nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	query := `
		SELECT id, userId, totalAmount, status, createdAt, updatedAt
		FROM Orders
		WHERE id = ?
	`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
		&order.CreatedAt, &order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	items, err := r.items.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *MySQLOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	query := `
		SELECT id, userId, totalAmount, status, createdAt, updatedAt
		FROM Orders
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
			&order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	for i := range orders {
		items, err := r.items.FindByOrderID(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// FindLatestByUserID returns the user's most recently updated order. A user
// may own several orders; the by-user lookup deliberately surfaces one,
// ordered by updatedAt with id as tie-breaker.
func (r *MySQLOrderRepository) FindLatestByUserID(ctx context.Context, userID uint) (*domain.Order, error) {
	query := `
		SELECT id, userId, totalAmount, status, createdAt, updatedAt
		FROM Orders
		WHERE userId = ?
		ORDER BY updatedAt DESC, id DESC
		LIMIT 1
	`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
		&order.CreatedAt, &order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no order found for user %d", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by user id: %w", err)
	}

	items, err := r.items.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *MySQLOrderRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM Orders WHERE id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking order existence: %w", err)
	}

	return exists, nil
}

// Update rewrites the order row and replaces its item set in one transaction.
// The write never touches the status column and is guarded by the status the
// order was read with, so a status transition landing in between surfaces as
// a conflict instead of being overwritten.
func (r *MySQLOrderRepository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE Orders SET totalAmount = ?, updatedAt = ? WHERE id = ? AND status = ?`

	result, err := tx.ExecContext(ctx, query, order.TotalAmount, order.UpdatedAt, order.ID, order.Status)
	if err != nil {
		return nil, fmt.Errorf("updating order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM Orders WHERE id = ?)`, order.ID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("checking order existence: %w", err)
		}
		if !exists {
			return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", order.ID))
		}
		return nil, errors.NewConflictError(fmt.Sprintf("order %d was modified concurrently", order.ID))
	}

	if err := r.items.DeleteByOrderID(ctx, tx, order.ID); err != nil {
		return nil, err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		itemID, err := r.items.Insert(ctx, tx, order.Items[i])
		if err != nil {
			return nil, err
		}
		order.Items[i].ID = itemID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order update: %w", err)
	}

	return order, nil
}

// UpdateStatus applies a status change only if the row still carries
// fromStatus. Zero rows affected means the order was mutated or deleted
// concurrently and surfaces as a conflict.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id uint, fromStatus, toStatus string, updatedAt time.Time) error {
	query := `UPDATE Orders SET status = ?, updatedAt = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, toStatus, updatedAt, id, fromStatus)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewConflictError(fmt.Sprintf("order %d was modified concurrently", id))
	}

	return nil
}

// DeleteByID removes the order and cascades to its items.
func (r *MySQLOrderRepository) DeleteByID(ctx context.Context, id uint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.items.DeleteByOrderID(ctx, tx, id); err != nil {
		return err
	}

	query := `DELETE FROM Orders WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	return tx.Commit()
}
