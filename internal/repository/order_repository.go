package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository persists placed orders. Orders are never updated after Create.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create writes the order row and its item rows in one transaction.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, user_email, created_at) VALUES ($1, $2, $3, $4)`,
		order.ID, order.User.UserID, order.User.Email, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, title, description, price, image_path, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, line := range order.Products {
		_, err = tx.ExecContext(ctx, itemQuery,
			order.ID,
			i,
			line.Product.ID,
			line.Product.Title,
			line.Product.Description,
			line.Product.Price.Decimal(),
			line.Product.ImagePath,
			line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its lines in checkout order.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, user_email, created_at FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.User.UserID, &order.User.Email, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.loadItems(ctx, map[uuid.UUID]*domain.Order{order.ID: order}); err != nil {
		return nil, err
	}

	return order, nil
}

// FindByUser returns the user's orders, newest first.
func (r *orderRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, user_email, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders by user: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	byID := make(map[uuid.UUID]*domain.Order)
	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(&order.ID, &order.User.UserID, &order.User.Email, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		byID[order.ID] = order
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orders map[uuid.UUID]*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for id, order := range orders {
		order.Products = []domain.OrderProduct{}
		ids = append(ids, id)
	}

	args := make([]any, len(ids))
	placeholders := ""
	for i, id := range ids {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `
		SELECT order_id, product_id, title, description, price, image_path, quantity
		FROM order_items
		WHERE order_id IN (` + placeholders + `)
		ORDER BY order_id, position
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			line    domain.OrderProduct
			price   decimal.Decimal
		)
		err := rows.Scan(
			&orderID,
			&line.Product.ID,
			&line.Product.Title,
			&line.Product.Description,
			&price,
			&line.Product.ImagePath,
			&line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		line.Product.Price = domain.MoneyFromDecimal(price)

		if order, ok := orders[orderID]; ok {
			order.Products = append(order.Products, line)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}
