package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/windly-shop/windly/internal/db"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
)

type Repository interface {
	Create(ctx context.Context, q db.Querier, c *Cart) error
	GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Cart, error)
	ListByUser(ctx context.Context, q db.Querier, userID string) ([]Cart, error)
	ListByStatus(ctx context.Context, q db.Querier, status Status) ([]Cart, error)
	UpdateStatus(ctx context.Context, q db.Querier, id uuid.UUID, status Status) error

	GetItem(ctx context.Context, q db.Querier, cartID, productID uuid.UUID) (*Item, error)
	InsertItem(ctx context.Context, q db.Querier, item *Item) error
	UpdateItemQuantity(ctx context.Context, q db.Querier, cartID, productID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, q db.Querier, cartID, productID uuid.UUID) error
	DeleteItems(ctx context.Context, q db.Querier, cartID uuid.UUID) error
	ListDetailedItems(ctx context.Context, q db.Querier, cartID uuid.UUID) ([]DetailedItem, error)
	ItemQuantitySum(ctx context.Context, q db.Querier, cartID uuid.UUID) (int, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

func (r *postgresRepository) Create(ctx context.Context, q db.Querier, c *Cart) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate cart id: %w", err)
		}
		c.ID = id
	}
	if c.Status == "" {
		c.Status = StatusActive
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO carts (id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.Exec(ctx, query, c.ID, c.UserID, c.Status.String(), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert cart: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Cart, error) {
	query := `SELECT id, user_id, status, created_at, updated_at FROM carts WHERE id = $1`

	var c Cart
	err := q.QueryRow(ctx, query, id).Scan(&c.ID, &c.UserID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart %s: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, q db.Querier, userID string) ([]Cart, error) {
	query := `
		SELECT id, user_id, status, created_at, updated_at
		FROM carts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.listCarts(ctx, q, query, userID)
}

func (r *postgresRepository) ListByStatus(ctx context.Context, q db.Querier, status Status) ([]Cart, error) {
	query := `
		SELECT id, user_id, status, created_at, updated_at
		FROM carts
		WHERE status = $1
		ORDER BY updated_at ASC
	`
	return r.listCarts(ctx, q, query, status.String())
}

func (r *postgresRepository) listCarts(ctx context.Context, q db.Querier, query string, arg any) ([]Cart, error) {
	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query carts: %w", err)
	}
	defer rows.Close()

	carts := make([]Cart, 0)
	for rows.Next() {
		var c Cart
		if err := rows.Scan(&c.ID, &c.UserID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart: %w", err)
		}
		carts = append(carts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating carts: %w", err)
	}
	return carts, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, q db.Querier, id uuid.UUID, status Status) error {
	query := `UPDATE carts SET status = $2, updated_at = $3 WHERE id = $1`

	cmdTag, err := q.Exec(ctx, query, id, status.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to update cart %s status: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *postgresRepository) GetItem(ctx context.Context, q db.Querier, cartID, productID uuid.UUID) (*Item, error) {
	query := `
		SELECT cart_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`
	var it Item
	err := q.QueryRow(ctx, query, cartID, productID).Scan(
		&it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart item: %w", err)
	}
	return &it, nil
}

func (r *postgresRepository) InsertItem(ctx context.Context, q db.Querier, item *Item) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.Exec(ctx, query, item.CartID, item.ProductID, item.Quantity, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert cart item: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateItemQuantity(ctx context.Context, q db.Querier, cartID, productID uuid.UUID, qty int) error {
	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = $4
		WHERE cart_id = $1 AND product_id = $2
	`
	cmdTag, err := q.Exec(ctx, query, cartID, productID, qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item quantity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItem is idempotent: deleting an absent line item is not an error.
func (r *postgresRepository) DeleteItem(ctx context.Context, q db.Querier, cartID, productID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteItems(ctx context.Context, q db.Querier, cartID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart items for cart %s: %w", cartID, err)
	}
	return nil
}

func (r *postgresRepository) ListDetailedItems(ctx context.Context, q db.Querier, cartID uuid.UUID) ([]DetailedItem, error) {
	query := `
		SELECT ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
			p.name, p.price, p.discount, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at ASC
	`
	rows, err := q.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items for cart %s: %w", cartID, err)
	}
	defer rows.Close()

	items := make([]DetailedItem, 0)
	for rows.Next() {
		var it DetailedItem
		err := rows.Scan(
			&it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt,
			&it.Name, &it.Price, &it.Discount, &it.Stock,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) ItemQuantitySum(ctx context.Context, q db.Querier, cartID uuid.UUID) (int, error) {
	var sum int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE cart_id = $1`,
		cartID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to sum cart item quantities for cart %s: %w", cartID, err)
	}
	return sum, nil
}
