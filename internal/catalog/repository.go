package catalog

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
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("out of stock")
)

type Repository interface {
	Create(ctx context.Context, q db.Querier, p *Product) error
	GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Product, error)
	List(ctx context.Context, q db.Querier, filter ListFilter) ([]Product, error)
	Update(ctx context.Context, q db.Querier, p *Product) error
	Delete(ctx context.Context, q db.Querier, id uuid.UUID) error
	DecrementStock(ctx context.Context, q db.Querier, id uuid.UUID, qty int) error
	IncrementStock(ctx context.Context, q db.Querier, id uuid.UUID, qty int) error
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

const productColumns = `id, seller_id, name, description, price, discount, stock,
	category, brand, image_url, colors, sizes, tags, about, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Discount,
		&p.Stock, &p.Category, &p.Brand, &p.ImageURL,
		&p.Colors, &p.Sizes, &p.Tags, &p.About,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) Create(ctx context.Context, q db.Querier, p *Product) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate product id: %w", err)
		}
		p.ID = id
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO products (id, seller_id, name, description, price, discount, stock,
			category, brand, image_url, colors, sizes, tags, about, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := q.Exec(ctx, query,
		p.ID, p.SellerID, p.Name, p.Description, p.Price, p.Discount, p.Stock,
		p.Category, p.Brand, p.ImageURL, p.Colors, p.Sizes, p.Tags, p.About,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresRepository) List(ctx context.Context, q db.Querier, filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}
	return products, nil
}

func (r *postgresRepository) Update(ctx context.Context, q db.Querier, p *Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, discount = $5,
			category = $6, brand = $7, image_url = $8,
			colors = $9, sizes = $10, tags = $11, about = $12,
			updated_at = $13
		WHERE id = $1
	`
	p.UpdatedAt = time.Now().UTC()
	cmdTag, err := q.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Discount,
		p.Category, p.Brand, p.ImageURL, p.Colors, p.Sizes, p.Tags, p.About,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, q db.Querier, id uuid.UUID) error {
	cmdTag, err := q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementStock is the authoritative stock check: the sufficiency condition
// lives in the WHERE clause of the same statement as the relative update, so
// concurrent writers cannot drive stock negative. Advisory checks elsewhere
// (add-to-cart) are plain reads; only this statement decides.
func (r *postgresRepository) DecrementStock(ctx context.Context, q db.Querier, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = $3
		WHERE id = $1 AND stock >= $2
	`
	cmdTag, err := q.Exec(ctx, query, id, qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to decrement stock for product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("repository: failed to check product %s: %w", id, err)
		}
		if !exists {
			return ErrProductNotFound
		}
		return ErrOutOfStock
	}
	return nil
}

func (r *postgresRepository) IncrementStock(ctx context.Context, q db.Querier, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = $3
		WHERE id = $1
	`
	cmdTag, err := q.Exec(ctx, query, id, qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to increment stock for product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
