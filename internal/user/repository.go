package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/windly-shop/windly/internal/db"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrUnknownProduct = errors.New("wishlist product not found")
	ErrUnknownCart    = errors.New("cart not found")
	ErrUnknownAddress = errors.New("address not found")
)

type Repository interface {
	Upsert(ctx context.Context, q db.Querier, u *User) error
	GetByID(ctx context.Context, q db.Querier, id string) (*User, error)
	SetDefaultCart(ctx context.Context, q db.Querier, userID string, cartID uuid.UUID) error
	SetDefaultAddress(ctx context.Context, q db.Querier, userID string, addressID *uuid.UUID) error
	AddWishlistItem(ctx context.Context, q db.Querier, userID string, productID uuid.UUID) error
	RemoveWishlistItem(ctx context.Context, q db.Querier, userID string, productID uuid.UUID) error
	ListWishlist(ctx context.Context, q db.Querier, userID string) ([]uuid.UUID, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

// Upsert inserts the user row on first sight and refreshes the profile
// fields on every later call. Role and banned flag come from the identity
// provider and are written as given.
func (r *postgresRepository) Upsert(ctx context.Context, q db.Querier, u *User) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO users (id, email, name, role, banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name,
			role = EXCLUDED.role, banned = EXCLUDED.banned,
			updated_at = EXCLUDED.updated_at
	`
	_, err := q.Exec(ctx, query, u.ID, u.Email, u.Name, u.Role, u.Banned, now)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert user %s: %w", u.ID, err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, q db.Querier, id string) (*User, error) {
	query := `
		SELECT id, email, name, role, banned, default_address_id, default_cart_id, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u User
	err := q.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.Banned,
		&u.DefaultAddressID, &u.DefaultCartID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user %s: %w", id, err)
	}
	return &u, nil
}

func (r *postgresRepository) SetDefaultCart(ctx context.Context, q db.Querier, userID string, cartID uuid.UUID) error {
	cmdTag, err := q.Exec(ctx,
		`UPDATE users SET default_cart_id = $2, updated_at = $3 WHERE id = $1`,
		userID, cartID, time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownCart
		}
		return fmt.Errorf("repository: failed to set default cart for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) SetDefaultAddress(ctx context.Context, q db.Querier, userID string, addressID *uuid.UUID) error {
	cmdTag, err := q.Exec(ctx,
		`UPDATE users SET default_address_id = $2, updated_at = $3 WHERE id = $1`,
		userID, addressID, time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownAddress
		}
		return fmt.Errorf("repository: failed to set default address for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddWishlistItem is idempotent: wishing for the same product twice keeps a
// single row.
func (r *postgresRepository) AddWishlistItem(ctx context.Context, q db.Querier, userID string, productID uuid.UUID) error {
	query := `
		INSERT INTO wishlist_items (user_id, product_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`
	_, err := q.Exec(ctx, query, userID, productID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownProduct
		}
		return fmt.Errorf("repository: failed to add wishlist item for user %s: %w", userID, err)
	}
	return nil
}

func (r *postgresRepository) RemoveWishlistItem(ctx context.Context, q db.Querier, userID string, productID uuid.UUID) error {
	_, err := q.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to remove wishlist item for user %s: %w", userID, err)
	}
	return nil
}

func (r *postgresRepository) ListWishlist(ctx context.Context, q db.Querier, userID string) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx,
		`SELECT product_id FROM wishlist_items WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query wishlist for user %s: %w", userID, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository: failed to scan wishlist item: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating wishlist: %w", err)
	}
	return ids, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
