package address

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/windly-shop/windly/internal/db"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	Create(ctx context.Context, q db.Querier, a *Address) error
	GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Address, error)
	ListByUser(ctx context.Context, q db.Querier, userID string) ([]Address, error)
	Update(ctx context.Context, q db.Querier, a *Address) error
	Delete(ctx context.Context, q db.Querier, id uuid.UUID) error
	// OldestUpdatedExcept returns the user's least-recently-updated address
	// other than excludeID, or ErrNotFound when none remain.
	OldestUpdatedExcept(ctx context.Context, q db.Querier, userID string, excludeID uuid.UUID) (*Address, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

const addressColumns = `id, user_id, full_name, phone, line1, line2, city, state,
	postal_code, country, address_type, created_at, updated_at`

func scanAddress(row pgx.Row) (*Address, error) {
	var a Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Line1, &a.Line2,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.Type,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *postgresRepository) Create(ctx context.Context, q db.Querier, a *Address) error {
	if a.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate address id: %w", err)
		}
		a.ID = id
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO addresses (id, user_id, full_name, phone, line1, line2, city, state,
			postal_code, country, address_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := q.Exec(ctx, query,
		a.ID, a.UserID, a.FullName, a.Phone, a.Line1, a.Line2, a.City, a.State,
		a.PostalCode, a.Country, a.Type, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert address: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Address, error) {
	a, err := scanAddress(q.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select address %s: %w", id, err)
	}
	return a, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, q db.Querier, userID string) ([]Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query addresses for user %s: %w", userID, err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating addresses: %w", err)
	}
	return addresses, nil
}

func (r *postgresRepository) Update(ctx context.Context, q db.Querier, a *Address) error {
	query := `
		UPDATE addresses
		SET full_name = $2, phone = $3, line1 = $4, line2 = $5, city = $6,
			state = $7, postal_code = $8, country = $9, address_type = $10,
			updated_at = $11
		WHERE id = $1
	`
	a.UpdatedAt = time.Now().UTC()
	cmdTag, err := q.Exec(ctx, query,
		a.ID, a.FullName, a.Phone, a.Line1, a.Line2, a.City,
		a.State, a.PostalCode, a.Country, a.Type, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update address %s: %w", a.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, q db.Querier, id uuid.UUID) error {
	cmdTag, err := q.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete address %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NOTE: ordering ascending by updated_at mirrors the original product
// behavior of promoting the stalest remaining address to default. Product
// has not confirmed whether that is intended; flipping to DESC here is the
// whole change if they decide otherwise.
func (r *postgresRepository) OldestUpdatedExcept(ctx context.Context, q db.Querier, userID string, excludeID uuid.UUID) (*Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1 AND id <> $2
		ORDER BY updated_at ASC
		LIMIT 1
	`
	a, err := scanAddress(q.QueryRow(ctx, query, userID, excludeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select replacement address for user %s: %w", userID, err)
	}
	return a, nil
}
