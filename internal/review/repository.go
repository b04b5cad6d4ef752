package review

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
	ErrNotFound        = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("product already reviewed by this user")
	ErrAlreadyVoted    = errors.New("review already marked helpful by this user")
)

type Repository interface {
	Create(ctx context.Context, q db.Querier, rv *Review) error
	GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Review, error)
	ListByProduct(ctx context.Context, q db.Querier, productID uuid.UUID) ([]Review, error)
	Update(ctx context.Context, q db.Querier, rv *Review) error
	Delete(ctx context.Context, q db.Querier, id uuid.UUID) error
	Summary(ctx context.Context, q db.Querier, productID uuid.UUID) (*Summary, error)
	InsertVote(ctx context.Context, q db.Querier, reviewID uuid.UUID, userID string) error
	IncrementHelpful(ctx context.Context, q db.Querier, reviewID uuid.UUID) error
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

func (r *postgresRepository) Create(ctx context.Context, q db.Querier, rv *Review) error {
	if rv.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate review id: %w", err)
		}
		rv.ID = id
	}

	now := time.Now().UTC()
	rv.CreatedAt = now
	rv.UpdatedAt = now
	rv.HelpfulCount = 0

	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, title, body, helpful_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
	`
	_, err := q.Exec(ctx, query, rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Body, rv.CreatedAt, rv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyReviewed
		}
		return fmt.Errorf("repository: failed to insert review: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, title, body, helpful_count, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`
	var rv Review
	err := q.QueryRow(ctx, query, id).Scan(
		&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Body,
		&rv.HelpfulCount, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select review %s: %w", id, err)
	}
	return &rv, nil
}

func (r *postgresRepository) ListByProduct(ctx context.Context, q db.Querier, productID uuid.UUID) ([]Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, title, body, helpful_count, created_at, updated_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`
	rows, err := q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query reviews for product %s: %w", productID, err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		var rv Review
		err := rows.Scan(
			&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Body,
			&rv.HelpfulCount, &rv.CreatedAt, &rv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating reviews: %w", err)
	}
	return reviews, nil
}

func (r *postgresRepository) Update(ctx context.Context, q db.Querier, rv *Review) error {
	query := `
		UPDATE reviews
		SET rating = $2, title = $3, body = $4, updated_at = $5
		WHERE id = $1
	`
	rv.UpdatedAt = time.Now().UTC()
	cmdTag, err := q.Exec(ctx, query, rv.ID, rv.Rating, rv.Title, rv.Body, rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to update review %s: %w", rv.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, q db.Querier, id uuid.UUID) error {
	cmdTag, err := q.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete review %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Summary recomputes the arithmetic mean on every call; nothing is
// materialized.
func (r *postgresRepository) Summary(ctx context.Context, q db.Querier, productID uuid.UUID) (*Summary, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE product_id = $1
	`
	var s Summary
	if err := q.QueryRow(ctx, query, productID).Scan(&s.AverageRating, &s.TotalCount); err != nil {
		return nil, fmt.Errorf("repository: failed to compute review summary for product %s: %w", productID, err)
	}
	return &s, nil
}

func (r *postgresRepository) InsertVote(ctx context.Context, q db.Querier, reviewID uuid.UUID, userID string) error {
	query := `
		INSERT INTO review_votes (review_id, user_id, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := q.Exec(ctx, query, reviewID, userID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyVoted
		}
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("repository: failed to insert review vote: %w", err)
	}
	return nil
}

func (r *postgresRepository) IncrementHelpful(ctx context.Context, q db.Querier, reviewID uuid.UUID) error {
	query := `
		UPDATE reviews
		SET helpful_count = helpful_count + 1, updated_at = $2
		WHERE id = $1
	`
	cmdTag, err := q.Exec(ctx, query, reviewID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to increment helpful count for review %s: %w", reviewID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
