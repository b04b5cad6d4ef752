package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/windly-shop/windly/internal/db"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrNotOwner      = errors.New("review belongs to another user")
)

type Service interface {
	CreateReview(ctx context.Context, rv *Review) (*Review, error)
	UpdateReview(ctx context.Context, id uuid.UUID, callerID string, rating int, title, body string) error
	DeleteReview(ctx context.Context, id uuid.UUID, callerID string) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
	ProductSummary(ctx context.Context, productID uuid.UUID) (*Summary, error)
	// MarkHelpful bumps the helpful counter at most once per voting user.
	MarkHelpful(ctx context.Context, reviewID uuid.UUID, userID string) error
}

type service struct {
	pool db.Querier
	tx   db.TxRunner
	repo Repository
}

func NewService(pool db.Querier, tx db.TxRunner, repo Repository) Service {
	return &service{pool: pool, tx: tx, repo: repo}
}

func (s *service) CreateReview(ctx context.Context, rv *Review) (*Review, error) {
	if rv.Rating < 1 || rv.Rating > 5 {
		return nil, ErrInvalidRating
	}

	rv.ID = uuid.Nil
	if err := s.repo.Create(ctx, s.pool, rv); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, ErrAlreadyReviewed
		}
		log.Error().Err(err).Stringer("product_id", rv.ProductID).Msg("service: failed to create review")
		return nil, fmt.Errorf("service: failed to create review: %w", err)
	}

	log.Info().Stringer("review_id", rv.ID).Stringer("product_id", rv.ProductID).Msg("service: review created")
	return rv, nil
}

func (s *service) UpdateReview(ctx context.Context, id uuid.UUID, callerID string, rating int, title, body string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	rv, err := s.repo.GetByID(ctx, s.pool, id)
	if err != nil {
		return err
	}
	if rv.UserID != callerID {
		return ErrNotOwner
	}

	rv.Rating = rating
	rv.Title = title
	rv.Body = body
	return s.repo.Update(ctx, s.pool, rv)
}

func (s *service) DeleteReview(ctx context.Context, id uuid.UUID, callerID string) error {
	rv, err := s.repo.GetByID(ctx, s.pool, id)
	if err != nil {
		return err
	}
	if rv.UserID != callerID {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, s.pool, id)
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	return s.repo.ListByProduct(ctx, s.pool, productID)
}

func (s *service) ProductSummary(ctx context.Context, productID uuid.UUID) (*Summary, error) {
	return s.repo.Summary(ctx, s.pool, productID)
}

func (s *service) MarkHelpful(ctx context.Context, reviewID uuid.UUID, userID string) error {
	return s.tx.WithinTx(ctx, func(q db.Querier) error {
		if err := s.repo.InsertVote(ctx, q, reviewID, userID); err != nil {
			return err
		}
		return s.repo.IncrementHelpful(ctx, q, reviewID)
	})
}
