package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/windly-shop/windly/internal/auth"
	"github.com/windly-shop/windly/internal/db"
)

type Service interface {
	EnsureUser(ctx context.Context, id auth.Identity, email, name string) error
	GetUser(ctx context.Context, id string) (*User, error)
	AddToWishlist(ctx context.Context, userID string, productID uuid.UUID) error
	RemoveFromWishlist(ctx context.Context, userID string, productID uuid.UUID) error
	GetWishlist(ctx context.Context, userID string) ([]uuid.UUID, error)
}

type service struct {
	pool db.Querier
	repo Repository
}

func NewService(pool db.Querier, repo Repository) Service {
	return &service{pool: pool, repo: repo}
}

// EnsureUser materializes the identity-provider subject as a local row so
// carts, addresses and reviews have something to reference.
func (s *service) EnsureUser(ctx context.Context, id auth.Identity, email, name string) error {
	u := &User{
		ID:     id.Subject,
		Email:  email,
		Name:   name,
		Role:   string(id.Role),
		Banned: id.Banned,
	}
	if err := s.repo.Upsert(ctx, s.pool, u); err != nil {
		log.Error().Err(err).Str("user_id", id.Subject).Msg("service: failed to ensure user")
		return fmt.Errorf("service: failed to ensure user: %w", err)
	}
	return nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, s.pool, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("user_id", id).Msg("service: failed to fetch user")
		return nil, fmt.Errorf("service: failed to fetch user: %w", err)
	}
	return u, nil
}

func (s *service) AddToWishlist(ctx context.Context, userID string, productID uuid.UUID) error {
	if err := s.repo.AddWishlistItem(ctx, s.pool, userID, productID); err != nil {
		if errors.Is(err, ErrUnknownProduct) {
			return ErrUnknownProduct
		}
		log.Error().Err(err).Str("user_id", userID).Stringer("product_id", productID).Msg("service: failed to add wishlist item")
		return fmt.Errorf("service: failed to add wishlist item: %w", err)
	}
	return nil
}

func (s *service) RemoveFromWishlist(ctx context.Context, userID string, productID uuid.UUID) error {
	if err := s.repo.RemoveWishlistItem(ctx, s.pool, userID, productID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Stringer("product_id", productID).Msg("service: failed to remove wishlist item")
		return fmt.Errorf("service: failed to remove wishlist item: %w", err)
	}
	return nil
}

func (s *service) GetWishlist(ctx context.Context, userID string) ([]uuid.UUID, error) {
	ids, err := s.repo.ListWishlist(ctx, s.pool, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("service: failed to fetch wishlist")
		return nil, fmt.Errorf("service: failed to fetch wishlist: %w", err)
	}
	return ids, nil
}
