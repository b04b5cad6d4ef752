package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/windly-shop/windly/internal/db"
	"github.com/windly-shop/windly/internal/user"
)

var (
	ErrNotOwner   = errors.New("address belongs to another user")
	ErrEmptyPatch = errors.New("no fields to update")
)

type Service interface {
	// AddAddress inserts the address; a user's first address automatically
	// becomes their default.
	AddAddress(ctx context.Context, a *Address) (*Address, error)
	UpdateAddress(ctx context.Context, id uuid.UUID, patch Patch) error
	// SetDefault repoints the user's default-address reference. Ownership
	// is the caller's concern; this layer writes unconditionally.
	SetDefault(ctx context.Context, addressID uuid.UUID, userID string) error
	// DeleteAddress removes a caller-owned address. Deleting the default
	// promotes a replacement (or clears the reference when it was the
	// last one).
	DeleteAddress(ctx context.Context, addressID uuid.UUID, callerID string) error
	ListAddresses(ctx context.Context, userID string) ([]Address, error)
	GetAddress(ctx context.Context, id uuid.UUID) (*Address, error)
}

type service struct {
	pool      db.Querier
	tx        db.TxRunner
	addresses Repository
	users     user.Repository
}

func NewService(pool db.Querier, tx db.TxRunner, addresses Repository, users user.Repository) Service {
	return &service{pool: pool, tx: tx, addresses: addresses, users: users}
}

func (s *service) AddAddress(ctx context.Context, a *Address) (*Address, error) {
	if !a.Type.Valid() {
		a.Type = TypeHome
	}

	err := s.tx.WithinTx(ctx, func(q db.Querier) error {
		a.ID = uuid.Nil
		if err := s.addresses.Create(ctx, q, a); err != nil {
			return err
		}

		u, err := s.users.GetByID(ctx, q, a.UserID)
		if err != nil {
			return err
		}
		if u.DefaultAddressID == nil {
			return s.users.SetDefaultAddress(ctx, q, a.UserID, &a.ID)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", a.UserID).Msg("service: failed to add address")
		return nil, fmt.Errorf("service: failed to add address: %w", err)
	}

	log.Info().Stringer("address_id", a.ID).Str("user_id", a.UserID).Msg("service: address added")
	return a, nil
}

func (s *service) UpdateAddress(ctx context.Context, id uuid.UUID, patch Patch) error {
	if patch.Empty() {
		return ErrEmptyPatch
	}

	a, err := s.addresses.GetByID(ctx, s.pool, id)
	if err != nil {
		return err
	}

	patch.Apply(a)
	if !a.Type.Valid() {
		return fmt.Errorf("invalid address type %q", a.Type)
	}
	return s.addresses.Update(ctx, s.pool, a)
}

func (s *service) SetDefault(ctx context.Context, addressID uuid.UUID, userID string) error {
	return s.users.SetDefaultAddress(ctx, s.pool, userID, &addressID)
}

func (s *service) DeleteAddress(ctx context.Context, addressID uuid.UUID, callerID string) error {
	return s.tx.WithinTx(ctx, func(q db.Querier) error {
		a, err := s.addresses.GetByID(ctx, q, addressID)
		if err != nil {
			return err
		}
		if a.UserID != callerID {
			return ErrNotOwner
		}

		u, err := s.users.GetByID(ctx, q, a.UserID)
		if err != nil {
			return err
		}

		if u.DefaultAddressID != nil && *u.DefaultAddressID == addressID {
			replacement, err := s.addresses.OldestUpdatedExcept(ctx, q, a.UserID, addressID)
			switch {
			case errors.Is(err, ErrNotFound):
				// Last address: clear the reference.
				if err := s.users.SetDefaultAddress(ctx, q, a.UserID, nil); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := s.users.SetDefaultAddress(ctx, q, a.UserID, &replacement.ID); err != nil {
					return err
				}
			}
		}

		if err := s.addresses.Delete(ctx, q, addressID); err != nil {
			return err
		}
		log.Info().Stringer("address_id", addressID).Str("user_id", a.UserID).Msg("service: address deleted")
		return nil
	})
}

func (s *service) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	return s.addresses.ListByUser(ctx, s.pool, userID)
}

func (s *service) GetAddress(ctx context.Context, id uuid.UUID) (*Address, error) {
	return s.addresses.GetByID(ctx, s.pool, id)
}
