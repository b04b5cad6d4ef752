package address_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windly-shop/windly/internal/address"
	"github.com/windly-shop/windly/internal/db"
	"github.com/windly-shop/windly/internal/user"
)

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(q db.Querier) error) error {
	return fn(nil)
}

type mockAddressRepo struct {
	createFunc       func(a *address.Address) error
	getByIDFunc      func(id uuid.UUID) (*address.Address, error)
	listByUserFunc   func(userID string) ([]address.Address, error)
	updateFunc       func(a *address.Address) error
	deleteFunc       func(id uuid.UUID) error
	oldestExceptFunc func(userID string, excludeID uuid.UUID) (*address.Address, error)
}

func (m *mockAddressRepo) Create(_ context.Context, _ db.Querier, a *address.Address) error {
	if m.createFunc == nil {
		id, _ := uuid.NewV4()
		a.ID = id
		return nil
	}
	return m.createFunc(a)
}

func (m *mockAddressRepo) GetByID(_ context.Context, _ db.Querier, id uuid.UUID) (*address.Address, error) {
	if m.getByIDFunc == nil {
		return nil, address.ErrNotFound
	}
	return m.getByIDFunc(id)
}

func (m *mockAddressRepo) ListByUser(_ context.Context, _ db.Querier, userID string) ([]address.Address, error) {
	if m.listByUserFunc == nil {
		return nil, nil
	}
	return m.listByUserFunc(userID)
}

func (m *mockAddressRepo) Update(_ context.Context, _ db.Querier, a *address.Address) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(a)
}

func (m *mockAddressRepo) Delete(_ context.Context, _ db.Querier, id uuid.UUID) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(id)
}

func (m *mockAddressRepo) OldestUpdatedExcept(_ context.Context, _ db.Querier, userID string, excludeID uuid.UUID) (*address.Address, error) {
	if m.oldestExceptFunc == nil {
		return nil, address.ErrNotFound
	}
	return m.oldestExceptFunc(userID, excludeID)
}

type mockUserRepo struct {
	getByIDFunc           func(id string) (*user.User, error)
	setDefaultAddressFunc func(userID string, addressID *uuid.UUID) error
}

func (m *mockUserRepo) Upsert(_ context.Context, _ db.Querier, _ *user.User) error { return nil }

func (m *mockUserRepo) GetByID(_ context.Context, _ db.Querier, id string) (*user.User, error) {
	if m.getByIDFunc == nil {
		return nil, user.ErrNotFound
	}
	return m.getByIDFunc(id)
}

func (m *mockUserRepo) SetDefaultCart(_ context.Context, _ db.Querier, _ string, _ uuid.UUID) error {
	return nil
}

func (m *mockUserRepo) SetDefaultAddress(_ context.Context, _ db.Querier, userID string, addressID *uuid.UUID) error {
	if m.setDefaultAddressFunc == nil {
		return nil
	}
	return m.setDefaultAddressFunc(userID, addressID)
}

func (m *mockUserRepo) AddWishlistItem(_ context.Context, _ db.Querier, _ string, _ uuid.UUID) error {
	return nil
}

func (m *mockUserRepo) RemoveWishlistItem(_ context.Context, _ db.Querier, _ string, _ uuid.UUID) error {
	return nil
}

func (m *mockUserRepo) ListWishlist(_ context.Context, _ db.Querier, _ string) ([]uuid.UUID, error) {
	return nil, nil
}

func strPtr(s string) *string { return &s }

func TestService_AddAddress(t *testing.T) {
	t.Run("first_address_becomes_default", func(t *testing.T) {
		var defaultSet *uuid.UUID

		users := &mockUserRepo{
			getByIDFunc: func(id string) (*user.User, error) {
				return &user.User{ID: id}, nil
			},
			setDefaultAddressFunc: func(userID string, addressID *uuid.UUID) error {
				defaultSet = addressID
				return nil
			},
		}

		svc := address.NewService(nil, fakeTx{}, &mockAddressRepo{}, users)
		a, err := svc.AddAddress(context.Background(), &address.Address{
			UserID: "user-1", FullName: "Ada Park", Line1: "1 Main St",
			City: "Portland", PostalCode: "97201", Country: "US", Type: address.TypeHome,
		})

		require.NoError(t, err)
		require.NotNil(t, defaultSet)
		assert.Equal(t, a.ID, *defaultSet)
	})

	t.Run("later_address_keeps_existing_default", func(t *testing.T) {
		existing, err := uuid.NewV4()
		require.NoError(t, err)

		var defaultTouched bool
		users := &mockUserRepo{
			getByIDFunc: func(id string) (*user.User, error) {
				return &user.User{ID: id, DefaultAddressID: &existing}, nil
			},
			setDefaultAddressFunc: func(userID string, addressID *uuid.UUID) error {
				defaultTouched = true
				return nil
			},
		}

		svc := address.NewService(nil, fakeTx{}, &mockAddressRepo{}, users)
		_, err = svc.AddAddress(context.Background(), &address.Address{UserID: "user-1", Type: address.TypeOffice})

		require.NoError(t, err)
		assert.False(t, defaultTouched)
	})

	t.Run("invalid_type_defaults_to_home", func(t *testing.T) {
		users := &mockUserRepo{
			getByIDFunc: func(id string) (*user.User, error) {
				return &user.User{ID: id}, nil
			},
		}

		svc := address.NewService(nil, fakeTx{}, &mockAddressRepo{}, users)
		a, err := svc.AddAddress(context.Background(), &address.Address{UserID: "user-1", Type: "warehouse"})

		require.NoError(t, err)
		assert.Equal(t, address.TypeHome, a.Type)
	})
}

func TestService_UpdateAddress(t *testing.T) {
	addressID, err := uuid.NewV4()
	require.NoError(t, err)

	t.Run("empty_patch_rejected", func(t *testing.T) {
		svc := address.NewService(nil, fakeTx{}, &mockAddressRepo{}, &mockUserRepo{})
		err := svc.UpdateAddress(context.Background(), addressID, address.Patch{})
		assert.True(t, errors.Is(err, address.ErrEmptyPatch))
	})

	t.Run("applies_only_patched_fields", func(t *testing.T) {
		var updated *address.Address
		addresses := &mockAddressRepo{
			getByIDFunc: func(id uuid.UUID) (*address.Address, error) {
				return &address.Address{
					ID: addressID, UserID: "user-1", FullName: "Ada Park",
					Line1: "1 Main St", City: "Portland", Type: address.TypeHome,
				}, nil
			},
			updateFunc: func(a *address.Address) error {
				updated = a
				return nil
			},
		}

		svc := address.NewService(nil, fakeTx{}, addresses, &mockUserRepo{})
		err := svc.UpdateAddress(context.Background(), addressID, address.Patch{City: strPtr("Salem")})

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Salem", updated.City)
		assert.Equal(t, "Ada Park", updated.FullName)
		assert.Equal(t, "1 Main St", updated.Line1)
	})

	t.Run("missing_address", func(t *testing.T) {
		svc := address.NewService(nil, fakeTx{}, &mockAddressRepo{}, &mockUserRepo{})
		err := svc.UpdateAddress(context.Background(), addressID, address.Patch{City: strPtr("Salem")})
		assert.True(t, errors.Is(err, address.ErrNotFound))
	})
}

func TestService_DeleteAddress(t *testing.T) {
	addressID, err := uuid.NewV4()
	require.NoError(t, err)
	otherID, err := uuid.NewV4()
	require.NoError(t, err)

	t.Run("not_owner", func(t *testing.T) {
		var deleted bool
		addresses := &mockAddressRepo{
			getByIDFunc: func(id uuid.UUID) (*address.Address, error) {
				return &address.Address{ID: addressID, UserID: "user-1"}, nil
			},
			deleteFunc: func(id uuid.UUID) error {
				deleted = true
				return nil
			},
		}

		svc := address.NewService(nil, fakeTx{}, addresses, &mockUserRepo{})
		err := svc.DeleteAddress(context.Background(), addressID, "intruder")

		assert.True(t, errors.Is(err, address.ErrNotOwner))
		assert.False(t, deleted)
	})

	t.Run("deleting_default_promotes_stalest_remaining", func(t *testing.T) {
		var promoted *uuid.UUID
		addresses := &mockAddressRepo{
			getByIDFunc: func(id uuid.UUID) (*address.Address, error) {
				return &address.Address{ID: addressID, UserID: "user-1"}, nil
			},
			oldestExceptFunc: func(userID string, excludeID uuid.UUID) (*address.Address, error) {
				assert.Equal(t, addressID, excludeID)
				return &address.Address{ID: otherID, UserID: userID}, nil
			},
		}
		users := &mockUserRepo{
			getByIDFunc: func(id string) (*user.User, error) {
				return &user.User{ID: id, DefaultAddressID: &addressID}, nil
			},
			setDefaultAddressFunc: func(userID string, id *uuid.UUID) error {
				promoted = id
				return nil
			},
		}

		svc := address.NewService(nil, fakeTx{}, addresses, users)
		err := svc.DeleteAddress(context.Background(), addressID, "user-1")

		require.NoError(t, err)
		require.NotNil(t, promoted)
		assert.Equal(t, otherID, *promoted)
	})

	t.Run("deleting_last_default_clears_reference", func(t *testing.T) {
		var cleared bool
		addresses := &mockAddressRepo{
			getByIDFunc: func(id uuid.UUID) (*address.Address, error) {
				return &address.Address{ID: addressID, UserID: "user-1"}, nil
			},
		}
		users := &mockUserRepo{
			getByIDFunc: func(id string) (*user.User, error) {
				return &user.User{ID: id, DefaultAddressID: &addressID}, nil
			},
			setDefaultAddressFunc: func(userID string, id *uuid.UUID) error {
				cleared = id == nil
				return nil
			},
		}

		svc := address.NewService(nil, fakeTx{}, addresses, users)
		err := svc.DeleteAddress(context.Background(), addressID, "user-1")

		require.NoError(t, err)
		assert.True(t, cleared)
	})

	t.Run("deleting_non_default_leaves_default_alone", func(t *testing.T) {
		var defaultTouched, deleted bool
		addresses := &mockAddressRepo{
			getByIDFunc: func(id uuid.UUID) (*address.Address, error) {
				return &address.Address{ID: addressID, UserID: "user-1"}, nil
			},
			deleteFunc: func(id uuid.UUID) error {
				deleted = true
				return nil
			},
		}
		users := &mockUserRepo{
			getByIDFunc: func(id string) (*user.User, error) {
				return &user.User{ID: id, DefaultAddressID: &otherID}, nil
			},
			setDefaultAddressFunc: func(userID string, id *uuid.UUID) error {
				defaultTouched = true
				return nil
			},
		}

		svc := address.NewService(nil, fakeTx{}, addresses, users)
		err := svc.DeleteAddress(context.Background(), addressID, "user-1")

		require.NoError(t, err)
		assert.True(t, deleted)
		assert.False(t, defaultTouched)
	})
}

func TestPatch(t *testing.T) {
	assert.True(t, address.Patch{}.Empty())
	assert.False(t, address.Patch{Line2: strPtr("")}.Empty())

	a := &address.Address{FullName: "Ada Park", City: "Portland", Line2: "Apt 4"}
	address.Patch{City: strPtr("Salem"), Line2: strPtr("")}.Apply(a)

	assert.Equal(t, "Ada Park", a.FullName)
	assert.Equal(t, "Salem", a.City)
	assert.Equal(t, "", a.Line2)
}
