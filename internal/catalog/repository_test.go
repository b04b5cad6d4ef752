package catalog_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windly-shop/windly/internal/catalog"
)

// testPool connects to the database named by TEST_DATABASE_URL. The schema
// must already be migrated. Tests are skipped when the variable is unset so
// the unit suite runs without infrastructure.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(context.Background()))
	return pool
}

func seedSeller(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	id, err := uuid.NewV4()
	require.NoError(t, err)
	sellerID := "test-seller-" + id.String()

	_, err = pool.Exec(context.Background(),
		`INSERT INTO users (id, role) VALUES ($1, 'seller')`, sellerID)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, sellerID)
	})
	return sellerID
}

func TestRepository_StockLedger(t *testing.T) {
	pool := testPool(t)
	repo := catalog.NewRepository()
	ctx := context.Background()

	p := &catalog.Product{
		SellerID: seedSeller(t, pool),
		Name:     "Integration Mug",
		Price:    9.99,
		Stock:    3,
	}
	require.NoError(t, repo.Create(ctx, pool, p))
	t.Cleanup(func() {
		repo.Delete(ctx, pool, p.ID)
	})

	t.Run("decrement_within_stock", func(t *testing.T) {
		require.NoError(t, repo.DecrementStock(ctx, pool, p.ID, 2))

		got, err := repo.GetByID(ctx, pool, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Stock)
	})

	t.Run("decrement_beyond_stock", func(t *testing.T) {
		err := repo.DecrementStock(ctx, pool, p.ID, 2)
		assert.True(t, errors.Is(err, catalog.ErrOutOfStock))

		got, err := repo.GetByID(ctx, pool, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Stock, "failed decrement must not change stock")
	})

	t.Run("decrement_unknown_product", func(t *testing.T) {
		ghost, err := uuid.NewV4()
		require.NoError(t, err)

		err = repo.DecrementStock(ctx, pool, ghost, 1)
		assert.True(t, errors.Is(err, catalog.ErrProductNotFound))
	})

	t.Run("increment_restores", func(t *testing.T) {
		require.NoError(t, repo.IncrementStock(ctx, pool, p.ID, 2))

		got, err := repo.GetByID(ctx, pool, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Stock)
	})
}
