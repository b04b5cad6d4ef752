package review_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windly-shop/windly/internal/review"
)

// stubQuerier fails every Exec with a fixed error, for exercising the
// pg error code mapping without a database.
type stubQuerier struct {
	execErr error
}

func (s stubQuerier) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, s.execErr
}

func (s stubQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (s stubQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return nil
}

func TestRepository_InsertVote_ErrorMapping(t *testing.T) {
	reviewID, err := uuid.NewV4()
	require.NoError(t, err)
	repo := review.NewRepository()

	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{
			name:    "duplicate_vote",
			execErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			wantErr: review.ErrAlreadyVoted,
		},
		{
			name:    "missing_review",
			execErr: &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			wantErr: review.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.InsertVote(context.Background(), stubQuerier{execErr: tt.execErr}, reviewID, "user-1")
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}

	t.Run("other_errors_pass_through", func(t *testing.T) {
		err := repo.InsertVote(context.Background(), stubQuerier{execErr: errors.New("boom")}, reviewID, "user-1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, review.ErrAlreadyVoted))
		assert.False(t, errors.Is(err, review.ErrNotFound))
	})
}

func TestRepository_Create_DuplicateMapping(t *testing.T) {
	repo := review.NewRepository()

	err := repo.Create(context.Background(),
		stubQuerier{execErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation}},
		&review.Review{Rating: 4, UserID: "user-1"})

	assert.True(t, errors.Is(err, review.ErrAlreadyReviewed))
}
