package review_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windly-shop/windly/internal/db"
	"github.com/windly-shop/windly/internal/review"
)

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(q db.Querier) error) error {
	return fn(nil)
}

type mockRepo struct {
	createFunc        func(rv *review.Review) error
	getByIDFunc       func(id uuid.UUID) (*review.Review, error)
	listByProductFunc func(productID uuid.UUID) ([]review.Review, error)
	updateFunc        func(rv *review.Review) error
	deleteFunc        func(id uuid.UUID) error
	summaryFunc       func(productID uuid.UUID) (*review.Summary, error)
	insertVoteFunc    func(reviewID uuid.UUID, userID string) error
	incrHelpfulFunc   func(reviewID uuid.UUID) error
}

func (m *mockRepo) Create(_ context.Context, _ db.Querier, rv *review.Review) error {
	if m.createFunc == nil {
		id, _ := uuid.NewV4()
		rv.ID = id
		return nil
	}
	return m.createFunc(rv)
}

func (m *mockRepo) GetByID(_ context.Context, _ db.Querier, id uuid.UUID) (*review.Review, error) {
	if m.getByIDFunc == nil {
		return nil, review.ErrNotFound
	}
	return m.getByIDFunc(id)
}

func (m *mockRepo) ListByProduct(_ context.Context, _ db.Querier, productID uuid.UUID) ([]review.Review, error) {
	if m.listByProductFunc == nil {
		return nil, nil
	}
	return m.listByProductFunc(productID)
}

func (m *mockRepo) Update(_ context.Context, _ db.Querier, rv *review.Review) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(rv)
}

func (m *mockRepo) Delete(_ context.Context, _ db.Querier, id uuid.UUID) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(id)
}

func (m *mockRepo) Summary(_ context.Context, _ db.Querier, productID uuid.UUID) (*review.Summary, error) {
	if m.summaryFunc == nil {
		return &review.Summary{}, nil
	}
	return m.summaryFunc(productID)
}

func (m *mockRepo) InsertVote(_ context.Context, _ db.Querier, reviewID uuid.UUID, userID string) error {
	if m.insertVoteFunc == nil {
		return nil
	}
	return m.insertVoteFunc(reviewID, userID)
}

func (m *mockRepo) IncrementHelpful(_ context.Context, _ db.Querier, reviewID uuid.UUID) error {
	if m.incrHelpfulFunc == nil {
		return nil
	}
	return m.incrHelpfulFunc(reviewID)
}

func TestService_CreateReview(t *testing.T) {
	productID, err := uuid.NewV4()
	require.NoError(t, err)

	t.Run("rating_bounds", func(t *testing.T) {
		svc := review.NewService(nil, fakeTx{}, &mockRepo{})

		for _, rating := range []int{0, -1, 6} {
			_, err := svc.CreateReview(context.Background(), &review.Review{
				ProductID: productID, UserID: "user-1", Rating: rating,
			})
			assert.True(t, errors.Is(err, review.ErrInvalidRating), "rating %d", rating)
		}

		for _, rating := range []int{1, 5} {
			_, err := svc.CreateReview(context.Background(), &review.Review{
				ProductID: productID, UserID: "user-1", Rating: rating,
			})
			assert.NoError(t, err, "rating %d", rating)
		}
	})

	t.Run("duplicate_review", func(t *testing.T) {
		repo := &mockRepo{
			createFunc: func(rv *review.Review) error { return review.ErrAlreadyReviewed },
		}
		svc := review.NewService(nil, fakeTx{}, repo)

		_, err := svc.CreateReview(context.Background(), &review.Review{
			ProductID: productID, UserID: "user-1", Rating: 4,
		})
		assert.True(t, errors.Is(err, review.ErrAlreadyReviewed))
	})
}

func TestService_UpdateReview(t *testing.T) {
	reviewID, err := uuid.NewV4()
	require.NoError(t, err)

	t.Run("not_owner", func(t *testing.T) {
		repo := &mockRepo{
			getByIDFunc: func(id uuid.UUID) (*review.Review, error) {
				return &review.Review{ID: reviewID, UserID: "user-1", Rating: 4}, nil
			},
		}
		svc := review.NewService(nil, fakeTx{}, repo)

		err := svc.UpdateReview(context.Background(), reviewID, "intruder", 2, "meh", "")
		assert.True(t, errors.Is(err, review.ErrNotOwner))
	})

	t.Run("invalid_rating", func(t *testing.T) {
		svc := review.NewService(nil, fakeTx{}, &mockRepo{})
		err := svc.UpdateReview(context.Background(), reviewID, "user-1", 0, "", "")
		assert.True(t, errors.Is(err, review.ErrInvalidRating))
	})

	t.Run("owner_updates_fields", func(t *testing.T) {
		var updated *review.Review
		repo := &mockRepo{
			getByIDFunc: func(id uuid.UUID) (*review.Review, error) {
				return &review.Review{ID: reviewID, UserID: "user-1", Rating: 4, Title: "old"}, nil
			},
			updateFunc: func(rv *review.Review) error {
				updated = rv
				return nil
			},
		}
		svc := review.NewService(nil, fakeTx{}, repo)

		err := svc.UpdateReview(context.Background(), reviewID, "user-1", 2, "changed my mind", "broke in a week")

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, 2, updated.Rating)
		assert.Equal(t, "changed my mind", updated.Title)
		assert.Equal(t, "broke in a week", updated.Body)
	})
}

func TestService_DeleteReview(t *testing.T) {
	reviewID, err := uuid.NewV4()
	require.NoError(t, err)

	t.Run("not_owner", func(t *testing.T) {
		var deleted bool
		repo := &mockRepo{
			getByIDFunc: func(id uuid.UUID) (*review.Review, error) {
				return &review.Review{ID: reviewID, UserID: "user-1"}, nil
			},
			deleteFunc: func(id uuid.UUID) error {
				deleted = true
				return nil
			},
		}
		svc := review.NewService(nil, fakeTx{}, repo)

		err := svc.DeleteReview(context.Background(), reviewID, "intruder")
		assert.True(t, errors.Is(err, review.ErrNotOwner))
		assert.False(t, deleted)
	})

	t.Run("owner_deletes", func(t *testing.T) {
		repo := &mockRepo{
			getByIDFunc: func(id uuid.UUID) (*review.Review, error) {
				return &review.Review{ID: reviewID, UserID: "user-1"}, nil
			},
		}
		svc := review.NewService(nil, fakeTx{}, repo)
		assert.NoError(t, svc.DeleteReview(context.Background(), reviewID, "user-1"))
	})
}

func TestService_MarkHelpful(t *testing.T) {
	reviewID, err := uuid.NewV4()
	require.NoError(t, err)

	t.Run("vote_then_increment", func(t *testing.T) {
		var voted, incremented bool
		repo := &mockRepo{
			insertVoteFunc: func(id uuid.UUID, userID string) error {
				voted = true
				return nil
			},
			incrHelpfulFunc: func(id uuid.UUID) error {
				incremented = true
				return nil
			},
		}
		svc := review.NewService(nil, fakeTx{}, repo)

		require.NoError(t, svc.MarkHelpful(context.Background(), reviewID, "user-1"))
		assert.True(t, voted)
		assert.True(t, incremented)
	})

	t.Run("second_vote_does_not_increment", func(t *testing.T) {
		var incremented bool
		repo := &mockRepo{
			insertVoteFunc: func(id uuid.UUID, userID string) error {
				return review.ErrAlreadyVoted
			},
			incrHelpfulFunc: func(id uuid.UUID) error {
				incremented = true
				return nil
			},
		}
		svc := review.NewService(nil, fakeTx{}, repo)

		err := svc.MarkHelpful(context.Background(), reviewID, "user-1")
		assert.True(t, errors.Is(err, review.ErrAlreadyVoted))
		assert.False(t, incremented)
	})
}

func TestService_ProductSummary(t *testing.T) {
	productID, err := uuid.NewV4()
	require.NoError(t, err)

	repo := &mockRepo{
		summaryFunc: func(id uuid.UUID) (*review.Summary, error) {
			return &review.Summary{AverageRating: 4.25, TotalCount: 8}, nil
		},
	}
	svc := review.NewService(nil, fakeTx{}, repo)

	s, err := svc.ProductSummary(context.Background(), productID)
	require.NoError(t, err)
	assert.InDelta(t, 4.25, s.AverageRating, 0.0001)
	assert.Equal(t, 8, s.TotalCount)
}
