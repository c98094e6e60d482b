package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

func TestRecompute(t *testing.T) {
	tests := []struct {
		name      string
		stats     domain.RatingStats
		wantAvg   float64
		wantCount int
	}{
		{"no reviews", domain.RatingStats{}, 0, 0},
		{"single review", domain.RatingStats{Count: 1, Sum: 5}, 5, 1},
		{"two reviews", domain.RatingStats{Count: 2, Sum: 8}, 4, 2},
		{"rounded to one decimal", domain.RatingStats{Count: 3, Sum: 13}, 4.3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(mockProductRepository)
			reviews := new(mockReviewRepository)
			ctx := context.Background()

			reviews.On("RatingStats", ctx, "p1").Return(tt.stats, nil)
			products.On("SetRating", ctx, "p1", tt.wantAvg, tt.wantCount).Return(nil)

			NewRatingAggregator(products, reviews, newTestLogger()).Recompute(ctx, "p1")

			products.AssertExpectations(t)
		})
	}
}

func TestRecompute_StatsFailureSkipsUpdate(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	ctx := context.Background()

	reviews.On("RatingStats", ctx, "p1").Return(domain.RatingStats{}, errors.New("db down"))

	NewRatingAggregator(products, reviews, newTestLogger()).Recompute(ctx, "p1")

	products.AssertNotCalled(t, "SetRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecompute_MissingProductIsTolerated(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	ctx := context.Background()

	reviews.On("RatingStats", ctx, "gone").Return(domain.RatingStats{}, nil)
	products.On("SetRating", ctx, "gone", 0.0, 0).Return(apperrors.ErrNotFound)

	NewRatingAggregator(products, reviews, newTestLogger()).Recompute(ctx, "gone")

	products.AssertExpectations(t)
}
