package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

// RatingAggregator keeps a product's avgRating and totalRatings equal to the
// mean and count of its reviews. Every call is a full recompute, so a later
// call repairs any drift left by a failed or concurrent one.
type RatingAggregator struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	logger   *slog.Logger
}

// NewRatingAggregator creates a new rating aggregator.
func NewRatingAggregator(products repository.ProductRepository, reviews repository.ReviewRepository, logger *slog.Logger) *RatingAggregator {
	return &RatingAggregator{
		products: products,
		reviews:  reviews,
		logger:   logger,
	}
}

// Recompute refreshes the rating aggregate of productID. Failures are logged
// and not returned: the review change that triggered the call has already
// been persisted.
func (a *RatingAggregator) Recompute(ctx context.Context, productID string) {
	stats, err := a.reviews.RatingStats(ctx, productID)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to compute rating stats",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return
	}

	avg := stats.Average()
	if err := a.products.SetRating(ctx, productID, avg, int(stats.Count)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			a.logger.WarnContext(ctx, "product vanished before rating update",
				slog.String("product_id", productID),
			)
			return
		}
		a.logger.ErrorContext(ctx, "failed to update product rating",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return
	}

	a.logger.DebugContext(ctx, "product rating recomputed",
		slog.String("product_id", productID),
		slog.Float64("avg_rating", avg),
		slog.Int64("total_ratings", stats.Count),
	)
}
