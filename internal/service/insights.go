package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
)

// InsightsService summarizes who reviews a brand's products.
type InsightsService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewInsightsService creates a new insights service.
func NewInsightsService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *InsightsService {
	return &InsightsService{
		products: products,
		reviews:  reviews,
		users:    users,
		logger:   logger,
	}
}

// ForBrand computes review statistics and reviewer demographics across every
// product of brandID in a single pass over the reviews.
func (s *InsightsService) ForBrand(ctx context.Context, brandID string) (*domain.Insights, error) {
	products, err := s.products.ListByMaker(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("list brand products: %w", err)
	}

	insights := &domain.Insights{
		AgeDistribution:    []domain.ChartPoint{},
		GenderDistribution: []domain.ChartPoint{},
		UserInterests:      []domain.ChartPoint{},
		ProductPerformance: []domain.ProductPerformance{},
	}
	if len(products) == 0 {
		return insights, nil
	}

	productIDs := make([]string, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}
	reviews, err := s.reviews.ListByProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list brand reviews: %w", err)
	}

	testerIDs := make([]string, 0, len(reviews))
	for _, rv := range reviews {
		testerIDs = append(testerIDs, rv.Tester)
	}
	testers, err := loadUsers(ctx, s.users, testerIDs)
	if err != nil {
		return nil, err
	}

	ages := domain.NewTally()
	genders := domain.NewTally(domain.ValidGenders()...)
	interests := domain.NewTally()
	perProduct := make(map[string]*domain.RatingStats, len(products))
	var total domain.RatingStats

	for _, rv := range reviews {
		total.Count++
		total.Sum += int64(rv.Rating)

		stats, ok := perProduct[rv.Product]
		if !ok {
			stats = &domain.RatingStats{}
			perProduct[rv.Product] = stats
		}
		stats.Count++
		stats.Sum += int64(rv.Rating)

		tester, ok := testers[rv.Tester]
		if !ok || tester.Gender == "" {
			genders.Add(domain.GenderNotSpecified, 1)
		} else {
			genders.Add(tester.Gender, 1)
		}
		if !ok {
			continue
		}
		if tester.Age != nil {
			ages.Add(domain.AgeRange(*tester.Age), 1)
		}
		for _, interest := range tester.Interests {
			interests.Add(interest, 1)
		}
	}

	insights.ReviewCount = int(total.Count)
	insights.AverageRating = total.Average()
	insights.AgeDistribution = ages.Chart(0)
	insights.GenderDistribution = genders.Chart(0)
	insights.UserInterests = interests.Chart(domain.TopInterests)

	for _, p := range products {
		perf := domain.ProductPerformance{ID: p.ID, Title: p.Title, Category: p.Category}
		if stats, ok := perProduct[p.ID]; ok {
			perf.ReviewCount = int(stats.Count)
			perf.AverageRating = stats.Average()
		}
		insights.ProductPerformance = append(insights.ProductPerformance, perf)
	}

	s.logger.DebugContext(ctx, "brand insights computed",
		slog.String("brand_id", brandID),
		slog.Int("products", len(products)),
		slog.Int("reviews", insights.ReviewCount),
	)

	return insights, nil
}
