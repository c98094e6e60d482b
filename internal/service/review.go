package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

// ReviewService implements the review and comment lifecycle. Every change
// to a rating is followed by a recompute of the product's aggregate.
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	users    repository.UserRepository
	ratings  *RatingAggregator
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	ratings *RatingAggregator,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		users:    users,
		ratings:  ratings,
		logger:   logger,
	}
}

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	Rating int
	Text   string
	Image  string
}

// UpdateReviewInput holds the parameters for updating a review. Nil fields
// are left untouched.
type UpdateReviewInput struct {
	Rating *int
	Text   *string
	Image  *string
}

// ListByProduct returns a product's reviews, newest first, with testers
// populated. An unknown product has no reviews.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string) ([]domain.ReviewView, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by product: %w", err)
	}

	users, err := loadUsers(ctx, s.users, reviewUserIDs(reviews))
	if err != nil {
		return nil, err
	}
	return reviewViews(reviews, users, nil), nil
}

// ListMine returns the actor's reviews, newest first, with product summaries.
// Reviews of products that no longer exist are dropped.
func (s *ReviewService) ListMine(ctx context.Context, actor Actor) ([]domain.ReviewView, error) {
	reviews, err := s.reviews.ListByTester(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by tester: %w", err)
	}

	productIDs := make([]string, 0, len(reviews))
	for _, rv := range reviews {
		productIDs = append(productIDs, rv.Product)
	}
	products, err := loadProducts(ctx, s.products, productIDs)
	if err != nil {
		return nil, err
	}

	live := reviews[:0]
	for _, rv := range reviews {
		if _, ok := products[rv.Product]; ok {
			live = append(live, rv)
		}
	}

	users, err := loadUsers(ctx, s.users, reviewUserIDs(live))
	if err != nil {
		return nil, err
	}
	return reviewViews(live, users, products), nil
}

// Get returns a review with tester, product summary and comment authors.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.ReviewView, error) {
	review, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, review, true)
}

// Create stores the actor's review of a product and refreshes the product's
// rating.
func (s *ReviewService) Create(ctx context.Context, actor Actor, productID string, input *CreateReviewInput) (*domain.ReviewView, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !product.AcceptsReviews() {
		return nil, apperrors.Conflict("This product is no longer accepting reviews")
	}

	if _, err := s.reviews.FindByProductAndTester(ctx, product.ID, actor.ID); err == nil {
		return nil, apperrors.AlreadyExists("You have already reviewed this product")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing review: %w", err)
	}

	review := &domain.Review{
		Rating:   input.Rating,
		Text:     strings.TrimSpace(input.Text),
		Image:    input.Image,
		Tester:   actor.ID,
		Product:  product.ID,
		Comments: []domain.Comment{},
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("You have already reviewed this product")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.ratings.Recompute(ctx, product.ID)

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.Product),
		slog.String("tester", review.Tester),
		slog.Int("rating", review.Rating),
	)

	return s.view(ctx, review, false)
}

// Update changes rating, text or image. Only the author or an admin may
// update.
func (s *ReviewService) Update(ctx context.Context, actor Actor, id string, input *UpdateReviewInput) (*domain.ReviewView, error) {
	review, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.Tester != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Not authorized to update this review")
	}

	ratingChanged := input.Rating != nil && *input.Rating != review.Rating
	if input.Rating != nil {
		review.Rating = *input.Rating
	}
	if input.Text != nil {
		review.Text = strings.TrimSpace(*input.Text)
	}
	if input.Image != nil {
		review.Image = *input.Image
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Review not found")
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	if ratingChanged {
		s.ratings.Recompute(ctx, review.Product)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.Bool("rating_changed", ratingChanged),
	)

	return s.view(ctx, review, false)
}

// Delete removes a review and refreshes the product's rating. Only the
// author or an admin may delete.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id string) error {
	review, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if review.Tester != actor.ID && !actor.IsAdmin() {
		return apperrors.Forbidden("Not authorized to delete this review")
	}

	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("Review not found")
		}
		return fmt.Errorf("delete review: %w", err)
	}

	s.ratings.Recompute(ctx, review.Product)

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.Product),
		slog.String("user_id", actor.ID),
	)

	return nil
}

// AddComment prepends the actor's comment to a review.
func (s *ReviewService) AddComment(ctx context.Context, actor Actor, reviewID, text string) (*domain.ReviewView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.InvalidInput("Comment text is required")
	}
	if len([]rune(text)) > domain.MaxCommentTextLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Comment cannot be more than %d characters", domain.MaxCommentTextLength))
	}

	review, err := s.find(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{Text: text, User: actor.ID}
	if err := s.reviews.AddComment(ctx, review.ID, comment); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Review not found")
		}
		return nil, fmt.Errorf("add comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment added",
		slog.String("review_id", review.ID),
		slog.String("comment_id", comment.ID),
	)

	return s.reload(ctx, review.ID)
}

// DeleteComment removes a comment. The comment author, the review author and
// admins may delete.
func (s *ReviewService) DeleteComment(ctx context.Context, actor Actor, reviewID, commentID string) (*domain.ReviewView, error) {
	review, err := s.find(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	i := review.FindComment(commentID)
	if i < 0 {
		return nil, apperrors.NotFound("Comment not found")
	}
	if review.Comments[i].User != actor.ID && review.Tester != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Not authorized to delete this comment")
	}

	if err := s.reviews.DeleteComment(ctx, review.ID, commentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Comment not found")
		}
		return nil, fmt.Errorf("delete comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment deleted",
		slog.String("review_id", review.ID),
		slog.String("comment_id", commentID),
		slog.String("user_id", actor.ID),
	)

	return s.reload(ctx, review.ID)
}

func (s *ReviewService) reload(ctx context.Context, id string) (*domain.ReviewView, error) {
	review, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, review, false)
}

func (s *ReviewService) find(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Review not found")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// view populates a single review. The product summary is loaded only when
// withProduct is set.
func (s *ReviewService) view(ctx context.Context, review *domain.Review, withProduct bool) (*domain.ReviewView, error) {
	reviews := []domain.Review{*review}

	users, err := loadUsers(ctx, s.users, reviewUserIDs(reviews))
	if err != nil {
		return nil, err
	}

	var products productIndex
	if withProduct {
		products, err = loadProducts(ctx, s.products, []string{review.Product})
		if err != nil {
			return nil, err
		}
	}

	view := reviewViews(reviews, users, products)[0]
	return &view, nil
}
