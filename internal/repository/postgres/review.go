package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	"github.com/Volatile-Viv/Try-Karo/pkg/database"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

const reviewColumns = `id, rating, text, image, tester_id, product_id, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
// Comments live in review_comments and are loaded with their reviews.
type ReviewRepository struct {
	pool database.DBTX
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review. The (product_id, tester_id) unique constraint
// turns a duplicate into ErrAlreadyExists.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	if !validID(rv.Product) || !validID(rv.Tester) {
		return apperrors.ErrNotFound
	}

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := trace(ctx, "reviews.insert", query)
	defer func() { end(err) }()

	if rv.ID == "" {
		rv.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rv.CreatedAt, rv.UpdatedAt = now, now
	rv.Comments = []domain.Comment{}

	_, err = r.pool.Exec(ctx, query,
		rv.ID,
		rv.Rating,
		rv.Text,
		rv.Image,
		rv.Tester,
		rv.Product,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	return translate(err, "insert review")
}

// GetByID retrieves a review with its comments.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}
	return r.getOne(ctx, "reviews.select", `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
}

// FindByProductAndTester returns the tester's review of a product.
func (r *ReviewRepository) FindByProductAndTester(ctx context.Context, productID, testerID string) (*domain.Review, error) {
	if !validID(productID) || !validID(testerID) {
		return nil, apperrors.ErrNotFound
	}
	return r.getOne(ctx, "reviews.select_by_pair",
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = $1 AND tester_id = $2`, productID, testerID)
}

func (r *ReviewRepository) getOne(ctx context.Context, operation, query string, args ...any) (*domain.Review, error) {
	reviews, err := r.list(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &reviews[0], nil
}

// ListByProduct returns a product's reviews, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	if !validID(productID) {
		return []domain.Review{}, nil
	}
	return r.list(ctx, "reviews.list_by_product",
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC, id DESC`, productID)
}

// ListByProducts returns the reviews of every product in productIDs.
func (r *ReviewRepository) ListByProducts(ctx context.Context, productIDs []string) ([]domain.Review, error) {
	productIDs = validIDs(productIDs)
	if len(productIDs) == 0 {
		return []domain.Review{}, nil
	}
	return r.list(ctx, "reviews.list_by_products",
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = ANY($1) ORDER BY created_at DESC, id DESC`, productIDs)
}

// ListByTester returns the reviews written by testerID, newest first.
func (r *ReviewRepository) ListByTester(ctx context.Context, testerID string) ([]domain.Review, error) {
	if !validID(testerID) {
		return []domain.Review{}, nil
	}
	return r.list(ctx, "reviews.list_by_tester",
		`SELECT `+reviewColumns+` FROM reviews WHERE tester_id = $1 ORDER BY created_at DESC, id DESC`, testerID)
}

// list runs a review query and attaches comments with one extra query.
func (r *ReviewRepository) list(ctx context.Context, operation, query string, args ...any) (_ []domain.Review, err error) {
	qctx, end := trace(ctx, operation, query)
	reviews, err := r.scanReviews(qctx, query, args...)
	end(err)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return reviews, nil
	}

	ids := make([]string, len(reviews))
	index := make(map[string]int, len(reviews))
	for i, rv := range reviews {
		ids[i] = rv.ID
		index[rv.ID] = i
	}

	commentQuery := `
		SELECT id, review_id, user_id, text, created_at
		FROM review_comments
		WHERE review_id = ANY($1)
		ORDER BY created_at DESC, id DESC`

	cctx, end := trace(ctx, "review_comments.select", commentQuery)
	defer func() { end(err) }()

	rows, err := r.pool.Query(cctx, commentQuery, ids)
	if err != nil {
		return nil, translate(err, "list comments")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c        domain.Comment
			reviewID string
		)
		if err = rows.Scan(&c.ID, &reviewID, &c.User, &c.Text, &c.CreatedAt); err != nil {
			return nil, translate(err, "scan comment row")
		}
		if i, ok := index[reviewID]; ok {
			reviews[i].Comments = append(reviews[i].Comments, c)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, translate(err, "iterate comment rows")
	}
	return reviews, nil
}

func (r *ReviewRepository) scanReviews(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list reviews")
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv := domain.Review{Comments: []domain.Comment{}}
		if err := rows.Scan(
			&rv.ID,
			&rv.Rating,
			&rv.Text,
			&rv.Image,
			&rv.Tester,
			&rv.Product,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return nil, translate(err, "scan review row")
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate review rows")
	}
	return reviews, nil
}

// Update persists rating, text and image.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) (err error) {
	if !validID(rv.ID) {
		return apperrors.ErrNotFound
	}

	query := `UPDATE reviews SET rating = $1, text = $2, image = $3, updated_at = $4 WHERE id = $5`

	ctx, end := trace(ctx, "reviews.update", query)
	defer func() { end(err) }()

	rv.UpdatedAt = time.Now().UTC()
	ct, err := r.pool.Exec(ctx, query, rv.Rating, rv.Text, rv.Image, rv.UpdatedAt, rv.ID)
	if err != nil {
		return translate(err, "update review")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AddComment inserts a comment. A missing review surfaces as a foreign key
// violation and is reported as not found.
func (r *ReviewRepository) AddComment(ctx context.Context, reviewID string, c *domain.Comment) (err error) {
	if !validID(reviewID) || !validID(c.User) {
		return apperrors.ErrNotFound
	}

	query := `INSERT INTO review_comments (id, review_id, user_id, text, created_at) VALUES ($1, $2, $3, $4, $5)`

	ctx, end := trace(ctx, "review_comments.insert", query)
	defer func() { end(err) }()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx, query, c.ID, reviewID, c.User, c.Text, c.CreatedAt)
	return translate(err, "insert comment")
}

// DeleteComment removes one comment of a review.
func (r *ReviewRepository) DeleteComment(ctx context.Context, reviewID, commentID string) (err error) {
	if !validID(reviewID) || !validID(commentID) {
		return apperrors.ErrNotFound
	}

	query := `DELETE FROM review_comments WHERE id = $1 AND review_id = $2`

	ctx, end := trace(ctx, "review_comments.delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, commentID, reviewID)
	if err != nil {
		return translate(err, "delete comment")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a review. Its comments go with it via ON DELETE CASCADE.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (err error) {
	if !validID(id) {
		return apperrors.ErrNotFound
	}

	query := `DELETE FROM reviews WHERE id = $1`

	ctx, end := trace(ctx, "reviews.delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return translate(err, "delete review")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteByProduct removes every review of a product.
func (r *ReviewRepository) DeleteByProduct(ctx context.Context, productID string) (_ int64, err error) {
	if !validID(productID) {
		return 0, nil
	}

	query := `DELETE FROM reviews WHERE product_id = $1`

	ctx, end := trace(ctx, "reviews.delete_by_product", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, productID)
	if err != nil {
		return 0, translate(err, "delete product reviews")
	}
	return ct.RowsAffected(), nil
}

// RatingStats returns the count and sum of a product's ratings.
func (r *ReviewRepository) RatingStats(ctx context.Context, productID string) (_ domain.RatingStats, err error) {
	if !validID(productID) {
		return domain.RatingStats{}, apperrors.ErrNotFound
	}

	query := `SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews WHERE product_id = $1`

	ctx, end := trace(ctx, "reviews.rating_stats", query)
	defer func() { end(err) }()

	var stats domain.RatingStats
	if err = r.pool.QueryRow(ctx, query, productID).Scan(&stats.Count, &stats.Sum); err != nil {
		return domain.RatingStats{}, translate(err, "rating stats")
	}
	return stats, nil
}
