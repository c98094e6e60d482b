package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
)

// Range bounds a numeric field. Nil bounds are ignored.
type Range struct {
	Gte *float64
	Gt  *float64
	Lte *float64
	Lt  *float64
}

// IsZero reports whether no bound is set.
func (r Range) IsZero() bool {
	return r.Gte == nil && r.Gt == nil && r.Lte == nil && r.Lt == nil
}

// Contains reports whether v satisfies every bound.
func (r Range) Contains(v float64) bool {
	switch {
	case r.Gte != nil && v < *r.Gte:
		return false
	case r.Gt != nil && v <= *r.Gt:
		return false
	case r.Lte != nil && v > *r.Lte:
		return false
	case r.Lt != nil && v >= *r.Lt:
		return false
	}
	return true
}

// SortField orders a product listing by one field.
type SortField struct {
	Field string
	Desc  bool
}

// Sortable product fields.
const (
	SortCreatedAt    = "createdAt"
	SortUpdatedAt    = "updatedAt"
	SortTitle        = "title"
	SortPrice        = "price"
	SortAvgRating    = "avgRating"
	SortTotalRatings = "totalRatings"
	SortInventory    = "inventory"
)

// DefaultSort lists newest products first.
var DefaultSort = []SortField{{Field: SortCreatedAt, Desc: true}}

var sortable = map[string]bool{
	SortCreatedAt: true, SortUpdatedAt: true, SortTitle: true, SortPrice: true,
	SortAvgRating: true, SortTotalRatings: true, SortInventory: true,
}

// ParseSort parses a comma-separated sort expression such as
// "-avgRating,price". An empty expression yields DefaultSort.
func ParseSort(raw string) ([]SortField, error) {
	var fields []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := SortField{Field: part}
		if strings.HasPrefix(part, "-") {
			f = SortField{Field: part[1:], Desc: true}
		}
		if !sortable[f.Field] {
			return nil, fmt.Errorf("unsupported sort field: %s", f.Field)
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return DefaultSort, nil
	}
	return fields, nil
}

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Search    string
	Category  string
	Status    string
	Maker     string
	Price     Range
	AvgRating Range
	Sort      []SortField
	Page      int
	Limit     int
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A duplicate email yields ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]domain.User, error)

	// Update persists profile fields and the password hash.
	Update(ctx context.Context, user *domain.User) error
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs returns the products that exist among ids.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)

	// List returns one page of products matching the filter along with the
	// total number of matches.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int64, error)

	// ListByMaker returns every product owned by makerID, newest first.
	ListByMaker(ctx context.Context, makerID string) ([]domain.Product, error)

	// Update persists the client-editable fields and the inventory fields.
	// The rating aggregate is not touched.
	Update(ctx context.Context, product *domain.Product) error

	// SetRating writes the derived rating aggregate.
	SetRating(ctx context.Context, id string, avgRating float64, totalRatings int) error

	// DecrementInventory atomically sets inventory to
	// max(0, inventory - quantity) and inStock to inventory > 0, returning
	// the updated product. Only products with managed inventory match;
	// anything else yields ErrNotFound.
	DecrementInventory(ctx context.Context, id string, quantity int) (*domain.Product, error)

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a review. A second review for the same product and
	// tester yields ErrAlreadyExists.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review with its comments.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// FindByProductAndTester returns the tester's review of a product.
	FindByProductAndTester(ctx context.Context, productID, testerID string) (*domain.Review, error)

	// ListByProduct returns the reviews of a product, newest first.
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)

	// ListByProducts returns the reviews of every product in productIDs.
	ListByProducts(ctx context.Context, productIDs []string) ([]domain.Review, error)

	// ListByTester returns the reviews written by testerID, newest first.
	ListByTester(ctx context.Context, testerID string) ([]domain.Review, error)

	// Update persists rating, text and image.
	Update(ctx context.Context, review *domain.Review) error

	// AddComment prepends a comment to a review, assigning its id and
	// creation time when unset.
	AddComment(ctx context.Context, reviewID string, comment *domain.Comment) error

	// DeleteComment removes a comment from a review.
	DeleteComment(ctx context.Context, reviewID, commentID string) error

	// Delete removes a review.
	Delete(ctx context.Context, id string) error

	// DeleteByProduct removes every review of a product and reports how many
	// were removed.
	DeleteByProduct(ctx context.Context, productID string) (int64, error)

	// RatingStats returns the count and sum of ratings for a product.
	RatingStats(ctx context.Context, productID string) (domain.RatingStats, error)
}
