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

// ProductService implements product management, inventory and cascade
// deletion.
type ProductService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products: products,
		reviews:  reviews,
		users:    users,
		logger:   logger,
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor has the Admin role.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Title           string
	Description     string
	Image           string
	Category        string
	Link            string
	Status          string
	Tags            []string
	Price           float64
	Currency        string
	Inventory       *int
	ManageInventory *bool
}

// UpdateProductInput holds the parameters for updating a product. Nil fields
// are left untouched.
type UpdateProductInput struct {
	Title           *string
	Description     *string
	Image           *string
	Category        *string
	Link            *string
	Status          *string
	Tags            []string
	Price           *float64
	Currency        *string
	Inventory       *int
	ManageInventory *bool
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products []domain.ProductView
	Total    int64
}

// List returns a page of products with their makers populated.
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	views, err := s.withMakers(ctx, products)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: views, Total: total}, nil
}

// ListByMaker returns every product owned by makerID, newest first.
func (s *ProductService) ListByMaker(ctx context.Context, makerID string) ([]domain.ProductView, error) {
	products, err := s.products.ListByMaker(ctx, makerID)
	if err != nil {
		return nil, fmt.Errorf("list products by maker: %w", err)
	}
	return s.withMakers(ctx, products)
}

// Get returns a product with its maker and reviews populated.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.ProductDetail, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	users, err := loadUsers(ctx, s.users, append(reviewUserIDs(reviews), product.Maker))
	if err != nil {
		return nil, err
	}

	return &domain.ProductDetail{
		ProductView: domain.ProductView{
			Product: *product,
			Maker:   users.summary(product.Maker, makerFields),
		},
		Reviews: reviewViews(reviews, users, nil),
	}, nil
}

// Create stores a new product owned by the actor.
func (s *ProductService) Create(ctx context.Context, actor Actor, input *CreateProductInput) (*domain.Product, error) {
	if err := checkCatalogFields(input.Category, input.Currency); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Image:           input.Image,
		Category:        input.Category,
		Link:            input.Link,
		Status:          input.Status,
		Tags:            cleanTags(input.Tags),
		Maker:           actor.ID,
		Price:           input.Price,
		Currency:        input.Currency,
		ManageInventory: true,
	}
	if input.ManageInventory != nil {
		product.ManageInventory = *input.ManageInventory
	}
	if input.Inventory != nil {
		product.Inventory = *input.Inventory
	}
	product.Normalize()

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("maker", product.Maker),
		slog.Int("inventory", product.Inventory),
	)

	return product, nil
}

// Update applies a partial update. Only the maker or an admin may update.
func (s *ProductService) Update(ctx context.Context, actor Actor, id string, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Maker != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Not authorized to update this product")
	}
	if err := checkCatalogFields(deref(input.Category), deref(input.Currency)); err != nil {
		return nil, err
	}

	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Image != nil {
		product.Image = *input.Image
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Link != nil {
		product.Link = *input.Link
	}
	if input.Status != nil {
		product.Status = *input.Status
	}
	if input.Tags != nil {
		product.Tags = cleanTags(input.Tags)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Currency != nil {
		product.Currency = *input.Currency
	}
	if input.ManageInventory != nil {
		product.ManageInventory = *input.ManageInventory
	}
	if input.Inventory != nil {
		product.Inventory = *input.Inventory
	}
	product.Normalize()

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
		slog.String("user_id", actor.ID),
	)

	return product, nil
}

// Delete removes a product and every review of it. Reviews go first so no
// review is left pointing at a missing product.
func (s *ProductService) Delete(ctx context.Context, actor Actor, id string) error {
	product, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if product.Maker != actor.ID && !actor.IsAdmin() {
		return apperrors.Forbidden("Not authorized to delete this product")
	}

	removed, err := s.reviews.DeleteByProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("delete product reviews: %w", err)
	}

	err = s.products.Delete(ctx, product.ID)
	if errors.Is(err, apperrors.ErrConflict) {
		// A review was written after the sweep.
		more, sweepErr := s.reviews.DeleteByProduct(ctx, product.ID)
		if sweepErr != nil {
			return fmt.Errorf("delete product reviews: %w", sweepErr)
		}
		removed += more
		err = s.products.Delete(ctx, product.ID)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("Product not found")
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", product.ID),
		slog.String("user_id", actor.ID),
		slog.Int64("reviews_removed", removed),
	)

	return nil
}

// DecrementInventory lowers stock on behalf of the product's maker or an
// admin.
func (s *ProductService) DecrementInventory(ctx context.Context, actor Actor, id string, quantity int) (*domain.Product, error) {
	return s.decrement(ctx, &actor, id, quantity)
}

// Checkout lowers stock for a purchase by any authenticated user.
func (s *ProductService) Checkout(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	return s.decrement(ctx, nil, id, quantity)
}

// decrement checks ownership when actor is non-nil. Unmanaged products are
// returned unchanged; managed ones are decremented atomically, flooring at
// zero. The store only decrements managed products, so a product switched
// to unmanaged after the read keeps its inventory.
func (s *ProductService) decrement(ctx context.Context, actor *Actor, id string, quantity int) (*domain.Product, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be greater than or equal to 1")
	}

	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && product.Maker != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Not authorized to update this product")
	}
	if !product.ManageInventory {
		return product, nil
	}

	updated, err := s.products.DecrementInventory(ctx, product.ID, quantity)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Deleted, or switched to unmanaged since the read.
			return s.find(ctx, product.ID)
		}
		return nil, fmt.Errorf("decrement inventory: %w", err)
	}

	s.logger.InfoContext(ctx, "inventory decremented",
		slog.String("product_id", updated.ID),
		slog.Int("quantity", quantity),
		slog.Int("inventory", updated.Inventory),
		slog.Bool("checkout", actor == nil),
	)

	return updated, nil
}

func (s *ProductService) find(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *ProductService) withMakers(ctx context.Context, products []domain.Product) ([]domain.ProductView, error) {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.Maker)
	}
	users, err := loadUsers(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, domain.ProductView{
			Product: p,
			Maker:   users.summary(p.Maker, basicFields),
		})
	}
	return views, nil
}

// checkCatalogFields rejects unknown categories and currencies. Empty values
// are left to defaults.
func checkCatalogFields(category, currency string) error {
	if category != "" && !domain.IsValidCategory(category) {
		return apperrors.InvalidInput("Please select a valid category")
	}
	if currency != "" && !domain.IsValidCurrency(currency) {
		return apperrors.InvalidInput("Unsupported currency " + currency)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
