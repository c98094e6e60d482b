package domain

import (
	"slices"
	"time"
)

// Product status constants.
const (
	ProductStatusLive      = "live"
	ProductStatusInTesting = "in-testing"
	ProductStatusClosed    = "closed"
)

// Product categories.
const (
	CategoryWebApp       = "web-app"
	CategoryMobileApp    = "mobile-app"
	CategorySaaS         = "saas"
	CategoryDesign       = "design"
	CategoryGame         = "game"
	CategoryAI           = "ai"
	CategoryProductivity = "productivity"
	CategoryECommerce    = "e-commerce"
	CategoryFood         = "Food"
	CategoryBeverage     = "Beverage"
	CategoryTravel       = "Travel"
	CategoryOther        = "other"
)

// DefaultCurrency is applied when a product is created without one.
const DefaultCurrency = "INR"

// UnlimitedInventory is stored for products that do not manage inventory so
// that inStock = inventory > 0 holds for both modes.
const UnlimitedInventory = 9999

// Product is an item a brand lists for testing. AvgRating and TotalRatings
// are owned by the rating aggregator.
type Product struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Image           string    `json:"image"`
	Category        string    `json:"category"`
	Link            string    `json:"link"`
	Status          string    `json:"status"`
	Tags            []string  `json:"tags"`
	Maker           string    `json:"maker"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
	AvgRating       float64   `json:"avgRating"`
	TotalRatings    int       `json:"totalRatings"`
	Inventory       int       `json:"inventory"`
	ManageInventory bool      `json:"manageInventory"`
	InStock         bool      `json:"inStock"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Normalize applies the inventory rules and defaults every write path relies
// on. It must run immediately before a product is persisted.
func (p *Product) Normalize() {
	if !p.ManageInventory {
		p.Inventory = UnlimitedInventory
	}
	if p.Inventory < 0 {
		p.Inventory = 0
	}
	p.InStock = p.Inventory > 0

	if p.Status == "" {
		p.Status = ProductStatusLive
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

// AcceptsReviews reports whether new reviews may be created for the product.
func (p *Product) AcceptsReviews() bool {
	return p.Status != ProductStatusClosed
}

// Summary returns the projection embedded in a review.
func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:       p.ID,
		Title:    p.Title,
		Image:    p.Image,
		Category: p.Category,
		Status:   p.Status,
	}
}

// DecrementedInventory returns the stock left after removing quantity units.
// Stock never goes below zero.
func DecrementedInventory(current, quantity int) int {
	return max(0, current-quantity)
}

// ProductSummary is the embedded form of a product.
type ProductSummary struct {
	ID       string `json:"_id"`
	Title    string `json:"title,omitempty"`
	Image    string `json:"image,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ProductView is a product with its maker resolved.
type ProductView struct {
	Product
	Maker *UserSummary `json:"maker"`
}

// ProductDetail is a product with its maker and reviews resolved.
type ProductDetail struct {
	ProductView
	Reviews []ReviewView `json:"reviews"`
}

// ValidStatuses returns the set of valid product statuses.
func ValidStatuses() []string {
	return []string{ProductStatusLive, ProductStatusInTesting, ProductStatusClosed}
}

// IsValidStatus checks whether the given status string is a valid product status.
func IsValidStatus(status string) bool {
	return slices.Contains(ValidStatuses(), status)
}

// ValidCategories returns the closed set of product categories.
func ValidCategories() []string {
	return []string{
		CategoryWebApp, CategoryMobileApp, CategorySaaS, CategoryDesign,
		CategoryGame, CategoryAI, CategoryProductivity, CategoryECommerce,
		CategoryFood, CategoryBeverage, CategoryTravel, CategoryOther,
	}
}

// IsValidCategory checks whether category is one of ValidCategories.
func IsValidCategory(category string) bool {
	return slices.Contains(ValidCategories(), category)
}

// ValidCurrencies returns the accepted currency codes.
func ValidCurrencies() []string {
	return []string{"USD", "EUR", "GBP", "INR", "JPY", "CAD", "AUD"}
}

// IsValidCurrency checks whether code is one of ValidCurrencies.
func IsValidCurrency(code string) bool {
	return slices.Contains(ValidCurrencies(), code)
}
