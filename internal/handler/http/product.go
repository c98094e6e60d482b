package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	"github.com/Volatile-Viv/Try-Karo/internal/service"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
	"github.com/Volatile-Viv/Try-Karo/pkg/httputil"
	"github.com/Volatile-Viv/Try-Karo/pkg/pagination"
	"github.com/Volatile-Viv/Try-Karo/pkg/validator"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Title           string   `json:"title" validate:"required,max=100"`
	Description     string   `json:"description" validate:"required,max=2000"`
	Image           string   `json:"image"`
	Category        string   `json:"category" validate:"required,oneof=web-app mobile-app saas design game ai productivity e-commerce Food Beverage Travel other"`
	Link            string   `json:"link" validate:"required,weblink"`
	Status          string   `json:"status" validate:"omitempty,oneof=live in-testing closed"`
	Tags            []string `json:"tags"`
	Price           *float64 `json:"price" validate:"required,gte=0"`
	Currency        string   `json:"currency" validate:"omitempty,oneof=USD EUR GBP INR JPY CAD AUD"`
	Inventory       *int     `json:"inventory" validate:"omitempty,gte=0"`
	ManageInventory *bool    `json:"manageInventory"`
}

// UpdateProductRequest is the JSON request body for updating a product.
type UpdateProductRequest struct {
	Title           *string  `json:"title" validate:"omitempty,min=1,max=100"`
	Description     *string  `json:"description" validate:"omitempty,min=1,max=2000"`
	Image           *string  `json:"image"`
	Category        *string  `json:"category" validate:"omitempty,oneof=web-app mobile-app saas design game ai productivity e-commerce Food Beverage Travel other"`
	Link            *string  `json:"link" validate:"omitempty,weblink"`
	Status          *string  `json:"status" validate:"omitempty,oneof=live in-testing closed"`
	Tags            []string `json:"tags"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	Currency        *string  `json:"currency" validate:"omitempty,oneof=USD EUR GBP INR JPY CAD AUD"`
	Inventory       *int     `json:"inventory" validate:"omitempty,gte=0"`
	ManageInventory *bool    `json:"manageInventory"`
}

// QuantityRequest is the JSON request body for inventory and checkout.
type QuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// --- Handlers ---

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	params := pagination.FromRequest(r)
	filter.Page, filter.Limit = params.Page, params.Limit

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var data any = page.Products
	if fields := parseSelect(r.URL.Query().Get("select")); len(fields) > 0 {
		data, err = project(page.Products, fields)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}

	count := len(page.Products)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Success:    true,
		Count:      &count,
		Total:      &page.Total,
		Pagination: pagination.NewLinks(params, page.Total),
		Data:       data,
	})
}

// ListMine handles GET /api/products/user
func (h *ProductHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListByMaker(r.Context(), actor(r).ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteList(w, products)
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, detail)
}

// Create handles POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), actor(r), &service.CreateProductInput{
		Title:           req.Title,
		Description:     req.Description,
		Image:           req.Image,
		Category:        req.Category,
		Link:            req.Link,
		Status:          req.Status,
		Tags:            req.Tags,
		Price:           *req.Price,
		Currency:        req.Currency,
		Inventory:       req.Inventory,
		ManageInventory: req.ManageInventory,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), actor(r), chi.URLParam(r, "id"), &service.UpdateProductInput{
		Title:           req.Title,
		Description:     req.Description,
		Image:           req.Image,
		Category:        req.Category,
		Link:            req.Link,
		Status:          req.Status,
		Tags:            req.Tags,
		Price:           req.Price,
		Currency:        req.Currency,
		Inventory:       req.Inventory,
		ManageInventory: req.ManageInventory,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, struct{}{})
}

// DecrementInventory handles PUT /api/products/{id}/inventory
func (h *ProductHandler) DecrementInventory(w http.ResponseWriter, r *http.Request) {
	quantity, ok := h.quantity(w, r)
	if !ok {
		return
	}

	product, err := h.service.DecrementInventory(r.Context(), actor(r), chi.URLParam(r, "id"), quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// Checkout handles PUT /api/products/{id}/checkout
func (h *ProductHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	quantity, ok := h.quantity(w, r)
	if !ok {
		return
	}

	product, err := h.service.Checkout(r.Context(), chi.URLParam(r, "id"), quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

func (h *ProductHandler) quantity(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitBody(w, r, maxJSONBody)

	var req QuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return 0, false
	}
	if req.Quantity == nil {
		httputil.WriteMessage(w, r, http.StatusBadRequest, "Quantity is required")
		return 0, false
	}
	return *req.Quantity, true
}

// --- Query parsing ---

var rangeOps = []string{"gte", "gt", "lte", "lt"}

// parseProductFilter reads search, exact-match, range and sort parameters.
// Pagination is read separately.
func parseProductFilter(q url.Values) (repository.ProductFilter, error) {
	filter := repository.ProductFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Maker:  q.Get("maker"),
	}

	if v := q.Get("category"); v != "" {
		if !domain.IsValidCategory(v) {
			return filter, apperrors.InvalidInput("category must be one of: " + strings.Join(domain.ValidCategories(), " "))
		}
		filter.Category = v
	}
	if v := q.Get("status"); v != "" {
		if !domain.IsValidStatus(v) {
			return filter, apperrors.InvalidInput("status must be one of: " + strings.Join(domain.ValidStatuses(), " "))
		}
		filter.Status = v
	}

	var err error
	if filter.Price, err = parseRange(q, "price"); err != nil {
		return filter, err
	}
	if filter.AvgRating, err = parseRange(q, "avgRating"); err != nil {
		return filter, err
	}

	if filter.Sort, err = repository.ParseSort(q.Get("sort")); err != nil {
		return filter, apperrors.InvalidInput(err.Error())
	}

	return filter, nil
}

// parseRange reads field[gte], field[gt], field[lte] and field[lt].
func parseRange(q url.Values, field string) (repository.Range, error) {
	var rng repository.Range
	bounds := map[string]**float64{
		"gte": &rng.Gte,
		"gt":  &rng.Gt,
		"lte": &rng.Lte,
		"lt":  &rng.Lt,
	}

	for _, op := range rangeOps {
		key := field + "[" + op + "]"
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rng, apperrors.InvalidInput(key + " must be a number")
		}
		*bounds[op] = &v
	}
	return rng, nil
}

// parseSelect splits a comma-separated projection.
func parseSelect(raw string) []string {
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// project keeps only the named JSON fields of each item. The id is always
// kept.
func project[T any](items []T, fields []string) ([]map[string]any, error) {
	keep := map[string]bool{"_id": true}
	for _, f := range fields {
		if f == "id" {
			f = "_id"
		}
		keep[f] = true
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode item: %w", err)
		}
		var full map[string]any
		if err := json.Unmarshal(b, &full); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		for k := range full {
			if !keep[k] {
				delete(full, k)
			}
		}
		out = append(out, full)
	}
	return out, nil
}
