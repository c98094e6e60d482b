// Package memory provides in-process repositories for development and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

// Store holds every collection behind one lock so multi-record operations
// such as DeleteByProduct are atomic.
type Store struct {
	mu       sync.RWMutex
	seq      int64
	users    map[string]*record[domain.User]
	products map[string]*record[domain.Product]
	reviews  map[string]*record[domain.Review]
	now      func() time.Time
}

// record keeps insertion order so ties in timestamps sort deterministically.
type record[T any] struct {
	seq int64
	val T
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*record[domain.User]),
		products: make(map[string]*record[domain.Product]),
		reviews:  make(map[string]*record[domain.Review]),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Products returns the product repository view of the store.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Reviews returns the review repository view of the store.
func (s *Store) Reviews() *ReviewRepository { return &ReviewRepository{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// UserRepository implements repository.UserRepository.
type UserRepository struct {
	s *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range r.s.users {
		if rec.val.Email == user.Email {
			return apperrors.ErrAlreadyExists
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = &record[domain.User]{seq: r.s.next(), val: cloneUser(*user)}
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u := cloneUser(rec.val)
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rec := range r.s.users {
		if rec.val.Email == email {
			u := cloneUser(rec.val)
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.s.users[id]; ok {
			users = append(users, cloneUser(rec.val))
		}
	}
	return users, nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[user.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.UpdatedAt = r.s.now()
	user.CreatedAt = rec.val.CreatedAt
	rec.val = cloneUser(*user)
	return nil
}

func cloneUser(u domain.User) domain.User {
	u.Interests = slices.Clone(u.Interests)
	if u.Age != nil {
		age := *u.Age
		u.Age = &age
	}
	return u
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ProductRepository implements repository.ProductRepository.
type ProductRepository struct {
	s *Store
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := r.s.now()
	product.CreatedAt, product.UpdatedAt = now, now
	r.s.products[product.ID] = &record[domain.Product]{seq: r.s.next(), val: cloneProduct(*product)}
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p := cloneProduct(rec.val)
	return &p, nil
}

func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.s.products[id]; ok {
			products = append(products, cloneProduct(rec.val))
		}
	}
	return products, nil
}

func (r *ProductRepository) List(_ context.Context, filter repository.ProductFilter) ([]domain.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*record[domain.Product]
	for _, rec := range r.s.products {
		if matchProduct(&rec.val, filter) {
			matched = append(matched, rec)
		}
	}

	sortFields := filter.Sort
	if len(sortFields) == 0 {
		sortFields = repository.DefaultSort
	}
	slices.SortFunc(matched, func(a, b *record[domain.Product]) int {
		for _, f := range sortFields {
			c := compareProducts(&a.val, &b.val, f.Field)
			if f.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(b.seq, a.seq)
	})

	total := int64(len(matched))
	start := min(max(0, (filter.Page-1)*filter.Limit), len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}

	page := make([]domain.Product, 0, end-start)
	for _, rec := range matched[start:end] {
		page = append(page, cloneProduct(rec.val))
	}
	return page, total, nil
}

func (r *ProductRepository) ListByMaker(ctx context.Context, makerID string) ([]domain.Product, error) {
	products, _, err := r.List(ctx, repository.ProductFilter{Maker: makerID})
	return products, err
}

func (r *ProductRepository) Update(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.products[product.ID]
	if !ok {
		return apperrors.ErrNotFound
	}

	updated := cloneProduct(*product)
	updated.AvgRating = rec.val.AvgRating
	updated.TotalRatings = rec.val.TotalRatings
	updated.CreatedAt = rec.val.CreatedAt
	updated.UpdatedAt = r.s.now()
	rec.val = updated

	product.AvgRating, product.TotalRatings = updated.AvgRating, updated.TotalRatings
	product.CreatedAt, product.UpdatedAt = updated.CreatedAt, updated.UpdatedAt
	return nil
}

func (r *ProductRepository) SetRating(_ context.Context, id string, avgRating float64, totalRatings int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.products[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	rec.val.AvgRating = avgRating
	rec.val.TotalRatings = totalRatings
	return nil
}

func (r *ProductRepository) DecrementInventory(_ context.Context, id string, quantity int) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.products[id]
	if !ok || !rec.val.ManageInventory {
		return nil, apperrors.ErrNotFound
	}
	rec.val.Inventory = domain.DecrementedInventory(rec.val.Inventory, quantity)
	rec.val.InStock = rec.val.Inventory > 0
	rec.val.UpdatedAt = r.s.now()

	p := cloneProduct(rec.val)
	return &p, nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func matchProduct(p *domain.Product, f repository.ProductFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Maker != "" && p.Maker != f.Maker {
		return false
	}
	if !f.Price.Contains(p.Price) || !f.AvgRating.Contains(p.AvgRating) {
		return false
	}
	if f.Search == "" {
		return true
	}

	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	return slices.ContainsFunc(p.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), needle)
	})
}

func compareProducts(a, b *domain.Product, field string) int {
	switch field {
	case repository.SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case repository.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case repository.SortTitle:
		return cmp.Compare(a.Title, b.Title)
	case repository.SortPrice:
		return cmp.Compare(a.Price, b.Price)
	case repository.SortAvgRating:
		return cmp.Compare(a.AvgRating, b.AvgRating)
	case repository.SortTotalRatings:
		return cmp.Compare(a.TotalRatings, b.TotalRatings)
	case repository.SortInventory:
		return cmp.Compare(a.Inventory, b.Inventory)
	default:
		return 0
	}
}

func cloneProduct(p domain.Product) domain.Product {
	p.Tags = slices.Clone(p.Tags)
	return p
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

// ReviewRepository implements repository.ReviewRepository.
type ReviewRepository struct {
	s *Store
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range r.s.reviews {
		if rec.val.Product == review.Product && rec.val.Tester == review.Tester {
			return apperrors.ErrAlreadyExists
		}
	}

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.Comments == nil {
		review.Comments = []domain.Comment{}
	}
	now := r.s.now()
	review.CreatedAt, review.UpdatedAt = now, now
	r.s.reviews[review.ID] = &record[domain.Review]{seq: r.s.next(), val: cloneReview(*review)}
	return nil
}

func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.reviews[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	rv := cloneReview(rec.val)
	return &rv, nil
}

func (r *ReviewRepository) FindByProductAndTester(_ context.Context, productID, testerID string) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rec := range r.s.reviews {
		if rec.val.Product == productID && rec.val.Tester == testerID {
			rv := cloneReview(rec.val)
			return &rv, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *ReviewRepository) ListByProduct(_ context.Context, productID string) ([]domain.Review, error) {
	return r.collect(func(rv *domain.Review) bool { return rv.Product == productID }), nil
}

func (r *ReviewRepository) ListByProducts(_ context.Context, productIDs []string) ([]domain.Review, error) {
	return r.collect(func(rv *domain.Review) bool { return slices.Contains(productIDs, rv.Product) }), nil
}

func (r *ReviewRepository) ListByTester(_ context.Context, testerID string) ([]domain.Review, error) {
	return r.collect(func(rv *domain.Review) bool { return rv.Tester == testerID }), nil
}

// collect returns matching reviews newest first.
func (r *ReviewRepository) collect(match func(*domain.Review) bool) []domain.Review {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*record[domain.Review]
	for _, rec := range r.s.reviews {
		if match(&rec.val) {
			matched = append(matched, rec)
		}
	}
	slices.SortFunc(matched, func(a, b *record[domain.Review]) int {
		if c := b.val.CreatedAt.Compare(a.val.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	reviews := make([]domain.Review, 0, len(matched))
	for _, rec := range matched {
		reviews = append(reviews, cloneReview(rec.val))
	}
	return reviews
}

func (r *ReviewRepository) Update(_ context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.reviews[review.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	rec.val.Rating = review.Rating
	rec.val.Text = review.Text
	rec.val.Image = review.Image
	rec.val.UpdatedAt = r.s.now()
	review.UpdatedAt = rec.val.UpdatedAt
	return nil
}

func (r *ReviewRepository) AddComment(_ context.Context, reviewID string, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.reviews[reviewID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.s.now()
	}
	rec.val.Comments = slices.Insert(rec.val.Comments, 0, *comment)
	return nil
}

func (r *ReviewRepository) DeleteComment(_ context.Context, reviewID, commentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.reviews[reviewID]
	if !ok {
		return apperrors.ErrNotFound
	}
	i := rec.val.FindComment(commentID)
	if i < 0 {
		return apperrors.ErrNotFound
	}
	rec.val.Comments = slices.Delete(rec.val.Comments, i, i+1)
	return nil
}

func (r *ReviewRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.reviews, id)
	return nil
}

func (r *ReviewRepository) DeleteByProduct(_ context.Context, productID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, rec := range r.s.reviews {
		if rec.val.Product == productID {
			delete(r.s.reviews, id)
			n++
		}
	}
	return n, nil
}

func (r *ReviewRepository) RatingStats(_ context.Context, productID string) (domain.RatingStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats domain.RatingStats
	for _, rec := range r.s.reviews {
		if rec.val.Product == productID {
			stats.Count++
			stats.Sum += int64(rec.val.Rating)
		}
	}
	return stats, nil
}

func cloneReview(rv domain.Review) domain.Review {
	rv.Comments = slices.Clone(rv.Comments)
	if rv.Comments == nil {
		rv.Comments = []domain.Comment{}
	}
	return rv
}
