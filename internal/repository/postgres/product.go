package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	"github.com/Volatile-Viv/Try-Karo/pkg/database"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

const productColumns = `id, title, description, image, category, link, status, tags, maker_id,
	price, currency, avg_rating, total_ratings, inventory, manage_inventory, in_stock,
	created_at, updated_at`

// sortColumns maps sortable fields onto columns. Only these ever reach the
// ORDER BY clause.
var sortColumns = map[string]string{
	repository.SortCreatedAt:    "created_at",
	repository.SortUpdatedAt:    "updated_at",
	repository.SortTitle:        "title",
	repository.SortPrice:        "price",
	repository.SortAvgRating:    "avg_rating",
	repository.SortTotalRatings: "total_ratings",
	repository.SortInventory:    "inventory",
}

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	if !validID(p.Maker) {
		return apperrors.ErrNotFound
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	ctx, end := trace(ctx, "products.insert", query)
	defer func() { end(err) }()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Tags = nonNil(p.Tags)

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Image,
		p.Category,
		p.Link,
		p.Status,
		p.Tags,
		p.Maker,
		p.Price,
		p.Currency,
		p.AvgRating,
		p.TotalRatings,
		p.Inventory,
		p.ManageInventory,
		p.InStock,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return translate(err, "insert product")
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := trace(ctx, "products.select", query)
	defer func() { end(err) }()

	p, err := scanProductRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "scan product")
	}
	return p, nil
}

// GetByIDs returns the products that exist among ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	return r.query(ctx, "products.select_many",
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
}

// List returns one page of products matching the filter and the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, _ int64, err error) {
	where, args := buildWhere(filter)

	countQuery := `SELECT COUNT(*) FROM products` + where
	countCtx, end := trace(ctx, "products.count", countQuery)
	var total int64
	err = r.pool.QueryRow(countCtx, countQuery, args...).Scan(&total)
	end(err)
	if err != nil {
		return nil, 0, translate(err, "count products")
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + orderBy(filter.Sort)
	if filter.Limit > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.Limit
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, offset)
	}

	products, err := r.query(ctx, "products.list", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListByMaker returns every product owned by makerID, newest first.
func (r *ProductRepository) ListByMaker(ctx context.Context, makerID string) ([]domain.Product, error) {
	if !validID(makerID) {
		return []domain.Product{}, nil
	}
	return r.query(ctx, "products.list_by_maker",
		`SELECT `+productColumns+` FROM products WHERE maker_id = $1 ORDER BY created_at DESC, id DESC`, makerID)
}

// Update persists the editable and inventory columns. The rating aggregate
// is not written.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	if !validID(p.ID) {
		return apperrors.ErrNotFound
	}

	query := `
		UPDATE products
		SET title = $1, description = $2, image = $3, category = $4, link = $5, status = $6,
		    tags = $7, price = $8, currency = $9, inventory = $10, manage_inventory = $11,
		    in_stock = $12, updated_at = $13
		WHERE id = $14`

	ctx, end := trace(ctx, "products.update", query)
	defer func() { end(err) }()

	p.UpdatedAt = time.Now().UTC()
	p.Tags = nonNil(p.Tags)

	ct, err := r.pool.Exec(ctx, query,
		p.Title,
		p.Description,
		p.Image,
		p.Category,
		p.Link,
		p.Status,
		p.Tags,
		p.Price,
		p.Currency,
		p.Inventory,
		p.ManageInventory,
		p.InStock,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return translate(err, "update product")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetRating writes the derived rating aggregate.
func (r *ProductRepository) SetRating(ctx context.Context, id string, avgRating float64, totalRatings int) (err error) {
	if !validID(id) {
		return apperrors.ErrNotFound
	}

	query := `UPDATE products SET avg_rating = $1, total_ratings = $2 WHERE id = $3`

	ctx, end := trace(ctx, "products.set_rating", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, avgRating, totalRatings, id)
	if err != nil {
		return translate(err, "set product rating")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DecrementInventory floors inventory at zero in a single UPDATE. Both SET
// expressions read the pre-update inventory.
func (r *ProductRepository) DecrementInventory(ctx context.Context, id string, quantity int) (_ *domain.Product, err error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}

	query := `
		UPDATE products
		SET inventory = GREATEST(inventory - $2, 0),
		    in_stock = GREATEST(inventory - $2, 0) > 0,
		    updated_at = NOW()
		WHERE id = $1 AND manage_inventory
		RETURNING ` + productColumns

	ctx, end := trace(ctx, "products.decrement_inventory", query)
	defer func() { end(err) }()

	p, err := scanProductRow(r.pool.QueryRow(ctx, query, id, quantity))
	if err != nil {
		return nil, translate(err, "decrement inventory")
	}
	return p, nil
}

// Delete removes a product. Reviews must already be gone; the foreign key
// from reviews rejects the delete otherwise and ErrConflict is returned.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	if !validID(id) {
		return apperrors.ErrNotFound
	}

	query := `DELETE FROM products WHERE id = $1`

	ctx, end := trace(ctx, "products.delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return fmt.Errorf("delete product: %w", apperrors.ErrConflict)
		}
		return translate(err, "delete product")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) query(ctx context.Context, operation, query string, args ...any) (_ []domain.Product, err error) {
	ctx, end := trace(ctx, operation, query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list products")
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, translate(err, "scan product row")
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, translate(err, "iterate product rows")
	}
	return products, nil
}

func scanProductRow(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Image,
		&p.Category,
		&p.Link,
		&p.Status,
		&p.Tags,
		&p.Maker,
		&p.Price,
		&p.Currency,
		&p.AvgRating,
		&p.TotalRatings,
		&p.Inventory,
		&p.ManageInventory,
		&p.InStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Tags = nonNil(p.Tags)
	return &p, nil
}

// buildWhere renders the filter as a WHERE clause with positional args.
func buildWhere(f repository.ProductFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		conditions = append(conditions, "category = "+arg(f.Category))
	}
	if f.Status != "" {
		conditions = append(conditions, "status = "+arg(f.Status))
	}
	if f.Maker != "" {
		if !validID(f.Maker) {
			conditions = append(conditions, "FALSE")
		} else {
			conditions = append(conditions, "maker_id = "+arg(f.Maker))
		}
	}
	conditions = appendRange(conditions, "price", f.Price, arg)
	conditions = appendRange(conditions, "avg_rating", f.AvgRating, arg)

	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE %[1]s OR description ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE %[1]s))", p))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func appendRange(conditions []string, column string, r repository.Range, arg func(any) string) []string {
	if r.Gte != nil {
		conditions = append(conditions, column+" >= "+arg(*r.Gte))
	}
	if r.Gt != nil {
		conditions = append(conditions, column+" > "+arg(*r.Gt))
	}
	if r.Lte != nil {
		conditions = append(conditions, column+" <= "+arg(*r.Lte))
	}
	if r.Lt != nil {
		conditions = append(conditions, column+" < "+arg(*r.Lt))
	}
	return conditions
}

func orderBy(fields []repository.SortField) string {
	if len(fields) == 0 {
		fields = repository.DefaultSort
	}
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		col, ok := sortColumns[f.Field]
		if !ok {
			continue
		}
		if f.Desc {
			col += " DESC"
		}
		parts = append(parts, col)
	}
	parts = append(parts, "id DESC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
