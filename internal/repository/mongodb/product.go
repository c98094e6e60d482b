package mongodb

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
)

type productDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	Title           string             `bson:"title"`
	Description     string             `bson:"description"`
	Image           string             `bson:"image"`
	Category        string             `bson:"category"`
	Link            string             `bson:"link"`
	Status          string             `bson:"status"`
	Tags            []string           `bson:"tags"`
	Maker           primitive.ObjectID `bson:"maker"`
	Price           float64            `bson:"price"`
	Currency        string             `bson:"currency"`
	AvgRating       float64            `bson:"avgRating"`
	TotalRatings    int                `bson:"totalRatings"`
	Inventory       int                `bson:"inventory"`
	ManageInventory bool               `bson:"manageInventory"`
	InStock         bool               `bson:"inStock"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d *productDocument) toDomain() domain.Product {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Product{
		ID:              d.ID.Hex(),
		Title:           d.Title,
		Description:     d.Description,
		Image:           d.Image,
		Category:        d.Category,
		Link:            d.Link,
		Status:          d.Status,
		Tags:            tags,
		Maker:           d.Maker.Hex(),
		Price:           d.Price,
		Currency:        d.Currency,
		AvgRating:       d.AvgRating,
		TotalRatings:    d.TotalRatings,
		Inventory:       d.Inventory,
		ManageInventory: d.ManageInventory,
		InStock:         d.InStock,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// ProductRepository implements repository.ProductRepository on MongoDB.
type ProductRepository struct {
	coll *mongo.Collection
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new MongoDB-backed product repository.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(ProductsCollection)}
}

// Create inserts a new product and assigns its id.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) (err error) {
	maker, err := objectID(product.Maker)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ProductsCollection, "insert")
	defer func() { end(err) }()

	now := time.Now().UTC()
	doc := productDocument{
		ID:              primitive.NewObjectID(),
		Title:           product.Title,
		Description:     product.Description,
		Image:           product.Image,
		Category:        product.Category,
		Link:            product.Link,
		Status:          product.Status,
		Tags:            product.Tags,
		Maker:           maker,
		Price:           product.Price,
		Currency:        product.Currency,
		AvgRating:       product.AvgRating,
		TotalRatings:    product.TotalRatings,
		Inventory:       product.Inventory,
		ManageInventory: product.ManageInventory,
		InStock:         product.InStock,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		return translate(err, "insert product")
	}

	product.ID = doc.ID.Hex()
	product.CreatedAt, product.UpdatedAt = now, now
	return nil
}

// GetByID retrieves a product by its unique identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, end := trace(ctx, ProductsCollection, "findOne")
	defer func() { end(err) }()

	var doc productDocument
	if err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err, "find product")
	}
	p := doc.toDomain()
	return &p, nil
}

// GetByIDs returns the products that exist among ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.Product{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

// List returns one page of matching products and the total match count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, _ int64, err error) {
	query := buildFilter(filter)

	countCtx, end := trace(ctx, ProductsCollection, "count")
	total, err := r.coll.CountDocuments(countCtx, query)
	end(err)
	if err != nil {
		return nil, 0, translate(err, "count products")
	}

	opts := options.Find().SetSort(sortSpec(filter.Sort))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
		if filter.Page > 1 {
			opts.SetSkip(int64((filter.Page - 1) * filter.Limit))
		}
	}

	products, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListByMaker returns every product owned by makerID, newest first.
func (r *ProductRepository) ListByMaker(ctx context.Context, makerID string) ([]domain.Product, error) {
	maker, err := primitive.ObjectIDFromHex(makerID)
	if err != nil {
		return []domain.Product{}, nil
	}
	opts := options.Find().SetSort(sortSpec(repository.DefaultSort))
	return r.find(ctx, bson.M{"maker": maker}, opts)
}

func (r *ProductRepository) find(ctx context.Context, filter any, opts *options.FindOptions) (_ []domain.Product, err error) {
	ctx, end := trace(ctx, ProductsCollection, "find")
	defer func() { end(err) }()

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "find products")
	}

	var docs []productDocument
	if err = cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode products")
	}

	products := make([]domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toDomain())
	}
	return products, nil
}

// Update persists the editable and inventory fields. The rating aggregate is
// left untouched.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) (err error) {
	oid, err := objectID(product.ID)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ProductsCollection, "update")
	defer func() { end(err) }()

	now := time.Now().UTC()
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"title":           product.Title,
		"description":     product.Description,
		"image":           product.Image,
		"category":        product.Category,
		"link":            product.Link,
		"status":          product.Status,
		"tags":            product.Tags,
		"price":           product.Price,
		"currency":        product.Currency,
		"inventory":       product.Inventory,
		"manageInventory": product.ManageInventory,
		"inStock":         product.InStock,
		"updatedAt":       now,
	}})
	if err != nil {
		return translate(err, "update product")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update product")
	}

	product.UpdatedAt = now
	return nil
}

// SetRating writes the derived rating aggregate.
func (r *ProductRepository) SetRating(ctx context.Context, id string, avgRating float64, totalRatings int) (err error) {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ProductsCollection, "setRating")
	defer func() { end(err) }()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"avgRating":    avgRating,
		"totalRatings": totalRatings,
	}})
	if err != nil {
		return translate(err, "set product rating")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "set product rating")
	}
	return nil
}

// DecrementInventory floors inventory at zero and derives inStock in a
// single pipeline update.
func (r *ProductRepository) DecrementInventory(ctx context.Context, id string, quantity int) (_ *domain.Product, err error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, end := trace(ctx, ProductsCollection, "decrementInventory")
	defer func() { end(err) }()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "inventory", Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$inventory", quantity}}},
			}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "inStock", Value: bson.D{{Key: "$gt", Value: bson.A{"$inventory", 0}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	if err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "manageInventory": true}, pipeline, opts).Decode(&doc); err != nil {
		return nil, translate(err, "decrement inventory")
	}
	p := doc.toDomain()
	return &p, nil
}

// Delete removes a product by id.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ProductsCollection, "delete")
	defer func() { end(err) }()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translate(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, "delete product")
	}
	return nil
}

// buildFilter converts a ProductFilter into a query document. Search text is
// matched literally and case-insensitively.
func buildFilter(f repository.ProductFilter) bson.M {
	query := bson.M{}

	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Maker != "" {
		maker, err := primitive.ObjectIDFromHex(f.Maker)
		if err != nil {
			// Matches nothing, like any id that resolves to no user.
			maker = primitive.NilObjectID
		}
		query["maker"] = maker
	}
	if cond := rangeSpec(f.Price); cond != nil {
		query["price"] = cond
	}
	if cond := rangeSpec(f.AvgRating); cond != nil {
		query["avgRating"] = cond
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": pattern},
		}
	}

	return query
}

func rangeSpec(r repository.Range) bson.M {
	if r.IsZero() {
		return nil
	}
	cond := bson.M{}
	if r.Gte != nil {
		cond["$gte"] = *r.Gte
	}
	if r.Gt != nil {
		cond["$gt"] = *r.Gt
	}
	if r.Lte != nil {
		cond["$lte"] = *r.Lte
	}
	if r.Lt != nil {
		cond["$lt"] = *r.Lt
	}
	return cond
}

// sortSpec maps sort fields onto document keys. _id breaks ties so pages
// are stable.
func sortSpec(fields []repository.SortField) bson.D {
	if len(fields) == 0 {
		fields = repository.DefaultSort
	}
	spec := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		spec = append(spec, bson.E{Key: f.Field, Value: dir})
	}
	return append(spec, bson.E{Key: "_id", Value: -1})
}
