package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

type commentDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Text      string             `bson:"text"`
	User      primitive.ObjectID `bson:"user"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type reviewDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Rating    int                `bson:"rating"`
	Text      string             `bson:"text"`
	Image     string             `bson:"image,omitempty"`
	Tester    primitive.ObjectID `bson:"tester"`
	Product   primitive.ObjectID `bson:"product"`
	Comments  []commentDocument  `bson:"comments"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *reviewDocument) toDomain() domain.Review {
	comments := make([]domain.Comment, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, domain.Comment{
			ID:        c.ID.Hex(),
			Text:      c.Text,
			User:      c.User.Hex(),
			CreatedAt: c.CreatedAt,
		})
	}
	return domain.Review{
		ID:        d.ID.Hex(),
		Rating:    d.Rating,
		Text:      d.Text,
		Image:     d.Image,
		Tester:    d.Tester.Hex(),
		Product:   d.Product.Hex(),
		Comments:  comments,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ReviewRepository implements repository.ReviewRepository on MongoDB.
// Comments are embedded in the review document.
type ReviewRepository struct {
	coll *mongo.Collection
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a new MongoDB-backed review repository.
func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(ReviewsCollection)}
}

// Create inserts a review. The unique (product, tester) index turns a
// duplicate into ErrAlreadyExists.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	product, err := objectID(review.Product)
	if err != nil {
		return err
	}
	tester, err := objectID(review.Tester)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ReviewsCollection, "insert")
	defer func() { end(err) }()

	now := time.Now().UTC()
	doc := reviewDocument{
		ID:        primitive.NewObjectID(),
		Rating:    review.Rating,
		Text:      review.Text,
		Image:     review.Image,
		Tester:    tester,
		Product:   product,
		Comments:  []commentDocument{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		return translate(err, "insert review")
	}

	review.ID = doc.ID.Hex()
	review.Comments = []domain.Comment{}
	review.CreatedAt, review.UpdatedAt = now, now
	return nil
}

// GetByID retrieves a review with its comments.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByProductAndTester returns the tester's review of a product.
func (r *ReviewRepository) FindByProductAndTester(ctx context.Context, productID, testerID string) (*domain.Review, error) {
	product, err := objectID(productID)
	if err != nil {
		return nil, err
	}
	tester, err := objectID(testerID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"product": product, "tester": tester})
}

func (r *ReviewRepository) findOne(ctx context.Context, filter bson.M) (_ *domain.Review, err error) {
	ctx, end := trace(ctx, ReviewsCollection, "findOne")
	defer func() { end(err) }()

	var doc reviewDocument
	if err = r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "find review")
	}
	rv := doc.toDomain()
	return &rv, nil
}

// ListByProduct returns a product's reviews, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	product, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return []domain.Review{}, nil
	}
	return r.find(ctx, bson.M{"product": product})
}

// ListByProducts returns the reviews of every product in productIDs.
func (r *ReviewRepository) ListByProducts(ctx context.Context, productIDs []string) ([]domain.Review, error) {
	oids := objectIDs(productIDs)
	if len(oids) == 0 {
		return []domain.Review{}, nil
	}
	return r.find(ctx, bson.M{"product": bson.M{"$in": oids}})
}

// ListByTester returns the reviews written by testerID, newest first.
func (r *ReviewRepository) ListByTester(ctx context.Context, testerID string) ([]domain.Review, error) {
	tester, err := primitive.ObjectIDFromHex(testerID)
	if err != nil {
		return []domain.Review{}, nil
	}
	return r.find(ctx, bson.M{"tester": tester})
}

func (r *ReviewRepository) find(ctx context.Context, filter bson.M) (_ []domain.Review, err error) {
	ctx, end := trace(ctx, ReviewsCollection, "find")
	defer func() { end(err) }()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "find reviews")
	}

	var docs []reviewDocument
	if err = cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode reviews")
	}

	reviews := make([]domain.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, docs[i].toDomain())
	}
	return reviews, nil
}

// Update persists rating, text and image.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) (err error) {
	oid, err := objectID(review.ID)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ReviewsCollection, "update")
	defer func() { end(err) }()

	now := time.Now().UTC()
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"rating":    review.Rating,
		"text":      review.Text,
		"image":     review.Image,
		"updatedAt": now,
	}})
	if err != nil {
		return translate(err, "update review")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update review")
	}

	review.UpdatedAt = now
	return nil
}

// AddComment pushes a comment onto the front of the embedded list.
func (r *ReviewRepository) AddComment(ctx context.Context, reviewID string, comment *domain.Comment) (err error) {
	oid, err := objectID(reviewID)
	if err != nil {
		return err
	}
	user, err := objectID(comment.User)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ReviewsCollection, "addComment")
	defer func() { end(err) }()

	id := primitive.NewObjectID()
	if comment.ID != "" {
		if id, err = objectID(comment.ID); err != nil {
			return err
		}
	}

	doc := commentDocument{
		ID:        id,
		Text:      comment.Text,
		User:      user,
		CreatedAt: comment.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$push": bson.M{
		"comments": bson.M{"$each": bson.A{doc}, "$position": 0},
	}})
	if err != nil {
		return translate(err, "add comment")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "add comment")
	}

	comment.ID = doc.ID.Hex()
	comment.CreatedAt = doc.CreatedAt
	return nil
}

// DeleteComment pulls a comment out of the embedded list.
func (r *ReviewRepository) DeleteComment(ctx context.Context, reviewID, commentID string) (err error) {
	oid, err := objectID(reviewID)
	if err != nil {
		return err
	}
	cid, err := objectID(commentID)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ReviewsCollection, "deleteComment")
	defer func() { end(err) }()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$pull": bson.M{"comments": bson.M{"_id": cid}}})
	if err != nil {
		return translate(err, "delete comment")
	}
	if res.MatchedCount == 0 || res.ModifiedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (err error) {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, ReviewsCollection, "delete")
	defer func() { end(err) }()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translate(err, "delete review")
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteByProduct removes every review of a product.
func (r *ReviewRepository) DeleteByProduct(ctx context.Context, productID string) (_ int64, err error) {
	product, err := objectID(productID)
	if err != nil {
		return 0, nil
	}

	ctx, end := trace(ctx, ReviewsCollection, "deleteMany")
	defer func() { end(err) }()

	res, err := r.coll.DeleteMany(ctx, bson.M{"product": product})
	if err != nil {
		return 0, translate(err, "delete product reviews")
	}
	return res.DeletedCount, nil
}

// RatingStats sums a product's ratings with a $group stage.
func (r *ReviewRepository) RatingStats(ctx context.Context, productID string) (_ domain.RatingStats, err error) {
	product, err := objectID(productID)
	if err != nil {
		return domain.RatingStats{}, err
	}

	ctx, end := trace(ctx, ReviewsCollection, "aggregate")
	defer func() { end(err) }()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "product", Value: product}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "sum", Value: bson.D{{Key: "$sum", Value: "$rating"}}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.RatingStats{}, translate(err, "aggregate ratings")
	}

	var rows []struct {
		Count int64 `bson:"count"`
		Sum   int64 `bson:"sum"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return domain.RatingStats{}, translate(err, "decode rating stats")
	}
	if len(rows) == 0 {
		return domain.RatingStats{}, nil
	}
	return domain.RatingStats{Count: rows[0].Count, Sum: rows[0].Sum}, nil
}
