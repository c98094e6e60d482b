// Package mongodb implements the repositories on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Volatile-Viv/Try-Karo/pkg/database"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

// Collection names.
const (
	UsersCollection    = "users"
	ProductsCollection = "products"
	ReviewsCollection  = "reviews"
)

// EnsureIndexes creates the indexes the repositories rely on, including the
// unique constraints on user email and on (product, tester) reviews.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ProductsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "maker", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		ReviewsCollection: {
			{Keys: bson.D{{Key: "product", Value: 1}, {Key: "tester", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "tester", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// trace starts a query span named after the collection and operation.
func trace(ctx context.Context, coll, op string) (context.Context, func(error)) {
	return database.TraceQuery(ctx, database.SystemMongo, coll+"."+op, op+" "+coll)
}

// objectID parses a hex id. Malformed ids cannot match any document, so they
// are reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.ErrNotFound
	}
	return oid, nil
}

// objectIDs parses ids, skipping malformed ones.
func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

// translate maps driver errors onto the shared sentinels.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperrors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, apperrors.ErrAlreadyExists)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
