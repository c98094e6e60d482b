package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	Avatar    string             `bson:"avatar"`
	Bio       string             `bson:"bio"`
	Age       *int               `bson:"age,omitempty"`
	Gender    string             `bson:"gender"`
	Interests []string           `bson:"interests"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toDomain() domain.User {
	interests := d.Interests
	if interests == nil {
		interests = []string{}
	}
	return domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         d.Role,
		Avatar:       d.Avatar,
		Bio:          d.Bio,
		Age:          d.Age,
		Gender:       d.Gender,
		Interests:    interests,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// UserRepository implements repository.UserRepository on MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection)}
}

// Create inserts a new user and assigns its id.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (err error) {
	ctx, end := trace(ctx, UsersCollection, "insert")
	defer func() { end(err) }()

	now := time.Now().UTC()
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Role:      user.Role,
		Avatar:    user.Avatar,
		Bio:       user.Bio,
		Age:       user.Age,
		Gender:    user.Gender,
		Interests: user.Interests,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		return translate(err, "insert user")
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (_ *domain.User, err error) {
	ctx, end := trace(ctx, UsersCollection, "findOne")
	defer func() { end(err) }()

	var doc userDocument
	if err = r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "find user")
	}
	u := doc.toDomain()
	return &u, nil
}

// GetByIDs returns the users that exist among ids.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (_ []domain.User, err error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.User{}, nil
	}

	ctx, end := trace(ctx, UsersCollection, "find")
	defer func() { end(err) }()

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, translate(err, "find users")
	}

	var docs []userDocument
	if err = cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode users")
	}

	users := make([]domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// Update persists profile fields and the password hash.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (err error) {
	oid, err := objectID(user.ID)
	if err != nil {
		return err
	}

	ctx, end := trace(ctx, UsersCollection, "update")
	defer func() { end(err) }()

	now := time.Now().UTC()
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"name":      user.Name,
		"password":  user.PasswordHash,
		"avatar":    user.Avatar,
		"bio":       user.Bio,
		"age":       user.Age,
		"gender":    user.Gender,
		"interests": user.Interests,
		"updatedAt": now,
	}})
	if err != nil {
		return translate(err, "update user")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update user")
	}

	user.UpdatedAt = now
	return nil
}
