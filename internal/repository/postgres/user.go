package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	"github.com/Volatile-Viv/Try-Karo/pkg/database"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

const userColumns = `id, name, email, password, role, avatar, bio, age, gender, interests, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := trace(ctx, "users.insert", query)
	defer func() { end(err) }()

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Interests = nonNil(u.Interests)

	_, err = r.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.Avatar,
		u.Bio,
		u.Age,
		u.Gender,
		u.Interests,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return translate(err, "insert user")
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByIDs returns the users that exist among ids.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (_ []domain.User, err error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []domain.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	ctx, end := trace(ctx, "users.select_many", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, translate(err, "list users")
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, translate(err, "scan user row")
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, translate(err, "iterate user rows")
	}
	return users, nil
}

// Update persists profile fields and the password hash.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	if !validID(u.ID) {
		return apperrors.ErrNotFound
	}

	query := `
		UPDATE users
		SET name = $1, password = $2, avatar = $3, bio = $4, age = $5, gender = $6,
		    interests = $7, updated_at = $8
		WHERE id = $9`

	ctx, end := trace(ctx, "users.update", query)
	defer func() { end(err) }()

	u.UpdatedAt = time.Now().UTC()
	u.Interests = nonNil(u.Interests)

	ct, err := r.pool.Exec(ctx, query,
		u.Name,
		u.PasswordHash,
		u.Avatar,
		u.Bio,
		u.Age,
		u.Gender,
		u.Interests,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return translate(err, "update user")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (_ *domain.User, err error) {
	ctx, end := trace(ctx, "users.select", query)
	defer func() { end(err) }()

	u, err := scanUserRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err, "scan user")
	}
	return u, nil
}

func scanUserRow(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Avatar,
		&u.Bio,
		&u.Age,
		&u.Gender,
		&u.Interests,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Interests = nonNil(u.Interests)
	return &u, nil
}
