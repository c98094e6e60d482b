package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Volatile-Viv/Try-Karo/internal/auth"
	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
	"github.com/Volatile-Viv/Try-Karo/pkg/middleware"
)

// MinPasswordLength is the minimum password length accepted at registration
// and on password change.
const MinPasswordLength = 6

// UserService implements registration, login and profile management.
type UserService struct {
	users        repository.UserRepository
	tokens       *auth.JWTManager
	hashPassword func(string) (string, error)
	logger       *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, tokens *auth.JWTManager, logger *slog.Logger) *UserService {
	return &UserService{
		users:        users,
		tokens:       tokens,
		hashPassword: auth.HashPassword,
		logger:       logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateProfileInput holds the profile fields to change. Nil fields are left
// untouched; an empty Avatar is ignored.
type UpdateProfileInput struct {
	Name      *string
	Bio       *string
	Avatar    *string
	Age       *int
	Gender    *string
	Interests []string
}

// Session is the result of a successful authentication.
type Session struct {
	Token string
	User  *domain.User
}

// Register creates a new account and signs a session token for it.
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" {
		return nil, apperrors.InvalidInput("Please add a name")
	}
	if email == "" {
		return nil, apperrors.InvalidInput("Please include a valid email")
	}
	if len(input.Password) < MinPasswordLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Please enter a password with %d or more characters", MinPasswordLength))
	}

	role := input.Role
	if role == "" {
		role = domain.RoleTester
	}
	if !slices.Contains(domain.SelfAssignableRoles(), role) {
		return nil, apperrors.InvalidInput("Role must be Brand or Tester")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.AlreadyExists("User already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Gender:       domain.GenderNotSpecified,
		Interests:    []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return s.session(user)
}

// Login verifies credentials and signs a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return s.session(user)
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input *UpdateProfileInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("Please add a name")
		}
		user.Name = name
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Avatar != nil && *input.Avatar != "" {
		user.Avatar = *input.Avatar
	}
	if input.Age != nil {
		age := *input.Age
		user.Age = &age
	}
	if input.Gender != nil {
		if !domain.IsValidGender(*input.Gender) {
			return nil, apperrors.InvalidInput("Invalid gender")
		}
		user.Gender = *input.Gender
	}
	if input.Interests != nil {
		user.Interests = cleanTags(input.Interests)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))
	return user, nil
}

// ChangePassword replaces the password after verifying the current one and
// returns a fresh session token.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) (*Session, error) {
	if len(next) < MinPasswordLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Please enter a new password with %d or more characters", MinPasswordLength))
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return nil, apperrors.Unauthorized("Current password is incorrect")
	}

	hash, err := s.hashPassword(next)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", user.ID))
	return s.session(user)
}

// Authenticate verifies a bearer token and loads its user. The stored role
// wins over the role in the token.
func (s *UserService) Authenticate(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("Not authorized to access this resource")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("User no longer exists")
		}
		return nil, apperrors.Internal(fmt.Errorf("load token user: %w", err))
	}

	return &middleware.Claims{UserID: user.ID, Role: user.Role}, nil
}

func (s *UserService) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// cleanTags trims entries and drops blanks and duplicates.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
