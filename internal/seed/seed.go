// Package seed provisions administrators and demo data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Volatile-Viv/Try-Karo/internal/auth"
	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	"github.com/Volatile-Viv/Try-Karo/internal/service"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

// AdminInput describes the administrator account to provision.
type AdminInput struct {
	Name     string
	Email    string
	Password string
}

// Admin creates an administrator, or promotes the existing account with the
// same email. The password is only set when the account is created.
func Admin(ctx context.Context, users repository.UserRepository, input AdminInput, logger *slog.Logger) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("admin email is required")
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin {
			logger.Info("admin already provisioned", slog.String("user_id", existing.ID))
			return existing, nil
		}
		existing.Role = domain.RoleAdmin
		if err := users.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("promote user: %w", err)
		}
		logger.Info("user promoted to admin", slog.String("user_id", existing.ID))
		return existing, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	if len(input.Password) < 6 {
		return nil, fmt.Errorf("admin password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Administrator"
	}

	admin := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Gender:       domain.GenderNotSpecified,
		Interests:    []string{},
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	logger.Info("admin created", slog.String("user_id", admin.ID), slog.String("email", email))
	return admin, nil
}

// Services are the application services demo data is written through, so
// ratings and inventory follow the same rules as API traffic.
type Services struct {
	Users    *service.UserService
	Products *service.ProductService
	Reviews  *service.ReviewService
}

// DemoPassword is the password of every demo account.
const DemoPassword = "password123"

type demoProduct struct {
	input   service.CreateProductInput
	ratings []int
}

func intPtr(v int) *int { return &v }

var demoProducts = []demoProduct{
	{
		input: service.CreateProductInput{
			Title:       "Masala Chai Concentrate",
			Description: "Small-batch spiced tea concentrate. Tell us how strong you like it.",
			Category:    domain.CategoryBeverage,
			Link:        "https://example.com/chai",
			Tags:        []string{"tea", "spices"},
			Price:       349,
			Inventory:   intPtr(50),
		},
		ratings: []int{5, 4},
	},
	{
		input: service.CreateProductInput{
			Title:       "Trail Planner",
			Description: "Plan multi-day treks with offline maps and weather alerts.",
			Category:    domain.CategoryTravel,
			Link:        "https://example.com/trail",
			Status:      domain.ProductStatusInTesting,
			Tags:        []string{"outdoors", "maps"},
			Price:       0,
		},
		ratings: []int{3},
	},
	{
		input: service.CreateProductInput{
			Title:       "Pixel Cricket",
			Description: "Retro cricket game for quick matches on the go.",
			Category:    domain.CategoryGame,
			Link:        "https://example.com/pixel-cricket",
			Tags:        []string{"games", "retro"},
			Price:       99,
			Currency:    "INR",
		},
	},
}

var demoTesters = []struct {
	name      string
	email     string
	age       int
	gender    string
	interests []string
}{
	{"Asha Tester", "asha@demo.trykaro.app", 24, domain.GenderFemale, []string{"tea", "games"}},
	{"Ravi Tester", "ravi@demo.trykaro.app", 31, domain.GenderMale, []string{"travel", "outdoors"}},
}

const demoBrandEmail = "brand@demo.trykaro.app"

// Demo creates a brand, two testers, a few products and reviews. It does
// nothing when the demo brand already exists.
func Demo(ctx context.Context, svc Services, logger *slog.Logger) error {
	if _, err := svc.Users.Login(ctx, demoBrandEmail, DemoPassword); err == nil {
		logger.Info("demo data already present")
		return nil
	}

	brand, err := svc.Users.Register(ctx, &service.RegisterInput{
		Name: "Demo Brand", Email: demoBrandEmail, Password: DemoPassword, Role: domain.RoleBrand,
	})
	if err != nil {
		return fmt.Errorf("register demo brand: %w", err)
	}
	maker := service.Actor{ID: brand.User.ID, Role: domain.RoleBrand}

	testers := make([]service.Actor, 0, len(demoTesters))
	for _, dt := range demoTesters {
		session, err := svc.Users.Register(ctx, &service.RegisterInput{
			Name: dt.name, Email: dt.email, Password: DemoPassword, Role: domain.RoleTester,
		})
		if err != nil {
			return fmt.Errorf("register %s: %w", dt.email, err)
		}
		age, gender := dt.age, dt.gender
		if _, err := svc.Users.UpdateProfile(ctx, session.User.ID, &service.UpdateProfileInput{
			Age: &age, Gender: &gender, Interests: dt.interests,
		}); err != nil {
			return fmt.Errorf("update %s profile: %w", dt.email, err)
		}
		testers = append(testers, service.Actor{ID: session.User.ID, Role: domain.RoleTester})
	}

	for _, dp := range demoProducts {
		input := dp.input
		product, err := svc.Products.Create(ctx, maker, &input)
		if err != nil {
			return fmt.Errorf("create %q: %w", dp.input.Title, err)
		}
		for i, rating := range dp.ratings {
			if _, err := svc.Reviews.Create(ctx, testers[i%len(testers)], product.ID, &service.CreateReviewInput{
				Rating: rating,
				Text:   fmt.Sprintf("Tried %s for a week.", product.Title),
			}); err != nil {
				return fmt.Errorf("review %q: %w", product.Title, err)
			}
		}
	}

	logger.Info("demo data created",
		slog.Int("products", len(demoProducts)),
		slog.Int("testers", len(testers)),
	)
	return nil
}
