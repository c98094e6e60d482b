// Command seed provisions an administrator and, optionally, demo data in the
// configured store.
//
//	seed -admin-email root@example.com -admin-password changeme [-demo]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Volatile-Viv/Try-Karo/internal/app"
	"github.com/Volatile-Viv/Try-Karo/internal/auth"
	"github.com/Volatile-Viv/Try-Karo/internal/config"
	"github.com/Volatile-Viv/Try-Karo/internal/seed"
	"github.com/Volatile-Viv/Try-Karo/internal/service"
	"github.com/Volatile-Viv/Try-Karo/pkg/logger"
)

func main() {
	adminName := flag.String("admin-name", "Administrator", "display name of the admin account")
	adminEmail := flag.String("admin-email", os.Getenv("ADMIN_EMAIL"), "email of the admin account")
	adminPassword := flag.String("admin-password", os.Getenv("ADMIN_PASSWORD"), "password for a newly created admin")
	demo := flag.Bool("demo", false, "also create a demo brand, testers, products and reviews")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("try-karo-seed", cfg.LogLevel)

	if err := run(cfg, log, *adminName, *adminEmail, *adminPassword, *demo); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func run(cfg *config.Config, log *slog.Logger, name, email, password string, demo bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg, prometheus.NewRegistry(), log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if email != "" {
		if _, err := seed.Admin(ctx, store.Users, seed.AdminInput{
			Name: name, Email: email, Password: password,
		}, log); err != nil {
			return err
		}
	}

	if !demo {
		return nil
	}

	ratings := service.NewRatingAggregator(store.Products, store.Reviews, log)
	return seed.Demo(ctx, seed.Services{
		Users:    service.NewUserService(store.Users, auth.NewJWTManager(cfg.JWTSecret, cfg.TokenExpiry()), log),
		Products: service.NewProductService(store.Products, store.Reviews, store.Users, log),
		Reviews:  service.NewReviewService(store.Reviews, store.Products, store.Users, ratings, log),
	}, log)
}
