package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Volatile-Viv/Try-Karo/internal/config"
	"github.com/Volatile-Viv/Try-Karo/internal/repository"
	"github.com/Volatile-Viv/Try-Karo/internal/repository/memory"
	"github.com/Volatile-Viv/Try-Karo/internal/repository/mongodb"
	"github.com/Volatile-Viv/Try-Karo/internal/repository/postgres"
	"github.com/Volatile-Viv/Try-Karo/migrations"
	"github.com/Volatile-Viv/Try-Karo/pkg/database"
)

// Store is the repository set behind one backing database.
type Store struct {
	Driver   string
	Users    repository.UserRepository
	Products repository.ProductRepository
	Reviews  repository.ReviewRepository

	ping  func(context.Context) error
	close func(context.Context) error
}

// Ping checks the backing database.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backing database.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStore connects to the database selected by cfg.StoreDriver and
// prepares its schema. reg receives the connection pool metrics.
func OpenStore(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*Store, error) {
	if cfg.SlowQuery > 0 {
		database.SetSlowQueryLogging(cfg.SlowQuery, logger)
	}

	switch cfg.StoreDriver {
	case config.StoreMongo:
		return openMongo(ctx, cfg, reg, logger)
	case config.StorePostgres:
		return openPostgres(ctx, cfg, reg, logger)
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		s := memory.NewStore()
		return &Store{
			Driver:   config.StoreMemory,
			Users:    s.Users(),
			Products: s.Products(),
			Reviews:  s.Reviews(),
			ping:     s.Ping,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*Store, error) {
	poolMetrics, err := database.NewMongoPoolMetrics(reg, serviceName)
	if err != nil {
		return nil, fmt.Errorf("register mongo pool metrics: %w", err)
	}

	mongoCfg := database.DefaultMongoConfig()
	mongoCfg.URI = cfg.MongoURI
	mongoCfg.Database = cfg.MongoDatabase
	mongoCfg.PoolMonitor = poolMetrics.Monitor()

	client, err := database.NewMongoClient(ctx, &mongoCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	logger.Info("connected to MongoDB", slog.String("database", cfg.MongoDatabase))

	db := client.Database(cfg.MongoDatabase)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure mongo indexes: %w", err)
	}

	return &Store{
		Driver:   config.StoreMongo,
		Users:    mongodb.NewUserRepository(db),
		Products: mongodb.NewProductRepository(db),
		Reviews:  mongodb.NewReviewRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: client.Disconnect,
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*Store, error) {
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL
	pgCfg.MaxConns = cfg.PostgresMaxConns

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RegisterPoolMetrics(reg, pool, serviceName); err != nil {
		pool.Close()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	return &Store{
		Driver:   config.StorePostgres,
		Users:    postgres.NewUserRepository(pool),
		Products: postgres.NewProductRepository(pool),
		Reviews:  postgres.NewReviewRepository(pool),
		ping:     pool.Ping,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}
