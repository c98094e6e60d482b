package config

import (
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/Volatile-Viv/Try-Karo/internal/auth"
	pkgconfig "github.com/Volatile-Viv/Try-Karo/pkg/config"
)

// Store and storage driver names.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	StorageCloudinary = "cloudinary"
	StorageMemory     = "memory"
)

// groqPlaceholderKey is the value shipped in example env files.
const groqPlaceholderKey = "your_groq_api_key_here"

// Config holds all configuration for the Try Karo API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"5000"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`

	// MongoDB
	MongoURI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"try-karo"`

	// PostgreSQL
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPass     string        `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"trykaro"`
	PostgresSSL      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32         `env:"POSTGRES_MAX_CONNS" envDefault:"25"`
	SlowQuery        time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// JWT
	JWTSecret string `env:"JWT_SECRET,required"`
	JWTExpire string `env:"JWT_EXPIRE" envDefault:"30d"`

	// Chat
	GroqAPIKey  string `env:"GROQ_API_KEY"`
	GroqModel   string `env:"GROQ_MODEL" envDefault:"llama3-8b-8192"`
	GroqBaseURL string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`

	// Image storage
	StorageDriver       string `env:"STORAGE_DRIVER" envDefault:"cloudinary"`
	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	// CORS
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	// Rate limiting
	RateLimitRPS   int     `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
	ChatRateLimit  int     `env:"CHAT_RATE_LIMIT" envDefault:"20"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Debug
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32" envSeparator:","`

	tokenExpiry time.Duration
}

// Load reads configuration from the environment, merging a .env file in the
// working directory when one exists.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}

	cfg := &Config{}
	if err := pkgconfig.Load(cfg, dotenvFiles...); err != nil {
		return nil, fmt.Errorf("load try-karo config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if !slices.Contains([]string{StoreMongo, StorePostgres, StoreMemory}, c.StoreDriver) {
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if !slices.Contains([]string{StorageCloudinary, StorageMemory}, c.StorageDriver) {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageDriver == StorageCloudinary &&
		(c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "") {
		return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary storage driver")
	}

	// Outside development the secret must be strong.
	if !c.IsDevelopment() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
	}

	expiry, err := auth.ParseExpiry(c.JWTExpire)
	if err != nil {
		return fmt.Errorf("JWT_EXPIRE: %w", err)
	}
	c.tokenExpiry = expiry

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.ChatRateLimit < 1 {
		return fmt.Errorf("CHAT_RATE_LIMIT must be positive, got %d", c.ChatRateLimit)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTELSampleRate)
	}

	for _, cidr := range c.PprofAllowedCIDRs {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("invalid PPROF_ALLOWED_CIDRS entry %q: %w", cidr, err)
		}
	}

	return nil
}

// IsDevelopment reports whether the API runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// TokenExpiry returns the parsed JWT_EXPIRE. Valid after Validate.
func (c *Config) TokenExpiry() time.Duration {
	return c.tokenExpiry
}

// ChatEnabled reports whether a real LLM key is configured. Without one the
// chat endpoint answers with a canned response.
func (c *Config) ChatEnabled() bool {
	key := strings.TrimSpace(c.GroqAPIKey)
	return key != "" && key != groqPlaceholderKey
}
