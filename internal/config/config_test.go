package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

// setEnvs sets env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func devEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":    "development",
		"JWT_SECRET":     "dev-secret",
		"STORAGE_DRIVER": StorageMemory,
	})
}

func TestLoad_Defaults(t *testing.T) {
	devEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "try-karo", cfg.MongoDatabase)
	assert.Equal(t, "http://localhost:5173", cfg.ClientURL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQuery)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenExpiry())
	assert.Equal(t, 20, cfg.ChatRateLimit)
	assert.False(t, cfg.ChatEnabled())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	setEnvs(t, map[string]string{"STORAGE_DRIVER": StorageMemory, "JWT_SECRET": ""})
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_DotenvFile(t *testing.T) {
	devEnv(t)
	t.Setenv("HTTP_PORT", "7000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=6000\nMONGODB_DATABASE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MONGODB_DATABASE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.HTTPPort, "process env wins over the file")
	assert.Equal(t, "from-file", cfg.MongoDatabase)
}

func TestLoad_Production_RejectsShortSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":    "production",
		"JWT_SECRET":     "short",
		"STORAGE_DRIVER": StorageMemory,
	})

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_Production_AcceptsStrongSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":    "production",
		"JWT_SECRET":     strongSecret,
		"STORAGE_DRIVER": StorageMemory,
	})

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}

func validConfig() *Config {
	return &Config{
		Environment:       "development",
		HTTPPort:          5000,
		StoreDriver:       StoreMemory,
		StorageDriver:     StorageMemory,
		JWTSecret:         "dev",
		JWTExpire:         "30d",
		ChatRateLimit:     20,
		OTELSampleRate:    1,
		PprofAllowedCIDRs: []string{"127.0.0.1/32"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.HTTPPort = 70000 }, "invalid HTTP port"},
		{"unknown store", func(c *Config) { c.StoreDriver = "redis" }, "unknown STORE_DRIVER"},
		{"unknown storage", func(c *Config) { c.StorageDriver = "s3" }, "unknown STORAGE_DRIVER"},
		{"cloudinary without credentials", func(c *Config) { c.StorageDriver = StorageCloudinary }, "CLOUDINARY_CLOUD_NAME"},
		{"cloudinary with credentials", func(c *Config) {
			c.StorageDriver = StorageCloudinary
			c.CloudinaryCloudName, c.CloudinaryAPIKey, c.CloudinaryAPISecret = "demo", "key", "secret"
		}, ""},
		{"bad expiry", func(c *Config) { c.JWTExpire = "forever" }, "JWT_EXPIRE"},
		{"negative rps", func(c *Config) { c.RateLimitRPS = -1 }, "must not be negative"},
		{"zero chat limit", func(c *Config) { c.ChatRateLimit = 0 }, "CHAT_RATE_LIMIT"},
		{"sample rate", func(c *Config) { c.OTELSampleRate = 2 }, "OTEL_SAMPLE_RATE"},
		{"bad cidr", func(c *Config) { c.PprofAllowedCIDRs = []string{"localhost"} }, "PPROF_ALLOWED_CIDRS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChatEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.ChatEnabled())

	cfg.GroqAPIKey = "your_groq_api_key_here"
	assert.False(t, cfg.ChatEnabled())

	cfg.GroqAPIKey = "gsk_live"
	assert.True(t, cfg.ChatEnabled())
}
