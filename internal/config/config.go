package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB      DatabaseConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Backend BackendConfig
	Catalog CatalogConfig
	CORS    CORSConfig
	Worker  WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Cache drivers.
const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

// CacheConfig selects the store behind the resolution cache and the mutation lock.
type CacheConfig struct {
	Driver          string
	ResolveTTL      time.Duration
	MutationLockTTL time.Duration
}

// BackendConfig contains the marketplace backend connection settings.
type BackendConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// CatalogConfig contains the defaults substituted during normalization.
type CatalogConfig struct {
	PlaceholderImage string
	CurrencySymbol   string
	RelatedLimit     int
}

// CORSConfig lists the hosts allowed to call the API from a browser.
type CORSConfig struct {
	AllowedHosts []string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	ProbeHealthInterval time.Duration
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:         getEnv("DB_HOST", ""),
		Port:         getEnv("DB_PORT", "5432"),
		User:         getEnv("DB_USER", ""),
		Password:     getEnv("DB_PASSWORD", ""),
		Name:         getEnv("DB_NAME", ""),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Backend
	cfg.Backend = BackendConfig{
		BaseURL:   strings.TrimSuffix(getEnv("BACKEND_BASE_URL", ""), "/"),
		APIKey:    getEnv("BACKEND_API_KEY", ""),
		RateLimit: getEnvFloat("BACKEND_RATE_LIMIT", 20),
		RateBurst: getEnvInt("BACKEND_RATE_BURST", 10),
	}

	// Catalog defaults
	cfg.Catalog = CatalogConfig{
		PlaceholderImage: getEnv("PLACEHOLDER_IMAGE", "/images/placeholder.png"),
		CurrencySymbol:   getEnv("DEFAULT_CURRENCY_SYMBOL", "₦"),
		RelatedLimit:     getEnvInt("RELATED_LIMIT", 10),
	}

	cfg.CORS = CORSConfig{
		AllowedHosts: getEnvList("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000"),
	}

	cfg.Cache.Driver = strings.ToLower(getEnv("CACHE_DRIVER", CacheDriverRedis))

	// Durations
	var err error
	if cfg.Backend.Timeout, err = parseDurationEnv("BACKEND_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}
	if cfg.Cache.ResolveTTL, err = parseDurationEnv("RESOLVE_CACHE_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid RESOLVE_CACHE_TTL: %w", err)
	}
	if cfg.Cache.MutationLockTTL, err = parseDurationEnv("MUTATION_LOCK_TTL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid MUTATION_LOCK_TTL: %w", err)
	}
	if cfg.Worker.ProbeHealthInterval, err = parseDurationEnv("PROBE_HEALTH_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid PROBE_HEALTH_INTERVAL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate keeps messages concise and helpful.
func (c *Config) validate() error {
	if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
		return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for authentication")
	}
	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL must be set")
	}
	if c.Cache.Driver != CacheDriverRedis && c.Cache.Driver != CacheDriverMemory {
		return fmt.Errorf("CACHE_DRIVER must be %q or %q, got %q", CacheDriverRedis, CacheDriverMemory, c.Cache.Driver)
	}
	if c.Cache.MutationLockTTL == 0 {
		return errors.New("MUTATION_LOCK_TTL must be greater than zero")
	}
	if c.Backend.RateLimit < 0 {
		return errors.New("BACKEND_RATE_LIMIT must be >= 0")
	}
	if c.Catalog.RelatedLimit <= 0 {
		return errors.New("RELATED_LIMIT must be greater than zero")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvFloat returns the value of an environment variable as a float or a default if empty/invalid.
func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key, def string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, def), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
