// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingSecret = errors.New("required secret is not set")

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	CORSAllowedOrigins []string
	TrustedProxies     []netip.Prefix

	EstrellaURI  string
	EstrellaDB   string
	OrderbookURI string
	OrderbookDB  string

	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	MigrationsPath string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers   []string
	OrdersTopic    string
	CatalogTopic   string
	CatalogGroupID string

	SecretKey string
	JWTSecret string
	JWTExpiry time.Duration

	PricingPolicy string

	APIRateLimit        int
	APIRateWindow       time.Duration
	SubscribeRateLimit  int
	SubscribeRateWindow time.Duration

	LogLevel string
}

// LoadDotEnv loads a .env file outside production. Variables already set in
// the environment win.
func LoadDotEnv(path string) error {
	if strings.EqualFold(os.Getenv("ENV"), "production") {
		return nil
	}
	return godotenv.Load(path)
}

func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		HTTPPort:           getEnv("PORT", "3000"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second, &errs),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		MaxRequestBodySize: 1 << 20, // 1MB
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getPrefixes("TRUSTED_PROXIES", &errs),

		EstrellaURI:  getEnv("ESTRELLA_DB_URI", "mongodb://localhost:27017"),
		EstrellaDB:   getEnv("ESTRELLA_DB_NAME", "estrella"),
		OrderbookURI: getEnv("ORDERBOOK_DB_URI", "mongodb://localhost:27017"),
		OrderbookDB:  getEnv("ORDERBOOK_DB_NAME", "orderbook"),

		MongoMaxPoolSize: uint64(getInt("MONGO_MAX_POOL_SIZE", 100, &errs)),
		MongoMinPoolSize: uint64(getInt("MONGO_MIN_POOL_SIZE", 10, &errs)),

		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers:   getList("KAFKA_BROKERS", nil),
		OrdersTopic:    getEnv("KAFKA_ORDERS_TOPIC", "orders-placed"),
		CatalogTopic:   getEnv("KAFKA_CATALOG_TOPIC", "catalog-updates"),
		CatalogGroupID: getEnv("KAFKA_CATALOG_GROUP", "estrella-catalog-cache"),

		SecretKey: os.Getenv("SECRET_KEY"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTExpiry: getDuration("JWT_EXPIRY", time.Hour, &errs),

		PricingPolicy: getEnv("PRICING_POLICY", "flat"),

		APIRateLimit:        getInt("API_RATE_LIMIT", 100, &errs),
		APIRateWindow:       getDuration("API_RATE_WINDOW", 15*time.Minute, &errs),
		SubscribeRateLimit:  getInt("SUBSCRIBE_RATE_LIMIT", 3, &errs),
		SubscribeRateWindow: getDuration("SUBSCRIBE_RATE_WINDOW", time.Hour, &errs),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if strings.TrimSpace(cfg.SecretKey) == "" {
		errs = append(errs, fmt.Errorf("%w: SECRET_KEY", ErrMissingSecret))
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		errs = append(errs, fmt.Errorf("%w: JWT_SECRET", ErrMissingSecret))
	}

	if cfg.MongoMinPoolSize > cfg.MongoMaxPoolSize {
		errs = append(errs, fmt.Errorf("MONGO_MIN_POOL_SIZE (%d) exceeds MONGO_MAX_POOL_SIZE (%d)", cfg.MongoMinPoolSize, cfg.MongoMaxPoolSize))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// KafkaEnabled reports whether any broker is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a positive integer, got %q", key, value))
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a positive duration, got %q", key, value))
		return defaultValue
	}
	return d
}

// getList splits a comma separated value, dropping blanks.
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getPrefixes parses a list of CIDRs. A bare address is taken as a single host.
func getPrefixes(key string, errs *[]error) []netip.Prefix {
	var out []netip.Prefix
	for _, entry := range getList(key, nil) {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s must list IPs or CIDRs, got %q", key, entry))
			continue
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}
