// Package config loads application configuration.
// Thứ tự ưu tiên: environment variable > YAML file (CONFIG_FILE) > default.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	WeatherProviderMock = "mock"
	WeatherProviderHTTP = "http"

	defaultJWTSecret = "your-secret-key-change-in-production"
)

// Config chứa toàn bộ application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Password PasswordConfig
	Weather  WeatherConfig
	TLS      TLSConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type DatabaseConfig struct {
	Driver string // sqlite | postgres

	// SQLite: đường dẫn file database
	Path string

	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int
	MinConns          int
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	ConnectTimeout    time.Duration
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Password    string
	DB          int
	NicknameTTL time.Duration
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

type AuthConfig struct {
	Realm string
	// PublicReads mở GET /datarecord cho anonymous callers
	PublicReads bool
}

type PasswordConfig struct {
	Algorithm string // bcrypt | argon2id
}

type WeatherConfig struct {
	Provider string // mock | http
	URL      string
	Timeout  time.Duration // mỗi lookup
	Budget   time.Duration // tổng thời gian enrichment cho một request
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Enabled reports whether both halves of the key pair are configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// loader gom lỗi parse để trả về một lần
type loader struct {
	k    *koanf.Koanf
	errs []error
}

// Load đọc config từ environment variables và file YAML (nếu có)
func Load(configFile string) (*Config, error) {
	l := &loader{k: koanf.New(".")}

	if configFile != "" {
		if err := l.k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:        l.getString("APP_NAME", "app.name", "Observatory API"),
			Environment: l.getString("APP_ENV", "app.env", "development"),
			Port:        l.getString("APP_PORT", "app.port", "8080"),
			Version:     l.getString("APP_VERSION", "app.version", "1.0.0"),
			LogLevel:    l.getString("LOG_LEVEL", "app.log_level", "info"),
		},
		Database: DatabaseConfig{
			Driver:            l.getString("DB_DRIVER", "database.driver", DriverSQLite),
			Path:              l.getString("DB_PATH", "database.path", "observatory.db"),
			Host:              l.getString("DB_HOST", "database.host", "localhost"),
			Port:              l.getInt("DB_PORT", "database.port", 5432),
			User:              l.getString("DB_USER", "database.user", "observatory"),
			Password:          l.getString("DB_PASSWORD", "database.password", ""),
			Name:              l.getString("DB_NAME", "database.name", "observatory"),
			SSLMode:           l.getString("DB_SSLMODE", "database.sslmode", "disable"),
			MaxConns:          l.getInt("DB_MAX_CONNS", "database.max_conns", 25),
			MinConns:          l.getInt("DB_MIN_CONNS", "database.min_conns", 5),
			MaxConnLifetime:   l.getDuration("DB_MAX_CONN_LIFETIME", "database.max_conn_lifetime", 5*time.Minute),
			MaxConnIdleTime:   l.getDuration("DB_MAX_CONN_IDLE_TIME", "database.max_conn_idle_time", time.Minute),
			HealthCheckPeriod: l.getDuration("DB_HEALTH_CHECK_PERIOD", "database.health_check_period", time.Minute),
			MaxRetries:        l.getInt("DB_MAX_RETRIES", "database.max_retries", 5),
			RetryDelay:        l.getDuration("DB_RETRY_DELAY", "database.retry_delay", time.Second),
			ConnectTimeout:    l.getDuration("DB_CONNECT_TIMEOUT", "database.connect_timeout", 10*time.Second),
		},
		Redis: RedisConfig{
			Enabled:     l.getBool("REDIS_ENABLED", "redis.enabled", false),
			Host:        l.getString("REDIS_HOST", "redis.host", "localhost:6379"),
			Password:    l.getString("REDIS_PASSWORD", "redis.password", ""),
			DB:          l.getInt("REDIS_DB", "redis.db", 0),
			NicknameTTL: l.getDuration("REDIS_NICKNAME_TTL", "redis.nickname_ttl", time.Hour),
		},
		JWT: JWTConfig{
			Secret:            l.getString("JWT_SECRET", "jwt.secret", defaultJWTSecret),
			AccessTokenExpiry: l.getDuration("JWT_ACCESS_EXPIRY", "jwt.access_expiry", 15*time.Minute),
		},
		Auth: AuthConfig{
			Realm:       l.getString("AUTH_REALM", "auth.realm", "datarecord"),
			PublicReads: l.getBool("RECORDS_PUBLIC_READ", "auth.public_reads", false),
		},
		Password: PasswordConfig{
			Algorithm: l.getString("PASSWORD_HASHER", "password.algorithm", "bcrypt"),
		},
		Weather: WeatherConfig{
			Provider: l.getString("WEATHER_PROVIDER", "weather.provider", WeatherProviderMock),
			URL:      l.getString("WEATHER_URL", "weather.url", ""),
			Timeout:  l.getDuration("WEATHER_TIMEOUT", "weather.timeout", 2*time.Second),
			Budget:   l.getDuration("WEATHER_BUDGET", "weather.budget", 5*time.Second),
		},
		TLS: TLSConfig{
			CertFile: l.getString("TLS_CERT_FILE", "tls.cert_file", ""),
			KeyFile:  l.getString("TLS_KEY_FILE", "tls.key_file", ""),
		},
	}

	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, fmt.Errorf("DB_PATH must be set for sqlite driver"))
		}
	case DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver))
	}

	switch c.Password.Algorithm {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER must be bcrypt or argon2id, got %q", c.Password.Algorithm))
	}

	switch c.Weather.Provider {
	case WeatherProviderMock:
	case WeatherProviderHTTP:
		if c.Weather.URL == "" {
			errs = append(errs, fmt.Errorf("WEATHER_URL must be set when WEATHER_PROVIDER=http"))
		}
	default:
		errs = append(errs, fmt.Errorf("WEATHER_PROVIDER must be mock or http, got %q", c.Weather.Provider))
	}
	if c.Weather.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("WEATHER_TIMEOUT must be positive"))
	}
	if c.Weather.Budget <= 0 {
		errs = append(errs, fmt.Errorf("WEATHER_BUDGET must be positive"))
	}

	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}

	// Production environment phải có JWT secret
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be set in production"))
		}
		if c.Database.Driver == DriverPostgres && c.Database.Password == "" {
			errs = append(errs, fmt.Errorf("DB_PASSWORD must be set in production"))
		}
	}

	return errors.Join(errs...)
}

// ========================================
// HELPERS
// ========================================

func (l *loader) getString(envKey, koanfKey, defaultValue string) string {
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		return v
	}
	if l.k.Exists(koanfKey) {
		return l.k.String(koanfKey)
	}
	return defaultValue
}

func (l *loader) getInt(envKey, koanfKey string, defaultValue int) int {
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("invalid %s: %w", envKey, err))
			return defaultValue
		}
		return n
	}
	if l.k.Exists(koanfKey) {
		return l.k.Int(koanfKey)
	}
	return defaultValue
}

func (l *loader) getBool(envKey, koanfKey string, defaultValue bool) bool {
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("invalid %s: %w", envKey, err))
			return defaultValue
		}
		return b
	}
	if l.k.Exists(koanfKey) {
		return l.k.Bool(koanfKey)
	}
	return defaultValue
}

func (l *loader) getDuration(envKey, koanfKey string, defaultValue time.Duration) time.Duration {
	raw := ""
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		raw = v
	} else if l.k.Exists(koanfKey) {
		raw = l.k.String(koanfKey)
	}
	if raw == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s: %w", envKey, err))
		return defaultValue
	}
	return d
}
