package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App   AppConfig
	Store StoreConfig
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
	OTP   OTPConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// StoreConfig selects the entity persistence backend.
// "memory" runs the whole API on in-memory repositories, which is enough
// for demos and tests; "postgres" is the durable setup.
type StoreConfig struct {
	Backend string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for managed-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

// AuthConfig selects the bearer-token codec.
// "mock" issues mock_token_<user id> tokens (the compatibility scheme);
// "jwt" issues HS256-signed tokens carrying the same identity.
type AuthConfig struct {
	TokenMode string
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

type OTPConfig struct {
	// Backend is "memory" or "redis".
	Backend string

	// TTL is the passcode lifetime. The compatibility default is 120s.
	TTL time.Duration

	// SweepInterval controls the memory store's expiry sweep.
	SweepInterval time.Duration
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	TokenModeMock = "mock"
	TokenModeJWT  = "jwt"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Store.Backend = strings.TrimSpace(os.Getenv("STORE_BACKEND"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port = optionalInt("DB_PORT", 5432)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port = optionalInt("REDIS_PORT", 6379)

	c.Auth.TokenMode = strings.TrimSpace(os.Getenv("AUTH_TOKEN_MODE"))
	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.TokenTTL = optionalDuration("AUTH_TOKEN_TTL")

	c.OTP.Backend = strings.TrimSpace(os.Getenv("OTP_BACKEND"))
	c.OTP.TTL = optionalDuration("OTP_TTL")
	c.OTP.SweepInterval = optionalDuration("OTP_SWEEP_INTERVAL")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and applies non-production defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Store.Backend == "" {
		c.Store.Backend = StoreMemory
	}
	switch c.Store.Backend {
	case StoreMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("STORE_BACKEND=memory is not allowed in production"))
		}
	case StorePostgres:
		if c.DB.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required when STORE_BACKEND=postgres"))
		}
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when STORE_BACKEND=postgres"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when STORE_BACKEND=postgres"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be memory or postgres, got %q", c.Store.Backend))
	}

	if c.OTP.Backend == "" {
		c.OTP.Backend = StoreMemory
	}
	switch c.OTP.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required when OTP_BACKEND=redis"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("OTP_BACKEND must be memory or redis, got %q", c.OTP.Backend))
	}
	if c.OTP.TTL <= 0 {
		c.OTP.TTL = 120 * time.Second
	}
	if c.OTP.SweepInterval <= 0 {
		c.OTP.SweepInterval = time.Minute
	}

	if c.Auth.TokenMode == "" {
		c.Auth.TokenMode = TokenModeMock
	}
	switch c.Auth.TokenMode {
	case TokenModeMock:
	case TokenModeJWT:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_TOKEN_MODE=jwt"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_MODE must be mock or jwt, got %q", c.Auth.TokenMode))
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func optionalDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
