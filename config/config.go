package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	App          AppConfig          `envPrefix:"APP_"`
	Log          LogConfig          `envPrefix:"LOG_"`
	Database     DatabaseConfig     `envPrefix:"DATABASE_"`
	Auth         AuthConfig         `envPrefix:"AUTH_"`
	JWT          JWTConfig          `envPrefix:"JWT_"`
	RefreshToken RefreshTokenConfig `envPrefix:"REFRESH_TOKEN_"`
	Lockout      LockoutConfig      `envPrefix:"LOCKOUT_"`
	Metrics      MetricsConfig      `envPrefix:"METRICS_"`
	Audit        AuditConfig        `envPrefix:"AUDIT_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"authcore"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"`
	DSN          string `env:"DSN" envDefault:"authcore.db"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"0"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"0"`
}

// AuthConfig covers password hashing and the password policy applied when a
// user chooses a new password.
type AuthConfig struct {
	BcryptCost     int  `env:"BCRYPT_COST" envDefault:"12"`
	MinLength      int  `env:"MIN_LENGTH" envDefault:"8"`
	RequireUpper   bool `env:"REQUIRE_UPPER" envDefault:"true"`
	RequireLower   bool `env:"REQUIRE_LOWER" envDefault:"true"`
	RequireNumber  bool `env:"REQUIRE_NUMBER" envDefault:"true"`
	RequireSpecial bool `env:"REQUIRE_SPECIAL" envDefault:"false"`
}

type JWTConfig struct {
	SecretKey    string        `env:"SECRET_KEY,required"`
	Algorithm    string        `env:"ALGORITHM" envDefault:"HS256"`
	AccessExpiry time.Duration `env:"ACCESS_EXPIRY" envDefault:"30m"`
	Issuer       string        `env:"ISSUER" envDefault:"authcore"`
}

type RefreshTokenConfig struct {
	TokenLength      int           `env:"TOKEN_LENGTH" envDefault:"32"`
	Expiry           time.Duration `env:"EXPIRY" envDefault:"168h"`
	CleanupInterval  time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
	RevokedRetention time.Duration `env:"REVOKED_RETENTION" envDefault:"720h"`
	// ReuseRevokesFamily revokes every token of a family when an already
	// revoked token is presented again. When false only the descendants of the
	// replayed token are revoked.
	ReuseRevokesFamily bool `env:"REUSE_REVOKES_FAMILY" envDefault:"true"`
}

type LockoutConfig struct {
	Threshold int           `env:"THRESHOLD" envDefault:"5"`
	Duration  time.Duration `env:"DURATION" envDefault:"30m"`
}

type MetricsConfig struct {
	Enabled   bool   `env:"ENABLED" envDefault:"true"`
	Namespace string `env:"NAMESPACE" envDefault:"authcore"`
}

type AuditConfig struct {
	Persist bool `env:"PERSIST" envDefault:"true"`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return cfg.Validate()
}

func (c *Config) Validate() error {
	if err := validateJWTConfig(&c.JWT); err != nil {
		return err
	}
	if err := validateRefreshTokenConfig(&c.RefreshToken); err != nil {
		return err
	}
	return validateLockoutConfig(&c.Lockout)
}

var weakSecretPatterns = []string{"password", "secret", "test", "example", "default", "change"}

func validateJWTConfig(cfg *JWTConfig) error {
	if len(cfg.SecretKey) < 32 {
		return fmt.Errorf("%w: JWT secret key must be at least 32 characters long", ErrInvalidConfig)
	}

	lower := strings.ToLower(cfg.SecretKey)
	for _, pattern := range weakSecretPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("%w: JWT secret key contains weak patterns (%s)", ErrInvalidConfig, pattern)
		}
	}

	switch cfg.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("%w: unsupported JWT algorithm %q (supported: HS256, HS384, HS512)", ErrInvalidConfig, cfg.Algorithm)
	}

	if cfg.AccessExpiry <= 0 {
		return fmt.Errorf("%w: JWT access expiry must be positive", ErrInvalidConfig)
	}

	return nil
}

func validateRefreshTokenConfig(cfg *RefreshTokenConfig) error {
	if cfg.TokenLength < 32 {
		return fmt.Errorf("%w: refresh token length must be at least 32 bytes", ErrInvalidConfig)
	}

	if cfg.TokenLength > 128 {
		return fmt.Errorf("%w: refresh token length cannot exceed 128 bytes", ErrInvalidConfig)
	}

	if cfg.Expiry <= 0 {
		return fmt.Errorf("%w: refresh token expiry must be positive", ErrInvalidConfig)
	}

	if cfg.CleanupInterval < 0 || cfg.RevokedRetention < 0 {
		return fmt.Errorf("%w: refresh token cleanup interval and retention cannot be negative", ErrInvalidConfig)
	}

	return nil
}

func validateLockoutConfig(cfg *LockoutConfig) error {
	if cfg.Threshold < 1 {
		return fmt.Errorf("%w: lockout threshold must be at least 1", ErrInvalidConfig)
	}

	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: lockout duration must be positive", ErrInvalidConfig)
	}

	return nil
}
