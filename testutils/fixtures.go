package testutils

import (
	"time"

	"github.com/tech-arch1tect/authcore/config"
	"golang.org/x/crypto/bcrypt"
)

// TestSigningKey passes config validation: long enough and free of the
// weak patterns.
const TestSigningKey = "k9Xq2Lm7Vb4Np8Rt1Zw6Hy3Jd5Fg0Sa2Qe7Uc4Io9Pl"

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "authcore-test",
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
		Auth: config.AuthConfig{
			MinLength:      8,
			RequireUpper:   true,
			RequireLower:   true,
			RequireNumber:  true,
			RequireSpecial: false,
			BcryptCost:     bcrypt.MinCost,
		},
		JWT: config.JWTConfig{
			SecretKey:    TestSigningKey,
			Algorithm:    "HS256",
			AccessExpiry: 30 * time.Minute,
			Issuer:       "authcore-test",
		},
		RefreshToken: config.RefreshTokenConfig{
			TokenLength:        32,
			Expiry:             7 * 24 * time.Hour,
			CleanupInterval:    5 * time.Minute,
			RevokedRetention:   30 * 24 * time.Hour,
			ReuseRevokesFamily: true,
		},
		Lockout: config.LockoutConfig{
			Threshold: 5,
			Duration:  30 * time.Minute,
		},
		Metrics: config.MetricsConfig{
			Enabled:   true,
			Namespace: "authcore_test",
		},
		Audit: config.AuditConfig{
			Persist: true,
		},
	}
}

var TestPasswords = struct {
	Valid       string
	TooShort    string
	NoUpper     string
	NoLower     string
	NoNumber    string
	WithSpecial string
	Long        string
}{
	Valid:       "Password123",
	TooShort:    "Pass1",
	NoUpper:     "password123",
	NoLower:     "PASSWORD123",
	NoNumber:    "Password",
	WithSpecial: "Password123!",
	Long:        "Password123-abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789abcdefghij",
}

var TestUsers = struct {
	ValidUser struct {
		Email    string
		Phone    string
		Password string
		Role     string
	}
}{
	ValidUser: struct {
		Email    string
		Phone    string
		Password string
		Role     string
	}{
		Email:    "participant@hackhub.io",
		Phone:    "+15550100",
		Password: "Password123",
		Role:     "participant",
	},
}

var TestDevices = struct {
	DesktopUserAgent string
	MobileUserAgent  string
	IPAddress        string
}{
	DesktopUserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	MobileUserAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	IPAddress:        "203.0.113.10",
}
