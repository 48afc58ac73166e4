package password

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashFailure  = errors.New("password hashing failed")
	ErrWeakPassword = errors.New("password does not meet policy")
)

// bcrypt ignores everything past 72 bytes and newer versions of x/crypto
// reject such input outright.
const bcryptMaxInput = 72

const dummyPassword = "authcore-dummy-password"

const (
	prehashTag = "$authcore-hmac$"
	prehashKey = "authcore/password-prehash/v1"
)

type Service struct {
	config *config.AuthConfig
	logger *logging.Service

	dummyOnce   sync.Once
	dummyDigest []byte
}

func NewService(cfg *config.AuthConfig, logger *logging.Service) *Service {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		logger: logger,
	}
}

// Hash produces a salted bcrypt digest. The plaintext is never logged and
// policy is not applied here.
func (s *Service) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prepare(password), s.config.BcryptCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed", zap.Error(err))
		}
		return "", fmt.Errorf("%w: %w", ErrHashFailure, err)
	}

	return string(hash), nil
}

// Verify reports whether password matches digest. A mismatch is (false, nil);
// only an unusable digest is an error.
func (s *Service) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), prepare(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		if s.logger != nil {
			s.logger.Error("stored password digest is unusable", zap.Error(err))
		}
		return false, fmt.Errorf("%w: %w", ErrHashFailure, err)
	}
}

// DummyVerify spends the same work as a real verification. Callers use it
// when the identifier is unknown so response timing does not reveal whether
// an account exists.
func (s *Service) DummyVerify(password string) {
	s.dummyOnce.Do(func() {
		digest, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), s.config.BcryptCost)
		if err != nil {
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest == nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(s.dummyDigest, prepare(password))
}

// NeedsRehash reports whether digest was produced at a different cost than
// the one currently configured.
func (s *Service) NeedsRehash(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return true
	}
	return cost != s.config.BcryptCost
}

func (s *Service) ValidatePolicy(password string) error {
	if len(password) < s.config.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrWeakPassword, s.config.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	var missing []string

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if s.config.RequireUpper && !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if s.config.RequireLower && !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if s.config.RequireNumber && !hasNumber {
		missing = append(missing, "one number")
	}
	if s.config.RequireSpecial && !hasSpecial {
		missing = append(missing, "one special character")
	}

	if len(missing) > 0 {
		if s.logger != nil {
			s.logger.Debug("password rejected by policy", zap.Strings("missing_requirements", missing))
		}
		return fmt.Errorf("%w: password must contain at least %s", ErrWeakPassword, strings.Join(missing, ", "))
	}

	return nil
}

// prepare maps passwords longer than bcrypt's input limit onto a tagged
// HMAC-SHA256 encoding so every byte still contributes. Inputs that already
// carry the tag take the same path, so no raw password can equal the
// encoding of another.
func prepare(password string) []byte {
	if len(password) <= bcryptMaxInput && !strings.HasPrefix(password, prehashTag) {
		return []byte(password)
	}
	mac := hmac.New(sha256.New, []byte(prehashKey))
	mac.Write([]byte(password))
	sum := mac.Sum(nil)

	encoded := make([]byte, len(prehashTag)+base64.RawStdEncoding.EncodedLen(len(sum)))
	copy(encoded, prehashTag)
	base64.RawStdEncoding.Encode(encoded[len(prehashTag):], sum)
	return encoded
}
