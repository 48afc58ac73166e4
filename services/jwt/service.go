package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid JWT token")
	ErrExpiredToken     = errors.New("JWT token has expired")
	ErrMalformedToken   = errors.New("malformed JWT token")
	ErrInvalidSignature = errors.New("invalid JWT token signature")
)

const TokenTypeAccess = "access"

// AccessClaims is what a caller asks to be embedded in an access token.
type AccessClaims struct {
	UserID uint
	Email  string
	Role   string
}

type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return uint(id), nil
}

type Service struct {
	config *config.JWTConfig
	method jwt.SigningMethod
	logger *logging.Service
	now    func() time.Time
}

func NewService(cfg *config.JWTConfig, logger *logging.Service) (*Service, error) {
	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	return &Service{
		config: cfg,
		method: method,
		logger: logger,
		now:    time.Now,
	}, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", alg)
	}
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.AccessExpiry
}

// CreateAccessToken signs a short-lived access token. A non-positive ttl
// falls back to the configured access expiry.
func (s *Service) CreateAccessToken(claims AccessClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.config.AccessExpiry
	}

	now := s.now()
	tokenClaims := Claims{
		Email:     claims.Email,
		Role:      claims.Role,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(s.method, tokenClaims)
	tokenString, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign access token", zap.Error(err))
		}
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return tokenString, nil
}

// DecodeAccessToken verifies signature, expiry and token type.
func (s *Service) DecodeAccessToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}

		if token.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("unexpected algorithm: expected %s, got %s", s.method.Alg(), token.Method.Alg())
		}

		return []byte(s.config.SecretKey), nil
	})

	if err != nil {
		if s.logger != nil {
			s.logger.Debug("access token rejected", zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != TokenTypeAccess {
		if s.logger != nil {
			s.logger.Warn("token with unexpected type presented as access token", zap.String("type", claims.TokenType))
		}
		return nil, ErrInvalidToken
	}

	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	return claims, nil
}
