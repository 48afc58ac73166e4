package session

import (
	"context"
	"errors"
	"time"

	"github.com/tech-arch1tect/authcore/services/account"
	"github.com/tech-arch1tect/authcore/services/audit"
	"github.com/tech-arch1tect/authcore/services/jwt"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"go.uber.org/zap"
)

type CredentialStore interface {
	LookupByIdentifier(ctx context.Context, identifier string) (*account.Credential, error)
	GetByID(ctx context.Context, id uint) (*account.Credential, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
	ReplaceDigest(ctx context.Context, id uint, hash string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
	DummyVerify(password string)
	NeedsRehash(digest string) bool
	ValidatePolicy(password string) error
}

type TokenIssuer interface {
	CreateAccessToken(claims jwt.AccessClaims, ttl time.Duration) (string, error)
	DecodeAccessToken(token string) (*jwt.Claims, error)
	AccessExpiry() time.Duration
}

type RefreshTokenStore interface {
	Create(ctx context.Context, userID uint, device refreshtoken.DeviceInfo, ttl time.Duration) (*refreshtoken.IssuedToken, error)
	Rotate(ctx context.Context, raw string, device refreshtoken.DeviceInfo) (*refreshtoken.IssuedToken, error)
	RotateRecord(ctx context.Context, record *refreshtoken.RefreshToken, device refreshtoken.DeviceInfo) (*refreshtoken.IssuedToken, error)
	Lookup(ctx context.Context, raw string) (*refreshtoken.RefreshToken, error)
	Revoke(ctx context.Context, record *refreshtoken.RefreshToken, reason string, cascade bool) (int64, error)
	RevokeByID(ctx context.Context, userID, id uint, reason string, cascade bool) (int64, error)
	RevokeAllForUser(ctx context.Context, userID uint, reason string) (int64, error)
	ListActive(ctx context.Context, userID uint) ([]refreshtoken.RefreshToken, error)
}

type LockoutPolicy interface {
	RecordFailure(ctx context.Context, cred *account.Credential) (bool, error)
	RecordSuccess(ctx context.Context, cred *account.Credential) error
	Remaining(cred *account.Credential) time.Duration
}

type Service struct {
	accounts      CredentialStore
	passwords     PasswordHasher
	tokens        TokenIssuer
	refreshTokens RefreshTokenStore
	lockout       LockoutPolicy
	refreshTTL    time.Duration
	logger        *logging.Service
	audit         *audit.Service
	metrics       *metrics.Recorder
}

type Dependencies struct {
	Accounts      CredentialStore
	Passwords     PasswordHasher
	Tokens        TokenIssuer
	RefreshTokens RefreshTokenStore
	Lockout       LockoutPolicy
	RefreshTTL    time.Duration
	Logger        *logging.Service
	Audit         *audit.Service
	Metrics       *metrics.Recorder
}

func NewService(deps Dependencies) *Service {
	return &Service{
		accounts:      deps.Accounts,
		passwords:     deps.Passwords,
		tokens:        deps.Tokens,
		refreshTokens: deps.RefreshTokens,
		lockout:       deps.Lockout,
		refreshTTL:    deps.RefreshTTL,
		logger:        deps.Logger,
		audit:         deps.Audit,
		metrics:       deps.Metrics,
	}
}

// Login authenticates identifier (email or phone) and opens a new session.
// Unknown identifiers and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, identifier, password string, device refreshtoken.DeviceInfo) (*TokenPair, error) {
	cred, err := s.accounts.LookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.passwords.DummyVerify(password)
			s.loginFailed(ctx, 0, device, "unknown_identifier")
			return nil, ErrInvalidCredentials
		}
		s.metrics.LoginAttempt(metrics.ResultError)
		return nil, storeError("failed to look up credential", err)
	}

	if remaining := s.lockout.Remaining(cred); remaining > 0 {
		s.metrics.LoginAttempt(metrics.ResultLocked)
		s.logger.Info("login rejected for locked account",
			logging.UserID(cred.ID),
			zap.Duration("remaining", remaining))
		return nil, &AccountLockedError{Remaining: remaining}
	}

	ok, err := s.passwords.Verify(password, cred.PasswordHash)
	if err != nil {
		s.metrics.LoginAttempt(metrics.ResultError)
		s.logger.Error("password verification failed", logging.UserID(cred.ID), zap.Error(err))
		return nil, err
	}

	if !ok {
		if _, err := s.lockout.RecordFailure(ctx, cred); err != nil {
			s.metrics.LoginAttempt(metrics.ResultError)
			return nil, storeError("failed to record login failure", err)
		}
		s.loginFailed(ctx, cred.ID, device, "wrong_password")
		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, cred); err != nil {
		s.metrics.LoginAttempt(metrics.ResultError)
		return nil, storeError("failed to reset login failures", err)
	}

	s.rehashIfNeeded(ctx, cred, password)

	accessToken, err := s.accessToken(cred)
	if err != nil {
		s.metrics.LoginAttempt(metrics.ResultError)
		return nil, err
	}

	issued, err := s.refreshTokens.Create(ctx, cred.ID, device, s.refreshTTL)
	if err != nil {
		s.metrics.LoginAttempt(metrics.ResultError)
		return nil, err
	}

	s.metrics.LoginAttempt(metrics.ResultSuccess)
	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventLoginSucceeded,
		UserID:    cred.ID,
		FamilyID:  issued.Record.FamilyID,
		IPAddress: device.IPAddress,
		UserAgent: device.UserAgent,
	})

	return s.pair(accessToken, issued.Token), nil
}

// rehashIfNeeded upgrades a digest made at an outdated cost. Failures only
// cost the upgrade, never the login.
func (s *Service) rehashIfNeeded(ctx context.Context, cred *account.Credential, password string) {
	if !s.passwords.NeedsRehash(cred.PasswordHash) {
		return
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		s.logger.Warn("failed to rehash password", logging.UserID(cred.ID), zap.Error(err))
		return
	}

	if err := s.accounts.ReplaceDigest(ctx, cred.ID, hash); err != nil {
		s.logger.Warn("failed to store rehashed password", logging.UserID(cred.ID), zap.Error(err))
		return
	}

	cred.PasswordHash = hash
	s.logger.Info("password digest upgraded to current cost", logging.UserID(cred.ID))
}

func (s *Service) loginFailed(ctx context.Context, userID uint, device refreshtoken.DeviceInfo, reason string) {
	s.metrics.LoginAttempt(metrics.ResultInvalidCredentials)
	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventLoginFailed,
		UserID:    userID,
		IPAddress: device.IPAddress,
		UserAgent: device.UserAgent,
		Details:   map[string]any{"reason": reason},
	})
}

// Refresh exchanges a refresh secret for a new pair. Every kind of
// unusable secret, reuse included, yields ErrInvalidToken. The owning
// account is loaded and the access token minted before the secret is
// rotated, so a store failure leaves the presented secret usable for a retry.
func (s *Service) Refresh(ctx context.Context, raw string, device refreshtoken.DeviceInfo) (*TokenPair, error) {
	record, err := s.refreshTokens.Lookup(ctx, raw)
	if err != nil {
		return nil, s.refreshFailed(err)
	}

	if record.Revoked {
		// Rotate owns reuse handling for revoked secrets.
		_, err := s.refreshTokens.Rotate(ctx, raw, device)
		if err == nil {
			err = refreshtoken.ErrInvalidToken
		}
		return nil, s.refreshFailed(err)
	}

	cred, err := s.accounts.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.logger.Warn("refresh for deleted account", logging.UserID(record.UserID))
			if _, rerr := s.refreshTokens.Revoke(ctx, record, refreshtoken.ReasonSessionRevoked, true); rerr != nil {
				s.logger.Error("failed to revoke orphaned session", zap.Error(rerr))
			}
			s.metrics.Refresh(metrics.ResultInvalidToken)
			return nil, ErrInvalidToken
		}
		s.metrics.Refresh(metrics.ResultError)
		return nil, storeError("failed to load credential", err)
	}

	accessToken, err := s.accessToken(cred)
	if err != nil {
		s.metrics.Refresh(metrics.ResultError)
		return nil, err
	}

	issued, err := s.refreshTokens.RotateRecord(ctx, record, device)
	if err != nil {
		return nil, s.refreshFailed(err)
	}

	s.metrics.Refresh(metrics.ResultSuccess)
	return s.pair(accessToken, issued.Token), nil
}

func (s *Service) refreshFailed(err error) error {
	if errors.Is(err, refreshtoken.ErrInvalidToken) {
		s.metrics.Refresh(metrics.ResultInvalidToken)
		return ErrInvalidToken
	}
	s.metrics.Refresh(metrics.ResultError)
	return err
}

func (s *Service) accessToken(cred *account.Credential) (string, error) {
	return s.tokens.CreateAccessToken(jwt.AccessClaims{
		UserID: cred.ID,
		Email:  cred.Email,
		Role:   cred.Role,
	}, s.tokens.AccessExpiry())
}

func (s *Service) pair(accessToken, refreshToken string) *TokenPair {
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int(s.tokens.AccessExpiry().Seconds()),
	}
}

// Logout revokes the presented refresh secret only. Unknown or already
// revoked secrets are accepted silently.
func (s *Service) Logout(ctx context.Context, raw string) error {
	record, err := s.refreshTokens.Lookup(ctx, raw)
	if err != nil {
		if errors.Is(err, refreshtoken.ErrInvalidToken) {
			return nil
		}
		return err
	}

	count, err := s.refreshTokens.Revoke(ctx, record, refreshtoken.ReasonLogout, false)
	if err != nil {
		return err
	}

	if count > 0 {
		s.audit.Record(ctx, audit.Event{
			Type:     audit.EventLogout,
			UserID:   record.UserID,
			FamilyID: record.FamilyID,
		})
	}

	return nil
}

// LogoutAll revokes every refresh token of the user and returns how many
// were still live.
func (s *Service) LogoutAll(ctx context.Context, userID uint) (int64, error) {
	count, err := s.refreshTokens.RevokeAllForUser(ctx, userID, refreshtoken.ReasonLogoutAll)
	if err != nil {
		return 0, err
	}

	s.audit.Record(ctx, audit.Event{
		Type:    audit.EventLogoutAll,
		UserID:  userID,
		Details: map[string]any{"revoked_count": count},
	})

	return count, nil
}

func (s *Service) ListSessions(ctx context.Context, userID uint) ([]SessionInfo, error) {
	records, err := s.refreshTokens.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]SessionInfo, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, SessionInfo{
			ID:        record.ID,
			FamilyID:  record.FamilyID,
			Device:    record.DeviceInfo,
			IssuedAt:  record.IssuedAt,
			ExpiresAt: record.ExpiresAt,
		})
	}

	return sessions, nil
}

// RevokeSession ends one of the user's sessions. The whole token family is
// revoked so no earlier secret of that session stays usable.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID uint) error {
	_, err := s.refreshTokens.RevokeByID(ctx, userID, sessionID, refreshtoken.ReasonSessionRevoked, true)
	if err != nil {
		if errors.Is(err, refreshtoken.ErrTokenNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	s.audit.Record(ctx, audit.Event{
		Type:    audit.EventSessionRevoked,
		UserID:  userID,
		Details: map[string]any{"session_id": sessionID},
	})

	return nil
}

// ChangePassword replaces the password after verifying the current one and
// signs the user out everywhere.
func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	cred, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return storeError("failed to load credential", err)
	}

	ok, err := s.passwords.Verify(current, cred.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if err := s.passwords.ValidatePolicy(next); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(next)
	if err != nil {
		return err
	}

	if err := s.accounts.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return storeError("failed to update password", err)
	}

	count, err := s.refreshTokens.RevokeAllForUser(ctx, userID, refreshtoken.ReasonPasswordChanged)
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Event{
		Type:    audit.EventPasswordChanged,
		UserID:  userID,
		Details: map[string]any{"revoked_count": count},
	})

	return nil
}

// AuthenticateAccessToken verifies an access token offline. Decode errors
// from the jwt package are returned as is so callers can tell an expired
// token from a forged one.
func (s *Service) AuthenticateAccessToken(token string) (*Principal, error) {
	claims, err := s.tokens.DecodeAccessToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	principal := &Principal{
		UserID:  userID,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}

	return principal, nil
}

// RequireRole checks the principal against the allowed roles and returns
// ErrForbidden when none match.
func (p *Principal) RequireRole(roles ...string) error {
	if p == nil || !p.HasRole(roles...) {
		return ErrForbidden
	}
	return nil
}
