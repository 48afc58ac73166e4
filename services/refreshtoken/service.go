package refreshtoken

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/audit"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken          = errors.New("invalid refresh token")
	ErrTokenNotFound         = errors.New("refresh token not found")
	ErrStoreUnavailable      = errors.New("refresh token store unavailable")
	ErrTokenGenerationFailed = errors.New("failed to generate secure token")
	ErrLineageCycle          = errors.New("refresh token lineage contains a cycle")
)

const (
	minTokenBytes   = 32
	maxLineageDepth = 10000
)

// errReuse aborts a rotation transaction whose parent was already revoked.
var errReuse = errors.New("refresh token already revoked")

type Service struct {
	db      *gorm.DB
	config  *config.RefreshTokenConfig
	logger  *logging.Service
	audit   *audit.Service
	metrics *metrics.Recorder
	now     func() time.Time
}

func NewService(db *gorm.DB, cfg *config.RefreshTokenConfig, logger *logging.Service, auditService *audit.Service, recorder *metrics.Recorder) *Service {
	if logger != nil {
		logger.Info("initializing refresh token service",
			zap.Duration("token_expiry", cfg.Expiry),
			zap.Int("token_length", cfg.TokenLength),
			zap.Bool("reuse_revokes_family", cfg.ReuseRevokesFamily))
	}

	return &Service{
		db:      db,
		config:  cfg,
		logger:  logger,
		audit:   auditService,
		metrics: recorder,
		now:     time.Now,
	}
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Create starts a new family for userID and returns its first secret.
func (s *Service) Create(ctx context.Context, userID uint, device DeviceInfo, ttl time.Duration) (*IssuedToken, error) {
	issued, err := s.insert(s.db.WithContext(ctx), userID, uuid.NewString(), nil, device, ttl)
	if err != nil {
		if errors.Is(err, ErrTokenGenerationFailed) {
			return nil, err
		}
		return nil, s.storeError("failed to store refresh token", err)
	}

	s.logger.Info("refresh token family created",
		logging.UserID(userID),
		logging.FamilyID(issued.Record.FamilyID),
		logging.TokenID(issued.Record.ID))

	return issued, nil
}

func (s *Service) insert(tx *gorm.DB, userID uint, familyID string, parentID *uint, device DeviceInfo, ttl time.Duration) (*IssuedToken, error) {
	raw, err := s.generateSecureToken()
	if err != nil {
		s.logger.Error("failed to generate secure refresh token", zap.Error(err))
		return nil, ErrTokenGenerationFailed
	}

	if ttl <= 0 {
		ttl = s.config.Expiry
	}

	now := s.clock()
	if device.Timestamp.IsZero() {
		device.Timestamp = now
	}

	record := &RefreshToken{
		UserID:          userID,
		TokenHash:       hashToken(raw),
		FamilyID:        familyID,
		PreviousTokenID: parentID,
		IssuedAt:        now,
		ExpiresAt:       now.Add(ttl),
		DeviceInfo:      device,
	}

	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}

	return &IssuedToken{Token: raw, Record: record}, nil
}

// Validate returns the active record matching raw.
func (s *Service) Validate(ctx context.Context, raw string) (*RefreshToken, error) {
	record, err := s.findByHash(ctx, raw)
	if err != nil {
		return nil, err
	}

	if !record.IsActive(s.clock()) {
		s.logger.Debug("refresh token rejected: not active",
			logging.TokenID(record.ID),
			zap.Bool("revoked", record.Revoked))
		return nil, ErrInvalidToken
	}

	return record, nil
}

// Lookup returns the record for raw in any state.
func (s *Service) Lookup(ctx context.Context, raw string) (*RefreshToken, error) {
	return s.findByHash(ctx, raw)
}

func (s *Service) findByHash(ctx context.Context, raw string) (*RefreshToken, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	var record RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", hashToken(raw)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, s.storeError("failed to look up refresh token", err)
	}

	return &record, nil
}

// Rotate exchanges raw for a new secret in the same family. Presenting a
// revoked secret is treated as reuse and answered with ErrInvalidToken.
func (s *Service) Rotate(ctx context.Context, raw string, device DeviceInfo) (*IssuedToken, error) {
	record, err := s.findByHash(ctx, raw)
	if err != nil {
		return nil, err
	}

	if record.Revoked {
		s.handleReuse(ctx, record, device)
		return nil, ErrInvalidToken
	}

	return s.RotateRecord(ctx, record, device)
}

// RotateRecord revokes record and inserts its child in one transaction. The
// revoke is conditional on the row still being unrevoked, so of two
// concurrent rotations of the same record exactly one wins.
func (s *Service) RotateRecord(ctx context.Context, record *RefreshToken, device DeviceInfo) (*IssuedToken, error) {
	if !s.clock().Before(record.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	if device.IsZero() {
		device = record.DeviceInfo
		device.Timestamp = time.Time{}
	}

	var issued *IssuedToken
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock()
		result := tx.Model(&RefreshToken{}).
			Where("id = ? AND revoked = ?", record.ID, false).
			Updates(map[string]any{
				"revoked":           true,
				"revoked_at":        now,
				"revocation_reason": ReasonRotated,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errReuse
		}

		child, err := s.insert(tx, record.UserID, record.FamilyID, &record.ID, device, s.config.Expiry)
		if err != nil {
			return err
		}
		issued = child
		return nil
	})

	switch {
	case errors.Is(err, errReuse):
		s.handleReuse(ctx, record, device)
		return nil, ErrInvalidToken
	case errors.Is(err, ErrTokenGenerationFailed):
		return nil, err
	case err != nil:
		return nil, s.storeError("failed to rotate refresh token", err)
	}

	s.logger.Debug("refresh token rotated",
		logging.UserID(record.UserID),
		logging.FamilyID(record.FamilyID),
		zap.Uint("parent_id", record.ID),
		logging.TokenID(issued.Record.ID),
		logging.TokenHash(issued.Record.TokenHash))

	return issued, nil
}

// handleReuse contains a replayed secret. It runs detached from the caller's
// cancellation so an aborted request cannot leave the family alive.
func (s *Service) handleReuse(ctx context.Context, record *RefreshToken, device DeviceInfo) {
	ctx = context.WithoutCancel(ctx)

	scope := "family"
	var revoked int64
	var err error
	if s.config.ReuseRevokesFamily {
		revoked, err = s.revokeFamily(ctx, record.FamilyID, ReasonReuseDetected)
	} else {
		scope = "descendants"
		revoked, err = s.revokeDescendants(ctx, record.ID, ReasonReuseDetected)
	}

	s.logger.Warn("refresh token reuse detected",
		logging.UserID(record.UserID),
		logging.FamilyID(record.FamilyID),
		logging.TokenID(record.ID),
		logging.TokenHash(record.TokenHash),
		logging.IPAddress(device.IPAddress),
		zap.String("scope", scope),
		zap.Int64("revoked_count", revoked))

	if err != nil {
		s.logger.Error("failed to revoke after reuse detection",
			logging.FamilyID(record.FamilyID),
			zap.Error(err))
	}

	s.metrics.ReuseDetected()
	s.metrics.Revoked(ReasonReuseDetected, revoked)

	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventRefreshReuseDetected,
		UserID:    record.UserID,
		FamilyID:  record.FamilyID,
		IPAddress: device.IPAddress,
		UserAgent: device.UserAgent,
		Details: map[string]any{
			"token_id":      record.ID,
			"scope":         scope,
			"revoked_count": revoked,
		},
	})
}

// Revoke marks record revoked. With cascade every record of its family is
// revoked too.
func (s *Service) Revoke(ctx context.Context, record *RefreshToken, reason string, cascade bool) (int64, error) {
	if cascade {
		count, err := s.revokeFamily(ctx, record.FamilyID, reason)
		if err != nil {
			return 0, s.storeError("failed to revoke refresh token family", err)
		}
		s.metrics.Revoked(reason, count)
		return count, nil
	}

	result := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("id = ? AND revoked = ?", record.ID, false).
		Updates(s.revocation(reason))
	if result.Error != nil {
		return 0, s.storeError("failed to revoke refresh token", result.Error)
	}

	s.metrics.Revoked(reason, result.RowsAffected)
	return result.RowsAffected, nil
}

// RevokeByID revokes a record owned by userID.
func (s *Service) RevokeByID(ctx context.Context, userID, id uint, reason string, cascade bool) (int64, error) {
	var record RefreshToken
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrTokenNotFound
		}
		return 0, s.storeError("failed to look up refresh token", err)
	}

	return s.Revoke(ctx, &record, reason, cascade)
}

func (s *Service) RevokeAllForUser(ctx context.Context, userID uint, reason string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(s.revocation(reason))
	if result.Error != nil {
		return 0, s.storeError("failed to revoke user refresh tokens", result.Error)
	}

	s.logger.Info("revoked all refresh tokens for user",
		logging.UserID(userID),
		zap.String("reason", reason),
		zap.Int64("count", result.RowsAffected))
	s.metrics.Revoked(reason, result.RowsAffected)

	return result.RowsAffected, nil
}

func (s *Service) revocation(reason string) map[string]any {
	return map[string]any{
		"revoked":           true,
		"revoked_at":        s.clock(),
		"revocation_reason": reason,
	}
}

func (s *Service) revokeFamily(ctx context.Context, familyID, reason string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("family_id = ? AND revoked = ?", familyID, false).
		Updates(s.revocation(reason))
	return result.RowsAffected, result.Error
}

// revokeDescendants revokes every record rotated out of id, directly or
// transitively, leaving id's ancestors untouched.
func (s *Service) revokeDescendants(ctx context.Context, id uint, reason string) (int64, error) {
	db := s.db.WithContext(ctx)
	visited := map[uint]bool{id: true}
	frontier := []uint{id}
	var descendants []uint

	for len(frontier) > 0 && len(visited) <= maxLineageDepth {
		var children []uint
		if err := db.Model(&RefreshToken{}).Where("previous_token_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return 0, err
		}

		frontier = frontier[:0]
		for _, child := range children {
			if visited[child] {
				continue
			}
			visited[child] = true
			descendants = append(descendants, child)
			frontier = append(frontier, child)
		}
	}

	if len(descendants) == 0 {
		return 0, nil
	}

	result := db.Model(&RefreshToken{}).
		Where("id IN ? AND revoked = ?", descendants, false).
		Updates(s.revocation(reason))
	return result.RowsAffected, result.Error
}

// ListActive returns the user's unrevoked, unexpired records, newest first.
func (s *Service) ListActive(ctx context.Context, userID uint) ([]RefreshToken, error) {
	var records []RefreshToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, s.clock()).
		Order("issued_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, s.storeError("failed to list refresh tokens", err)
	}

	return records, nil
}

// Family returns every stored record of a family in issue order.
func (s *Service) Family(ctx context.Context, familyID string) ([]RefreshToken, error) {
	var records []RefreshToken
	err := s.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, s.storeError("failed to load refresh token family", err)
	}

	return records, nil
}

// Lineage follows previous-token links from id back to the oldest stored
// ancestor. The first element is the record itself.
func (s *Service) Lineage(ctx context.Context, id uint) ([]RefreshToken, error) {
	db := s.db.WithContext(ctx)
	visited := make(map[uint]bool)
	var chain []RefreshToken

	next := &id
	for next != nil {
		if visited[*next] {
			return chain, fmt.Errorf("%w at token %d", ErrLineageCycle, *next)
		}
		if len(chain) >= maxLineageDepth {
			return chain, fmt.Errorf("%w: exceeded depth %d", ErrLineageCycle, maxLineageDepth)
		}
		visited[*next] = true

		var record RefreshToken
		err := db.First(&record, *next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if len(chain) == 0 {
					return nil, ErrTokenNotFound
				}
				// Ancestor already purged by cleanup.
				break
			}
			return chain, s.storeError("failed to load refresh token lineage", err)
		}

		chain = append(chain, record)
		next = record.PreviousTokenID
	}

	return chain, nil
}

// Cleanup deletes expired records and records revoked longer than retention
// ago. Active, unexpired records are never touched.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	now := s.clock()
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked = ? AND revoked_at < ?)", now, true, now.Add(-retention)).
		Delete(&RefreshToken{})
	if result.Error != nil {
		return 0, s.storeError("failed to clean up refresh tokens", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("cleaned up refresh tokens", zap.Int64("count", result.RowsAffected))
	} else {
		s.logger.Debug("no refresh tokens to clean up")
	}

	return result.RowsAffected, nil
}

func (s *Service) storeError(msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, msg, err)
}

func (s *Service) generateSecureToken() (string, error) {
	length := s.config.TokenLength
	if length < minTokenBytes {
		length = minTokenBytes
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
