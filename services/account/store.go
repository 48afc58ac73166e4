package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("credential not found")
	ErrAlreadyExists = errors.New("credential already exists")
)

type Store struct {
	db     *gorm.DB
	logger *logging.Service
	now    func() time.Time
}

func NewStore(db *gorm.DB, logger *logging.Service) *Store {
	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// Create stores a credential whose password has already been hashed.
func (s *Store) Create(ctx context.Context, cred *Credential) error {
	cred.Email = NormalizeEmail(cred.Email)
	if cred.Phone != nil {
		phone := NormalizePhone(*cred.Phone)
		if phone == "" {
			cred.Phone = nil
		} else {
			cred.Phone = &phone
		}
	}
	if cred.Role == "" {
		cred.Role = RoleParticipant
	}

	if err := s.db.WithContext(ctx).Create(cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}

	s.logger.Info("credential created", logging.UserID(cred.ID))
	return nil
}

// LookupByIdentifier resolves an email address first and a phone number
// second.
func (s *Store) LookupByIdentifier(ctx context.Context, identifier string) (*Credential, error) {
	db := s.db.WithContext(ctx)

	var cred Credential
	err := db.Where("email = ?", NormalizeEmail(identifier)).First(&cred).Error
	if err == nil {
		return &cred, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	err = db.Where("phone = ?", NormalizePhone(identifier)).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	return &cred, nil
}

func (s *Store) GetByID(ctx context.Context, id uint) (*Credential, error) {
	var cred Credential
	if err := s.db.WithContext(ctx).First(&cred, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return &cred, nil
}

// IncrementFailures bumps the failure counter inside the database and, once
// it reaches threshold, locks the account until lockUntil and resets the
// counter. Concurrent failures for the same account are never lost.
func (s *Store) IncrementFailures(ctx context.Context, id uint, threshold int, lockUntil time.Time) (*Credential, error) {
	var cred Credential
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Credential{}).
			Where("id = ?", id).
			Update("failed_login_attempts", gorm.Expr("failed_login_attempts + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		err := tx.Model(&Credential{}).
			Where("id = ? AND failed_login_attempts >= ?", id, threshold).
			Updates(map[string]any{
				"failed_login_attempts": 0,
				"locked_until":          lockUntil.UTC(),
			}).Error
		if err != nil {
			return err
		}

		return tx.First(&cred, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to record login failure", logging.UserID(id), zap.Error(err))
		return nil, fmt.Errorf("failed to record login failure: %w", err)
	}

	return &cred, nil
}

// ResetFailures clears the counter and any lock. When loggedIn is set the
// last login time is stamped as well.
func (s *Store) ResetFailures(ctx context.Context, id uint, loggedIn bool) error {
	updates := map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}
	if loggedIn {
		updates["last_login_at"] = s.clock()
	}

	if err := s.db.WithContext(ctx).Model(&Credential{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	result := s.db.WithContext(ctx).Model(&Credential{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":       hash,
		"password_changed_at": s.clock(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update password hash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceDigest swaps the stored digest for an equivalent one, for example
// after a bcrypt cost change. The password itself is unchanged, so
// PasswordChangedAt is left alone.
func (s *Store) ReplaceDigest(ctx context.Context, id uint, hash string) error {
	result := s.db.WithContext(ctx).Model(&Credential{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to replace password digest: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
