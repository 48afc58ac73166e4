package lockout

import (
	"context"
	"time"

	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/account"
	"github.com/tech-arch1tect/authcore/services/audit"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"go.uber.org/zap"
)

// CounterStore persists the failure counter. Implementations must apply the
// increment and the threshold check atomically per account.
type CounterStore interface {
	IncrementFailures(ctx context.Context, id uint, threshold int, lockUntil time.Time) (*account.Credential, error)
	ResetFailures(ctx context.Context, id uint, loggedIn bool) error
}

type Policy struct {
	store   CounterStore
	config  *config.LockoutConfig
	logger  *logging.Service
	audit   *audit.Service
	metrics *metrics.Recorder
	now     func() time.Time
}

func NewPolicy(store CounterStore, cfg *config.LockoutConfig, logger *logging.Service, auditService *audit.Service, recorder *metrics.Recorder) *Policy {
	return &Policy{
		store:   store,
		config:  cfg,
		logger:  logger,
		audit:   auditService,
		metrics: recorder,
		now:     time.Now,
	}
}

// RecordFailure counts a failed attempt and reports whether it locked the
// account. cred is updated with the stored counter and lock.
func (p *Policy) RecordFailure(ctx context.Context, cred *account.Credential) (bool, error) {
	lockUntil := p.now().UTC().Add(p.config.Duration)

	updated, err := p.store.IncrementFailures(ctx, cred.ID, p.config.Threshold, lockUntil)
	if err != nil {
		return false, err
	}

	cred.FailedLoginAttempts = updated.FailedLoginAttempts
	cred.LockedUntil = updated.LockedUntil

	// The increment leaves the counter at one or more; only applying the
	// lock resets it to zero.
	locked := updated.FailedLoginAttempts == 0 && p.IsLocked(updated)
	if !locked {
		p.logger.Debug("login failure recorded",
			logging.UserID(cred.ID),
			zap.Int("failed_attempts", updated.FailedLoginAttempts))
		return false, nil
	}

	p.logger.Warn("account locked after repeated login failures",
		logging.UserID(cred.ID),
		zap.Int("threshold", p.config.Threshold),
		zap.Time("locked_until", *updated.LockedUntil))
	p.metrics.Lockout()
	p.audit.Record(ctx, audit.Event{
		Type:   audit.EventAccountLocked,
		UserID: cred.ID,
		Details: map[string]any{
			"threshold":    p.config.Threshold,
			"locked_until": updated.LockedUntil.Format(time.RFC3339),
		},
	})

	return true, nil
}

// RecordSuccess clears the counter and any lock after a successful login.
func (p *Policy) RecordSuccess(ctx context.Context, cred *account.Credential) error {
	if err := p.store.ResetFailures(ctx, cred.ID, true); err != nil {
		return err
	}

	cred.FailedLoginAttempts = 0
	cred.LockedUntil = nil
	return nil
}

func (p *Policy) IsLocked(cred *account.Credential) bool {
	return p.Remaining(cred) > 0
}

// Remaining is the time left on the lock, or zero when unlocked.
func (p *Policy) Remaining(cred *account.Credential) time.Duration {
	if cred.LockedUntil == nil {
		return 0
	}
	remaining := cred.LockedUntil.Sub(p.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
