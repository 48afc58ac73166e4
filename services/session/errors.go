package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/tech-arch1tect/authcore/services/refreshtoken"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("insufficient role")
	ErrStoreUnavailable   = refreshtoken.ErrStoreUnavailable
)

// AccountLockedError reports how long the caller has to wait. It matches
// ErrAccountLocked with errors.Is.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is locked, try again in %s", e.Remaining.Round(time.Second))
}

func (e *AccountLockedError) Unwrap() error {
	return ErrAccountLocked
}

func storeError(msg string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, msg, err)
}
