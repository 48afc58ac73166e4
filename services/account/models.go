package account

import (
	"strings"
	"time"
)

const (
	RoleParticipant = "participant"
	RoleAdmin       = "admin"
)

type Credential struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	Email               string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone               *string    `json:"phone,omitempty" gorm:"uniqueIndex;size:32"`
	Role                string     `json:"role" gorm:"size:32;not null;default:participant"`
	PasswordHash        string     `json:"-" gorm:"size:255;not null"`
	FailedLoginAttempts int        `json:"-" gorm:"not null;default:0"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt   *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Credential) TableName() string {
	return "credentials"
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}
