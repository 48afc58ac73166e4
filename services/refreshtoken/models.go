package refreshtoken

import (
	"time"
)

const (
	ReasonRotated         = "rotated"
	ReasonLogout          = "logout"
	ReasonLogoutAll       = "logout_all"
	ReasonSessionRevoked  = "session_revoked"
	ReasonReuseDetected   = "reuse_detected"
	ReasonPasswordChanged = "password_changed"
)

// DeviceInfo describes the client a token was issued to. It is stored as
// JSON and only used for session listing and audit.
type DeviceInfo struct {
	UserAgent  string    `json:"user_agent,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Browser    string    `json:"browser,omitempty"`
	OS         string    `json:"os,omitempty"`
	DeviceType string    `json:"device_type,omitempty"`
}

func (d DeviceInfo) IsZero() bool {
	return d.UserAgent == "" && d.IPAddress == ""
}

type RefreshToken struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	UserID           uint       `json:"user_id" gorm:"not null;index"`
	TokenHash        string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	FamilyID         string     `json:"family_id" gorm:"size:36;not null;index"`
	PreviousTokenID  *uint      `json:"previous_token_id,omitempty" gorm:"index"`
	IssuedAt         time.Time  `json:"issued_at" gorm:"not null"`
	ExpiresAt        time.Time  `json:"expires_at" gorm:"not null;index"`
	Revoked          bool       `json:"revoked" gorm:"not null;default:false;index"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevocationReason string     `json:"revocation_reason,omitempty" gorm:"size:32"`
	DeviceInfo       DeviceInfo `json:"device_info" gorm:"type:text;serializer:json"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsActive reports whether the record can still be exchanged.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// IssuedToken carries the raw secret back to the caller. The secret exists
// only here; the store keeps its hash.
type IssuedToken struct {
	Token  string
	Record *RefreshToken
}
