package audit

import "time"

type EventType string

const (
	EventLoginSucceeded       EventType = "login_succeeded"
	EventLoginFailed          EventType = "login_failed"
	EventAccountLocked        EventType = "account_locked"
	EventRefreshReuseDetected EventType = "refresh_reuse_detected"
	EventLogout               EventType = "logout"
	EventLogoutAll            EventType = "logout_all"
	EventSessionRevoked       EventType = "session_revoked"
	EventPasswordChanged      EventType = "password_changed"
)

// SecurityEvent is the persisted form of an Event.
type SecurityEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    *uint          `json:"user_id,omitempty" gorm:"index"`
	EventType EventType      `json:"event_type" gorm:"size:64;not null;index"`
	FamilyID  string         `json:"family_id,omitempty" gorm:"size:36;index"`
	IPAddress string         `json:"ip_address,omitempty" gorm:"size:64"`
	UserAgent string         `json:"user_agent,omitempty" gorm:"size:512"`
	Details   map[string]any `json:"details,omitempty" gorm:"type:text;serializer:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

func (SecurityEvent) TableName() string {
	return "security_events"
}

type Event struct {
	Type      EventType
	UserID    uint
	FamilyID  string
	IPAddress string
	UserAgent string
	Details   map[string]any
}
