package session

import (
	"time"

	"github.com/tech-arch1tect/authcore/services/refreshtoken"
)

const TokenTypeBearer = "bearer"

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// SessionInfo is one active login as shown to its owner. ID is the id of
// the current refresh token of the session.
type SessionInfo struct {
	ID        uint                    `json:"id"`
	FamilyID  string                  `json:"family_id"`
	Device    refreshtoken.DeviceInfo `json:"device_info"`
	IssuedAt  time.Time               `json:"issued_at"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// Principal is the identity carried by a verified access token.
type Principal struct {
	UserID    uint
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
