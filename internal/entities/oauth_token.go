package entities

import (
	"time"
)

// OAuthProvider names the service a stored credential belongs to.
type OAuthProvider string

const (
	OAuthProviderSpotify OAuthProvider = "spotify"
)

// OAuthToken is the at-rest form of a streaming-service credential.
// Token columns hold base64 AES-256-GCM ciphertext and never leave the store
// in this form.
type OAuthToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Provider  OAuthProvider `gorm:"type:varchar(50);not null;uniqueIndex:idx_provider_account" json:"provider"`
	AccountID string        `gorm:"type:varchar(255);not null;uniqueIndex:idx_provider_account" json:"account_id"`

	AccessToken  string     `gorm:"type:text;not null" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scope        string     `gorm:"type:text" json:"scope,omitempty"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}

// Credentials is a decrypted token pair held in memory only.
type Credentials struct {
	Provider     OAuthProvider
	AccountID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scope        string
}

// Expired reports whether the access token is unusable at now. A token with
// no expiry never expires; a missing access token is always expired.
func (c *Credentials) Expired(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return true
	}
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(*c.ExpiresAt)
}
