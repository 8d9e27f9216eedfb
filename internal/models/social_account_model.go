package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	PlatformLinkedIn  = "linkedin"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformThreads   = "threads"
)

var Platforms = []string{PlatformLinkedIn, PlatformFacebook, PlatformInstagram, PlatformThreads}

func IsValidPlatform(p string) bool {
	switch p {
	case PlatformLinkedIn, PlatformFacebook, PlatformInstagram, PlatformThreads:
		return true
	default:
		return false
	}
}

const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
)

// SocialAccount is one connection per platform. AccessToken and
// RefreshToken hold ciphertext when read from the repository and plaintext
// when returned by the account store.
type SocialAccount struct {
	ID                    int64          `db:"id" json:"id"`
	Platform              string         `db:"platform" json:"platform"`
	ProviderAccountID     string         `db:"provider_account_id" json:"provider_account_id"`
	ProviderAccountName   string         `db:"provider_account_name" json:"provider_account_name"`
	OrganizationID        string         `db:"organization_id" json:"organization_id,omitempty"`
	AccessToken           string         `db:"access_token" json:"-"`
	RefreshToken          string         `db:"refresh_token" json:"-"`
	AccessTokenExpiresAt  *time.Time     `db:"access_token_expires_at" json:"access_token_expires_at,omitempty"`
	RefreshTokenExpiresAt *time.Time     `db:"refresh_token_expires_at" json:"refresh_token_expires_at,omitempty"`
	Scopes                pq.StringArray `db:"scopes" json:"scopes"`
	Status                string         `db:"status" json:"status"`
	Metadata              Metadata       `db:"metadata" json:"metadata,omitempty"`
	ConnectedBy           string         `db:"connected_by" json:"connected_by"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}

func (sa *SocialAccount) IsActive() bool {
	return sa != nil && sa.Status == AccountStatusActive
}

// AccountInput carries plaintext credentials into the account store.
type AccountInput struct {
	Platform              string
	ProviderAccountID     string
	ProviderAccountName   string
	OrganizationID        string
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  *time.Time
	RefreshTokenExpiresAt *time.Time
	Scopes                []string
	Metadata              map[string]string
	ConnectedBy           string
}
