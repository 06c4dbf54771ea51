package model

import "time"

// Tier is a feature set unlocked by license state
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// License is the persisted license record. Tier and IsValid are what was
// stored; readers must recompute them against the clock.
type License struct {
	Key       string     `json:"key,omitempty"`
	Email     string     `json:"email,omitempty"`
	Tier      Tier       `json:"tier"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	IsValid   bool       `json:"isValid"`
}

// FreeLicense is the record used when nothing is stored
func FreeLicense() License {
	return License{Tier: TierFree, IsValid: false}
}

// Expired reports whether the license has an expiry in the past
func (l License) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}
