package domain

import "time"

// CodeSpec is what the protocol engine hands over when it issues an
// authorization code.
type CodeSpec struct {
	AuthorizationCode string
	ExpiresAt         time.Time
	RedirectURI       string
	Scope             string
}

// AuthorizationCode is a stored single-use authorization code. It stays
// readable until revoked; expiry is the caller's check.
type AuthorizationCode struct {
	Code        string         `json:"code"`
	ExpiresAt   time.Time      `json:"expires_at"`
	RedirectURI string         `json:"redirect_uri"`
	Scope       string         `json:"scope"`
	Client      ClientSnapshot `json:"client"`
	User        UserSnapshot   `json:"user"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Expired reports whether the code is expired at now.
func (c *AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
