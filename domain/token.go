package domain

import "time"

// TokenSpec is what the protocol engine hands over when it issues tokens.
// RefreshToken is empty when the grant issues no refresh token.
type TokenSpec struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	Scope                 string
}

// Token is the result of a successful SaveToken: the spec plus the bound
// client and user snapshots.
type Token struct {
	AccessToken           string         `json:"access_token"`
	AccessTokenExpiresAt  time.Time      `json:"access_token_expires_at"`
	RefreshToken          string         `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time      `json:"refresh_token_expires_at,omitempty"`
	Scope                 string         `json:"scope"`
	Client                ClientSnapshot `json:"client"`
	User                  UserSnapshot   `json:"user"`
}

// AccessToken is a stored access token record.
type AccessToken struct {
	AccessToken          string         `json:"access_token"`
	AccessTokenExpiresAt time.Time      `json:"access_token_expires_at"`
	Scope                string         `json:"scope"`
	Client               ClientSnapshot `json:"client"`
	User                 UserSnapshot   `json:"user"`
	PairID               string         `json:"pair_id,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

// Expired reports whether the token is expired at now.
func (t *AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.AccessTokenExpiresAt)
}

// RefreshToken is a stored refresh token record.
type RefreshToken struct {
	RefreshToken          string         `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time      `json:"refresh_token_expires_at"`
	Scope                 string         `json:"scope"`
	Client                ClientSnapshot `json:"client"`
	User                  UserSnapshot   `json:"user"`
	PairID                string         `json:"pair_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
}

// Expired reports whether the token is expired at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.RefreshTokenExpiresAt)
}
