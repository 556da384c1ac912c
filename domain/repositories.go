package domain

import (
	"context"
)

// ClientRepository looks up registered clients.
type ClientRepository interface {
	// GetClient finds a client by client id, and by secret too when
	// clientSecret is non-empty. Returns ErrNotFound when nothing matches.
	GetClient(ctx context.Context, clientID, clientSecret string) (*Client, error)
}

// UserRepository looks up resource owners.
type UserRepository interface {
	// GetUser returns ErrNotFound both for an unknown username and for a
	// wrong password.
	GetUser(ctx context.Context, username, password string) (*User, error)
	GetUserFromClient(ctx context.Context, client *Client) (*User, error)
}

// TokenRepository stores access and refresh tokens.
type TokenRepository interface {
	SaveToken(ctx context.Context, client *Client, user *User, spec TokenSpec) (*Token, error)
	GetAccessToken(ctx context.Context, token string) (*AccessToken, error)
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	// RevokeAccessToken reports whether exactly one record was deleted.
	RevokeAccessToken(ctx context.Context, token *AccessToken) (bool, error)
	RevokeRefreshToken(ctx context.Context, token *RefreshToken) (bool, error)
}

// AuthorizationCodeRepository stores single-use authorization codes.
type AuthorizationCodeRepository interface {
	SaveAuthorizationCode(ctx context.Context, client *Client, user *User, spec CodeSpec) (*AuthorizationCode, error)
	GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)
	RevokeAuthorizationCode(ctx context.Context, code *AuthorizationCode) (bool, error)
}

// ScopeRepository lists the system scope catalog.
type ScopeRepository interface {
	ListScopes(ctx context.Context) ([]Scope, error)
}
