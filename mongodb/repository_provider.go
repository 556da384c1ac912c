package mongodb

import (
	"time"

	"go.pilab.hu/authmodel/internal/auth"
)

// RepositoryConfig holds what the repositories need besides connectors.
type RepositoryConfig struct {
	PairedWrites         PairedWrites
	AccessTokenLifetime  time.Duration
	RefreshTokenLifetime time.Duration
	PasswordVerifier     auth.PasswordVerifier
}

// Repositories bundles the repositories of one deployment.
type Repositories struct {
	Clients   *ClientRepository
	Users     *UserRepository
	Tokens    *TokenRepository
	AuthCodes *AuthCodeRepository
	Scopes    *ScopeRepository
}

// NewRepositories wires every repository. oauth holds clients, tokens,
// codes and scopes; users holds users and credentials.
func NewRepositories(oauth, users Connector, cfg RepositoryConfig) (*Repositories, error) {
	verifier := cfg.PasswordVerifier
	if verifier == nil {
		verifier = auth.NewVerifier(0)
	}

	tokens, err := NewTokenRepository(oauth, WithPairedWrites(cfg.PairedWrites))
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Clients:   NewClientRepository(oauth, WithDefaultLifetimes(cfg.AccessTokenLifetime, cfg.RefreshTokenLifetime)),
		Users:     NewUserRepository(users, verifier),
		Tokens:    tokens,
		AuthCodes: NewAuthCodeRepository(oauth),
		Scopes:    NewScopeRepository(oauth),
	}, nil
}
