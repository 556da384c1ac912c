package mongodb

import (
	"time"

	"go.pilab.hu/authmodel/domain"
)

// Persisted field names are camelCase to stay readable by the other
// services sharing these collections.

type clientDocument struct {
	ID                   interface{}    `bson:"_id,omitempty"`
	ClientID             string         `bson:"clientId"`
	ClientSecret         string         `bson:"clientSecret,omitempty"`
	Name                 string         `bson:"name"`
	Scope                string         `bson:"scope"`
	Grants               []string       `bson:"grants"`
	RedirectURIs         []string       `bson:"redirectUris"`
	User                 *ownerDocument `bson:"user,omitempty"`
	AccessTokenLifetime  int64          `bson:"accessTokenLifetime,omitempty"`  // seconds
	RefreshTokenLifetime int64          `bson:"refreshTokenLifetime,omitempty"` // seconds
	CreatedAt            time.Time      `bson:"createdAt,omitempty"`
	UpdatedAt            time.Time      `bson:"updatedAt,omitempty"`
}

type ownerDocument struct {
	ID       interface{} `bson:"_id,omitempty"`
	Username string      `bson:"username"`
}

func (d *clientDocument) toDomain() *domain.Client {
	c := &domain.Client{
		ID:                   idString(d.ID),
		ClientID:             d.ClientID,
		Name:                 d.Name,
		Scope:                d.Scope,
		Grants:               d.Grants,
		RedirectURIs:         d.RedirectURIs,
		AccessTokenLifetime:  time.Duration(d.AccessTokenLifetime) * time.Second,
		RefreshTokenLifetime: time.Duration(d.RefreshTokenLifetime) * time.Second,
	}
	if d.User != nil {
		c.User = &domain.ClientOwner{ID: idString(d.User.ID), Username: d.User.Username}
	}
	return c
}

type userDocument struct {
	ID        interface{} `bson:"_id,omitempty"`
	Username  string      `bson:"username"`
	Scope     string      `bson:"scope"`
	CreatedAt time.Time   `bson:"createdAt,omitempty"`
	UpdatedAt time.Time   `bson:"updatedAt,omitempty"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{ID: idString(d.ID), Username: d.Username, Scope: d.Scope}
}

type credentialDocument struct {
	ID       interface{}      `bson:"_id,omitempty"`
	Username string           `bson:"username"`
	Password passwordDocument `bson:"password"`
}

type passwordDocument struct {
	Algorithm string `bson:"algorithm,omitempty"`
	Salt      string `bson:"salt,omitempty"`
	Hash      string `bson:"hash"`
}

func (d *credentialDocument) toDomain() *domain.Credential {
	return &domain.Credential{
		Username: d.Username,
		Password: domain.PasswordHash{
			Algorithm: d.Password.Algorithm,
			Salt:      d.Password.Salt,
			Hash:      d.Password.Hash,
		},
	}
}

type clientSnapshotDocument struct {
	ID           string   `bson:"id"`
	Name         string   `bson:"name"`
	Grants       []string `bson:"grants"`
	Scope        string   `bson:"scope"`
	RedirectURIs []string `bson:"redirectUris"`
}

func newClientSnapshotDocument(s domain.ClientSnapshot) clientSnapshotDocument {
	return clientSnapshotDocument{
		ID:           s.ID,
		Name:         s.Name,
		Grants:       s.Grants,
		Scope:        s.Scope,
		RedirectURIs: s.RedirectURIs,
	}
}

func (d clientSnapshotDocument) toDomain() domain.ClientSnapshot {
	return domain.ClientSnapshot{
		ID:           d.ID,
		Name:         d.Name,
		Grants:       d.Grants,
		Scope:        d.Scope,
		RedirectURIs: d.RedirectURIs,
	}
}

type userSnapshotDocument struct {
	ID       string `bson:"id"`
	Username string `bson:"username"`
	Scope    string `bson:"scope"`
}

func newUserSnapshotDocument(s domain.UserSnapshot) userSnapshotDocument {
	return userSnapshotDocument{ID: s.ID, Username: s.Username, Scope: s.Scope}
}

func (d userSnapshotDocument) toDomain() domain.UserSnapshot {
	return domain.UserSnapshot{ID: d.ID, Username: d.Username, Scope: d.Scope}
}

// tokenDocument is shared by the access_tokens and refresh_tokens
// collections.
type tokenDocument struct {
	ID        interface{}            `bson:"_id,omitempty"`
	Token     string                 `bson:"token"`
	Scope     string                 `bson:"scope"`
	ExpiresAt time.Time              `bson:"expiresAt"`
	Client    clientSnapshotDocument `bson:"client"`
	User      userSnapshotDocument   `bson:"user"`
	PairID    string                 `bson:"pairId,omitempty"`
	CreatedAt time.Time              `bson:"createdAt"`
}

func (d *tokenDocument) toAccessToken() *domain.AccessToken {
	return &domain.AccessToken{
		AccessToken:          d.Token,
		AccessTokenExpiresAt: d.ExpiresAt,
		Scope:                d.Scope,
		Client:               d.Client.toDomain(),
		User:                 d.User.toDomain(),
		PairID:               d.PairID,
		CreatedAt:            d.CreatedAt,
	}
}

func (d *tokenDocument) toRefreshToken() *domain.RefreshToken {
	return &domain.RefreshToken{
		RefreshToken:          d.Token,
		RefreshTokenExpiresAt: d.ExpiresAt,
		Scope:                 d.Scope,
		Client:                d.Client.toDomain(),
		User:                  d.User.toDomain(),
		PairID:                d.PairID,
		CreatedAt:             d.CreatedAt,
	}
}

type codeDocument struct {
	ID          interface{}            `bson:"_id,omitempty"`
	Code        string                 `bson:"code"`
	Scope       string                 `bson:"scope"`
	RedirectURI string                 `bson:"redirectUri"`
	ExpiresAt   time.Time              `bson:"expiresAt"`
	Client      clientSnapshotDocument `bson:"client"`
	User        userSnapshotDocument   `bson:"user"`
	CreatedAt   time.Time              `bson:"createdAt"`
}

func (d *codeDocument) toDomain() *domain.AuthorizationCode {
	return &domain.AuthorizationCode{
		Code:        d.Code,
		ExpiresAt:   d.ExpiresAt,
		RedirectURI: d.RedirectURI,
		Scope:       d.Scope,
		Client:      d.Client.toDomain(),
		User:        d.User.toDomain(),
		CreatedAt:   d.CreatedAt,
	}
}

type scopeDocument struct {
	ID          interface{} `bson:"_id,omitempty"`
	Name        string      `bson:"name"`
	Description string      `bson:"description,omitempty"`
}
