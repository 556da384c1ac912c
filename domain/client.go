package domain

import "time"

// Client represents a registered OAuth2 client application.
type Client struct {
	ID           string       `json:"id"`
	ClientID     string       `json:"client_id"`
	Name         string       `json:"name"`
	Scope        string       `json:"scope"`
	Grants       []string     `json:"grants"`
	RedirectURIs []string     `json:"redirect_uris"`
	User         *ClientOwner `json:"user,omitempty"`

	// Lifetimes are zero when neither the client document nor the
	// configured defaults provide one.
	AccessTokenLifetime  time.Duration `json:"access_token_lifetime,omitempty"`
	RefreshTokenLifetime time.Duration `json:"refresh_token_lifetime,omitempty"`
}

// ClientOwner is the user a client is registered to. Grants that
// authenticate by client identity act on behalf of this user.
type ClientOwner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ClientSnapshot is the copy of a client embedded in tokens and codes at
// issuance time.
type ClientSnapshot struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Grants       []string `json:"grants"`
	Scope        string   `json:"scope"`
	RedirectURIs []string `json:"redirect_uris"`
}

// Snapshot copies the fields of c that a token or code is bound to.
func (c *Client) Snapshot() ClientSnapshot {
	return ClientSnapshot{
		ID:           c.ID,
		Name:         c.Name,
		Grants:       cloneStrings(c.Grants),
		Scope:        c.Scope,
		RedirectURIs: cloneStrings(c.RedirectURIs),
	}
}

// HasGrant reports whether the client may use the given grant type.
func (c *Client) HasGrant(grant string) bool {
	for _, g := range c.Grants {
		if g == grant {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
