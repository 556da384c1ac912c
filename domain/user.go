package domain

// User is a resource owner account. This module only reads users; they are
// provisioned elsewhere.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Scope    string `json:"scope"`
}

// UserSnapshot is the copy of a user embedded in tokens and codes.
type UserSnapshot struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Scope    string `json:"scope"`
}

// Snapshot copies the fields of u that a token or code is bound to.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{ID: u.ID, Username: u.Username, Scope: u.Scope}
}

// Credential holds the stored secret of a user, keyed by username.
type Credential struct {
	Username string       `json:"username"`
	Password PasswordHash `json:"password"`
}

// PasswordHash is a stored password. Salt is empty for self-describing
// formats such as bcrypt.
type PasswordHash struct {
	Algorithm string `json:"algorithm"`
	Salt      string `json:"salt,omitempty"`
	Hash      string `json:"hash"`
}
