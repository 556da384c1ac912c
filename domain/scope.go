package domain

// Scope is an entry of the system scope catalog.
type Scope struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
