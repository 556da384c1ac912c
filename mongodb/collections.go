package mongodb

const (
	ClientsCollection       = "clients"
	UsersCollection         = "users"
	CredentialsCollection   = "credentials"
	AccessTokensCollection  = "access_tokens"
	RefreshTokensCollection = "refresh_tokens"
	CodesCollection         = "codes"
	ScopesCollection        = "scopes" // system scope catalog
)
