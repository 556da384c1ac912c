package mongodb_test

import (
	"time"

	"go.pilab.hu/authmodel/domain"
	"go.pilab.hu/authmodel/mongodb"
	"go.pilab.hu/authmodel/mongodb/testutil"
)

func newFakeDB() *testutil.FakeDatabase {
	db := testutil.NewFakeDatabase()
	db.C(mongodb.ClientsCollection).Unique("clientId", "name")
	db.C(mongodb.UsersCollection).Unique("username")
	db.C(mongodb.CredentialsCollection).Unique("username")
	db.C(mongodb.AccessTokensCollection).Unique("token")
	db.C(mongodb.RefreshTokensCollection).Unique("token")
	db.C(mongodb.CodesCollection).Unique("code")
	db.C(mongodb.ScopesCollection).Unique("name")
	return db
}

func sampleClient() *domain.Client {
	return &domain.Client{
		ID:           "65f0c0ffee0000000000c001",
		ClientID:     "web-app",
		Name:         "Web App",
		Scope:        "profile admin",
		Grants:       []string{"authorization_code", "refresh_token"},
		RedirectURIs: []string{"https://app.example.com/cb"},
		User:         &domain.ClientOwner{ID: "65f0c0ffee0000000000a001", Username: "svc-owner"},
	}
}

func sampleUser() *domain.User {
	return &domain.User{ID: "65f0c0ffee0000000000b001", Username: "alice", Scope: "profile"}
}

// now is truncated to BSON datetime precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
