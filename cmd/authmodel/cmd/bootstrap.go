package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	authmodel "go.pilab.hu/authmodel"
	"go.pilab.hu/authmodel/cache"
	rediscache "go.pilab.hu/authmodel/cache/redis"
	"go.pilab.hu/authmodel/domain"
	"go.pilab.hu/authmodel/internal/audit"
	"go.pilab.hu/authmodel/internal/auth"
	"go.pilab.hu/authmodel/internal/server"
	"go.pilab.hu/authmodel/log"
	"go.pilab.hu/authmodel/mongodb"
	"go.pilab.hu/authmodel/scope"
)

const (
	memoryCacheCapacity = 10000
	redisKeyPrefix      = "authmodel"
)

// app holds the connections and repositories one command works with.
type app struct {
	oauthConn *mongodb.Connection
	usersConn *mongodb.Connection
	oauthDB   *mongodb.Database
	usersDB   *mongodb.Database
	repos     *mongodb.Repositories
	checks    []server.Check
	closers   []func(ctx context.Context) error
}

// openApp connects to the OAuth datastore, and to the user datastore when
// it is configured separately.
func openApp(ctx context.Context) (*app, error) {
	a := &app{}

	conn, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	a.oauthConn = conn
	a.closers = append(a.closers, conn.Close)
	a.checks = append(a.checks, server.Check{Name: "mongo", Pinger: conn})

	a.usersConn = conn
	if cfg.SeparateUserStore() {
		usersConn, err := mongodb.Connect(ctx, cfg.UsersMongoURI)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("user datastore: %w", err)
		}
		a.usersConn = usersConn
		a.closers = append(a.closers, usersConn.Close)
		a.checks = append(a.checks, server.Check{Name: "mongo_users", Pinger: usersConn})
	}

	a.oauthDB = a.oauthConn.Database(cfg.MongoDBName)
	a.usersDB = a.usersConn.Database(cfg.UsersDBName)

	a.repos, err = mongodb.NewRepositories(a.oauthDB, a.usersDB, mongodb.RepositoryConfig{
		PairedWrites:         mongodb.PairedWrites(cfg.PairedWrites),
		AccessTokenLifetime:  cfg.AccessTokenLifetime,
		RefreshTokenLifetime: cfg.RefreshTokenLifetime,
		PasswordVerifier:     auth.NewVerifier(cfg.BcryptCost),
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	appLogger.Debug(ctx, "Datastores connected", log.Fields{
		"mongo_db_name":  cfg.MongoDBName,
		"users_db_name":  cfg.UsersDBName,
		"separate_users": cfg.SeparateUserStore(),
		"paired_writes":  cfg.PairedWrites,
	})
	return a, nil
}

// Close releases everything openApp and model acquired, newest first.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			appLogger.Warn(ctx, "Close failed", log.Fields{"error": err.Error()})
		}
	}
	a.closers = nil
}

// catalog returns the configured system scope catalog.
func (a *app) catalog() scope.Catalog {
	if cfg.ScopeSource == "mongo" {
		return scope.NewCachedCatalog(a.repos.Scopes, cfg.ScopeCacheTTL)
	}
	return scope.NewStaticCatalog(cfg.SystemScopeList()...)
}

// tokens returns the token repository, behind the configured cache.
func (a *app) tokens() domain.TokenRepository {
	switch cfg.TokenCache {
	case "memory":
		store := cache.NewMemoryTokenStore(memoryCacheCapacity)
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		return cache.NewTokenRepository(a.repos.Tokens, store, cfg.TokenCacheTTL)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return cache.NewTokenRepository(a.repos.Tokens, rediscache.NewTokenStore(client, redisKeyPrefix), cfg.TokenCacheTTL)
	default:
		return a.repos.Tokens
	}
}

// model assembles the facade for one command. reg may be nil.
func (a *app) model(reg prometheus.Registerer) (*authmodel.Model, error) {
	return authmodel.New(authmodel.Dependencies{
		Clients:   a.repos.Clients,
		Users:     a.repos.Users,
		Tokens:    a.tokens(),
		AuthCodes: a.repos.AuthCodes,
		Scopes:    scope.NewResolver(a.catalog()),
	},
		authmodel.WithLogger(appLogger),
		authmodel.WithAudit(audit.New(os.Stdout, cfg.OtelServiceName)),
		authmodel.WithRegisterer(reg),
		authmodel.WithAuthorizationCodeLifetime(cfg.AuthorizationCodeLifetime),
	)
}
