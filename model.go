// Package authmodel is the storage and scope-decision model an OAuth2
// authorization server calls into. It answers lookups with a record or nil,
// records issued tokens and codes, and revokes them.
package authmodel

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.pilab.hu/authmodel/domain"
	"go.pilab.hu/authmodel/internal/audit"
	"go.pilab.hu/authmodel/internal/metrics"
	"go.pilab.hu/authmodel/log"
	"go.pilab.hu/authmodel/scope"
)

const tracerName = "go.pilab.hu/authmodel"

// DefaultAuthorizationCodeLifetime applies to codes saved without an expiry.
const DefaultAuthorizationCodeLifetime = 5 * time.Minute

// AuthorizationModel is the contract the protocol engine consumes. A nil
// record with a nil error means "no such record" or "credentials do not
// match"; a non-nil error is an infrastructure fault.
type AuthorizationModel interface {
	GetClient(ctx context.Context, clientID, clientSecret string) (*domain.Client, error)
	GetUser(ctx context.Context, username, password string) (*domain.User, error)
	GetUserFromClient(ctx context.Context, client *domain.Client) (*domain.User, error)
	SaveToken(ctx context.Context, spec domain.TokenSpec, client *domain.Client, user *domain.User) (*domain.Token, error)
	GetAccessToken(ctx context.Context, token string) (*domain.AccessToken, error)
	GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	RevokeAccessToken(ctx context.Context, token *domain.AccessToken) (bool, error)
	RevokeRefreshToken(ctx context.Context, token *domain.RefreshToken) (bool, error)
	GetAuthorizationCode(ctx context.Context, code string) (*domain.AuthorizationCode, error)
	SaveAuthorizationCode(ctx context.Context, spec domain.CodeSpec, client *domain.Client, user *domain.User) (*domain.AuthorizationCode, error)
	RevokeAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) (bool, error)
	ValidateScope(ctx context.Context, client *domain.Client, user *domain.User, requested *string) (string, error)
	VerifyScope(token *domain.AccessToken, required string) bool
}

// ScopeValidator decides the granted scope of a request.
type ScopeValidator interface {
	Validate(ctx context.Context, client *domain.Client, user *domain.User, requested *string) (string, error)
}

// Dependencies are the stores and the scope validator behind a Model.
type Dependencies struct {
	Clients   domain.ClientRepository
	Users     domain.UserRepository
	Tokens    domain.TokenRepository
	AuthCodes domain.AuthorizationCodeRepository
	Scopes    ScopeValidator
}

// Model implements AuthorizationModel.
type Model struct {
	clients   domain.ClientRepository
	users     domain.UserRepository
	tokens    domain.TokenRepository
	authCodes domain.AuthorizationCodeRepository
	scopes    ScopeValidator

	logger       log.Logger
	audit        *audit.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	codeLifetime time.Duration
	now          func() time.Time
}

// Option configures a Model.
type Option func(*Model)

func WithLogger(l log.Logger) Option { return func(m *Model) { m.logger = l } }

func WithAudit(a *audit.Logger) Option { return func(m *Model) { m.audit = a } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Model) { m.metrics = mt } }

// WithRegisterer registers the model counters with reg. A process that
// embeds the model passes the registry its /metrics endpoint serves.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Model) { m.metrics = metrics.New(reg) }
}

func WithTracer(t trace.Tracer) Option { return func(m *Model) { m.tracer = t } }

// WithAuthorizationCodeLifetime sets the expiry given to codes saved
// without one.
func WithAuthorizationCodeLifetime(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.codeLifetime = d
		}
	}
}

// WithClock overrides the time source used for default expiries.
func WithClock(now func() time.Time) Option { return func(m *Model) { m.now = now } }

// New creates a Model. Every dependency is required.
func New(deps Dependencies, opts ...Option) (*Model, error) {
	if deps.Clients == nil || deps.Users == nil || deps.Tokens == nil || deps.AuthCodes == nil || deps.Scopes == nil {
		return nil, errors.New("authmodel: all dependencies must be provided")
	}

	m := &Model{
		clients:      deps.Clients,
		users:        deps.Users,
		tokens:       deps.Tokens,
		authCodes:    deps.AuthCodes,
		scopes:       deps.Scopes,
		codeLifetime: DefaultAuthorizationCodeLifetime,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.NewZerologAdapter(zerolog.InfoLevel, false)
	}
	if m.metrics == nil {
		m.metrics = metrics.New(nil)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}
	return m, nil
}

// found maps the not-found channel to a nil record.
func found[T any](v *T, err error) (*T, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (m *Model) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "authmodel."+name, trace.WithAttributes(attrs...))
}

func fail(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
}

// GetClient returns the client, or nil when the id (and secret, if given)
// match nothing.
func (m *Model) GetClient(ctx context.Context, clientID, clientSecret string) (*domain.Client, error) {
	ctx, span := m.start(ctx, "GetClient", attribute.String("client_id", clientID))
	defer span.End()

	client, err := found(m.clients.GetClient(ctx, clientID, clientSecret))
	if err != nil {
		fail(span, err)
		m.logger.Error(ctx, "Client lookup failed", err, log.Fields{"client_id": clientID})
		return nil, err
	}
	span.SetAttributes(attribute.Bool("found", client != nil))
	return client, nil
}

// GetUser returns the user when the password matches, nil otherwise. An
// unknown user and a wrong password look the same to the caller.
func (m *Model) GetUser(ctx context.Context, username, password string) (*domain.User, error) {
	ctx, span := m.start(ctx, "GetUser")
	defer span.End()

	user, err := found(m.users.GetUser(ctx, username, password))
	switch {
	case err != nil:
		fail(span, err)
		m.metrics.UserLookups.WithLabelValues(metrics.ResultError).Inc()
		m.logger.Error(ctx, "User lookup failed", err)
		m.audit.Log(ctx, audit.Event{Action: audit.ActionLogin, User: username, Err: err})
		return nil, err
	case user == nil:
		m.metrics.UserLookups.WithLabelValues(metrics.ResultNotFound).Inc()
		m.audit.Log(ctx, audit.Event{Action: audit.ActionLogin, User: username})
	default:
		m.metrics.UserLookups.WithLabelValues(metrics.ResultOK).Inc()
		m.audit.Log(ctx, audit.Event{Action: audit.ActionLogin, User: user.ID, Success: true})
	}
	return user, nil
}

// GetUserFromClient returns the user the client acts for, or nil.
func (m *Model) GetUserFromClient(ctx context.Context, client *domain.Client) (*domain.User, error) {
	ctx, span := m.start(ctx, "GetUserFromClient")
	defer span.End()

	user, err := found(m.users.GetUserFromClient(ctx, client))
	if err != nil {
		fail(span, err)
		m.logger.Error(ctx, "Client owner lookup failed", err)
		return nil, err
	}
	return user, nil
}

// SaveToken stores the access token and, if present, the refresh token,
// both bound to snapshots of client and user. Missing expiries are filled
// from the client's lifetimes.
func (m *Model) SaveToken(ctx context.Context, spec domain.TokenSpec, client *domain.Client, user *domain.User) (*domain.Token, error) {
	ctx, span := m.start(ctx, "SaveToken", attribute.Bool("refresh", spec.RefreshToken != ""))
	defer span.End()

	if client != nil {
		now := m.now()
		if spec.AccessTokenExpiresAt.IsZero() && client.AccessTokenLifetime > 0 {
			spec.AccessTokenExpiresAt = now.Add(client.AccessTokenLifetime)
		}
		if spec.RefreshToken != "" && spec.RefreshTokenExpiresAt.IsZero() && client.RefreshTokenLifetime > 0 {
			spec.RefreshTokenExpiresAt = now.Add(client.RefreshTokenLifetime)
		}
	}

	token, err := m.tokens.SaveToken(ctx, client, user, spec)
	if err != nil {
		fail(span, err)
		m.logger.Error(ctx, "Saving token failed", err)
		return nil, err
	}
	m.metrics.TokensSaved.Inc()
	return token, nil
}

// GetAccessToken returns the stored access token, or nil. Expired tokens
// are returned as well.
func (m *Model) GetAccessToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	ctx, span := m.start(ctx, "GetAccessToken")
	defer span.End()

	record, err := found(m.tokens.GetAccessToken(ctx, token))
	if err != nil {
		fail(span, err)
		m.logger.Error(ctx, "Access token lookup failed", err)
		return nil, err
	}
	return record, nil
}

// GetRefreshToken returns the stored refresh token, or nil.
func (m *Model) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	ctx, span := m.start(ctx, "GetRefreshToken")
	defer span.End()

	record, err := found(m.tokens.GetRefreshToken(ctx, token))
	if err != nil {
		fail(span, err)
		m.logger.Error(ctx, "Refresh token lookup failed", err)
		return nil, err
	}
	return record, nil
}

// RevokeAccessToken reports whether this call removed the token.
func (m *Model) RevokeAccessToken(ctx context.Context, token *domain.AccessToken) (bool, error) {
	ctx, span := m.start(ctx, "RevokeAccessToken")
	defer span.End()

	revoked, err := m.tokens.RevokeAccessToken(ctx, token)
	var owner [2]string
	if token != nil {
		owner = [2]string{token.User.ID, token.Client.ID}
	}
	m.revoked(ctx, span, "access_token", audit.ActionRevokeAccessToken, revoked, err, owner)
	if err != nil {
		return false, err
	}
	return revoked, nil
}

// RevokeRefreshToken reports whether this call removed the token.
func (m *Model) RevokeRefreshToken(ctx context.Context, token *domain.RefreshToken) (bool, error) {
	ctx, span := m.start(ctx, "RevokeRefreshToken")
	defer span.End()

	revoked, err := m.tokens.RevokeRefreshToken(ctx, token)
	var owner [2]string
	if token != nil {
		owner = [2]string{token.User.ID, token.Client.ID}
	}
	m.revoked(ctx, span, "refresh_token", audit.ActionRevokeRefreshToken, revoked, err, owner)
	if err != nil {
		return false, err
	}
	return revoked, nil
}

// GetAuthorizationCode returns the stored code, or nil. Expired codes are
// returned as well.
func (m *Model) GetAuthorizationCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	ctx, span := m.start(ctx, "GetAuthorizationCode")
	defer span.End()

	record, err := found(m.authCodes.GetAuthorizationCode(ctx, code))
	if err != nil {
		fail(span, err)
		m.logger.Error(ctx, "Authorization code lookup failed", err)
		return nil, err
	}
	return record, nil
}

// SaveAuthorizationCode stores the code bound to snapshots of client and
// user.
func (m *Model) SaveAuthorizationCode(ctx context.Context, spec domain.CodeSpec, client *domain.Client, user *domain.User) (*domain.AuthorizationCode, error) {
	ctx, span := m.start(ctx, "SaveAuthorizationCode")
	defer span.End()

	if spec.ExpiresAt.IsZero() {
		spec.ExpiresAt = m.now().Add(m.codeLifetime)
	}

	code, err := m.authCodes.SaveAuthorizationCode(ctx, client, user, spec)
	if err != nil {
		fail(span, err)
		m.logger.Error(ctx, "Saving authorization code failed", err)
		return nil, err
	}
	m.metrics.CodesSaved.Inc()
	return code, nil
}

// RevokeAuthorizationCode reports whether this call removed the code.
func (m *Model) RevokeAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) (bool, error) {
	ctx, span := m.start(ctx, "RevokeAuthorizationCode")
	defer span.End()

	revoked, err := m.authCodes.RevokeAuthorizationCode(ctx, code)
	var owner [2]string
	if code != nil {
		owner = [2]string{code.User.ID, code.Client.ID}
	}
	m.revoked(ctx, span, "authorization_code", audit.ActionRevokeCode, revoked, err, owner)
	if err != nil {
		return false, err
	}
	return revoked, nil
}

// ValidateScope returns the scope that may be granted, or "" when nothing
// may be.
func (m *Model) ValidateScope(ctx context.Context, client *domain.Client, user *domain.User, requested *string) (string, error) {
	ctx, span := m.start(ctx, "ValidateScope", attribute.Bool("requested", requested != nil))
	defer span.End()

	granted, err := m.scopes.Validate(ctx, client, user, requested)
	if err != nil {
		fail(span, err)
		m.metrics.ScopeDecisions.WithLabelValues("validate", metrics.ResultError).Inc()
		m.logger.Error(ctx, "Scope validation failed", err)
		return "", err
	}

	if granted == "" {
		m.metrics.ScopeDecisions.WithLabelValues("validate", metrics.ResultDenied).Inc()
		event := audit.Event{Action: audit.ActionScopeDenied}
		if client != nil {
			event.Client = client.ClientID
		}
		if user != nil {
			event.User = user.ID
		}
		if requested != nil {
			event.Details = *requested
		}
		m.audit.Log(ctx, event)
	} else {
		m.metrics.ScopeDecisions.WithLabelValues("validate", metrics.ResultGranted).Inc()
	}
	span.SetAttributes(attribute.String("granted", granted))
	return granted, nil
}

// VerifyScope reports whether the token's scope satisfies required.
func (m *Model) VerifyScope(token *domain.AccessToken, required string) bool {
	ok := token != nil && scope.Verify(token.Scope, required)

	result := metrics.ResultDenied
	if ok {
		result = metrics.ResultGranted
	}
	m.metrics.ScopeDecisions.WithLabelValues("verify", result).Inc()
	return ok
}

// revoked records a revocation outcome. owner is {user id, client id}.
func (m *Model) revoked(ctx context.Context, span trace.Span, kind, action string, revoked bool, err error, owner [2]string) {
	m.metrics.Revoked(kind, revoked, err)
	span.SetAttributes(attribute.Bool("revoked", revoked))
	if err != nil {
		fail(span, err)
		m.logger.Error(ctx, "Revocation failed", err, log.Fields{"kind": kind})
	}
	m.audit.Log(ctx, audit.Event{
		Action:  action,
		User:    owner[0],
		Client:  owner[1],
		Success: revoked,
		Err:     err,
	})
}

var _ AuthorizationModel = (*Model)(nil)
