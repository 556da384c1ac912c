package audit

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Actions recorded by the model.
const (
	ActionRevokeAccessToken  = "revoke_access_token"
	ActionRevokeRefreshToken = "revoke_refresh_token"
	ActionRevokeCode         = "revoke_authorization_code"
	ActionLogin              = "login"
	ActionScopeDenied        = "scope_denied"
)

// Event represents an audit log event.
type Event struct {
	Action  string
	User    string // user id or username
	Client  string // client id
	Details string
	Success bool
	Err     error
}

// Logger writes audit events as JSON lines, separate from the
// application log.
type Logger struct {
	service string
	logger  zerolog.Logger
}

// New creates a Logger writing to w. A nil w means stdout.
func New(w io.Writer, service string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		service: service,
		logger:  zerolog.New(w).With().Str("log_type", "audit").Logger(),
	}
}

// Log records an audit event.
func (l *Logger) Log(ctx context.Context, event Event) {
	if l == nil {
		return
	}
	e := l.logger.Log().
		Time("timestamp", time.Now().UTC()).
		Str("service", l.service).
		Str("action", event.Action).
		Bool("success", event.Success)
	if event.User != "" {
		e = e.Str("user", event.User)
	}
	if event.Client != "" {
		e = e.Str("client", event.Client)
	}
	if event.Details != "" {
		e = e.Str("details", event.Details)
	}
	if event.Err != nil {
		e = e.Str("error", event.Err.Error())
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		e = e.Str("trace_id", sc.TraceID().String())
	}
	e.Send()
}
