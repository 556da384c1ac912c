package log

import "context"

// Fields are structured key/value pairs attached to one log line.
type Fields = map[string]interface{}

// Logger is the logging interface used by the facade and the CLI.
// Repositories log through the global zerolog logger instead.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	Fatal(ctx context.Context, msg string, err error, fields ...Fields) // exits the process
	With(fields Fields) Logger
}
