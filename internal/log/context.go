package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithSession returns a context carrying a child logger tagged with the
// realtime session id. Frame handlers log through this so every line of a
// session's traffic correlates.
func WithSession(ctx context.Context, sessionID string) context.Context {
	logger := Ctx(ctx).With().Str(FieldSessionID, sessionID).Logger()
	return WithLogger(ctx, logger)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return &l
	}
	return L()
}
