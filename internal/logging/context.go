package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
)

type contextKey int

const (
	requestIDKey contextKey = iota
)

// GenerateRequestID creates a new 16 character hex request ID.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFromContext returns the default logger tagged with the request ID
// from ctx, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return Tag(ctx, Logger())
}

// Tag adds the request ID from ctx to logger.
func Tag(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		return logger.With(KeyRequestID, requestID)
	}
	return logger
}
