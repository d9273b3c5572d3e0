package http

import (
	"context"
	"log/slog"

	"github.com/example/hourbank/internal/logging"
)

type contextKey string

const (
	employeeIDContextKey contextKey = "employee_id"
	requestIDContextKey  contextKey = "request_id"
)

// ContextWithEmployeeID returns a derived context carrying the employee authenticated by session token.
func ContextWithEmployeeID(ctx context.Context, employeeID int64) context.Context {
	return context.WithValue(ctx, employeeIDContextKey, employeeID)
}

// EmployeeIDFromContext extracts the authenticated employee from context if available.
func EmployeeIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(employeeIDContextKey).(int64)
	return id, ok
}

// ContextWithRequestID injects the request identifier assigned by RequestLogger.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext returns the request identifier, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
