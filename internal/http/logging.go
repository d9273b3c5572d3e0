package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request-scoped logger from RequestLogger and tags
// records with the handler, the operation and, behind RequireEmployee, the
// session holder.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 6+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if employeeID, ok := EmployeeIDFromContext(ctx); ok {
		pairs = append(pairs, "session_employee_id", employeeID)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
