package services

import "context"

type contextKey string

const (
	groupKey contextKey = "log_group"
	runIDKey contextKey = "run_id"
)

// WithGroup annotates context with the log group being tailed.
func WithGroup(ctx context.Context, group string) context.Context {
	if group == "" {
		return ctx
	}
	return context.WithValue(ctx, groupKey, group)
}

// GroupFromContext returns the log group if present.
func GroupFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(groupKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the identifier of the current CLI invocation.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the invocation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
