package services

import "context"

type contextKey string

const (
	agencyKey  contextKey = "agency"
	runIDKey   contextKey = "run_id"
	traceIDKey contextKey = "trace_id"
)

// WithAgency annotates context with the regulatory agency code.
func WithAgency(ctx context.Context, agency string) context.Context {
	if agency == "" {
		return ctx
	}
	return context.WithValue(ctx, agencyKey, agency)
}

// AgencyFromContext returns the agency code if present.
func AgencyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(agencyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the ingestion run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the ingestion run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTraceID annotates context with a correlation identifier.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceIDFromContext extracts the correlation identifier if present.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(traceIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
