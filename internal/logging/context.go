package logging

import (
	"context"
	"log/slog"

	"recallhub/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAgency is the standardized structured logging key for regulatory agency codes.
	FieldAgency = "agency"
	// FieldMode is the standardized structured logging key for ingestion modes.
	FieldMode = "mode"
	// FieldRunID is the standardized structured logging key for ingestion run identifiers.
	FieldRunID = "run_id"
	// FieldRecallID is the standardized structured logging key for canonical recall identifiers.
	FieldRecallID = "recall_id"
	// FieldTraceID is the standardized structured logging key for request correlation identifiers.
	FieldTraceID = "trace_id"
	// FieldStepID is the standardized structured logging key for workflow step identifiers.
	FieldStepID = "step_id"
	// FieldCapability is the standardized structured logging key for workflow step capabilities.
	FieldCapability = "capability"
	// FieldEventType is the standardized structured logging key for machine-parsable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if agency, ok := services.AgencyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAgency, agency))
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.TraceIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTraceID, id))
	}
	return fields
}

// WithContext returns a logger pre-populated with the context's standard fields.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
