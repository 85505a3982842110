package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Business context (record_id, delivery_id, ...) is set once at the
// pipeline entry and flows into every log statement downstream.
type LogFields struct {
	RecordID   *string // Source record (campaign page) identifier
	DeliveryID *int64  // Delivery audit ID for this webhook request
	TicketKey  *string // Tracker issue key, once known
	Outcome    *string // Terminal pipeline outcome
	Component  string  // Component name, e.g. "bridge.service.dispatch"
}

// WithLogFields enriches context with structured log fields. Multiple calls
// merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.RecordID != nil {
		result.RecordID = next.RecordID
	}
	if next.DeliveryID != nil {
		result.DeliveryID = next.DeliveryID
	}
	if next.TicketKey != nil {
		result.TicketKey = next.TicketKey
	}
	if next.Outcome != nil {
		result.Outcome = next.Outcome
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline: logger.WithLogFields(ctx, logger.LogFields{RecordID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
