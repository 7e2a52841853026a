package logging

import "log/slog"

// Common structured log field keys to keep logs searchable/consistent.
const (
	FieldService    = "service"
	FieldVersion    = "version"
	FieldRequestID  = "request_id"
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldStatusCode = "status_code"
	FieldDurationMS = "duration_ms"
	FieldCount      = "count"

	FieldOp         = "op"
	FieldGameID     = "game_id"
	FieldUserID     = "user_id"
	FieldRateeID    = "ratee_id"
	FieldRequestRef = "join_request_id"
	FieldCode       = "code"
	FieldEvent      = "event"
	FieldAttempt    = "attempt"
	FieldReconcile  = "reconcile"
)

// WithCommon appends service/version fields when provided.
func WithCommon(attrs []slog.Attr, service, version string) []slog.Attr {
	if service != "" {
		attrs = append(attrs, slog.String(FieldService, service))
	}
	if version != "" {
		attrs = append(attrs, slog.String(FieldVersion, version))
	}
	return attrs
}
