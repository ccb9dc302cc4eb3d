package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent client logging.
const (
	FieldEndpoint     = "endpoint"
	FieldRequestID    = "request_id"
	FieldMark         = "mark"
	FieldStatus       = "status"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldTransactions = "transactions"
	FieldPartials     = "partials"
	FieldErrors       = "errors"
)

// Endpoint returns a slog attribute for "VERB segment1/segment2".
// Never pass a URL: it carries the credentials.
func Endpoint(endpoint string) slog.Attr {
	return slog.String(FieldEndpoint, endpoint)
}

// RequestID returns a slog attribute for the request id.
func RequestID(id string) slog.Attr {
	return slog.String(FieldRequestID, id)
}

// Mark returns a slog attribute for a resource mark.
func Mark(mark string) slog.Attr {
	return slog.String(FieldMark, mark)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for a duration in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Counts returns the per-section resource counts of a response.
func Counts(transactions, partials, errors int) []any {
	return []any{
		slog.Int(FieldTransactions, transactions),
		slog.Int(FieldPartials, partials),
		slog.Int(FieldErrors, errors),
	}
}
