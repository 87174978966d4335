package globals

import "context"

// Context keys
type ContextKey string

const (
	RoleKey     ContextKey = "role"
	UsernameKey ContextKey = "username"
	RequestID   ContextKey = "requestId"
)

// StaffFromContext returns the staff username set by middleware.StaffOnly.
func StaffFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(UsernameKey).(string)
	return name, ok && name != ""
}

// RequestIDFromContext returns the id assigned by middleware.Logging.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestID).(string)
	return id
}
