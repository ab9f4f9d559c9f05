package context

import "context"

type contextKey string

const (
	requestIDKey contextKey = "observability_request_id"
	sessionIDKey contextKey = "observability_session_id"
	realmIDKey   contextKey = "observability_realm_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithSessionID stores a short, non-reversible session fingerprint, never the raw cookie value.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil || sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(sessionIDKey).(string)
	return value
}

func WithRealmID(ctx context.Context, realmID string) context.Context {
	if ctx == nil || realmID == "" {
		return ctx
	}
	return context.WithValue(ctx, realmIDKey, realmID)
}

func RealmIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(realmIDKey).(string)
	return value
}
