package utils

import (
	"context"
)

// ContextKey is the type for request-scoped context values
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// RequestIDFromContext extracts the request ID from the context, if present
func RequestIDFromContext(ctx context.Context) *string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		return &v
	}
	return nil
}

// IPAddressFromContext extracts the client IP from the context, if present
func IPAddressFromContext(ctx context.Context) *string {
	if v, ok := ctx.Value(IPAddressKey).(string); ok && v != "" {
		return &v
	}
	return nil
}

// UserAgentFromContext extracts the user agent from the context, if present
func UserAgentFromContext(ctx context.Context) *string {
	if v, ok := ctx.Value(UserAgentKey).(string); ok && v != "" {
		return &v
	}
	return nil
}

// ReleaseRequestContext cancels the request context if a cancel func was attached
func ReleaseRequestContext(ctx context.Context) {
	if cancel, ok := ctx.Value(CancelFuncKey).(context.CancelFunc); ok && cancel != nil {
		cancel()
	}
}
