// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values set by middleware and read by services and logs.
//
//	requestID := requestcontext.RequestID(ctx)
//	ip := requestcontext.ClientIP(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", "test-agent")
package requestcontext

import "context"

type (
	clientIPKey  struct{}
	userAgentKey struct{}
	requestIDKey struct{}
)

// ClientIP returns the originating client IP, or "" when unknown.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
