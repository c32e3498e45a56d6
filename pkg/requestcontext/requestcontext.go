// Package requestcontext carries request-scoped values (request ID, acting
// principal, client metadata, clock override) through context.Context.
package requestcontext

import (
	"context"
	"time"

	id "stewardship/pkg/domain"
)

type (
	requestIDKey struct{}
	actorIDKey   struct{}
	timeKey      struct{}
	clientKey    struct{}
)

type clientMetadata struct {
	ip        string
	userAgent string
}

// WithRequestID stores the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request correlation ID or an empty string.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithActorID stores the authenticated acting principal.
func WithActorID(ctx context.Context, actorID id.ActorID) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

// ActorID returns the authenticated acting principal, or a nil ID when absent.
func ActorID(ctx context.Context) id.ActorID {
	if v, ok := ctx.Value(actorIDKey{}).(id.ActorID); ok {
		return v
	}
	return id.ActorID{}
}

// WithTime pins the clock for everything downstream of ctx.
// Used by tests and by bulk runs that must stamp every record identically.
func WithTime(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, timeKey{}, now)
}

// Now returns the pinned request time, or the wall clock when none is set.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(timeKey{}).(time.Time); ok && !v.IsZero() {
		return v
	}
	return time.Now()
}

// WithClientMetadata stores the caller's IP address and User-Agent.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, clientMetadata{ip: ip, userAgent: userAgent})
}

// ClientIP returns the caller's IP address or an empty string.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientKey{}).(clientMetadata); ok {
		return v.ip
	}
	return ""
}

// UserAgent returns the caller's User-Agent header or an empty string.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(clientKey{}).(clientMetadata); ok {
		return v.userAgent
	}
	return ""
}
