// Package tracer is the span abstraction used by the access evaluator and the
// stewardship services. Production wires OpenTelemetry; tests use Noop.
package tracer

import "context"

// Tracer starts spans.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is an in-flight unit of work. End records err when non-nil.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Attribute is a span key/value. Supported values: string, bool, int, int64, float64.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }
