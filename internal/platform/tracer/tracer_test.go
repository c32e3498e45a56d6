package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestConvertSkipsUnsupportedValues(t *testing.T) {
	got := convert([]Attribute{
		String("model", "project.task"),
		Bool("allowed", true),
		Int("actors", 3),
		{Key: "ignored", Value: struct{}{}},
	})

	assert.Equal(t, []attribute.KeyValue{
		attribute.String("model", "project.task"),
		attribute.Bool("allowed", true),
		attribute.Int("actors", 3),
	}, got)
	assert.Nil(t, convert(nil))
}

func TestOTelSpanLifecycle(t *testing.T) {
	tr := NewOTel(noop.NewTracerProvider().Tracer("test"))
	ctx, span := tr.Start(context.Background(), "access.has_access", String("record_id", "r1"))
	assert.NotNil(t, ctx)
	span.SetAttributes(Bool("allowed", false))
	span.AddEvent("denied")
	span.End(errors.New("boom"))
}

func TestNoopReturnsSameContext(t *testing.T) {
	ctx := context.Background()
	got, span := NewNoop().Start(ctx, "x")
	assert.Equal(t, ctx, got)
	span.End(nil)
}
