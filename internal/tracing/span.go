// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ExecutionSpan wraps an OpenTelemetry span with statement helpers.
// All methods are nil-safe.
type ExecutionSpan struct {
	span trace.Span
}

// StartExecution opens the span covering one statement execution. A nil
// tracer falls back to the global provider.
func StartExecution(ctx context.Context, tracer trace.Tracer, requestID, dialect string) (context.Context, *ExecutionSpan) {
	if tracer == nil {
		tracer = otel.Tracer(InstrumentationName)
	}
	ctx, span := tracer.Start(ctx, "sql.execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", dialect),
			attribute.String("sqlguard.request_id", requestID),
		),
	)
	return ctx, &ExecutionSpan{span: span}
}

// StartPhase opens a child span for one pipeline phase (sanitize, connect,
// execute, ...).
func StartPhase(ctx context.Context, tracer trace.Tracer, phase string) (context.Context, *ExecutionSpan) {
	if tracer == nil {
		tracer = otel.Tracer(InstrumentationName)
	}
	ctx, span := tracer.Start(ctx, "sql."+phase, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, &ExecutionSpan{span: span}
}

// SetAttributes adds key-value attributes to the span.
func (s *ExecutionSpan) SetAttributes(attrs map[string]any) {
	if s == nil || s.span == nil {
		return
	}

	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			otelAttrs = append(otelAttrs, attribute.String(k, val))
		case int:
			otelAttrs = append(otelAttrs, attribute.Int(k, val))
		case int64:
			otelAttrs = append(otelAttrs, attribute.Int64(k, val))
		case bool:
			otelAttrs = append(otelAttrs, attribute.Bool(k, val))
		default:
			otelAttrs = append(otelAttrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	s.span.SetAttributes(otelAttrs...)
}

// RecordError marks the span failed. kind is the error classification.
func (s *ExecutionSpan) RecordError(err error, kind string) {
	if s == nil || s.span == nil || err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetAttributes(attribute.String("sqlguard.error_kind", kind))
	s.span.SetStatus(codes.Error, kind)
}

// End marks the span as complete.
func (s *ExecutionSpan) End() {
	if s == nil || s.span == nil {
		return
	}
	s.span.End()
}

// TraceID returns the trace ID as a string.
func (s *ExecutionSpan) TraceID() string {
	if s == nil || s.span == nil {
		return ""
	}
	return s.span.SpanContext().TraceID().String()
}
