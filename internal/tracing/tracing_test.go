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
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartExecution_RecordsAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	ctx, span := StartExecution(context.Background(), tracer, "req-1", "sqlite")
	_, phase := StartPhase(ctx, tracer, "sanitize")
	phase.End()
	span.SetAttributes(map[string]any{"sql.type": "QUERY", "sql.rows": 3, "sql.truncated": false})
	span.RecordError(errors.New("update count exceeds maxUpdateRows: 5 > 1"), "policy_violation")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "sql.sanitize", ended[0].Name())
	root := ended[1]
	assert.Equal(t, "sql.execute", root.Name())
	assert.Equal(t, codes.Error, root.Status().Code)
	assert.Equal(t, root.SpanContext().SpanID(), ended[0].Parent().SpanID())

	attrs := map[string]string{}
	for _, kv := range root.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "sqlite", attrs["db.system"])
	assert.Equal(t, "req-1", attrs["sqlguard.request_id"])
	assert.Equal(t, "QUERY", attrs["sql.type"])
	assert.Equal(t, "3", attrs["sql.rows"])
	assert.Equal(t, "policy_violation", attrs["sqlguard.error_kind"])
}

func TestExecutionSpan_NilSafe(t *testing.T) {
	var span *ExecutionSpan
	span.SetAttributes(map[string]any{"a": 1})
	span.RecordError(errors.New("x"), "database")
	span.End()
	assert.Equal(t, "", span.TraceID())
}

func TestNewProvider(t *testing.T) {
	t.Run("disabled uses noop tracer", func(t *testing.T) {
		p, err := NewProvider(Config{})
		require.NoError(t, err)
		_, span := StartExecution(context.Background(), p.Tracer(), "r", "mysql")
		span.End()
		assert.False(t, span.span.SpanContext().IsValid())
		assert.NoError(t, p.Shutdown(context.Background()))
	})

	t.Run("enabled exports to writer", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewProvider(Config{Enabled: true, Writer: &buf, ServiceVersion: "test"})
		require.NoError(t, err)

		_, span := StartExecution(context.Background(), p.Tracer(), "r", "postgres")
		span.End()
		require.NoError(t, p.Shutdown(context.Background()))

		assert.Contains(t, buf.String(), "sql.execute")
		assert.NotEmpty(t, span.TraceID())
	})
}
