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

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("expected valid JSON output: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestToolMiddleware_Success(t *testing.T) {
	var buf bytes.Buffer
	m := NewToolMiddleware(New(&Config{Level: "debug", Format: FormatJSON, Output: &buf}))

	called := false
	err := m.Handle(&ToolCall{Tool: "sql_execute", RequestID: "r1", Metadata: map[string]interface{}{"format": "csv"}}, func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler was not called")
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0]["event"] != "tool_call" || entries[0]["format"] != "csv" {
		t.Errorf("unexpected call entry: %v", entries[0])
	}
	if entries[1]["event"] != "tool_result" || entries[1]["success"] != true {
		t.Errorf("unexpected result entry: %v", entries[1])
	}
	if entries[1]["request_id"] != "r1" {
		t.Errorf("request_id = %v", entries[1]["request_id"])
	}
}

func TestToolMiddleware_Error(t *testing.T) {
	var buf bytes.Buffer
	m := NewToolMiddleware(New(&Config{Level: "info", Format: FormatJSON, Output: &buf}))

	want := errors.New("multiple statements detected")
	err := m.Handle(&ToolCall{Tool: "sql_check"}, func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected only the result entry at info level, got %d", len(entries))
	}
	if entries[0]["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entries[0]["level"])
	}
	if entries[0]["error"] != "multiple statements detected" {
		t.Errorf("error = %v", entries[0]["error"])
	}
}
