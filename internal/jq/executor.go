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

// Package jq filters command output with jq expressions.
package jq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// DefaultTimeout bounds one filter run.
	DefaultTimeout = 1 * time.Second

	// DefaultMaxInputSize caps the JSON size of filtered input (10MB).
	DefaultMaxInputSize = 10 * 1024 * 1024
)

// Executor compiles and runs jq filters with a timeout and an input cap.
type Executor struct {
	timeout      time.Duration
	maxInputSize int64
}

// NewExecutor creates an executor. Zero values take the defaults.
func NewExecutor(timeout time.Duration, maxInputSize int64) *Executor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if maxInputSize == 0 {
		maxInputSize = DefaultMaxInputSize
	}
	return &Executor{timeout: timeout, maxInputSize: maxInputSize}
}

// Filter runs expression over v and returns every output. v may be any
// JSON-marshalable value, such as a query result; it is converted to plain
// JSON values first. An empty expression returns the converted input.
func (e *Executor) Filter(ctx context.Context, expression string, v interface{}) ([]interface{}, error) {
	data, err := e.normalize(v)
	if err != nil {
		return nil, err
	}
	if expression == "" {
		return []interface{}{data}, nil
	}

	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var results []interface{}
	iter := code.RunWithContext(ctx, data)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("jq execution timeout after %v", e.timeout)
			}
			return nil, fmt.Errorf("jq: %w", err)
		}
		results = append(results, out)
	}
	return results, nil
}

// Validate reports whether expression parses and compiles.
func (e *Executor) Validate(expression string) error {
	if expression == "" {
		return nil
	}
	_, err := compile(expression)
	return err
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	return code, nil
}

// normalize round-trips v through JSON so gojq only sees maps, slices,
// float64, string, bool and nil.
func (e *Executor) normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	if int64(len(raw)) > e.maxInputSize {
		return nil, fmt.Errorf("data size (%d bytes) exceeds maximum (%d bytes)", len(raw), e.maxInputSize)
	}

	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return out, nil
}
