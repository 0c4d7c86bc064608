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

package sql

import (
	"fmt"
	"math"
)

// Helper functions for input parsing

func getString(inputs map[string]interface{}, key string) (string, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return s, nil
}

// maxLimit bounds integer inputs so float64 values convert exactly.
const maxLimit = 1 << 53

// getOptionalInt returns nil when key is absent, keeping an explicit 0.
func getOptionalInt(inputs map[string]interface{}, key string) (*int, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return nil, nil
	}

	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case float64:
		if math.Trunc(t) != t {
			return nil, fmt.Errorf("%s must be an integer, got %v", key, t)
		}
		if math.Abs(t) > maxLimit {
			return nil, fmt.Errorf("%s is out of range, got %v", key, t)
		}
		n = int64(t)
	default:
		return nil, fmt.Errorf("%s must be a number, got %T", key, v)
	}
	if n > maxLimit || n < -maxLimit {
		return nil, fmt.Errorf("%s is out of range, got %d", key, n)
	}
	out := int(n)
	return &out, nil
}

// getOptionalArray returns nil when key is absent, distinguishing it from an
// empty array.
func getOptionalArray(inputs map[string]interface{}, key string) ([]interface{}, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array, got %T", key, v)
	}
	out := make([]interface{}, len(arr))
	for i, item := range arr {
		out[i] = normalizeParamValue(item)
	}
	return out, nil
}

func getOptionalObject(inputs map[string]interface{}, key string) (map[string]interface{}, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an object, got %T", key, v)
	}
	out := make(map[string]interface{}, len(obj))
	for k, item := range obj {
		out[k] = normalizeParamValue(item)
	}
	return out, nil
}

// normalizeParamValue binds integral JSON numbers as int64 so drivers do not
// see 42 as 42.0.
func normalizeParamValue(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		if math.Trunc(t) == t && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	default:
		return v
	}
}
