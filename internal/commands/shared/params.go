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

package shared

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tombee/sqlguard/internal/sqlexec"
)

// ParseParams builds statement parameters from repeated --arg values and
// --param name=value pairs. Supplying both is passed through so the executor
// reports it like any other caller mistake.
func ParseParams(args, pairs []string) (sqlexec.Params, error) {
	var positional []any
	for _, a := range args {
		positional = append(positional, ParseValue(a))
	}

	var named map[string]any
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), ":")
		if !ok || name == "" {
			return sqlexec.Params{}, NewInvalidInputError(fmt.Sprintf("invalid --param %q: expected name=value", pair), nil)
		}
		if named == nil {
			named = map[string]any{}
		}
		named[name] = ParseValue(value)
	}

	return sqlexec.NewParams(positional, named), nil
}

// ParseValue types a command-line value: integers, floats, true/false and
// null become the matching Go value. Anything else, or a value wrapped in
// double quotes, stays a string.
func ParseValue(s string) any {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXnN") {
		return f
	}
	return s
}
