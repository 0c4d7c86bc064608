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

package sqlsafe

import (
	"fmt"
	"strings"
)

// MissingParamError is returned by CompileNamed when a placeholder has no
// value in the supplied map.
type MissingParamError struct {
	Name string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing named param: %s", e.Name)
}

// Compiled is SQL rewritten to positional '?' placeholders together with its
// arguments in placeholder order.
type Compiled struct {
	SQL  string
	Args []any
}

// CompileNamed rewrites :name placeholders found outside quotes and comments
// into '?' and collects the matching values. A name used twice is bound twice.
// "::" is left alone so Postgres casts survive.
func CompileNamed(sql string, named map[string]any) (Compiled, error) {
	var out strings.Builder
	out.Grow(len(sql))
	args := make([]any, 0, len(named))
	var err error

	Scan(sql, func(seg Segment) bool {
		if seg.Kind != SegmentCode {
			out.WriteString(seg.Text)
			return true
		}

		text := seg.Text
		i := 0
		for i < len(text) {
			ch := text[i]
			if ch != ':' {
				out.WriteByte(ch)
				i++
				continue
			}

			if i+1 < len(text) && text[i+1] == ':' {
				out.WriteString("::")
				i += 2
				continue
			}

			j := i + 1
			for j < len(text) && isIdentByte(text[j]) {
				j++
			}
			if j == i+1 {
				out.WriteByte(ch)
				i++
				continue
			}

			name := text[i+1 : j]
			value, ok := named[name]
			if !ok {
				err = &MissingParamError{Name: name}
				return false
			}
			args = append(args, value)
			out.WriteByte('?')
			i = j
		}
		return true
	})

	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: out.String(), Args: args}, nil
}

// Placeholders lists the :name placeholders of sql in occurrence order,
// without binding them.
func Placeholders(sql string) []string {
	var names []string
	Scan(sql, func(seg Segment) bool {
		if seg.Kind != SegmentCode {
			return true
		}
		text := seg.Text
		for i := 0; i < len(text); i++ {
			if text[i] != ':' {
				continue
			}
			if i+1 < len(text) && text[i+1] == ':' {
				i++
				continue
			}
			j := i + 1
			for j < len(text) && isIdentByte(text[j]) {
				j++
			}
			if j > i+1 {
				names = append(names, text[i+1:j])
				i = j - 1
			}
		}
		return true
	})
	return names
}

func isIdentByte(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}
