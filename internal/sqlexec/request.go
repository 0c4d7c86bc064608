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

// Package sqlexec runs one sanitized, parameterized SQL statement against a
// database under row, field, update-count and time limits, and returns a
// bounded result.
package sqlexec

import (
	"time"
)

// Default limits applied when a Limits field is absent.
const (
	DefaultTimeoutMs     = 5000
	DefaultMaxRows       = 1000
	DefaultMaxUpdateRows = 200000
	DefaultMaxFieldSize  = 1000000
)

// Limits bounds one execution. A nil field is absent and takes its default;
// an explicit zero is honored (MaxRows 0 returns no rows, MaxUpdateRows 0
// rejects any write that touches a row).
type Limits struct {
	TimeoutMs     *int `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	MaxRows       *int `json:"max_rows,omitempty" yaml:"max_rows,omitempty"`
	MaxUpdateRows *int `json:"max_update_rows,omitempty" yaml:"max_update_rows,omitempty"`
	MaxFieldSize  *int `json:"max_field_size,omitempty" yaml:"max_field_size,omitempty"`
}

// Limit returns a pointer to n for building Limits literals.
func Limit(n int) *int {
	return &n
}

// DefaultLimits returns the built-in limits.
func DefaultLimits() Limits {
	return Limits{
		TimeoutMs:     Limit(DefaultTimeoutMs),
		MaxRows:       Limit(DefaultMaxRows),
		MaxUpdateRows: Limit(DefaultMaxUpdateRows),
		MaxFieldSize:  Limit(DefaultMaxFieldSize),
	}
}

// WithDefaults returns l with absent fields set to the built-in defaults.
func (l Limits) WithDefaults() Limits {
	return l.Or(DefaultLimits())
}

// Or returns l with absent fields taken from fallback.
func (l Limits) Or(fallback Limits) Limits {
	if l.TimeoutMs == nil {
		l.TimeoutMs = fallback.TimeoutMs
	}
	if l.MaxRows == nil {
		l.MaxRows = fallback.MaxRows
	}
	if l.MaxUpdateRows == nil {
		l.MaxUpdateRows = fallback.MaxUpdateRows
	}
	if l.MaxFieldSize == nil {
		l.MaxFieldSize = fallback.MaxFieldSize
	}
	return l
}

// Fields lists the limits by config key, absent ones as nil.
func (l Limits) Fields() []LimitField {
	return []LimitField{
		{"timeout_ms", l.TimeoutMs},
		{"max_rows", l.MaxRows},
		{"max_update_rows", l.MaxUpdateRows},
		{"max_field_size", l.MaxFieldSize},
	}
}

// LimitField is one named limit.
type LimitField struct {
	Key   string
	Value *int
}

func (l Limits) negative() bool {
	for _, f := range l.Fields() {
		if f.Value != nil && *f.Value < 0 {
			return true
		}
	}
	return false
}

// bounds are fully resolved limits.
type bounds struct {
	timeout       time.Duration
	maxRows       int
	maxUpdateRows int
	maxFieldSize  int
}

// resolve fills absent fields from the built-in defaults. The timeout is
// TimeoutMs in whole seconds, never less than one.
func (l Limits) resolve() bounds {
	l = l.WithDefaults()
	seconds := *l.TimeoutMs / 1000
	if seconds < 1 {
		seconds = 1
	}
	return bounds{
		timeout:       time.Duration(seconds) * time.Second,
		maxRows:       *l.MaxRows,
		maxUpdateRows: *l.MaxUpdateRows,
		maxFieldSize:  *l.MaxFieldSize,
	}
}

// ParamStyle says how a statement's arguments are supplied.
type ParamStyle int

const (
	ParamsNone ParamStyle = iota
	ParamsPositional
	ParamsNamed
	// paramsBoth is only reachable through NewParams and is always rejected.
	paramsBoth
)

// Params holds either positional or named arguments.
type Params struct {
	positional []any
	named      map[string]any
}

// Positional binds args to '?' placeholders in order.
func Positional(args ...any) Params {
	if args == nil {
		args = []any{}
	}
	return Params{positional: args}
}

// Named binds values to :name placeholders.
func Named(values map[string]any) Params {
	if values == nil {
		values = map[string]any{}
	}
	return Params{named: values}
}

// NewParams builds Params from decoded request fields, either of which may
// be nil. Supplying both yields a value that Execute rejects.
func NewParams(positional []any, named map[string]any) Params {
	return Params{positional: positional, named: named}
}

// Style reports which form p carries.
func (p Params) Style() ParamStyle {
	switch {
	case p.positional != nil && p.named != nil:
		return paramsBoth
	case p.named != nil:
		return ParamsNamed
	case p.positional != nil:
		return ParamsPositional
	default:
		return ParamsNone
	}
}

// Args returns the positional arguments.
func (p Params) Args() []any {
	return p.positional
}

// Values returns the named arguments.
func (p Params) Values() map[string]any {
	return p.named
}

// Request is one execution request. Treat it as immutable once built.
type Request struct {
	URL      string
	Username string
	Password string
	SQL      string
	Params   Params
	Limits   Limits

	// Connection is the configured connection name, if any. Used for logs.
	Connection string
}
