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

package errors_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sgerrors "github.com/tombee/sqlguard/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *sgerrors.ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &sgerrors.ValidationError{Field: "url", Message: "required", Hint: "Pass --url"},
			wantMsg: "validation failed on url: required",
		},
		{
			name:    "without field",
			err:     &sgerrors.ValidationError{Message: "read-only mode"},
			wantMsg: "validation failed: read-only mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := &sgerrors.ConfigError{Key: "limits.max_rows", Reason: "cannot read", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("ConfigError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "limits.max_rows") {
		t.Errorf("Error() = %q, want key", err.Error())
	}
}

func TestTimeoutError_Error(t *testing.T) {
	err := &sgerrors.TimeoutError{Operation: "execute", Duration: 5 * time.Second}
	if got := err.Error(); got != "execute operation timed out after 5s" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		original := errors.New("connection refused")
		wrapped := sgerrors.Wrap(original, "opening database")

		if !strings.Contains(wrapped.Error(), "opening database") {
			t.Errorf("wrapped error should contain context, got: %s", wrapped)
		}
		if !errors.Is(wrapped, original) {
			t.Error("wrapped error should match original with errors.Is")
		}
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		if wrapped := sgerrors.Wrap(nil, "context"); wrapped != nil {
			t.Errorf("Wrap(nil, _) should return nil, got: %v", wrapped)
		}
		if wrapped := sgerrors.Wrapf(nil, "context %d", 1); wrapped != nil {
			t.Errorf("Wrapf(nil, _) should return nil, got: %v", wrapped)
		}
	})
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &sgerrors.ValidationError{Message: "x"}, "validation"},
		{"wrapped config", fmt.Errorf("loading: %w", &sgerrors.ConfigError{Reason: "bad"}), "config"},
		{"not found", &sgerrors.NotFoundError{Resource: "connection", ID: "x"}, "not_found"},
		{"plain", errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sgerrors.TypeOf(tt.err); got != tt.want {
				t.Errorf("TypeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserFacing(t *testing.T) {
	err := fmt.Errorf("run: %w", &sgerrors.ValidationError{Message: "bad input", Hint: "fix it"})

	uve, ok := sgerrors.UserFacing(err)
	if !ok {
		t.Fatal("expected user-visible error")
	}
	if uve.UserMessage() != "bad input" || uve.Suggestion() != "fix it" {
		t.Errorf("got message %q suggestion %q", uve.UserMessage(), uve.Suggestion())
	}

	if _, ok := sgerrors.UserFacing(errors.New("plain")); ok {
		t.Error("plain error should not be user-visible")
	}
}
