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

package errors

import (
	"errors"
	"fmt"
)

// Wrap annotates err with message. Returns nil when err is nil.
//
//	if err := db.PingContext(ctx); err != nil {
//	    return errors.Wrap(err, "pinging database")
//	}
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New.
func New(message string) error {
	return errors.New(message)
}

// TypeOf returns the ErrorType of the first classified error in err's chain,
// or "internal" when none is found.
func TypeOf(err error) string {
	var classified ErrorClassifier
	if errors.As(err, &classified) {
		return classified.ErrorType()
	}
	return "internal"
}

// UserFacing returns the first user-visible error in err's chain.
func UserFacing(err error) (UserVisibleError, bool) {
	var uve UserVisibleError
	if errors.As(err, &uve) && uve.IsUserVisible() {
		return uve, true
	}
	return nil, false
}
