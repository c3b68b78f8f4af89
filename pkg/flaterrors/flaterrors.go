// Copyright 2024 Alexandre Mahdhaoui
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

// Package flaterrors joins errors into a single flat list.
//
// Errors already produced by Join are expanded instead of nested, so Error()
// stays on one line and errors.Is matches every member.
package flaterrors

import "strings"

type joinError struct {
	errs []error
}

// Join returns an error wrapping every non-nil err. Errors previously produced by
// Join are expanded in place. Join returns nil if all errs are nil.
func Join(errs ...error) error {
	flat := make([]error, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}

		if j, ok := err.(*joinError); ok {
			flat = append(flat, j.errs...)
			continue
		}

		flat = append(flat, err)
	}

	if len(flat) == 0 {
		return nil
	}

	return &joinError{errs: flat}
}

func (e *joinError) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, ": ")
}

func (e *joinError) Unwrap() []error {
	return e.errs
}
