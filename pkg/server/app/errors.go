/* Copyright 2025 Campuslib Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package app

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is matched by every *NotFoundError
	ErrNotFound = errors.New("not found")
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate is matched by every *UniqueConstraintError
	ErrDuplicate = errors.New("duplicate")
	// ErrInconsistentState is matched by every *InconsistentStateError
	ErrInconsistentState = errors.New("inconsistent state")

	// ErrUnavailable is an error for a loan on a book with no copy left
	ErrUnavailable = errors.New("no copy of this book is available")
	// ErrInvalidState is an error for a return recorded on a returned loan
	ErrInvalidState = errors.New("the loan was already returned")
	// ErrHasLoans is an error for deleting a record that loans still reference
	ErrHasLoans = errors.New("the record is referenced by loans")
	// ErrHasBooks is an error for deleting a category that books still reference
	ErrHasBooks = errors.New("the category is referenced by books")

	// ErrInvalidCredentials is an error for a wrong email, password or session
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordTooShort is an error for a password shorter than 8 characters
	ErrPasswordTooShort = errors.New("password should be longer than 8 characters")
	// ErrEmailRequired is an error for a missing librarian email
	ErrEmailRequired = errors.New("email is required")
)

// NotFoundError is an error for a referenced record that does not exist
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Key)
}

// Is makes errors.Is(err, ErrNotFound) hold
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(resource string, key interface{}) error {
	return &NotFoundError{Resource: resource, Key: fmt.Sprint(key)}
}

// ValidationError is an error for a malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) hold
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UniqueConstraintError is an error for a duplicate natural key or slug
type UniqueConstraintError struct {
	Resource string
	Field    string
	Value    string
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("a %s with %s '%s' already exists", e.Resource, e.Field, e.Value)
}

// Is makes errors.Is(err, ErrDuplicate) hold
func (e *UniqueConstraintError) Is(target error) bool {
	return target == ErrDuplicate
}

// ImportError is an error that rejected a whole import batch. Row is the
// 1-based position of the offending data row, the header excluded.
type ImportError struct {
	Row int
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err.Error())
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// InconsistentStateError reports a book with more active loans than copies
type InconsistentStateError struct {
	BookID    int
	ISBN      string
	Available int
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("book %s has a negative availability of %d", e.ISBN, e.Available)
}

// Is makes errors.Is(err, ErrInconsistentState) hold
func (e *InconsistentStateError) Is(target error) bool {
	return target == ErrInconsistentState
}
