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

package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/pkg/errors"
)

func mustMakeRequest(t *testing.T) *http.Request {
	r, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "constructing request"))
	}

	return r
}

func TestGetSessionKeyFromCookie(t *testing.T) {
	testCases := []struct {
		cookie   *http.Cookie
		expected string
	}{
		{
			cookie:   &http.Cookie{Name: "id", Value: "foo", HttpOnly: true},
			expected: "foo",
		},
		{
			cookie:   nil,
			expected: "",
		},
		{
			cookie:   &http.Cookie{Name: "foo", Value: "bar", HttpOnly: true},
			expected: "",
		},
	}

	for _, tc := range testCases {
		r := mustMakeRequest(t)
		if tc.cookie != nil {
			r.AddCookie(tc.cookie)
		}

		got, err := getSessionKeyFromCookie(r)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		assert.Equal(t, got, tc.expected, "result mismatch")
	}
}

func TestGetCredential(t *testing.T) {
	r1 := mustMakeRequest(t)
	r2 := mustMakeRequest(t)
	r2.Header.Set("Authorization", "Bearer foo")
	r3 := mustMakeRequest(t)
	r3.Header.Set("Authorization", "bearer bar")
	r4 := mustMakeRequest(t)
	r4.AddCookie(&http.Cookie{Name: "id", Value: "foo", HttpOnly: true})
	r5 := mustMakeRequest(t)
	r5.AddCookie(&http.Cookie{Name: "id", Value: "cookie", HttpOnly: true})
	r5.Header.Set("Authorization", "Bearer header")

	testCases := []struct {
		request  *http.Request
		expected string
	}{
		{request: r1, expected: ""},
		{request: r2, expected: "foo"},
		{request: r3, expected: "bar"},
		{request: r4, expected: "foo"},
		{request: r5, expected: "header"},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			got, err := GetCredential(tc.request)
			if err != nil {
				t.Fatal(errors.Wrap(err, "executing"))
			}

			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}

	t.Run("unsupported scheme", func(t *testing.T) {
		r := mustMakeRequest(t)
		r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

		_, err := GetCredential(r)
		assert.NotEqual(t, err, nil, "basic auth should be rejected")
	})
}

func TestStatusForError(t *testing.T) {
	testCases := []struct {
		err      error
		expected int
	}{
		{err: &app.NotFoundError{Resource: "book", Key: "1"}, expected: http.StatusNotFound},
		{err: errors.Wrap(&app.ValidationError{Field: "isbn", Message: "is required"}, "creating book"), expected: http.StatusBadRequest},
		{err: &app.ImportError{Row: 2, Err: errors.New("boom")}, expected: http.StatusBadRequest},
		{err: app.ErrPasswordTooShort, expected: http.StatusBadRequest},
		{err: errors.Wrap(tabular.ErrUnsupportedFormat, "'ods'"), expected: http.StatusBadRequest},
		{err: &app.UniqueConstraintError{Resource: "category", Field: "slug", Value: "x"}, expected: http.StatusConflict},
		{err: errors.Wrap(app.ErrUnavailable, "book 1"), expected: http.StatusConflict},
		{err: app.ErrInvalidState, expected: http.StatusConflict},
		{err: app.ErrHasLoans, expected: http.StatusConflict},
		{err: app.ErrInvalidCredentials, expected: http.StatusUnauthorized},
		{err: errors.New("disk full"), expected: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, StatusForError(tc.err), tc.expected, "status mismatch")
		})
	}
}

func TestRespondError(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := &app.ImportError{Row: 3, Err: &app.ValidationError{Field: "quantity", Message: "'x' is not an integer"}}

		RespondError(w, err, "importing")

		assert.Equal(t, w.Code, http.StatusBadRequest, "status mismatch")

		var body ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatal(errors.Wrap(err, "decoding body"))
		}
		assert.Equal(t, body, ErrorResponse{Message: "row 3: quantity: 'x' is not an integer", Field: "quantity", Row: 3}, "body mismatch")
	})

	t.Run("internal error", func(t *testing.T) {
		w := httptest.NewRecorder()

		RespondError(w, errors.New("connection refused"), "finding books")

		assert.Equal(t, w.Code, http.StatusInternalServerError, "status mismatch")

		var body ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatal(errors.Wrap(err, "decoding body"))
		}
		assert.Equal(t, body.Message, "Internal Server Error", "internal details should not leak")
	})
}
