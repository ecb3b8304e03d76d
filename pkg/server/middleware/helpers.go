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
	"net/http"
	"strings"

	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/log"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/pkg/errors"
)

// SessionCookieName is the name of the cookie holding the session key
const SessionCookieName = "id"

func getSessionKeyFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookieName)

	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	} else if err != nil {
		return "", errors.Wrap(err, "reading session cookie")
	}

	return c.Value, nil
}

func getSessionKeyFromAuth(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", nil
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("unsupported authorization scheme")
	}

	return strings.TrimSpace(parts[1]), nil
}

// GetCredential extracts a session key from the request, preferring the
// Authorization header over the session cookie
func GetCredential(r *http.Request) (string, error) {
	sessionKey, err := getSessionKeyFromAuth(r)
	if err != nil {
		return "", errors.Wrap(err, "getting session key from Authorization header")
	}

	if sessionKey == "" {
		sessionKey, err = getSessionKeyFromCookie(r)
		if err != nil {
			return "", errors.Wrap(err, "getting session key from cookie")
		}
	}

	return sessionKey, nil
}

// ErrorResponse is the body of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Row     int    `json:"row,omitempty"`
}

// StatusForError maps an error returned by the app to an HTTP status code
func StatusForError(err error) int {
	var importErr *app.ImportError

	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &importErr),
		errors.Is(err, app.ErrValidation),
		errors.Is(err, app.ErrPasswordTooShort),
		errors.Is(err, app.ErrEmailRequired),
		errors.Is(err, tabular.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrDuplicate),
		errors.Is(err, app.ErrInvalidState),
		errors.Is(err, app.ErrUnavailable),
		errors.Is(err, app.ErrHasLoans),
		errors.Is(err, app.ErrHasBooks),
		errors.Is(err, app.ErrInconsistentState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newErrorResponse(err error) ErrorResponse {
	ret := ErrorResponse{Message: err.Error()}

	var importErr *app.ImportError
	if errors.As(err, &importErr) {
		ret.Row = importErr.Row
	}
	var validationErr *app.ValidationError
	if errors.As(err, &validationErr) {
		ret.Field = validationErr.Field
	}

	return ret
}

// RespondJSON writes the JSON encoding of v with the given status code
func RespondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// RespondError writes the error as JSON with the status code it maps to.
// Internal errors are logged and their details are not exposed.
func RespondError(w http.ResponseWriter, err error, msg string) {
	statusCode := StatusForError(err)
	if statusCode == http.StatusInternalServerError {
		DoError(w, msg, err, statusCode)
		return
	}

	log.WithFields(log.Fields{
		"status": statusCode,
		"error":  err.Error(),
	}).Debug(msg)

	RespondJSON(w, statusCode, newErrorResponse(err))
}

// DoError logs the error and responds with a generic message for the status
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	if err != nil {
		log.WithFields(log.Fields{
			"status": statusCode,
		}).ErrorWrap(err, msg)
	}

	RespondJSON(w, statusCode, ErrorResponse{Message: http.StatusText(statusCode)})
}

// RespondUnauthorized responds with 401 and asks for a bearer session key
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Bearer realm="campuslib"`)
	RespondJSON(w, http.StatusUnauthorized, ErrorResponse{Message: http.StatusText(http.StatusUnauthorized)})
}

// NotFound responds with 404
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusNotFound, ErrorResponse{Message: http.StatusText(http.StatusNotFound)})
}
