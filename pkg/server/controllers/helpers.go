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

package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campuslib/campuslib/pkg/server/app"
	mw "github.com/campuslib/campuslib/pkg/server/middleware"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
)

// maxBodySize bounds JSON payloads
const maxBodySize = 1 << 20

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// parseQuery decodes the query string into a struct with schema tags
func parseQuery(r *http.Request, dst interface{}) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return &app.ValidationError{Field: "query", Message: err.Error()}
	}

	return nil
}

// parseRequestData decodes a JSON body
func parseRequestData(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return &app.ValidationError{Field: "body", Message: err.Error()}
	}

	return nil
}

// parseDate reads a calendar date given as YYYY-MM-DD or DD/MM/YYYY. An
// empty value is the zero time.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	for _, layout := range []string{"2006-01-02", app.DateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &app.ValidationError{Field: field, Message: "should be a date formatted as YYYY-MM-DD"}
}

func parseDatePtr(field, value string) (*time.Time, error) {
	t, err := parseDate(field, value)
	if err != nil || t.IsZero() {
		return nil, err
	}

	return &t, nil
}

func parseOptionalBool(field, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, &app.ValidationError{Field: field, Message: "should be true or false"}
	}

	return &b, nil
}

// intVar reads an integer path variable
func intVar(r *http.Request, name string) (int, error) {
	v := mux.Vars(r)[name]

	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, &app.NotFoundError{Resource: name, Key: v}
	}

	return id, nil
}

func handleJSONError(w http.ResponseWriter, err error, msg string) {
	mw.RespondError(w, err, msg)
}

func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	mw.RespondJSON(w, statusCode, v)
}

func setSessionCookie(w http.ResponseWriter, key string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookieName,
		Value:    key,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func unsetSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
	})
}
