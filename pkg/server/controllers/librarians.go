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
	"net/http"

	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/context"
	mw "github.com/campuslib/campuslib/pkg/server/middleware"
	"github.com/campuslib/campuslib/pkg/server/presenters"
	"github.com/pkg/errors"
)

// NewLibrarians creates a new Librarians controller.
func NewLibrarians(app *app.App) *Librarians {
	return &Librarians{app: app}
}

// Librarians handles sign in, sign out and the account of the current librarian
type Librarians struct {
	app *app.App
}

// SignInForm is the payload of a sign in
type SignInForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn handles POST /api/signin
func (l *Librarians) SignIn(w http.ResponseWriter, r *http.Request) {
	var form SignInForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}
	if form.Email == "" {
		handleJSONError(w, app.ErrEmailRequired, "validating payload")
		return
	}

	session, err := l.app.SignIn(form.Email, form.Password)
	if err != nil {
		handleJSONError(w, err, "signing in")
		return
	}

	setSessionCookie(w, session.Key, session.ExpiresAt)
	respondJSON(w, http.StatusOK, presenters.PresentSession(*session))
}

// SignOut handles POST /api/signout
func (l *Librarians) SignOut(w http.ResponseWriter, r *http.Request) {
	key, err := mw.GetCredential(r)
	if err != nil {
		handleJSONError(w, &app.ValidationError{Field: "authorization", Message: err.Error()}, "getting credential")
		return
	}

	if key != "" {
		if err := l.app.SignOut(key); err != nil {
			handleJSONError(w, err, "signing out")
			return
		}
	}

	unsetSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me
func (l *Librarians) Me(w http.ResponseWriter, r *http.Request) {
	librarian := context.Librarian(r.Context())

	respondJSON(w, http.StatusOK, presenters.PresentLibrarian(*librarian))
}

type updatePasswordForm struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword handles PATCH /api/me/password. Every session of the
// librarian, including the current one, is signed out.
func (l *Librarians) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	librarian := context.Librarian(r.Context())

	var form updatePasswordForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	if err := l.app.UpdatePassword(*librarian, form.CurrentPassword, form.NewPassword); err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			handleJSONError(w, &app.ValidationError{Field: "current_password", Message: "is incorrect"}, "checking password")
			return
		}

		handleJSONError(w, err, "updating password")
		return
	}

	unsetSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
