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
	mw "github.com/campuslib/campuslib/pkg/server/middleware"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
	// Limiter throttles the rate limited routes. A nil Limiter disables it.
	Limiter *mw.RateLimiter
}

// NewAPIRoutes returns a new api routes
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return mw.Auth(a, h)
	}

	return []Route{
		// session
		{"POST", "/signin", c.Librarians.SignIn, true},
		{"POST", "/signout", c.Librarians.SignOut, true},
		{"GET", "/me", auth(c.Librarians.Me), true},
		{"PATCH", "/me/password", auth(c.Librarians.UpdatePassword), true},

		{"GET", "/dashboard", auth(c.Dashboard.Show), true},

		// catalog
		{"GET", "/books", auth(c.Books.Index), true},
		{"POST", "/books", auth(c.Books.Create), true},
		{"GET", "/books/isbn/{isbn}", auth(c.Books.ShowByISBN), true},
		{"GET", "/books/{id:[0-9]+}", auth(c.Books.Show), true},
		{"PATCH", "/books/{id:[0-9]+}", auth(c.Books.Update), true},
		{"DELETE", "/books/{id:[0-9]+}", auth(c.Books.Delete), true},
		{"GET", "/authors/search", auth(c.Books.SearchAuthors), true},
		{"GET", "/publishers/search", auth(c.Books.SearchPublishers), true},

		{"GET", "/categories", auth(c.Categories.Index), true},
		{"POST", "/categories", auth(c.Categories.Create), true},
		{"GET", "/categories/{id:[0-9]+}", auth(c.Categories.Show), true},
		{"PATCH", "/categories/{id:[0-9]+}", auth(c.Categories.Update), true},
		{"DELETE", "/categories/{id:[0-9]+}", auth(c.Categories.Delete), true},

		// borrowers
		{"GET", "/students", auth(c.Students.Index), true},
		{"POST", "/students", auth(c.Students.Create), true},
		{"GET", "/students/{matricule}", auth(c.Students.Show), true},
		{"PATCH", "/students/{matricule}", auth(c.Students.Update), true},
		{"DELETE", "/students/{matricule}", auth(c.Students.Delete), true},

		// circulation
		{"GET", "/loans", auth(c.Loans.Index), true},
		{"POST", "/loans", auth(c.Loans.Create), true},
		{"GET", "/loans/overdue", auth(c.Loans.Overdue), true},
		{"GET", "/loans/{id:[0-9]+}", auth(c.Loans.Show), true},
		{"POST", "/loans/{id:[0-9]+}/return", auth(c.Loans.Return), true},
		{"DELETE", "/loans/{id:[0-9]+}", auth(c.Loans.Delete), true},

		{"GET", "/history", auth(c.History.Index), true},
		{"GET", "/history/export", auth(c.History.Export), false},

		// bulk transfers
		{"POST", "/import/{kind}", auth(c.Transfers.Import), false},
		{"GET", "/export/{kind}", auth(c.Transfers.Export), false},
	}
}

func registerRoutes(router *mux.Router, wrapper mw.Middleware, routes []Route) {
	for _, route := range routes {
		wrappedHandler := wrapper(route.Handler, route.RateLimit)

		router.
			Handle(route.Pattern, wrappedHandler).
			Methods(route.Method)
	}
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter, mw.Chain(rc.Limiter), rc.APIRoutes)

	router.HandleFunc("/health", rc.Controllers.Health.Index).Methods("GET")

	// catch-all
	router.NotFoundHandler = http.HandlerFunc(mw.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	return mw.Global(router), nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	mw.DoError(w, "method not allowed", nil, http.StatusMethodNotAllowed)
}
