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
	"github.com/campuslib/campuslib/pkg/server/presenters"
)

// NewCategories creates a new Categories controller.
func NewCategories(app *app.App) *Categories {
	return &Categories{app: app}
}

// Categories handles book categories
type Categories struct {
	app *app.App
}

type categoriesQuery struct {
	Active bool `schema:"active"`
}

// Index handles GET /api/categories. ?active=true lists active categories only.
func (c *Categories) Index(w http.ResponseWriter, r *http.Request) {
	var q categoriesQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	categories, err := c.app.GetCategories(q.Active)
	if err != nil {
		handleJSONError(w, err, "finding categories")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentCategories(categories))
}

// Show handles GET /api/categories/{id}
func (c *Categories) Show(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	category, err := c.app.GetCategory(id)
	if err != nil {
		handleJSONError(w, err, "finding category")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentCategory(category, 0))
}

// Create handles POST /api/categories
func (c *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var p app.CategoryParams
	if err := parseRequestData(r, &p); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	category, err := c.app.CreateCategory(context.Librarian(r.Context()), p)
	if err != nil {
		handleJSONError(w, err, "creating category")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentCategory(category, 0))
}

// Update handles PATCH /api/categories/{id}
func (c *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	var p app.CategoryParams
	if err := parseRequestData(r, &p); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	category, err := c.app.UpdateCategory(context.Librarian(r.Context()), id, p)
	if err != nil {
		handleJSONError(w, err, "updating category")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentCategory(category, 0))
}

// Delete handles DELETE /api/categories/{id}
func (c *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	if err := c.app.DeleteCategory(context.Librarian(r.Context()), id); err != nil {
		handleJSONError(w, err, "deleting category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
