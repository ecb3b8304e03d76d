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
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/presenters"
	"github.com/gorilla/mux"
)

// NewBooks creates a new Books controller.
func NewBooks(app *app.App) *Books {
	return &Books{app: app}
}

// Books handles the catalog
type Books struct {
	app *app.App
}

type booksQuery struct {
	Search     string `schema:"q"`
	CategoryID int    `schema:"category_id"`
	Page       int    `schema:"page"`
}

type searchQuery struct {
	Search string `schema:"q"`
}

func (b *Books) respondBook(w http.ResponseWriter, statusCode int, book database.Book) {
	ba, err := b.app.WithAvailability(book)
	if err != nil {
		handleJSONError(w, err, "computing availability")
		return
	}

	respondJSON(w, statusCode, presenters.PresentBook(ba))
}

// Index handles GET /api/books
func (b *Books) Index(w http.ResponseWriter, r *http.Request) {
	var q booksQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	res, err := b.app.GetBooks(app.BooksParams{Search: q.Search, CategoryID: q.CategoryID, Page: q.Page})
	if err != nil {
		handleJSONError(w, err, "finding books")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBookPage(res))
}

// Show handles GET /api/books/{id}
func (b *Books) Show(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	book, err := b.app.GetBook(id)
	if err != nil {
		handleJSONError(w, err, "finding book")
		return
	}

	b.respondBook(w, http.StatusOK, book)
}

// ShowByISBN handles GET /api/books/isbn/{isbn}
func (b *Books) ShowByISBN(w http.ResponseWriter, r *http.Request) {
	book, err := b.app.GetBookByISBN(mux.Vars(r)["isbn"])
	if err != nil {
		handleJSONError(w, err, "finding book")
		return
	}

	b.respondBook(w, http.StatusOK, book)
}

// Create handles POST /api/books
func (b *Books) Create(w http.ResponseWriter, r *http.Request) {
	var p app.BookParams
	if err := parseRequestData(r, &p); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	book, err := b.app.CreateBook(context.Librarian(r.Context()), p)
	if err != nil {
		handleJSONError(w, err, "creating book")
		return
	}

	b.respondBook(w, http.StatusCreated, book)
}

// Update handles PATCH /api/books/{id}
func (b *Books) Update(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	var p app.BookParams
	if err := parseRequestData(r, &p); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	book, err := b.app.UpdateBook(context.Librarian(r.Context()), id, p)
	if err != nil {
		handleJSONError(w, err, "updating book")
		return
	}

	b.respondBook(w, http.StatusOK, book)
}

// Delete handles DELETE /api/books/{id}
func (b *Books) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	if err := b.app.DeleteBook(context.Librarian(r.Context()), id); err != nil {
		handleJSONError(w, err, "deleting book")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchAuthors handles GET /api/authors/search
func (b *Books) SearchAuthors(w http.ResponseWriter, r *http.Request) {
	var q searchQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	authors, err := b.app.SearchAuthors(q.Search)
	if err != nil {
		handleJSONError(w, err, "searching authors")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentAuthors(authors))
}

// SearchPublishers handles GET /api/publishers/search
func (b *Books) SearchPublishers(w http.ResponseWriter, r *http.Request) {
	var q searchQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	publishers, err := b.app.SearchPublishers(q.Search)
	if err != nil {
		handleJSONError(w, err, "searching publishers")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentPublishers(publishers))
}
