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

package presenters

import (
	"time"

	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/database"
)

// Book is a result of PresentBooks
type Book struct {
	ID        int       `json:"id"`
	ISBN      string    `json:"isbn"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Quantity  int       `json:"quantity"`
	OnLoan    int       `json:"on_loan"`
	Available int       `json:"available"`
	Pages     int       `json:"pages"`
	Year      *int      `json:"year"`
	Location  string    `json:"location"`
	Summary   string    `json:"summary"`
	Author    Ref       `json:"author"`
	Publisher Ref       `json:"publisher"`
	Category  Ref       `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PresentBook presents a book with its availability
func PresentBook(b app.BookAvailability) Book {
	return Book{
		ID:        b.ID,
		ISBN:      b.ISBN,
		Title:     b.Title,
		Language:  b.Language,
		Quantity:  b.Quantity,
		OnLoan:    b.OnLoan,
		Available: b.Available,
		Pages:     b.Pages,
		Year:      b.Year,
		Location:  b.Location,
		Summary:   b.Summary,
		Author:    Ref{ID: b.Author.ID, Name: b.Author.Name},
		Publisher: Ref{ID: b.Publisher.ID, Name: b.Publisher.Name},
		Category:  Ref{ID: b.Category.ID, Name: b.Category.Name},
		CreatedAt: FormatTS(b.CreatedAt),
		UpdatedAt: FormatTS(b.UpdatedAt),
	}
}

// PresentBooks presents books
func PresentBooks(books []app.BookAvailability) []Book {
	ret := []Book{}

	for _, book := range books {
		ret = append(ret, PresentBook(book))
	}

	return ret
}

// BookPage is a page of books
type BookPage struct {
	Books []Book `json:"books"`
	Page
}

// PresentBookPage presents a page of books
func PresentBookPage(res app.BooksResult) BookPage {
	return BookPage{Books: PresentBooks(res.Books), Page: PresentPage(res.Pagination)}
}

// PresentAuthors presents authors
func PresentAuthors(authors []database.Author) []Ref {
	ret := []Ref{}
	for _, a := range authors {
		ret = append(ret, Ref{ID: a.ID, Name: a.Name})
	}

	return ret
}

// PresentPublishers presents publishers
func PresentPublishers(publishers []database.Publisher) []Ref {
	ret := []Ref{}
	for _, p := range publishers {
		ret = append(ret, Ref{ID: p.ID, Name: p.Name})
	}

	return ret
}
