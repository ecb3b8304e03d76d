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

	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinPublicationYear is the earliest publication year a book can have
const MinPublicationYear = 1400

// searchLimit caps the autocompletion results
const searchLimit = 10

// FindOrCreateAuthor returns the author matching the title-cased name,
// creating it if none exists
func FindOrCreateAuthor(db *gorm.DB, name string) (database.Author, error) {
	normalized := NormalizeAuthorName(name)
	if normalized == "" {
		return database.Author{}, invalid("author", "is required")
	}

	var author database.Author
	err := db.Where("LOWER(name) = LOWER(?)", normalized).First(&author).Error
	if err == nil {
		return author, nil
	} else if !database.IsNotFound(err) {
		return author, errors.Wrap(err, "finding author")
	}

	author = database.Author{Name: normalized}
	if err := db.Create(&author).Error; err != nil {
		return author, errors.Wrap(err, "inserting author")
	}

	return author, nil
}

// FindOrCreatePublisher returns the publisher matching the uppercased name,
// creating it if none exists
func FindOrCreatePublisher(db *gorm.DB, name string) (database.Publisher, error) {
	normalized := NormalizePublisherName(name)
	if normalized == "" {
		return database.Publisher{}, invalid("publisher", "is required")
	}

	var publisher database.Publisher
	err := db.Where("UPPER(name) = ?", normalized).First(&publisher).Error
	if err == nil {
		return publisher, nil
	} else if !database.IsNotFound(err) {
		return publisher, errors.Wrap(err, "finding publisher")
	}

	publisher = database.Publisher{Name: normalized}
	if err := db.Create(&publisher).Error; err != nil {
		return publisher, errors.Wrap(err, "inserting publisher")
	}

	return publisher, nil
}

// BookParams is the input of a book creation or update
type BookParams struct {
	ISBN     string `json:"isbn" validate:"required,alphanum,max=13"`
	Title    string `json:"title" validate:"required,max=255"`
	Language string `json:"language" validate:"required,langcode"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Pages    int    `json:"pages" validate:"gte=0"`
	Year     *int   `json:"year"`
	Location string `json:"location" validate:"max=50"`
	Summary  string `json:"summary"`

	Publisher string `json:"publisher" validate:"required"`
	Author    string `json:"author" validate:"required"`
	// CategoryID takes precedence over Category, which is matched by slug
	// and created when missing
	CategoryID int    `json:"category_id"`
	Category   string `json:"category" validate:"required_without=CategoryID"`
}

func (a *App) validateBookParams(p *BookParams) error {
	p.ISBN = normalizeISBN(p.ISBN)
	p.Title = collapseSpaces(p.Title)
	p.Language = collapseSpaces(p.Language)

	if err := validateStruct(p); err != nil {
		return err
	}

	if p.Year != nil {
		current := a.Clock.Now().Year()
		if *p.Year < MinPublicationYear || *p.Year > current {
			return invalid("year", "should be between %d and %d", MinPublicationYear, current)
		}
	}

	return nil
}

type bookRefs struct {
	author    database.Author
	publisher database.Publisher
	category  database.Category
}

func resolveBookRefs(tx *gorm.DB, p BookParams) (bookRefs, error) {
	var refs bookRefs
	var err error

	if refs.author, err = FindOrCreateAuthor(tx, p.Author); err != nil {
		return refs, err
	}
	if refs.publisher, err = FindOrCreatePublisher(tx, p.Publisher); err != nil {
		return refs, err
	}

	if p.CategoryID != 0 {
		if err := tx.Where("id = ?", p.CategoryID).First(&refs.category).Error; err != nil {
			if database.IsNotFound(err) {
				return refs, notFound("category", p.CategoryID)
			}
			return refs, errors.Wrap(err, "finding category")
		}
	} else if refs.category, err = FindOrCreateCategory(tx, p.Category); err != nil {
		return refs, err
	}

	return refs, nil
}

func (refs bookRefs) apply(book *database.Book) {
	book.AuthorID = refs.author.ID
	book.PublisherID = refs.publisher.ID
	book.CategoryID = refs.category.ID
}

func applyBookParams(book *database.Book, p BookParams) {
	book.ISBN = p.ISBN
	book.Title = p.Title
	book.Language = p.Language
	book.Quantity = p.Quantity
	book.Pages = p.Pages
	book.Year = p.Year
	book.Location = collapseSpaces(p.Location)
	book.Summary = p.Summary
}

func findBook(db *gorm.DB, id int) (database.Book, error) {
	var book database.Book
	err := db.Preload("Author").Preload("Publisher").Preload("Category").
		Where("id = ?", id).First(&book).Error
	if database.IsNotFound(err) {
		return book, notFound("book", id)
	} else if err != nil {
		return book, errors.Wrap(err, "finding book")
	}

	return book, nil
}

// CreateBook adds a book to the catalog
func (a *App) CreateBook(actor *database.Librarian, p BookParams) (database.Book, error) {
	if err := a.validateBookParams(&p); err != nil {
		return database.Book{}, err
	}

	var book database.Book
	err := a.withTx(func(tx *gorm.DB) error {
		refs, err := resolveBookRefs(tx, p)
		if err != nil {
			return err
		}

		applyBookParams(&book, p)
		refs.apply(&book)

		if err := tx.Omit(clause.Associations).Create(&book).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return &UniqueConstraintError{Resource: "book", Field: "isbn", Value: p.ISBN}
			}
			return errors.Wrap(err, "inserting book")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:      database.ActionAddBook,
			Title:       fmt.Sprintf("Book added: %s", book.Title),
			Description: fmt.Sprintf("%s by %s, %d copies", book.Title, refs.author.Name, book.Quantity),
			Subject:     book.ISBN,
		})
		return err
	})
	if err != nil {
		return database.Book{}, err
	}

	return findBook(a.DB, book.ID)
}

// UpdateBook replaces the attributes of the book of the given id. The
// quantity cannot drop below the number of copies currently on loan.
func (a *App) UpdateBook(actor *database.Librarian, id int, p BookParams) (database.Book, error) {
	if err := a.validateBookParams(&p); err != nil {
		return database.Book{}, err
	}

	err := a.withTx(func(tx *gorm.DB) error {
		book, err := findBook(tx, id)
		if err != nil {
			return err
		}

		onLoan, err := countActiveLoans(tx, book.ID)
		if err != nil {
			return err
		}
		if p.Quantity < onLoan {
			return invalid("quantity", "cannot be lower than the %d copies on loan", onLoan)
		}

		refs, err := resolveBookRefs(tx, p)
		if err != nil {
			return err
		}

		applyBookParams(&book, p)
		refs.apply(&book)

		if err := tx.Omit(clause.Associations).Save(&book).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return &UniqueConstraintError{Resource: "book", Field: "isbn", Value: p.ISBN}
			}
			return errors.Wrap(err, "updating book")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:  database.ActionUpdate,
			Title:   fmt.Sprintf("Book updated: %s", book.Title),
			Subject: book.ISBN,
		})
		return err
	})
	if err != nil {
		return database.Book{}, err
	}

	return findBook(a.DB, id)
}

// DeleteBook removes a book that no loan references
func (a *App) DeleteBook(actor *database.Librarian, id int) error {
	return a.withTx(func(tx *gorm.DB) error {
		book, err := findBook(tx, id)
		if err != nil {
			return err
		}

		var loans int64
		if err := tx.Model(&database.Loan{}).Where("book_id = ?", book.ID).Count(&loans).Error; err != nil {
			return errors.Wrap(err, "counting loans")
		}
		if loans > 0 {
			return errors.Wrapf(ErrHasLoans, "book %s has %d loan(s)", book.ISBN, loans)
		}

		if err := tx.Delete(&database.Book{}, book.ID).Error; err != nil {
			return errors.Wrap(err, "deleting book")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:  database.ActionDelete,
			Title:   fmt.Sprintf("Book deleted: %s", book.Title),
			Subject: book.ISBN,
		})
		return err
	})
}

// GetBook returns the book of the given id
func (a *App) GetBook(id int) (database.Book, error) {
	return findBook(a.DB, id)
}

// GetBookByISBN returns the book of the given ISBN
func (a *App) GetBookByISBN(isbn string) (database.Book, error) {
	isbn = normalizeISBN(isbn)

	var book database.Book
	err := a.DB.Preload("Author").Preload("Publisher").Preload("Category").
		Where("isbn = ?", isbn).First(&book).Error
	if database.IsNotFound(err) {
		return book, notFound("book", isbn)
	} else if err != nil {
		return book, errors.Wrap(err, "finding book")
	}

	return book, nil
}

// BookAvailability is a book with its live availability
type BookAvailability struct {
	database.Book
	OnLoan    int `json:"on_loan"`
	Available int `json:"available"`
}

// BooksParams filters the book listing
type BooksParams struct {
	Search     string
	CategoryID int
	Page       int
}

// BooksResult is a page of books
type BooksResult struct {
	Books []BookAvailability `json:"books"`
	Pagination
}

func booksQuery(db *gorm.DB, p BooksParams) *gorm.DB {
	q := db.Model(&database.Book{})

	if p.Search != "" {
		pattern := likePattern(p.Search)
		q = q.Joins("JOIN authors ON authors.id = books.author_id").
			Where("LOWER(books.title) LIKE ? ESCAPE '\\' OR LOWER(books.isbn) LIKE ? ESCAPE '\\' OR LOWER(authors.name) LIKE ? ESCAPE '\\'", pattern, pattern, pattern)
	}
	if p.CategoryID != 0 {
		q = q.Where("books.category_id = ?", p.CategoryID)
	}

	return q
}

// GetBooks returns a page of books ordered by title, with their availability
func (a *App) GetBooks(p BooksParams) (BooksResult, error) {
	var total int64
	if err := booksQuery(a.DB, p).Count(&total).Error; err != nil {
		return BooksResult{}, errors.Wrap(err, "counting books")
	}

	pg := newPagination(p.Page, a.pageSize(), total)

	var books []database.Book
	if err := booksQuery(a.DB, p).
		Preload("Author").Preload("Publisher").Preload("Category").
		Order("books.title ASC, books.id ASC").
		Scopes(pg.scope).
		Find(&books).Error; err != nil {
		return BooksResult{}, errors.Wrap(err, "finding books")
	}

	withAvailability, err := a.withAvailability(a.DB, books)
	if err != nil {
		return BooksResult{}, err
	}

	return BooksResult{Books: withAvailability, Pagination: pg}, nil
}

// withAvailability computes the availability of each book with a single
// grouped query. Negative values are logged and kept as is.
func (a *App) withAvailability(db *gorm.DB, books []database.Book) ([]BookAvailability, error) {
	ids := make([]int, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}

	counts, err := activeLoanCounts(db, ids)
	if err != nil {
		return nil, err
	}

	ret := make([]BookAvailability, len(books))
	for i, b := range books {
		ret[i] = BookAvailability{
			Book:      b,
			OnLoan:    counts[b.ID],
			Available: b.Quantity - counts[b.ID],
		}
		if ret[i].Available < 0 {
			reportInconsistency(b, ret[i].Available)
		}
	}

	return ret, nil
}

// WithAvailability returns the book together with its availability
func (a *App) WithAvailability(book database.Book) (BookAvailability, error) {
	ret, err := a.withAvailability(a.DB, []database.Book{book})
	if err != nil {
		return BookAvailability{}, err
	}

	return ret[0], nil
}

// SearchAuthors returns up to 10 authors whose name contains q
func (a *App) SearchAuthors(q string) ([]database.Author, error) {
	var authors []database.Author
	if err := a.DB.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(q)).
		Order("name ASC").Limit(searchLimit).
		Find(&authors).Error; err != nil {
		return nil, errors.Wrap(err, "searching authors")
	}

	return authors, nil
}

// SearchPublishers returns up to 10 publishers whose name contains q
func (a *App) SearchPublishers(q string) ([]database.Publisher, error) {
	var publishers []database.Publisher
	if err := a.DB.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(q)).
		Order("name ASC").Limit(searchLimit).
		Find(&publishers).Error; err != nil {
		return nil, errors.Wrap(err, "searching publishers")
	}

	return publishers, nil
}
