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
	"strings"
	"time"

	"github.com/campuslib/campuslib/pkg/clock"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DateLayout is the day format used in activity descriptions and notices
const DateLayout = "02/01/2006"

const (
	// LoanFilterAll lists every loan
	LoanFilterAll = "all"
	// LoanFilterActive lists unreturned loans that are not overdue
	LoanFilterActive = "active"
	// LoanFilterLate lists unreturned loans past their due date
	LoanFilterLate = "late"
	// LoanFilterReturned lists returned loans
	LoanFilterReturned = "returned"
)

// IsOverdue reports whether the loan is unreturned and was due before today
func IsOverdue(loan database.Loan, today time.Time) bool {
	return loan.ReturnedOn == nil && loan.DueOn.Before(clock.Date(today))
}

// DaysLate returns the number of days an overdue loan is past its due date
func DaysLate(loan database.Loan, today time.Time) int {
	if !IsOverdue(loan, today) {
		return 0
	}

	return int(clock.Date(today).Sub(loan.DueOn).Hours() / 24)
}

func countActiveLoans(db *gorm.DB, bookID int) (int, error) {
	var count int64
	if err := db.Model(&database.Loan{}).
		Where("book_id = ? AND returned_on IS NULL", bookID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "counting active loans")
	}

	return int(count), nil
}

// activeLoanCounts returns the number of unreturned loans per book. A nil
// ids slice counts every book.
func activeLoanCounts(db *gorm.DB, ids []int) (map[int]int, error) {
	counts := map[int]int{}
	if ids != nil && len(ids) == 0 {
		return counts, nil
	}

	q := db.Model(&database.Loan{}).
		Select("book_id, COUNT(*) AS count").
		Where("returned_on IS NULL")
	if ids != nil {
		q = q.Where("book_id IN ?", ids)
	}

	var rows []struct {
		BookID int
		Count  int
	}
	if err := q.Group("book_id").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "counting active loans per book")
	}

	for _, r := range rows {
		counts[r.BookID] = r.Count
	}

	return counts, nil
}

func reportInconsistency(book database.Book, available int) {
	log.WithFields(log.Fields{
		"book_id":   book.ID,
		"isbn":      book.ISBN,
		"quantity":  book.Quantity,
		"available": available,
	}).Warn("book has more active loans than copies")
}

func availableQuantity(db *gorm.DB, book database.Book) (int, error) {
	onLoan, err := countActiveLoans(db, book.ID)
	if err != nil {
		return 0, err
	}

	available := book.Quantity - onLoan
	if available < 0 {
		reportInconsistency(book, available)
		return available, &InconsistentStateError{BookID: book.ID, ISBN: book.ISBN, Available: available}
	}

	return available, nil
}

// AvailableQuantity returns the number of copies of the book that can be
// lent right now. A negative count is returned together with an
// *InconsistentStateError.
func (a *App) AvailableQuantity(book database.Book) (int, error) {
	return availableQuantity(a.DB, book)
}

// LoanParams is the input of a loan creation. A zero BorrowedOn means today
// and a zero DueOn means BorrowedOn plus the configured loan duration.
type LoanParams struct {
	Matricule  string    `json:"matricule"`
	ISBN       string    `json:"isbn"`
	BorrowedOn time.Time `json:"borrowed_on"`
	DueOn      time.Time `json:"due_on"`
	Notes      string    `json:"notes"`
}

func findLoan(db *gorm.DB, id int) (database.Loan, error) {
	var loan database.Loan
	err := db.Preload("Student").Preload("Book").Preload("Book.Author").
		Where("id = ?", id).First(&loan).Error
	if database.IsNotFound(err) {
		return loan, notFound("loan", id)
	} else if err != nil {
		return loan, errors.Wrap(err, "finding loan")
	}

	return loan, nil
}

// lockBook reads the book of the given ISBN. On postgres the row stays locked
// until the end of the transaction so that concurrent loans on the same book
// are serialized. SQLite transactions are already serialized by the
// immediate write lock.
func lockBook(tx *gorm.DB, isbn string) (database.Book, error) {
	q := tx
	if database.IsPostgres(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var book database.Book
	err := q.Where("isbn = ?", isbn).First(&book).Error
	if database.IsNotFound(err) {
		return book, notFound("book", isbn)
	} else if err != nil {
		return book, errors.Wrap(err, "finding book")
	}

	return book, nil
}

// CreateLoan lends a copy of a book to a student
func (a *App) CreateLoan(actor *database.Librarian, p LoanParams) (database.Loan, error) {
	matricule := strings.TrimSpace(p.Matricule)
	isbn := normalizeISBN(p.ISBN)
	if matricule == "" {
		return database.Loan{}, invalid("matricule", "is required")
	}
	if isbn == "" {
		return database.Loan{}, invalid("isbn", "is required")
	}

	borrowedOn := clock.Today(a.Clock)
	if !p.BorrowedOn.IsZero() {
		borrowedOn = clock.Date(p.BorrowedOn)
	}
	dueOn := borrowedOn.AddDate(0, 0, a.loanDays())
	if !p.DueOn.IsZero() {
		dueOn = clock.Date(p.DueOn)
	}
	if dueOn.Before(borrowedOn) {
		return database.Loan{}, invalid("due_on", "cannot be before the borrow date")
	}

	var loan database.Loan
	err := a.withTx(func(tx *gorm.DB) error {
		student, err := findStudent(tx, matricule)
		if err != nil {
			return err
		}
		if !student.Active {
			return invalid("matricule", "student %s is not active", matricule)
		}

		book, err := lockBook(tx, isbn)
		if err != nil {
			return err
		}

		available, err := availableQuantity(tx, book)
		if err != nil && !errors.Is(err, ErrInconsistentState) {
			return err
		}
		if available <= 0 {
			return errors.Wrapf(ErrUnavailable, "book %s", book.ISBN)
		}

		loan = database.Loan{
			BorrowedOn:       borrowedOn,
			DueOn:            dueOn,
			DurationDays:     int(dueOn.Sub(borrowedOn).Hours() / 24),
			StudentMatricule: student.Matricule,
			BookID:           book.ID,
			Status:           database.LoanStatusActive,
			Observation:      strings.TrimSpace(p.Notes),
		}
		if err := tx.Omit(clause.Associations).Create(&loan).Error; err != nil {
			return errors.Wrap(err, "inserting loan")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:      database.ActionLoan,
			Title:       fmt.Sprintf("Loan: %s", book.Title),
			Description: fmt.Sprintf("%s borrowed %s, due on %s", student.FullName(), book.Title, dueOn.Format(DateLayout)),
			Subject:     student.Matricule,
		})
		return err
	})
	if err != nil {
		return database.Loan{}, err
	}

	return findLoan(a.DB, loan.ID)
}

// ReturnParams is the input of a return. A zero ReturnedOn means today.
type ReturnParams struct {
	ReturnedOn time.Time `json:"returned_on"`
	Condition  string    `json:"condition"`
	Notes      string    `json:"notes"`
}

func appendObservation(observation, notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return observation
	}
	if observation == "" {
		return notes
	}

	return observation + "\n" + notes
}

// RecordReturn closes a loan. Returning a loan twice fails with
// ErrInvalidState and changes nothing.
func (a *App) RecordReturn(actor *database.Librarian, loanID int, p ReturnParams) (database.Loan, error) {
	returnedOn := clock.Today(a.Clock)
	if !p.ReturnedOn.IsZero() {
		returnedOn = clock.Date(p.ReturnedOn)
	}

	err := a.withTx(func(tx *gorm.DB) error {
		loan, err := findLoan(tx, loanID)
		if err != nil {
			return err
		}
		if loan.ReturnedOn != nil || loan.Status == database.LoanStatusReturned {
			return errors.Wrapf(ErrInvalidState, "loan %d", loan.ID)
		}
		if returnedOn.Before(loan.BorrowedOn) {
			return invalid("returned_on", "cannot be before the borrow date")
		}

		res := tx.Model(&database.Loan{}).
			Where("id = ? AND returned_on IS NULL", loan.ID).
			Updates(map[string]interface{}{
				"returned_on": returnedOn,
				"condition":   strings.TrimSpace(p.Condition),
				"status":      database.LoanStatusReturned,
				"observation": appendObservation(loan.Observation, p.Notes),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "updating loan")
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ErrInvalidState, "loan %d", loan.ID)
		}

		desc := fmt.Sprintf("%s returned %s on %s", loan.Student.FullName(), loan.Book.Title, returnedOn.Format(DateLayout))
		if returnedOn.After(loan.DueOn) {
			desc += fmt.Sprintf(", %d day(s) late", int(returnedOn.Sub(loan.DueOn).Hours()/24))
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:      database.ActionReturn,
			Title:       fmt.Sprintf("Return: %s", loan.Book.Title),
			Description: desc,
			Subject:     loan.StudentMatricule,
		})
		return err
	})
	if err != nil {
		return database.Loan{}, err
	}

	return findLoan(a.DB, loanID)
}

// DeleteLoan removes a loan
func (a *App) DeleteLoan(actor *database.Librarian, loanID int) error {
	return a.withTx(func(tx *gorm.DB) error {
		loan, err := findLoan(tx, loanID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&database.Loan{}, loan.ID).Error; err != nil {
			return errors.Wrap(err, "deleting loan")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:      database.ActionDelete,
			Title:       fmt.Sprintf("Loan deleted: %s", loan.Book.Title),
			Description: fmt.Sprintf("Loan #%d of %s, borrowed on %s", loan.ID, loan.Student.FullName(), loan.BorrowedOn.Format(DateLayout)),
			Subject:     loan.StudentMatricule,
		})
		return err
	})
}

// GetLoan returns the loan of the given id with its student and book
func (a *App) GetLoan(id int) (database.Loan, error) {
	return findLoan(a.DB, id)
}

// LoanInfo is a loan with its derived lateness
type LoanInfo struct {
	database.Loan
	Overdue  bool `json:"overdue"`
	DaysLate int  `json:"days_late"`
}

// LoanInfo derives the lateness of the loan as of today
func (a *App) LoanInfo(l database.Loan) LoanInfo {
	today := a.Clock.Now()

	return LoanInfo{
		Loan:     l,
		Overdue:  IsOverdue(l, today),
		DaysLate: DaysLate(l, today),
	}
}

func (a *App) loanInfos(loans []database.Loan) []LoanInfo {
	ret := make([]LoanInfo, len(loans))
	for i, l := range loans {
		ret[i] = a.LoanInfo(l)
	}

	return ret
}

// LoansParams filters the loan listing
type LoansParams struct {
	Search string
	Status string
	Page   int
}

// LoansResult is a page of loans
type LoansResult struct {
	Loans []LoanInfo `json:"loans"`
	Pagination
}

func loansQuery(db *gorm.DB, p LoansParams, today time.Time) (*gorm.DB, error) {
	q := db.Model(&database.Loan{})

	switch p.Status {
	case "", LoanFilterAll:
	case LoanFilterActive:
		q = q.Where("loans.returned_on IS NULL AND loans.due_on >= ?", today)
	case LoanFilterLate:
		q = q.Where("loans.returned_on IS NULL AND loans.due_on < ?", today)
	case LoanFilterReturned:
		q = q.Where("loans.returned_on IS NOT NULL")
	default:
		return nil, invalid("status", "'%s' is not one of all, active, late, returned", p.Status)
	}

	if p.Search != "" {
		pattern := likePattern(p.Search)
		q = q.Joins("JOIN students ON students.matricule = loans.student_matricule").
			Joins("JOIN books ON books.id = loans.book_id").
			Joins("JOIN authors ON authors.id = books.author_id").
			Where("LOWER(students.last_name) LIKE ? ESCAPE '\\' OR LOWER(students.first_names) LIKE ? ESCAPE '\\' OR LOWER(books.title) LIKE ? ESCAPE '\\' OR LOWER(authors.name) LIKE ? ESCAPE '\\'",
				pattern, pattern, pattern, pattern)
	}

	return q, nil
}

// ListLoans returns a page of loans, the most recently borrowed first
func (a *App) ListLoans(p LoansParams) (LoansResult, error) {
	today := clock.Today(a.Clock)

	q, err := loansQuery(a.DB, p, today)
	if err != nil {
		return LoansResult{}, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return LoansResult{}, errors.Wrap(err, "counting loans")
	}

	pg := newPagination(p.Page, a.pageSize(), total)

	q, err = loansQuery(a.DB, p, today)
	if err != nil {
		return LoansResult{}, err
	}

	var loans []database.Loan
	if err := q.Preload("Student").Preload("Book").Preload("Book.Author").
		Order("loans.borrowed_on DESC, loans.id DESC").
		Scopes(pg.scope).
		Find(&loans).Error; err != nil {
		return LoansResult{}, errors.Wrap(err, "finding loans")
	}

	return LoansResult{Loans: a.loanInfos(loans), Pagination: pg}, nil
}

// GetOverdueLoans returns every overdue loan, the longest overdue first
func (a *App) GetOverdueLoans() ([]LoanInfo, error) {
	var loans []database.Loan
	if err := a.DB.Preload("Student").Preload("Book").Preload("Book.Author").
		Where("returned_on IS NULL AND due_on < ?", clock.Today(a.Clock)).
		Order("due_on ASC, id ASC").
		Find(&loans).Error; err != nil {
		return nil, errors.Wrap(err, "finding overdue loans")
	}

	return a.loanInfos(loans), nil
}
