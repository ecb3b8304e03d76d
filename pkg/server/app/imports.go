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
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookColumns is the column order of book spreadsheets
var BookColumns = []string{"isbn", "title", "language", "quantity", "pages", "year", "location", "summary", "publisher", "author", "category"}

var bookRequiredColumns = []string{"isbn", "title", "language", "quantity", "pages", "publisher", "author", "category"}

// StudentColumns is the column order of student spreadsheets
var StudentColumns = []string{"matricule", "last_name", "first_names", "birth_date", "phone", "personal_email", "institutional_email", "room", "school", "active"}

var studentRequiredColumns = []string{"matricule", "last_name", "first_names", "birth_date", "phone", "personal_email", "institutional_email", "school"}

// spreadsheetEpoch is the day 0 of spreadsheet date serials
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ImportResult is the outcome of a successful import
type ImportResult struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// importRow gives access to the cells of a data row by column name
type importRow struct {
	cells   []string
	columns map[string]int
}

func (r importRow) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.cells) {
		return ""
	}

	return strings.TrimSpace(r.cells[idx])
}

func (r importRow) integer(column string) (int, error) {
	v := r.get(column)
	n, err := strconv.Atoi(v)
	if err != nil {
		// spreadsheets may store whole numbers as decimals
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, invalid(column, "'%s' is not an integer", v)
		}
		n = int(f)
	}

	return n, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))

	return strings.Join(strings.Fields(h), "_")
}

// parseHeader maps column names to positions and checks that every required
// column is present
func parseHeader(header []string, required []string) (map[string]int, error) {
	columns := map[string]int{}
	for i, h := range header {
		name := normalizeHeader(h)
		if _, ok := columns[name]; !ok && name != "" {
			columns[name] = i
		}
	}

	var missing []string
	for _, c := range required {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, invalid("header", "missing required column(s): %s", strings.Join(missing, ", "))
	}

	return columns, nil
}

func hasDataRow(rows [][]string) bool {
	for _, row := range rows {
		if !tabular.IsBlank(row) {
			return true
		}
	}

	return false
}

// splitRows separates the header from the data rows. Blank data rows are kept
// so that an *ImportError reports the row as numbered in the file.
func splitRows(rows [][]string, required []string) (map[string]int, [][]string, error) {
	if len(rows) == 0 {
		return nil, nil, invalid("header", "the file is empty")
	}

	columns, err := parseHeader(rows[0], required)
	if err != nil {
		return nil, nil, err
	}

	data := rows[1:]
	if !hasDataRow(data) {
		return nil, nil, invalid("rows", "the file has no data row")
	}

	return columns, data, nil
}

func (a *App) bookParamsFromRow(r importRow) (BookParams, error) {
	quantity, err := r.integer("quantity")
	if err != nil {
		return BookParams{}, err
	}
	pages, err := r.integer("pages")
	if err != nil {
		return BookParams{}, err
	}

	p := BookParams{
		ISBN:      r.get("isbn"),
		Title:     r.get("title"),
		Language:  strings.ToLower(r.get("language")),
		Quantity:  quantity,
		Pages:     pages,
		Location:  r.get("location"),
		Summary:   r.get("summary"),
		Publisher: r.get("publisher"),
		Author:    r.get("author"),
		Category:  r.get("category"),
	}
	if r.get("year") != "" {
		year, err := r.integer("year")
		if err != nil {
			return BookParams{}, err
		}
		p.Year = &year
	}

	if err := a.validateBookParams(&p); err != nil {
		return BookParams{}, err
	}

	return p, nil
}

func (a *App) upsertBook(tx *gorm.DB, p BookParams) error {
	refs, err := resolveBookRefs(tx, p)
	if err != nil {
		return err
	}

	var book database.Book
	applyBookParams(&book, p)
	refs.apply(&book)

	if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "isbn"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "language", "quantity", "pages", "year", "location", "summary", "publisher_id", "author_id", "category_id", "updated_at"}),
	}).Create(&book).Error; err != nil {
		return errors.Wrap(err, "upserting book")
	}

	var stored database.Book
	if err := tx.Where("isbn = ?", p.ISBN).First(&stored).Error; err != nil {
		return errors.Wrap(err, "reading upserted book")
	}
	onLoan, err := countActiveLoans(tx, stored.ID)
	if err != nil {
		return err
	}
	if stored.Quantity < onLoan {
		return invalid("quantity", "cannot be lower than the %d copies on loan", onLoan)
	}

	return nil
}

// ImportBooks upserts books by ISBN from rows whose first row is the header.
// The batch is atomic: the first failing row rolls back every row and is
// reported as an *ImportError.
func (a *App) ImportBooks(actor *database.Librarian, rows [][]string) (ImportResult, error) {
	columns, data, err := splitRows(rows, bookRequiredColumns)
	if err != nil {
		return ImportResult{}, err
	}

	var count int
	err = a.withTx(func(tx *gorm.DB) error {
		for i, cells := range data {
			if tabular.IsBlank(cells) {
				continue
			}

			p, err := a.bookParamsFromRow(importRow{cells: cells, columns: columns})
			if err != nil {
				return &ImportError{Row: i + 1, Err: err}
			}
			if err := a.upsertBook(tx, p); err != nil {
				return &ImportError{Row: i + 1, Err: err}
			}
			count++
		}

		_, err := a.appendActivity(tx, actor, ActivityParams{
			Action:      database.ActionImport,
			Title:       fmt.Sprintf("Import: %d book(s)", count),
			Description: "Books created or updated by ISBN from a spreadsheet",
			Subject:     "books",
		})
		return err
	})
	if err != nil {
		return ImportResult{}, err
	}

	return ImportResult{
		Count:   count,
		Message: fmt.Sprintf("%d book(s) imported", count),
	}, nil
}

// parseBirthDate accepts ISO dates, DD/MM/YYYY dates and spreadsheet serials
func parseBirthDate(v string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "02/01/2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 && serial < 2958466 {
		return spreadsheetEpoch.AddDate(0, 0, int(serial)), nil
	}

	return time.Time{}, invalid("birth_date", "'%s' is not a date (expected YYYY-MM-DD)", v)
}

// parseActive returns nil for an empty cell so that an existing student
// keeps its flag
func parseActive(v string) (*bool, error) {
	var active bool

	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return nil, nil
	case "1", "true", "yes", "y", "oui", "vrai", "x":
		active = true
	case "0", "false", "no", "n", "non", "faux":
		active = false
	default:
		return nil, invalid("active", "'%s' is not a boolean", v)
	}

	return &active, nil
}

func (a *App) studentParamsFromRow(r importRow) (StudentParams, error) {
	birthDate, err := parseBirthDate(r.get("birth_date"))
	if err != nil {
		return StudentParams{}, err
	}
	active, err := parseActive(r.get("active"))
	if err != nil {
		return StudentParams{}, err
	}

	p := StudentParams{
		Matricule:          r.get("matricule"),
		LastName:           r.get("last_name"),
		FirstNames:         r.get("first_names"),
		BirthDate:          birthDate,
		Phone:              r.get("phone"),
		PersonalEmail:      r.get("personal_email"),
		InstitutionalEmail: r.get("institutional_email"),
		Room:               r.get("room"),
		School:             r.get("school"),
		Active:             active,
	}

	if err := a.validateStudentParams(&p); err != nil {
		return StudentParams{}, err
	}

	return p, nil
}

func upsertStudent(tx *gorm.DB, p StudentParams) error {
	school, err := FindOrCreateSchool(tx, p.School)
	if err != nil {
		return err
	}

	student := database.Student{Matricule: p.Matricule, Active: true}
	applyStudentParams(&student, p, school)

	updates := []string{"last_name", "first_names", "birth_date", "phone", "personal_email", "institutional_email", "room", "school_id", "updated_at"}
	if p.Active != nil {
		updates = append(updates, "active")
	}

	if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "matricule"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&student).Error; err != nil {
		return errors.Wrap(err, "upserting student")
	}

	return nil
}

// ImportStudents upserts students by matricule from rows whose first row is
// the header, with the same atomicity as ImportBooks
func (a *App) ImportStudents(actor *database.Librarian, rows [][]string) (ImportResult, error) {
	columns, data, err := splitRows(rows, studentRequiredColumns)
	if err != nil {
		return ImportResult{}, err
	}

	var count int
	err = a.withTx(func(tx *gorm.DB) error {
		for i, cells := range data {
			if tabular.IsBlank(cells) {
				continue
			}

			p, err := a.studentParamsFromRow(importRow{cells: cells, columns: columns})
			if err != nil {
				return &ImportError{Row: i + 1, Err: err}
			}
			if err := upsertStudent(tx, p); err != nil {
				return &ImportError{Row: i + 1, Err: err}
			}
			count++
		}

		_, err := a.appendActivity(tx, actor, ActivityParams{
			Action:      database.ActionImport,
			Title:       fmt.Sprintf("Import: %d student(s)", count),
			Description: "Students created or updated by matricule from a spreadsheet",
			Subject:     "students",
		})
		return err
	})
	if err != nil {
		return ImportResult{}, err
	}

	return ImportResult{
		Count:   count,
		Message: fmt.Sprintf("%d student(s) imported", count),
	}, nil
}
