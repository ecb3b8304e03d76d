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
	"bytes"
	"testing"
	"time"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/campuslib/campuslib/pkg/server/testutils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func TestAppendActivity(t *testing.T) {
	a, _ := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")

	t.Run("valid", func(t *testing.T) {
		entry, err := a.appendActivity(a.DB, &librarian, ActivityParams{
			Action: database.ActionUpdate,
			Title:  "Update: something",
		})
		if err != nil {
			t.Fatal(errors.Wrap(err, "appending activity"))
		}

		assert.Equal(t, *entry.LibrarianID, librarian.ID, "performer mismatch")
		assert.Equal(t, entry.CreatedAt.Equal(a.Clock.Now()), true, "timestamp mismatch")
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := a.appendActivity(a.DB, nil, ActivityParams{Action: database.ActionUpdate})

		assert.ErrorIs(t, err, ErrValidation, "error mismatch")
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := a.appendActivity(a.DB, nil, ActivityParams{Action: "rename", Title: "Rename"})

		assert.ErrorIs(t, err, ErrValidation, "error mismatch")
	})
}

func TestEveryMutationIsLogged(t *testing.T) {
	a, c := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")

	var category database.Category
	var book database.Book
	var loan database.Loan

	mutations := []struct {
		name   string
		action string
		run    func() error
	}{
		{"create category", database.ActionAddCategory, func() (err error) {
			category, err = a.CreateCategory(&librarian, CategoryParams{Name: "Poésie"})
			return err
		}},
		{"update category", database.ActionUpdate, func() error {
			_, err := a.UpdateCategory(&librarian, category.ID, CategoryParams{Name: "Poésie", Description: "Vers et rimes"})
			return err
		}},
		{"create book", database.ActionAddBook, func() (err error) {
			book, err = a.CreateBook(&librarian, bookParams("9782070360024", "L'Étranger"))
			return err
		}},
		{"update book", database.ActionUpdate, func() error {
			p := bookParams("9782070360024", "L'Étranger")
			p.Quantity = 4
			_, err := a.UpdateBook(&librarian, book.ID, p)
			return err
		}},
		{"create student", database.ActionAddUser, func() error {
			_, err := a.CreateStudent(&librarian, studentParams("E001", "RABE"))
			return err
		}},
		{"update student", database.ActionUpdate, func() error {
			_, err := a.UpdateStudent(&librarian, "E001", studentParams("E001", "RABEARIVELO"))
			return err
		}},
		{"create loan", database.ActionLoan, func() (err error) {
			loan, err = a.CreateLoan(&librarian, LoanParams{Matricule: "E001", ISBN: book.ISBN})
			return err
		}},
		{"return loan", database.ActionReturn, func() error {
			_, err := a.RecordReturn(&librarian, loan.ID, ReturnParams{})
			return err
		}},
		{"delete loan", database.ActionDelete, func() error {
			return a.DeleteLoan(&librarian, loan.ID)
		}},
		{"delete book", database.ActionDelete, func() error {
			return a.DeleteBook(&librarian, book.ID)
		}},
		{"delete student", database.ActionDelete, func() error {
			return a.DeleteStudent(&librarian, "E001")
		}},
		{"delete category", database.ActionDelete, func() error {
			return a.DeleteCategory(&librarian, category.ID)
		}},
	}

	for i, m := range mutations {
		before := countActivities(t, a.DB)
		if err := m.run(); err != nil {
			t.Fatal(errors.Wrapf(err, "running mutation %d (%s)", i, m.name))
		}

		assert.Equalf(t, countActivities(t, a.DB), before+1, m.name+": exactly one entry should be appended")

		entry := lastActivity(t, a.DB)
		assert.Equal(t, entry.Action, m.action, m.name+": action mismatch")
		assert.NotEqual(t, entry.Title, "", m.name+": title should not be empty")

		c.Advance(time.Minute)
	}

	var entries []database.ActivityLog
	testutils.MustExec(t, a.DB.Order("id ASC").Find(&entries), "finding activities")
	assert.Equal(t, len(entries), len(mutations), "log length mismatch")
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.Before(entries[i-1].CreatedAt) {
			t.Errorf("entry %d is older than the entry before it", entries[i].ID)
		}
	}
}

func TestFailedMutationRollsBackActivity(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.CreateCategory(nil, CategoryParams{Name: "Poésie"}); err != nil {
		t.Fatal(errors.Wrap(err, "creating category"))
	}

	_, err := a.CreateCategory(nil, CategoryParams{Name: "poesie"})

	assert.ErrorIs(t, err, ErrDuplicate, "error mismatch")
	assert.Equal(t, countActivities(t, a.DB), int64(1), "failed mutation should not be logged")
}

func setupActivities(t *testing.T, a App, librarian database.Librarian, entries []ActivityParams, createdAt []time.Time) {
	for i, p := range entries {
		entry := database.ActivityLog{
			Action:    p.Action,
			Title:     p.Title,
			Subject:   p.Subject,
			CreatedAt: createdAt[i],
		}
		if i%2 == 0 {
			id := librarian.ID
			entry.LibrarianID = &id
		}

		testutils.MustExec(t, a.DB.Omit("Librarian").Create(&entry), "preparing activity")
	}
}

func TestGetActivities(t *testing.T) {
	a, _ := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")

	setupActivities(t, a, librarian, []ActivityParams{
		{Action: database.ActionLoan, Title: "Loan: Dune", Subject: "E001"},
		{Action: database.ActionReturn, Title: "Return: Dune", Subject: "E001"},
		{Action: database.ActionLoan, Title: "Loan: La Peste", Subject: "E002"},
		{Action: database.ActionAddBook, Title: "Book added: Dune", Subject: "9780441013593"},
	}, []time.Time{
		time.Date(2009, 11, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2009, 11, 5, 17, 30, 0, 0, time.UTC),
		time.Date(2009, 11, 5, 23, 59, 0, 0, time.UTC),
		time.Date(2009, 11, 8, 8, 0, 0, 0, time.UTC),
	})

	from := testutils.Date(2009, 11, 3)
	to := testutils.Date(2009, 11, 5)

	testCases := []struct {
		name           string
		params         ActivitiesParams
		expectedTitles []string
	}{
		{
			name:           "all, newest first",
			params:         ActivitiesParams{},
			expectedTitles: []string{"Book added: Dune", "Loan: La Peste", "Return: Dune", "Loan: Dune"},
		},
		{
			name:           "action",
			params:         ActivitiesParams{Action: database.ActionLoan},
			expectedTitles: []string{"Loan: La Peste", "Loan: Dune"},
		},
		{
			name:           "search",
			params:         ActivitiesParams{Search: "DUNE"},
			expectedTitles: []string{"Book added: Dune", "Return: Dune", "Loan: Dune"},
		},
		{
			name:           "search subject",
			params:         ActivitiesParams{Search: "e002"},
			expectedTitles: []string{"Loan: La Peste"},
		},
		{
			name:           "inclusive day range",
			params:         ActivitiesParams{From: &from, To: &to},
			expectedTitles: []string{"Loan: La Peste", "Return: Dune"},
		},
		{
			name:           "page",
			params:         ActivitiesParams{Page: 2, PerPage: 3},
			expectedTitles: []string{"Loan: Dune"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := a.GetActivities(tc.params)
			if err != nil {
				t.Fatal(errors.Wrap(err, "getting activities"))
			}

			titles := []string{}
			for _, act := range res.Activities {
				titles = append(titles, act.Title)
			}
			assert.DeepEqual(t, titles, tc.expectedTitles, "titles mismatch")
		})
	}

	t.Run("performer is loaded", func(t *testing.T) {
		res, err := a.GetActivities(ActivitiesParams{Search: "la peste"})
		if err != nil {
			t.Fatal(errors.Wrap(err, "getting activities"))
		}

		assert.Equal(t, res.Activities[0].Librarian.Email, "desk@library.test", "performer mismatch")
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := a.GetActivities(ActivitiesParams{Action: "rename"})

		assert.ErrorIs(t, err, ErrValidation, "error mismatch")
	})
}

func TestExportActivitiesCSV(t *testing.T) {
	a, c := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")
	book := testutils.SetupBook(a.DB, "9780441013593", "Dune", 1)
	testutils.SetupStudent(a.DB, "E001", "RABE")

	loan, err := a.CreateLoan(nil, LoanParams{Matricule: "E001", ISBN: book.ISBN})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating loan"))
	}
	c.Advance(time.Hour)
	if _, err := a.RecordReturn(&librarian, loan.ID, ReturnParams{}); err != nil {
		t.Fatal(errors.Wrap(err, "returning loan"))
	}

	var buf bytes.Buffer
	if err := a.ExportActivitiesCSV(&buf, ActivitiesParams{}); err != nil {
		t.Fatal(errors.Wrap(err, "exporting"))
	}

	expected := "timestamp,action,title,description,subject,performed_by\n" +
		"11/11/2009 00:00,return,Return: Dune,RABE Test returned Dune on 11/11/2009,E001,Desk desk\n" +
		"10/11/2009 23:00,loan,Loan: Dune,\"RABE Test borrowed Dune, due on 24/11/2009\",E001,system\n"
	assert.Equal(t, buf.String(), expected, "csv mismatch")

	t.Run("xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		if err := a.ExportActivities(&buf, tabular.FormatXLSX, ActivitiesParams{Action: database.ActionLoan}); err != nil {
			t.Fatal(errors.Wrap(err, "exporting"))
		}

		rows, err := tabular.Read(&buf, tabular.FormatXLSX)
		if err != nil {
			t.Fatal(errors.Wrap(err, "reading workbook"))
		}

		assert.Equal(t, len(rows), 2, "row count mismatch")
		assert.DeepEqual(t, rows[0], activityColumns, "header mismatch")
		assert.Equal(t, rows[1][0], "10/11/2009 23:00", "timestamp mismatch")
	})
}

func TestActivityCommitsWithMutation(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.withTx(func(tx *gorm.DB) error {
		if _, err := a.appendActivity(tx, nil, ActivityParams{Action: database.ActionUpdate, Title: "Update: x"}); err != nil {
			return err
		}

		return errors.New("mutation failed")
	})

	assert.Equal(t, err.Error(), "mutation failed", "error mismatch")
	assert.Equal(t, countActivities(t, a.DB), int64(0), "activity should be rolled back with its mutation")
}
