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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/campuslib/campuslib/pkg/server/testutils"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// runCmd executes the root command against the database of dir and returns
// its output
func runCmd(t *testing.T, dir, stdin string, args ...string) (string, error) {
	var out bytes.Buffer

	root := NewRoot()
	root.SetArgs(append([]string{
		"--dbPath", filepath.Join(dir, "test.db"),
		"--config", filepath.Join(dir, "missing.yml"),
	}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()

	return out.String(), err
}

func openDB(t *testing.T, dir string) *gorm.DB {
	db, err := database.Open(database.OpenParams{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(dir, "test.db"),
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}
	if err := database.Setup(db); err != nil {
		t.Fatal(errors.Wrap(err, "setting up database"))
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, t.TempDir(), "", "version")
	assert.NilError(t, err, "running version")
	assert.Equal(t, strings.HasPrefix(out, "campuslib-"), true, "version output mismatch")
}

func TestLibrarianCreateCmd(t *testing.T) {
	dir := t.TempDir()

	_, err := runCmd(t, dir, "", "librarian", "create", "--email", "Desk@Library.test", "--password", "password123", "--name", "Front Desk")
	assert.NilError(t, err, "creating librarian")

	db := openDB(t, dir)
	var librarian database.Librarian
	testutils.MustExec(t, db.Where("email = ?", "desk@library.test").First(&librarian), "finding librarian")
	assert.Equal(t, librarian.FullName, "Front Desk", "name mismatch")

	_, err = runCmd(t, dir, "", "librarian", "create", "--email", "desk@library.test", "--password", "password123")
	assert.Equal(t, err != nil, true, "a duplicate email should fail")

	_, err = runCmd(t, dir, "", "librarian", "create", "--email", "desk@library.test")
	assert.Equal(t, err != nil, true, "a missing password should fail")
}

func TestLibrarianRemoveCmd(t *testing.T) {
	testCases := []struct {
		name      string
		stdin     string
		args      []string
		remaining int64
	}{
		{"confirmed", "y\n", nil, 0},
		{"declined", "n\n", nil, 1},
		{"default answer", "\n", nil, 1},
		{"skip confirmation", "", []string{"--yes"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			db := openDB(t, dir)
			testutils.SetupLibrarian(db, "desk@library.test", "password123")

			args := append([]string{"librarian", "remove", "--email", "desk@library.test"}, tc.args...)
			_, err := runCmd(t, dir, tc.stdin, args...)
			assert.NilError(t, err, "removing librarian")

			var count int64
			testutils.MustExec(t, db.Model(&database.Librarian{}).Count(&count), "counting librarians")
			assert.Equal(t, count, tc.remaining, "librarian count mismatch")
		})
	}

	t.Run("unknown email", func(t *testing.T) {
		_, err := runCmd(t, t.TempDir(), "y\n", "librarian", "remove", "--email", "nobody@library.test")
		assert.Equal(t, err != nil, true, "an unknown email should fail")
	})
}

func TestLibrarianResetPasswordCmd(t *testing.T) {
	dir := t.TempDir()
	db := openDB(t, dir)
	testutils.SetupLibrarian(db, "desk@library.test", "oldpassword123")

	_, err := runCmd(t, dir, "", "librarian", "reset-password", "--email", "desk@library.test", "--password", "newpassword123")
	assert.NilError(t, err, "resetting password")

	var librarian database.Librarian
	testutils.MustExec(t, db.Where("email = ?", "desk@library.test").First(&librarian), "finding librarian")
	err = bcrypt.CompareHashAndPassword([]byte(librarian.Password), []byte("newpassword123"))
	assert.Equal(t, err, nil, "new password should match")

	_, err = runCmd(t, dir, "", "librarian", "reset-password", "--email", "desk@library.test", "--password", "short")
	assert.Equal(t, err != nil, true, "a short password should fail")
}

func TestImportExportCmd(t *testing.T) {
	dir := t.TempDir()
	db := openDB(t, dir)
	librarian := testutils.SetupLibrarian(db, "desk@library.test", "password123")

	src := filepath.Join(dir, "books.csv")
	content := "isbn,title,language,quantity,pages,publisher,author,category\n" +
		"111,Germinal,fr,2,500,charpentier,emile zola,Roman\n" +
		"222,Nana,fr,1,400,charpentier,emile zola,Roman\n"
	if err := os.WriteFile(src, []byte(content), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing source"))
	}

	out, err := runCmd(t, dir, "", "import", "books", src, "--as", "desk@library.test")
	assert.NilError(t, err, "importing books")
	assert.Equal(t, strings.Contains(out, "2"), true, "output should report the count")

	var activity database.ActivityLog
	testutils.MustExec(t, db.Where("action = ?", database.ActionImport).First(&activity), "finding activity")
	assert.Equal(t, *activity.LibrarianID, librarian.ID, "performer mismatch")

	dst := filepath.Join(dir, "books.xlsx")
	_, err = runCmd(t, dir, "", "export", "books", dst)
	assert.NilError(t, err, "exporting books")

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening export"))
	}
	defer f.Close()

	rows, err := tabular.Read(f, tabular.FormatXLSX)
	assert.NilError(t, err, "reading export")
	assert.Equal(t, len(rows), 3, "row count mismatch")
	assert.Equal(t, rows[1][1], "Germinal", "first title mismatch")

	history := filepath.Join(dir, "history.csv")
	_, err = runCmd(t, dir, "", "export", "history", history, "--action", database.ActionImport)
	assert.NilError(t, err, "exporting history")

	b, err := os.ReadFile(history)
	assert.NilError(t, err, "reading history")
	assert.Equal(t, len(strings.Split(strings.TrimSpace(string(b)), "\n")), 2, "history line count mismatch")

	_, err = runCmd(t, dir, "", "import", "books", filepath.Join(dir, "books.txt"))
	assert.Equal(t, err != nil, true, "an unsupported extension should fail")
}

func TestNotifyOverdueCmd(t *testing.T) {
	dir := t.TempDir()
	db := openDB(t, dir)

	out, err := runCmd(t, dir, "", "loans", "notify-overdue")
	assert.NilError(t, err, "notifying")
	assert.Equal(t, strings.Contains(out, "No loan is overdue"), true, "output mismatch")

	student := testutils.SetupStudent(db, "E001", "Rakoto")
	book := testutils.SetupBook(db, "111", "Germinal", 1)
	testutils.SetupLoan(db, student, book, testutils.Date(2009, 10, 1), testutils.Date(2009, 10, 15), nil)

	out, err = runCmd(t, dir, "", "loans", "notify-overdue")
	assert.NilError(t, err, "notifying")
	assert.Equal(t, strings.Contains(out, "Sent 1 overdue notice(s)"), true, "output mismatch")
}
