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

// Package testutils provides utilities used in tests
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/helpers"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func initDB(t *testing.T, path string) *gorm.DB {
	db, err := database.Open(database.OpenParams{
		Driver: database.DriverSQLite,
		Path:   path,
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

// InitMemoryDB creates an in-memory SQLite database with the schema initialized
func InitMemoryDB(t *testing.T) *gorm.DB {
	// a unique name per test keeps the shared cache from leaking between tests
	name := MustUUID(t)

	return initDB(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

// InitFileDB creates a SQLite database file in a temporary directory. Tests that
// run concurrent transactions use it because the shared in-memory cache does not
// honor the busy timeout.
func InitFileDB(t *testing.T) *gorm.DB {
	return initDB(t, filepath.Join(t.TempDir(), "test.db"))
}

// MustUUID generates a UUID and fails the test on error
func MustUUID(t *testing.T) string {
	id, err := uuid.NewRandom()
	if err != nil {
		t.Fatal(errors.Wrap(err, "Failed to generate UUID"))
	}

	return id.String()
}

// MustExec fails the test if the given database query has error
func MustExec(t *testing.T, db *gorm.DB, message string) {
	if err := db.Error; err != nil {
		t.Fatalf("%s: %s", message, err.Error())
	}
}

// Date returns the UTC midnight of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SetupLibrarian creates and returns a new librarian with email and password for testing purposes
func SetupLibrarian(db *gorm.DB, email, password string) database.Librarian {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(errors.Wrap(err, "Failed to hash password"))
	}

	librarian := database.Librarian{
		Email:    email,
		Password: string(hashedPassword),
		FullName: "Desk " + strings.Split(email, "@")[0],
	}
	if err := db.Save(&librarian).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare librarian"))
	}

	return librarian
}

// SetupSession creates and returns a new session for the librarian
func SetupSession(db *gorm.DB, librarian database.Librarian) database.Session {
	key, err := helpers.GetRandomStr(32)
	if err != nil {
		panic(errors.Wrap(err, "Failed to generate session key"))
	}

	session := database.Session{
		Key:         key,
		LibrarianID: librarian.ID,
		LastUsedAt:  time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour * 24),
	}
	if err := db.Save(&session).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare session"))
	}

	return session
}

// SetupCategory creates and returns an active category
func SetupCategory(db *gorm.DB, name, slug string) database.Category {
	category := database.Category{
		Name:   name,
		Slug:   slug,
		Icon:   database.DefaultCategoryIcon,
		Color:  database.DefaultCategoryColor,
		Active: true,
	}
	if err := db.Save(&category).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare category"))
	}

	return category
}

// SetupBook creates and returns a book with its author, publisher and category
func SetupBook(db *gorm.DB, isbn, title string, quantity int) database.Book {
	author := database.Author{Name: "Author of " + title}
	if err := db.Save(&author).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare author"))
	}
	publisher := database.Publisher{Name: "PUBLISHER OF " + strings.ToUpper(title)}
	if err := db.Save(&publisher).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare publisher"))
	}

	var category database.Category
	if err := db.Where("slug = ?", "general").First(&category).Error; err != nil {
		category = SetupCategory(db, "General", "general")
	}

	book := database.Book{
		ISBN:        isbn,
		Title:       title,
		Language:    "fr",
		Quantity:    quantity,
		Pages:       100,
		AuthorID:    author.ID,
		PublisherID: publisher.ID,
		CategoryID:  category.ID,
	}
	if err := db.Omit("Author", "Publisher", "Category").Save(&book).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare book"))
	}

	book.Author = author
	book.Publisher = publisher
	book.Category = category

	return book
}

// SetupStudent creates and returns an active student
func SetupStudent(db *gorm.DB, matricule, lastName string) database.Student {
	var school database.School
	if err := db.Where("name = ?", "ENI").First(&school).Error; err != nil {
		school = database.School{Name: "ENI"}
		if err := db.Save(&school).Error; err != nil {
			panic(errors.Wrap(err, "Failed to prepare school"))
		}
	}

	lower := strings.ToLower(lastName)
	student := database.Student{
		Matricule:          matricule,
		LastName:           lastName,
		FirstNames:         "Test",
		BirthDate:          Date(2001, time.May, 4),
		Phone:              "+261340000000",
		PersonalEmail:      lower + "@mail.test",
		InstitutionalEmail: lower + "@school.test",
		Active:             true,
		SchoolID:           school.ID,
	}
	if err := db.Omit("School").Create(&student).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare student"))
	}

	student.School = school

	return student
}

// SetupLoan creates a loan row directly, bypassing the availability check
func SetupLoan(db *gorm.DB, student database.Student, book database.Book, borrowedOn, dueOn time.Time, returnedOn *time.Time) database.Loan {
	status := database.LoanStatusActive
	if returnedOn != nil {
		status = database.LoanStatusReturned
	}

	loan := database.Loan{
		BorrowedOn:       borrowedOn,
		DueOn:            dueOn,
		ReturnedOn:       returnedOn,
		DurationDays:     int(dueOn.Sub(borrowedOn).Hours() / 24),
		StudentMatricule: student.Matricule,
		BookID:           book.ID,
		Status:           status,
	}
	if err := db.Omit("Student", "Book").Create(&loan).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare loan"))
	}

	return loan
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	hc := http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	res, err := hc.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// HTTPAuthDo makes an HTTP request with a session of the given librarian
func HTTPAuthDo(t *testing.T, db *gorm.DB, req *http.Request, librarian database.Librarian) *http.Response {
	session := SetupSession(db, librarian)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Key))

	return HTTPDo(t, req)
}

// MakeReq makes an HTTP request and returns a response
func MakeReq(endpoint string, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", endpoint, path)

	req, err := http.NewRequest(method, u, strings.NewReader(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// MustDecodeJSON decodes the response body into v and fails the test on error
func MustDecodeJSON(t *testing.T, res *http.Response, v interface{}) {
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatal(errors.Wrap(err, "decoding response body"))
	}
}

// ToJSON marshals the given payload and fails the test on error
func ToJSON(t *testing.T, v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}

	return string(b)
}

// MockEmail is a mock email data
type MockEmail struct {
	TemplateType string
	From         string
	To           []string
	Data         interface{}
}

// MockEmailbackendImplementation is an email backend that records the emails instead of sending them
type MockEmailbackendImplementation struct {
	mu     sync.RWMutex
	Emails []MockEmail
	// Err, when set, is returned by every SendEmail call
	Err error
}

// Clear clears the mock email queue
func (b *MockEmailbackendImplementation) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Emails = []MockEmail{}
}

// SendEmail is an implementation of Backend.SendEmail.
func (b *MockEmailbackendImplementation) SendEmail(templateType, from string, to []string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}

	b.Emails = append(b.Emails, MockEmail{
		TemplateType: templateType,
		From:         from,
		To:           to,
		Data:         data,
	})

	return nil
}

// Sent returns a copy of the recorded emails
func (b *MockEmailbackendImplementation) Sent() []MockEmail {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]MockEmail(nil), b.Emails...)
}
