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

package database

const (
	// LoanStatusActive is the status of a loan whose book has not been returned
	LoanStatusActive = "active"
	// LoanStatusLate is a legacy stored status. Lateness is derived from the due
	// date, so rows carrying it are treated like active loans.
	LoanStatusLate = "late"
	// LoanStatusReturned is the terminal status of a loan
	LoanStatusReturned = "returned"
)

const (
	// ActionAddBook records the creation of a book
	ActionAddBook = "add_book"
	// ActionAddUser records the registration of a student
	ActionAddUser = "add_user"
	// ActionAddCategory records the creation of a category
	ActionAddCategory = "add_category"
	// ActionUpdate records a change to an existing record
	ActionUpdate = "update"
	// ActionDelete records a deletion
	ActionDelete = "delete"
	// ActionLoan records a new loan
	ActionLoan = "loan"
	// ActionReturn records a returned book
	ActionReturn = "return"
	// ActionImport records a bulk import
	ActionImport = "import"
)

// Actions lists every activity action in display order
var Actions = []string{
	ActionAddBook,
	ActionAddUser,
	ActionAddCategory,
	ActionUpdate,
	ActionDelete,
	ActionLoan,
	ActionReturn,
	ActionImport,
}

// CategoryIcons is the fixed vocabulary of category icons
var CategoryIcons = []string{
	"book",
	"flask",
	"hat-wizard",
	"landmark",
	"brain",
	"feather-alt",
	"rocket",
	"child",
	"palette",
	"music",
	"futbol",
	"utensils",
	"globe",
	"user-tie",
	"heart",
	"users",
}

const (
	// DefaultCategoryIcon is used for categories created implicitly
	DefaultCategoryIcon = "book"
	// DefaultCategoryColor is used for categories created implicitly
	DefaultCategoryColor = "#6c757d"
)

const (
	// DriverSQLite selects the sqlite store
	DriverSQLite = "sqlite"
	// DriverPostgres selects the postgres store
	DriverPostgres = "postgres"
)
