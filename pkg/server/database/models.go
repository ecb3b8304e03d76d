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

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Author is a model for a book author
type Author struct {
	Model
	Name string `json:"name" gorm:"index;not null"`
}

// Publisher is a model for a publisher
type Publisher struct {
	Model
	Name string `json:"name" gorm:"index;not null"`
}

// Category is a model for a book category
type Category struct {
	Model
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	Icon        string `json:"icon" gorm:"not null"`
	Color       string `json:"color" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Active      bool   `json:"active" gorm:"not null"`
}

// Book is a model for a catalog entry. Its copies are counted by Quantity.
type Book struct {
	Model
	ISBN        string    `json:"isbn" gorm:"column:isbn;uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"index;not null"`
	Language    string    `json:"language" gorm:"not null"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	Pages       int       `json:"pages" gorm:"not null"`
	Year        *int      `json:"year"`
	Location    string    `json:"location"`
	Summary     string    `json:"summary"`
	PublisherID int       `json:"publisher_id" gorm:"index;not null"`
	Publisher   Publisher `json:"publisher"`
	AuthorID    int       `json:"author_id" gorm:"index;not null"`
	Author      Author    `json:"author"`
	CategoryID  int       `json:"category_id" gorm:"index;not null"`
	Category    Category  `json:"category"`
}

// School is a model for the school a student belongs to
type School struct {
	Model
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// Student is a model for a borrower, identified by its matricule
type Student struct {
	Matricule          string    `json:"matricule" gorm:"primaryKey;type:varchar(12)"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	LastName           string    `json:"last_name" gorm:"index;not null"`
	FirstNames         string    `json:"first_names" gorm:"not null"`
	BirthDate          time.Time `json:"birth_date"`
	Phone              string    `json:"phone" gorm:"not null"`
	PersonalEmail      string    `json:"personal_email" gorm:"not null"`
	InstitutionalEmail string    `json:"institutional_email" gorm:"not null"`
	Room               string    `json:"room"`
	Active             bool      `json:"active" gorm:"index;not null"`
	SchoolID           int       `json:"school_id" gorm:"index;not null"`
	School             School    `json:"school"`
}

// FullName returns the display name of the student
func (s Student) FullName() string {
	if s.FirstNames == "" {
		return s.LastName
	}

	return s.LastName + " " + s.FirstNames
}

// Loan is a model for a book lent to a student
type Loan struct {
	Model
	BorrowedOn       time.Time  `json:"borrowed_on" gorm:"index;not null"`
	DueOn            time.Time  `json:"due_on" gorm:"index;not null"`
	ReturnedOn       *time.Time `json:"returned_on" gorm:"index"`
	DurationDays     int        `json:"duration_days" gorm:"not null"`
	StudentMatricule string     `json:"student_matricule" gorm:"index;not null"`
	Student          Student    `json:"student" gorm:"foreignKey:StudentMatricule;references:Matricule"`
	BookID           int        `json:"book_id" gorm:"index;not null"`
	Book             Book       `json:"book"`
	Status           string     `json:"status" gorm:"index;not null"`
	Condition        string     `json:"condition"`
	Observation      string     `json:"observation"`
}

// ActivityLog is an append-only record of a mutation
type ActivityLog struct {
	ID          int        `json:"id" gorm:"primaryKey"`
	Action      string     `json:"action" gorm:"index;not null"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Subject     string     `json:"subject"`
	LibrarianID *int       `json:"librarian_id" gorm:"index"`
	Librarian   *Librarian `json:"librarian,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index;not null"`
}

// Librarian is a model for a staff account
type Librarian struct {
	Model
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	Password    string     `json:"-" gorm:"not null"`
	FullName    string     `json:"full_name"`
	LastLoginAt *time.Time `json:"-"`
}

// Session represents a librarian session
type Session struct {
	Model
	LibrarianID int    `gorm:"index"`
	Key         string `gorm:"uniqueIndex"`
	LastUsedAt  time.Time
	ExpiresAt   time.Time
}
