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
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindOrCreateSchool returns the school matching the uppercased name,
// creating it if none exists
func FindOrCreateSchool(db *gorm.DB, name string) (database.School, error) {
	normalized := NormalizeSchoolName(name)
	if normalized == "" {
		return database.School{}, invalid("school", "is required")
	}

	var school database.School
	err := db.Where("name = ?", normalized).First(&school).Error
	if err == nil {
		return school, nil
	} else if !database.IsNotFound(err) {
		return school, errors.Wrap(err, "finding school")
	}

	school = database.School{Name: normalized}
	if err := db.Create(&school).Error; err != nil {
		return school, errors.Wrap(err, "inserting school")
	}

	return school, nil
}

// StudentParams is the input of a student registration or update
type StudentParams struct {
	Matricule          string    `json:"matricule" validate:"required,max=12"`
	LastName           string    `json:"last_name" validate:"required,max=100"`
	FirstNames         string    `json:"first_names" validate:"required,max=150"`
	BirthDate          time.Time `json:"birth_date" validate:"required"`
	Phone              string    `json:"phone" validate:"required,phone"`
	PersonalEmail      string    `json:"personal_email" validate:"required,email"`
	InstitutionalEmail string    `json:"institutional_email" validate:"required,email"`
	Room               string    `json:"room" validate:"max=20"`
	School             string    `json:"school" validate:"required"`
	Active             *bool     `json:"active"`
}

func (a *App) validateStudentParams(p *StudentParams) error {
	p.Matricule = strings.TrimSpace(p.Matricule)
	p.LastName = collapseSpaces(p.LastName)
	p.FirstNames = collapseSpaces(p.FirstNames)
	p.Phone = strings.ReplaceAll(strings.TrimSpace(p.Phone), " ", "")
	p.PersonalEmail = strings.ToLower(strings.TrimSpace(p.PersonalEmail))
	p.InstitutionalEmail = strings.ToLower(strings.TrimSpace(p.InstitutionalEmail))
	p.Room = strings.TrimSpace(p.Room)

	if err := validateStruct(p); err != nil {
		return err
	}

	if p.BirthDate.After(a.Clock.Now()) {
		return invalid("birth_date", "cannot be in the future")
	}

	return nil
}

func applyStudentParams(student *database.Student, p StudentParams, school database.School) {
	student.LastName = p.LastName
	student.FirstNames = p.FirstNames
	student.BirthDate = clock.Date(p.BirthDate)
	student.Phone = p.Phone
	student.PersonalEmail = p.PersonalEmail
	student.InstitutionalEmail = p.InstitutionalEmail
	student.Room = p.Room
	student.SchoolID = school.ID
	student.School = school
	if p.Active != nil {
		student.Active = *p.Active
	}
}

func findStudent(db *gorm.DB, matricule string) (database.Student, error) {
	var student database.Student
	err := db.Preload("School").Where("matricule = ?", matricule).First(&student).Error
	if database.IsNotFound(err) {
		return student, notFound("student", matricule)
	} else if err != nil {
		return student, errors.Wrap(err, "finding student")
	}

	return student, nil
}

// CreateStudent registers a student. A matricule already taken is rejected
// with a *UniqueConstraintError.
func (a *App) CreateStudent(actor *database.Librarian, p StudentParams) (database.Student, error) {
	if err := a.validateStudentParams(&p); err != nil {
		return database.Student{}, err
	}

	student := database.Student{Matricule: p.Matricule, Active: true}
	err := a.withTx(func(tx *gorm.DB) error {
		school, err := FindOrCreateSchool(tx, p.School)
		if err != nil {
			return err
		}
		applyStudentParams(&student, p, school)

		if err := tx.Omit(clause.Associations).Create(&student).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return &UniqueConstraintError{Resource: "student", Field: "matricule", Value: p.Matricule}
			}
			return errors.Wrap(err, "inserting student")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:      database.ActionAddUser,
			Title:       fmt.Sprintf("Student registered: %s", student.FullName()),
			Description: fmt.Sprintf("%s, %s", student.Matricule, school.Name),
			Subject:     student.Matricule,
		})
		return err
	})
	if err != nil {
		return database.Student{}, err
	}

	return student, nil
}

// UpdateStudent replaces the attributes of a student. The matricule itself
// cannot change.
func (a *App) UpdateStudent(actor *database.Librarian, matricule string, p StudentParams) (database.Student, error) {
	p.Matricule = matricule
	if err := a.validateStudentParams(&p); err != nil {
		return database.Student{}, err
	}

	var student database.Student
	err := a.withTx(func(tx *gorm.DB) error {
		var err error
		if student, err = findStudent(tx, matricule); err != nil {
			return err
		}

		school, err := FindOrCreateSchool(tx, p.School)
		if err != nil {
			return err
		}
		applyStudentParams(&student, p, school)

		if err := tx.Omit(clause.Associations).Save(&student).Error; err != nil {
			return errors.Wrap(err, "updating student")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:  database.ActionUpdate,
			Title:   fmt.Sprintf("Student updated: %s", student.FullName()),
			Subject: student.Matricule,
		})
		return err
	})
	if err != nil {
		return database.Student{}, err
	}

	return student, nil
}

// DeleteStudent removes a student that no loan references
func (a *App) DeleteStudent(actor *database.Librarian, matricule string) error {
	return a.withTx(func(tx *gorm.DB) error {
		student, err := findStudent(tx, matricule)
		if err != nil {
			return err
		}

		var loans int64
		if err := tx.Model(&database.Loan{}).Where("student_matricule = ?", matricule).Count(&loans).Error; err != nil {
			return errors.Wrap(err, "counting loans")
		}
		if loans > 0 {
			return errors.Wrapf(ErrHasLoans, "student %s has %d loan(s)", matricule, loans)
		}

		if err := tx.Where("matricule = ?", matricule).Delete(&database.Student{}).Error; err != nil {
			return errors.Wrap(err, "deleting student")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:  database.ActionDelete,
			Title:   fmt.Sprintf("Student deleted: %s", student.FullName()),
			Subject: student.Matricule,
		})
		return err
	})
}

// GetStudent returns the student of the given matricule
func (a *App) GetStudent(matricule string) (database.Student, error) {
	return findStudent(a.DB, strings.TrimSpace(matricule))
}

// StudentWithLoans is a student with the number of its unreturned loans
type StudentWithLoans struct {
	database.Student
	ActiveLoans int `json:"active_loans"`
}

// StudentsParams filters the student listing
type StudentsParams struct {
	Search   string
	SchoolID int
	Active   *bool
	Page     int
}

// StudentsResult is a page of students
type StudentsResult struct {
	Students []StudentWithLoans `json:"students"`
	Pagination
}

func studentsQuery(db *gorm.DB, p StudentsParams) *gorm.DB {
	q := db.Model(&database.Student{})

	if p.Search != "" {
		pattern := likePattern(p.Search)
		q = q.Where("LOWER(matricule) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\' OR LOWER(first_names) LIKE ? ESCAPE '\\'", pattern, pattern, pattern)
	}
	if p.SchoolID != 0 {
		q = q.Where("school_id = ?", p.SchoolID)
	}
	if p.Active != nil {
		q = q.Where("active = ?", *p.Active)
	}

	return q
}

// GetStudents returns a page of students ordered by name
func (a *App) GetStudents(p StudentsParams) (StudentsResult, error) {
	var total int64
	if err := studentsQuery(a.DB, p).Count(&total).Error; err != nil {
		return StudentsResult{}, errors.Wrap(err, "counting students")
	}

	pg := newPagination(p.Page, a.pageSize(), total)

	var students []database.Student
	if err := studentsQuery(a.DB, p).
		Preload("School").
		Order("last_name ASC, first_names ASC, matricule ASC").
		Scopes(pg.scope).
		Find(&students).Error; err != nil {
		return StudentsResult{}, errors.Wrap(err, "finding students")
	}

	matricules := make([]string, len(students))
	for i, s := range students {
		matricules[i] = s.Matricule
	}

	var rows []struct {
		StudentMatricule string
		Count            int
	}
	if len(matricules) > 0 {
		if err := a.DB.Model(&database.Loan{}).
			Select("student_matricule, COUNT(*) AS count").
			Where("returned_on IS NULL AND student_matricule IN ?", matricules).
			Group("student_matricule").
			Scan(&rows).Error; err != nil {
			return StudentsResult{}, errors.Wrap(err, "counting loans per student")
		}
	}

	counts := map[string]int{}
	for _, r := range rows {
		counts[r.StudentMatricule] = r.Count
	}

	ret := make([]StudentWithLoans, len(students))
	for i, s := range students {
		ret[i] = StudentWithLoans{Student: s, ActiveLoans: counts[s.Matricule]}
	}

	return StudentsResult{Students: ret, Pagination: pg}, nil
}
