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
	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/database"
)

// Student is a result of PresentStudents
type Student struct {
	Matricule          string `json:"matricule"`
	LastName           string `json:"last_name"`
	FirstNames         string `json:"first_names"`
	FullName           string `json:"full_name"`
	BirthDate          string `json:"birth_date"`
	Phone              string `json:"phone"`
	PersonalEmail      string `json:"personal_email"`
	InstitutionalEmail string `json:"institutional_email"`
	Room               string `json:"room"`
	School             Ref    `json:"school"`
	Active             bool   `json:"active"`
	ActiveLoans        int    `json:"active_loans,omitempty"`
}

// PresentStudent presents a student
func PresentStudent(s database.Student, activeLoans int) Student {
	return Student{
		Matricule:          s.Matricule,
		LastName:           s.LastName,
		FirstNames:         s.FirstNames,
		FullName:           s.FullName(),
		BirthDate:          FormatDate(s.BirthDate),
		Phone:              s.Phone,
		PersonalEmail:      s.PersonalEmail,
		InstitutionalEmail: s.InstitutionalEmail,
		Room:               s.Room,
		School:             Ref{ID: s.School.ID, Name: s.School.Name},
		Active:             s.Active,
		ActiveLoans:        activeLoans,
	}
}

// StudentPage is a page of students
type StudentPage struct {
	Students []Student `json:"students"`
	Page
}

// PresentStudentPage presents a page of students
func PresentStudentPage(res app.StudentsResult) StudentPage {
	students := []Student{}
	for _, s := range res.Students {
		students = append(students, PresentStudent(s.Student, s.ActiveLoans))
	}

	return StudentPage{Students: students, Page: PresentPage(res.Pagination)}
}
