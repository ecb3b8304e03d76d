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

package controllers

import (
	"net/http"

	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/context"
	"github.com/campuslib/campuslib/pkg/server/presenters"
	"github.com/gorilla/mux"
)

// NewStudents creates a new Students controller.
func NewStudents(app *app.App) *Students {
	return &Students{app: app}
}

// Students handles borrowers
type Students struct {
	app *app.App
}

type studentsQuery struct {
	Search   string `schema:"q"`
	SchoolID int    `schema:"school_id"`
	Active   string `schema:"active"`
	Page     int    `schema:"page"`
}

// studentPayload is the body of a student creation or update. The birth date
// is a calendar date string.
type studentPayload struct {
	Matricule          string `json:"matricule"`
	LastName           string `json:"last_name"`
	FirstNames         string `json:"first_names"`
	BirthDate          string `json:"birth_date"`
	Phone              string `json:"phone"`
	PersonalEmail      string `json:"personal_email"`
	InstitutionalEmail string `json:"institutional_email"`
	Room               string `json:"room"`
	School             string `json:"school"`
	Active             *bool  `json:"active"`
}

func (p studentPayload) params() (app.StudentParams, error) {
	birthDate, err := parseDate("birth_date", p.BirthDate)
	if err != nil {
		return app.StudentParams{}, err
	}

	return app.StudentParams{
		Matricule:          p.Matricule,
		LastName:           p.LastName,
		FirstNames:         p.FirstNames,
		BirthDate:          birthDate,
		Phone:              p.Phone,
		PersonalEmail:      p.PersonalEmail,
		InstitutionalEmail: p.InstitutionalEmail,
		Room:               p.Room,
		School:             p.School,
		Active:             p.Active,
	}, nil
}

func parseStudentPayload(r *http.Request) (app.StudentParams, error) {
	var payload studentPayload
	if err := parseRequestData(r, &payload); err != nil {
		return app.StudentParams{}, err
	}

	return payload.params()
}

// Index handles GET /api/students
func (s *Students) Index(w http.ResponseWriter, r *http.Request) {
	var q studentsQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	active, err := parseOptionalBool("active", q.Active)
	if err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	res, err := s.app.GetStudents(app.StudentsParams{
		Search:   q.Search,
		SchoolID: q.SchoolID,
		Active:   active,
		Page:     q.Page,
	})
	if err != nil {
		handleJSONError(w, err, "finding students")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentStudentPage(res))
}

// Show handles GET /api/students/{matricule}
func (s *Students) Show(w http.ResponseWriter, r *http.Request) {
	student, err := s.app.GetStudent(mux.Vars(r)["matricule"])
	if err != nil {
		handleJSONError(w, err, "finding student")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentStudent(student, 0))
}

// Create handles POST /api/students
func (s *Students) Create(w http.ResponseWriter, r *http.Request) {
	p, err := parseStudentPayload(r)
	if err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	student, err := s.app.CreateStudent(context.Librarian(r.Context()), p)
	if err != nil {
		handleJSONError(w, err, "creating student")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentStudent(student, 0))
}

// Update handles PATCH /api/students/{matricule}
func (s *Students) Update(w http.ResponseWriter, r *http.Request) {
	p, err := parseStudentPayload(r)
	if err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	student, err := s.app.UpdateStudent(context.Librarian(r.Context()), mux.Vars(r)["matricule"], p)
	if err != nil {
		handleJSONError(w, err, "updating student")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentStudent(student, 0))
}

// Delete handles DELETE /api/students/{matricule}
func (s *Students) Delete(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteStudent(context.Librarian(r.Context()), mux.Vars(r)["matricule"]); err != nil {
		handleJSONError(w, err, "deleting student")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
