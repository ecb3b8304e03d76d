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
	"io"
	"strconv"

	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/pkg/errors"
)

// ExportBooks writes the whole catalog in the given tabular format, with the
// columns of BookColumns so that the file can be imported back
func (a *App) ExportBooks(w io.Writer, format string) error {
	var books []database.Book
	if err := a.DB.Preload("Author").Preload("Publisher").Preload("Category").
		Order("title ASC, id ASC").
		Find(&books).Error; err != nil {
		return errors.Wrap(err, "finding books")
	}

	rows := make([][]string, 0, len(books)+1)
	rows = append(rows, BookColumns)
	for _, b := range books {
		year := ""
		if b.Year != nil {
			year = strconv.Itoa(*b.Year)
		}

		rows = append(rows, []string{
			b.ISBN,
			b.Title,
			b.Language,
			strconv.Itoa(b.Quantity),
			strconv.Itoa(b.Pages),
			year,
			b.Location,
			b.Summary,
			b.Publisher.Name,
			b.Author.Name,
			b.Category.Name,
		})
	}

	return tabular.Write(w, format, "books", rows)
}

// ExportStudents writes every student in the given tabular format, with the
// columns of StudentColumns
func (a *App) ExportStudents(w io.Writer, format string) error {
	var students []database.Student
	if err := a.DB.Preload("School").
		Order("last_name ASC, first_names ASC, matricule ASC").
		Find(&students).Error; err != nil {
		return errors.Wrap(err, "finding students")
	}

	rows := make([][]string, 0, len(students)+1)
	rows = append(rows, StudentColumns)
	for _, s := range students {
		rows = append(rows, []string{
			s.Matricule,
			s.LastName,
			s.FirstNames,
			s.BirthDate.Format("2006-01-02"),
			s.Phone,
			s.PersonalEmail,
			s.InstitutionalEmail,
			s.Room,
			s.School.Name,
			strconv.FormatBool(s.Active),
		})
	}

	return tabular.Write(w, format, "students", rows)
}
