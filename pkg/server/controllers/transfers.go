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
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/context"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// maxUploadSize caps the size of an imported file
const maxUploadSize = 10 << 20

var contentTypes = map[string]string{
	tabular.FormatCSV:  "text/csv; charset=utf-8",
	tabular.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// NewTransfers creates a new Transfers controller.
func NewTransfers(app *app.App) *Transfers {
	return &Transfers{app: app}
}

// Transfers handles the bulk import and export of books and students
type Transfers struct {
	app *app.App
}

type exportQuery struct {
	Format string `schema:"format"`
}

type importFunc func(actor *database.Librarian, rows [][]string) (app.ImportResult, error)
type exportFunc func(w io.Writer, format string) error

func (t *Transfers) importer(kind string) (importFunc, bool) {
	switch kind {
	case "books":
		return t.app.ImportBooks, true
	case "students":
		return t.app.ImportStudents, true
	default:
		return nil, false
	}
}

func (t *Transfers) exporter(kind string) (exportFunc, bool) {
	switch kind {
	case "books":
		return t.app.ExportBooks, true
	case "students":
		return t.app.ExportStudents, true
	default:
		return nil, false
	}
}

// readUpload returns the rows of the file uploaded in the "file" field
func readUpload(w http.ResponseWriter, r *http.Request) ([][]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, &app.ValidationError{Field: "file", Message: "should be uploaded as multipart/form-data"}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &app.ValidationError{Field: "file", Message: "is required"}
	}
	defer file.Close()

	format, err := tabular.FormatFromFilename(header.Filename)
	if err != nil {
		return nil, err
	}

	rows, err := tabular.Read(file, format)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) {
			return nil, err
		}

		return nil, &app.ValidationError{Field: "file", Message: fmt.Sprintf("could not be read as %s", format)}
	}

	return rows, nil
}

// Import handles POST /api/import/{kind}
func (t *Transfers) Import(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	fn, ok := t.importer(kind)
	if !ok {
		handleJSONError(w, &app.NotFoundError{Resource: "import", Key: kind}, "finding importer")
		return
	}

	rows, err := readUpload(w, r)
	if err != nil {
		handleJSONError(w, err, "reading upload")
		return
	}

	res, err := fn(context.Librarian(r.Context()), rows)
	if err != nil {
		handleJSONError(w, err, fmt.Sprintf("importing %s", kind))
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// Export handles GET /api/export/{kind}. The format defaults to xlsx.
func (t *Transfers) Export(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	fn, ok := t.exporter(kind)
	if !ok {
		handleJSONError(w, &app.NotFoundError{Resource: "export", Key: kind}, "finding exporter")
		return
	}

	var q exportQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	format := q.Format
	if format == "" {
		format = tabular.FormatXLSX
	}

	var buf bytes.Buffer
	if err := fn(&buf, format); err != nil {
		handleJSONError(w, err, fmt.Sprintf("exporting %s", kind))
		return
	}

	respondFile(w, kind, format, buf.Bytes())
}

// respondFile sends a generated file as an attachment
func respondFile(w http.ResponseWriter, name, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.%s\"", name, format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
