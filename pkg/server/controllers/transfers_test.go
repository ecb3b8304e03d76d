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
	"encoding/csv"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/database"
	mw "github.com/campuslib/campuslib/pkg/server/middleware"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/campuslib/campuslib/pkg/server/testutils"
	"github.com/pkg/errors"
)

// makeUploadReq returns a multipart request uploading content as filename
func makeUploadReq(t *testing.T, endpoint, path, filename string, content []byte) *http.Request {
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)

	part, err := mpw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating form file"))
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(errors.Wrap(err, "writing form file"))
	}
	if err := mpw.Close(); err != nil {
		t.Fatal(errors.Wrap(err, "closing multipart writer"))
	}

	req, err := http.NewRequest("POST", endpoint+path, &buf)
	if err != nil {
		t.Fatal(errors.Wrap(err, "constructing request"))
	}
	req.Header.Set("Content-Type", mpw.FormDataContentType())

	return req
}

func mustCSV(t *testing.T, rows [][]string) []byte {
	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(rows); err != nil {
		t.Fatal(errors.Wrap(err, "writing csv"))
	}

	return buf.Bytes()
}

func TestImportBooks(t *testing.T) {
	a, server, librarian := setupServer(t)

	content := mustCSV(t, [][]string{
		app.BookColumns,
		{"111", "Germinal", "fr", "2", "500", "1885", "A1", "", "charpentier", "emile zola", "Roman"},
		{"222", "Nana", "fr", "1", "400", "1880", "A2", "", "charpentier", "emile zola", "Roman"},
	})
	req := makeUploadReq(t, server.URL, "/api/import/books", "books.csv", content)
	res := testutils.HTTPAuthDo(t, a.DB, req, librarian)
	assert.StatusCodeEquals(t, res, http.StatusOK, "")

	var payload app.ImportResult
	testutils.MustDecodeJSON(t, res, &payload)
	assert.Equal(t, payload.Count, 2, "count mismatch")

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Book{}).Count(&count), "counting books")
	assert.Equal(t, count, int64(2), "book count mismatch")
}

func TestImportErrors(t *testing.T) {
	testCases := []struct {
		name           string
		path           string
		filename       string
		content        []byte
		expectedStatus int
		expectedRow    int
	}{
		{
			name:           "unsupported extension",
			path:           "/api/import/books",
			filename:       "books.txt",
			content:        []byte("isbn\n111\n"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unreadable workbook",
			path:           "/api/import/books",
			filename:       "books.xlsx",
			content:        []byte("not a workbook"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:     "bad row",
			path:     "/api/import/students",
			filename: "students.csv",
			content: []byte("matricule,last_name,first_names,birth_date,phone,personal_email,institutional_email,school\n" +
				"E001,Rakoto,Hery,2001-03-14,+261341234567,a@mail.test,a@school.test,ENI\n" +
				"E002,Rabe,Soa,not a date,+261341234567,b@mail.test,b@school.test,ENI\n"),
			expectedStatus: http.StatusBadRequest,
			expectedRow:    2,
		},
		{
			name:           "unknown kind",
			path:           "/api/import/loans",
			filename:       "loans.csv",
			content:        []byte("id\n1\n"),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, server, librarian := setupServer(t)

			req := makeUploadReq(t, server.URL, tc.path, tc.filename, tc.content)
			res := testutils.HTTPAuthDo(t, a.DB, req, librarian)
			assert.StatusCodeEquals(t, res, tc.expectedStatus, "")

			var payload mw.ErrorResponse
			testutils.MustDecodeJSON(t, res, &payload)
			assert.Equal(t, payload.Row, tc.expectedRow, "row mismatch")

			var count int64
			testutils.MustExec(t, a.DB.Model(&database.Student{}).Count(&count), "counting students")
			assert.Equal(t, count, int64(0), "a failed import should not write")
		})
	}
}

func TestImportWithoutFile(t *testing.T) {
	a, server, librarian := setupServer(t)

	req := testutils.MakeReq(server.URL, "POST", "/api/import/books", "")
	res := testutils.HTTPAuthDo(t, a.DB, req, librarian)
	assert.StatusCodeEquals(t, res, http.StatusBadRequest, "")

	var payload mw.ErrorResponse
	testutils.MustDecodeJSON(t, res, &payload)
	assert.Equal(t, payload.Field, "file", "field mismatch")
}

func TestExportStudents(t *testing.T) {
	a, server, librarian := setupServer(t)
	testutils.SetupStudent(a.DB, "E001", "Rakoto")
	testutils.SetupStudent(a.DB, "E002", "Rabe")

	t.Run("default format", func(t *testing.T) {
		req := testutils.MakeReq(server.URL, "GET", "/api/export/students", "")
		res := testutils.HTTPAuthDo(t, a.DB, req, librarian)
		assert.StatusCodeEquals(t, res, http.StatusOK, "")
		defer res.Body.Close()

		assert.Equal(t, res.Header.Get("Content-Disposition"), `attachment; filename="students.xlsx"`, "disposition mismatch")

		rows, err := tabular.Read(res.Body, tabular.FormatXLSX)
		if err != nil {
			t.Fatal(errors.Wrap(err, "reading export"))
		}
		assert.Equal(t, len(rows), 3, "row count mismatch")
		assert.DeepEqual(t, rows[0], app.StudentColumns, "header mismatch")
		assert.Equal(t, rows[1][0], "E002", "order mismatch")
	})

	t.Run("csv", func(t *testing.T) {
		req := testutils.MakeReq(server.URL, "GET", "/api/export/students?format=csv", "")
		res := testutils.HTTPAuthDo(t, a.DB, req, librarian)
		assert.StatusCodeEquals(t, res, http.StatusOK, "")
		defer res.Body.Close()

		rows, err := tabular.Read(res.Body, tabular.FormatCSV)
		if err != nil {
			t.Fatal(errors.Wrap(err, "reading export"))
		}
		assert.Equal(t, len(rows), 3, "row count mismatch")
	})

	t.Run("unsupported format", func(t *testing.T) {
		req := testutils.MakeReq(server.URL, "GET", "/api/export/students?format=pdf", "")
		res := testutils.HTTPAuthDo(t, a.DB, req, librarian)
		assert.StatusCodeEquals(t, res, http.StatusBadRequest, "")
	})
}
