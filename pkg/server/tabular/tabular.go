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

// Package tabular reads and writes rows of cells as xlsx workbooks or CSV files
package tabular

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	// FormatCSV is the comma-separated values format
	FormatCSV = "csv"
	// FormatXLSX is the Office Open XML workbook format
	FormatXLSX = "xlsx"
)

// ErrUnsupportedFormat is an error for a format other than csv and xlsx
var ErrUnsupportedFormat = errors.New("unsupported file format")

// utf8BOM is prepended by some spreadsheet programs to CSV exports
const utf8BOM = "\uFEFF"

// FormatFromFilename returns the format matching the extension of name
func FormatFromFilename(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	switch ext {
	case FormatCSV, FormatXLSX:
		return ext, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "'%s'", name)
	}
}

// Read returns the rows of r. Blank rows before the first and after the last
// non-blank row are trimmed. Blank rows in between are kept so that callers
// can number rows as they appear in the file. For workbooks, only the first
// sheet is read.
func Read(r io.Reader, format string) ([][]string, error) {
	var rows [][]string
	var err error

	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "'%s'", format)
	}
	if err != nil {
		return nil, err
	}

	return trimBlankRows(rows), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv")
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}

	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("the workbook has no sheet")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheets[0])
	}

	return rows, nil
}

func trimBlankRows(rows [][]string) [][]string {
	start, end := 0, len(rows)
	for start < end && IsBlank(rows[start]) {
		start++
	}
	for end > start && IsBlank(rows[end-1]) {
		end--
	}

	return rows[start:end]
}

// IsBlank reports whether every cell of row is empty or whitespace
func IsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// Write writes rows to w. The sheet name is only used for workbooks.
func Write(w io.Writer, format, sheet string, rows [][]string) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatXLSX:
		return writeXLSX(w, sheet, rows)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "'%s'", format)
	}
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, "writing csv")
	}

	return nil
}

func writeXLSX(w io.Writer, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if sheet != "" && sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return errors.Wrap(err, "naming sheet")
		}
	} else {
		sheet = defaultSheet
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}

		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+1)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}

	return nil
}
