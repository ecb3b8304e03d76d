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

// Package presenters shapes models into the JSON documents of the API
package presenters

import (
	"time"

	"github.com/campuslib/campuslib/pkg/server/app"
)

// DateLayout is the layout of calendar dates in responses
const DateLayout = "2006-01-02"

// FormatTS rounds up the given timestamp to the microsecond
// so as to make the times in the responses consistent
func FormatTS(ts time.Time) time.Time {
	return ts.UTC().Round(time.Microsecond)
}

// FormatDate formats a calendar date
func FormatDate(d time.Time) string {
	return d.UTC().Format(DateLayout)
}

// FormatDatePtr formats an optional calendar date
func FormatDatePtr(d *time.Time) *string {
	if d == nil {
		return nil
	}

	s := FormatDate(*d)
	return &s
}

// Page is the pagination of a listing
type Page struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PresentPage presents a pagination
func PresentPage(p app.Pagination) Page {
	return Page{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

// Ref is a named reference to another record
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
