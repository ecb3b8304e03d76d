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
)

// DayCount is the number of loans of a day
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Dashboard is the result of PresentDashboard
type Dashboard struct {
	TotalAvailable    int                    `json:"total_available"`
	TotalBorrowed     int                    `json:"total_borrowed"`
	ActiveLoans       int64                  `json:"active_loans"`
	OverdueLoans      int64                  `json:"overdue_loans"`
	LateReturns       int64                  `json:"late_returns"`
	ActiveStudents    int64                  `json:"active_students"`
	Last7Days         []DayCount             `json:"last_7_days"`
	StatusBreakdown   app.StatusBreakdown    `json:"status_breakdown"`
	RecentLoans       []Loan                 `json:"recent_loans"`
	InconsistentBooks []app.InconsistentBook `json:"inconsistent_books"`
}

// PresentDashboard presents the dashboard
func PresentDashboard(d app.Dashboard) Dashboard {
	days := []DayCount{}
	for _, day := range d.Last7Days {
		days = append(days, DayCount{Date: FormatDate(day.Date), Count: day.Count})
	}

	return Dashboard{
		TotalAvailable:    d.TotalAvailable,
		TotalBorrowed:     d.TotalBorrowed,
		ActiveLoans:       d.ActiveLoans,
		OverdueLoans:      d.OverdueLoans,
		LateReturns:       d.LateReturns,
		ActiveStudents:    d.ActiveStudents,
		Last7Days:         days,
		StatusBreakdown:   d.StatusBreakdown,
		RecentLoans:       PresentLoans(d.RecentLoans),
		InconsistentBooks: d.InconsistentBooks,
	}
}
