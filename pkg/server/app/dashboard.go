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
	"time"

	"github.com/campuslib/campuslib/pkg/clock"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/pkg/errors"
)

// histogramDays is the length of the borrow histogram
const histogramDays = 7

// recentLoansCount is the length of the recent loans feed
const recentLoansCount = 3

// DayCount is the number of loans borrowed on a day
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// StatusBreakdown splits every loan into exactly one bucket
type StatusBreakdown struct {
	Active   int64 `json:"active"`
	Late     int64 `json:"late"`
	Returned int64 `json:"returned"`
}

// InconsistentBook is a book with more active loans than copies
type InconsistentBook struct {
	ID        int    `json:"id"`
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Available int    `json:"available"`
}

// Dashboard holds the figures of the home page
type Dashboard struct {
	TotalAvailable int   `json:"total_available"`
	TotalBorrowed  int   `json:"total_borrowed"`
	ActiveLoans    int64 `json:"active_loans"`
	OverdueLoans   int64 `json:"overdue_loans"`
	// LateReturns counts the loans that are overdue now or were returned
	// after their due date, each loan once
	LateReturns       int64              `json:"late_returns"`
	ActiveStudents    int64              `json:"active_students"`
	Last7Days         []DayCount         `json:"last_7_days"`
	StatusBreakdown   StatusBreakdown    `json:"status_breakdown"`
	RecentLoans       []LoanInfo         `json:"recent_loans"`
	InconsistentBooks []InconsistentBook `json:"inconsistent_books"`
}

func (a *App) countLoans(query string, args ...interface{}) (int64, error) {
	var count int64
	if err := a.DB.Model(&database.Loan{}).Where(query, args...).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "counting loans")
	}

	return count, nil
}

// GetDashboard computes the dashboard as of today
func (a *App) GetDashboard() (Dashboard, error) {
	today := clock.Today(a.Clock)
	var d Dashboard
	var err error

	var books []database.Book
	if err := a.DB.Select("id, isbn, title, quantity").Find(&books).Error; err != nil {
		return d, errors.Wrap(err, "finding books")
	}
	counts, err := activeLoanCounts(a.DB, nil)
	if err != nil {
		return d, err
	}

	d.InconsistentBooks = []InconsistentBook{}
	for _, b := range books {
		available := b.Quantity - counts[b.ID]
		d.TotalAvailable += available
		d.TotalBorrowed += b.Quantity - available

		if available < 0 {
			reportInconsistency(b, available)
			d.InconsistentBooks = append(d.InconsistentBooks, InconsistentBook{
				ID:        b.ID,
				ISBN:      b.ISBN,
				Title:     b.Title,
				Available: available,
			})
		}
	}

	if d.ActiveLoans, err = a.countLoans("returned_on IS NULL"); err != nil {
		return d, err
	}
	if d.OverdueLoans, err = a.countLoans("returned_on IS NULL AND due_on < ?", today); err != nil {
		return d, err
	}
	if d.LateReturns, err = a.countLoans("(returned_on IS NULL AND due_on < ?) OR (returned_on IS NOT NULL AND returned_on > due_on)", today); err != nil {
		return d, err
	}
	if d.StatusBreakdown.Returned, err = a.countLoans("returned_on IS NOT NULL"); err != nil {
		return d, err
	}
	d.StatusBreakdown.Late = d.OverdueLoans
	d.StatusBreakdown.Active = d.ActiveLoans - d.OverdueLoans

	if err := a.DB.Model(&database.Student{}).Where("active = ?", true).Count(&d.ActiveStudents).Error; err != nil {
		return d, errors.Wrap(err, "counting active students")
	}

	if d.Last7Days, err = a.borrowHistogram(today); err != nil {
		return d, err
	}

	var recent []database.Loan
	if err := a.DB.Preload("Student").Preload("Book").Preload("Book.Author").
		Order("borrowed_on DESC, id DESC").
		Limit(recentLoansCount).
		Find(&recent).Error; err != nil {
		return d, errors.Wrap(err, "finding recent loans")
	}
	d.RecentLoans = a.loanInfos(recent)

	return d, nil
}

// borrowHistogram counts the loans borrowed on each of the last 7 days,
// oldest first, today included
func (a *App) borrowHistogram(today time.Time) ([]DayCount, error) {
	start := today.AddDate(0, 0, -(histogramDays - 1))

	var dates []time.Time
	if err := a.DB.Model(&database.Loan{}).
		Where("borrowed_on >= ? AND borrowed_on < ?", start, today.AddDate(0, 0, 1)).
		Pluck("borrowed_on", &dates).Error; err != nil {
		return nil, errors.Wrap(err, "finding recent borrow dates")
	}

	perDay := map[time.Time]int{}
	for _, d := range dates {
		perDay[clock.Date(d)]++
	}

	ret := make([]DayCount, histogramDays)
	for i := range ret {
		day := start.AddDate(0, 0, i)
		ret[i] = DayCount{Date: day, Count: perDay[day]}
	}

	return ret, nil
}
