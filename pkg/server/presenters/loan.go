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

// LoanBook is the book of a loan
type LoanBook struct {
	ID     int    `json:"id"`
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// LoanStudent is the borrower of a loan
type LoanStudent struct {
	Matricule string `json:"matricule"`
	FullName  string `json:"full_name"`
}

// Loan is a result of PresentLoans
type Loan struct {
	ID           int         `json:"id"`
	Student      LoanStudent `json:"student"`
	Book         LoanBook    `json:"book"`
	BorrowedOn   string      `json:"borrowed_on"`
	DueOn        string      `json:"due_on"`
	ReturnedOn   *string     `json:"returned_on"`
	DurationDays int         `json:"duration_days"`
	Status       string      `json:"status"`
	Overdue      bool        `json:"overdue"`
	DaysLate     int         `json:"days_late"`
	Condition    string      `json:"condition"`
	Observation  string      `json:"observation"`
}

// PresentLoan presents a loan with its derived lateness
func PresentLoan(l app.LoanInfo) Loan {
	return Loan{
		ID: l.ID,
		Student: LoanStudent{
			Matricule: l.Student.Matricule,
			FullName:  l.Student.FullName(),
		},
		Book: LoanBook{
			ID:     l.Book.ID,
			ISBN:   l.Book.ISBN,
			Title:  l.Book.Title,
			Author: l.Book.Author.Name,
		},
		BorrowedOn:   FormatDate(l.BorrowedOn),
		DueOn:        FormatDate(l.DueOn),
		ReturnedOn:   FormatDatePtr(l.ReturnedOn),
		DurationDays: l.DurationDays,
		Status:       l.Status,
		Overdue:      l.Overdue,
		DaysLate:     l.DaysLate,
		Condition:    l.Condition,
		Observation:  l.Observation,
	}
}

// PresentLoans presents loans
func PresentLoans(loans []app.LoanInfo) []Loan {
	ret := []Loan{}

	for _, l := range loans {
		ret = append(ret, PresentLoan(l))
	}

	return ret
}

// LoanPage is a page of loans
type LoanPage struct {
	Loans []Loan `json:"loans"`
	Page
}

// PresentLoanPage presents a page of loans
func PresentLoanPage(res app.LoansResult) LoanPage {
	return LoanPage{Loans: PresentLoans(res.Loans), Page: PresentPage(res.Pagination)}
}
