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
)

// NewLoans creates a new Loans controller.
func NewLoans(app *app.App) *Loans {
	return &Loans{app: app}
}

// Loans handles loans and returns
type Loans struct {
	app *app.App
}

type loansQuery struct {
	Search string `schema:"q"`
	Status string `schema:"status"`
	Page   int    `schema:"page"`
}

type loanPayload struct {
	Matricule  string `json:"matricule"`
	ISBN       string `json:"isbn"`
	BorrowedOn string `json:"borrowed_on"`
	DueOn      string `json:"due_on"`
	Notes      string `json:"notes"`
}

type returnPayload struct {
	ReturnedOn string `json:"returned_on"`
	Condition  string `json:"condition"`
	Notes      string `json:"notes"`
}

// Index handles GET /api/loans
func (l *Loans) Index(w http.ResponseWriter, r *http.Request) {
	var q loansQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	res, err := l.app.ListLoans(app.LoansParams{Search: q.Search, Status: q.Status, Page: q.Page})
	if err != nil {
		handleJSONError(w, err, "finding loans")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoanPage(res))
}

// Overdue handles GET /api/loans/overdue
func (l *Loans) Overdue(w http.ResponseWriter, r *http.Request) {
	loans, err := l.app.GetOverdueLoans()
	if err != nil {
		handleJSONError(w, err, "finding overdue loans")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoans(loans))
}

// Show handles GET /api/loans/{id}
func (l *Loans) Show(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	loan, err := l.app.GetLoan(id)
	if err != nil {
		handleJSONError(w, err, "finding loan")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoan(l.app.LoanInfo(loan)))
}

// Create handles POST /api/loans. A missing borrowed_on means today and a
// missing due_on means the default loan duration.
func (l *Loans) Create(w http.ResponseWriter, r *http.Request) {
	var payload loanPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}
	borrowedOn, err := parseDate("borrowed_on", payload.BorrowedOn)
	if err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}
	dueOn, err := parseDate("due_on", payload.DueOn)
	if err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	loan, err := l.app.CreateLoan(context.Librarian(r.Context()), app.LoanParams{
		Matricule:  payload.Matricule,
		ISBN:       payload.ISBN,
		BorrowedOn: borrowedOn,
		DueOn:      dueOn,
		Notes:      payload.Notes,
	})
	if err != nil {
		handleJSONError(w, err, "creating loan")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentLoan(l.app.LoanInfo(loan)))
}

// Return handles POST /api/loans/{id}/return
func (l *Loans) Return(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	var payload returnPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}
	returnedOn, err := parseDate("returned_on", payload.ReturnedOn)
	if err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	loan, err := l.app.RecordReturn(context.Librarian(r.Context()), id, app.ReturnParams{
		ReturnedOn: returnedOn,
		Condition:  payload.Condition,
		Notes:      payload.Notes,
	})
	if err != nil {
		handleJSONError(w, err, "recording return")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoan(l.app.LoanInfo(loan)))
}

// Delete handles DELETE /api/loans/{id}
func (l *Loans) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		handleJSONError(w, err, "parsing id")
		return
	}

	if err := l.app.DeleteLoan(context.Librarian(r.Context()), id); err != nil {
		handleJSONError(w, err, "deleting loan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
