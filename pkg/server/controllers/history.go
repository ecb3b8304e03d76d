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
	"net/http"

	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/presenters"
	"github.com/campuslib/campuslib/pkg/server/tabular"
)

// NewHistory creates a new History controller.
func NewHistory(app *app.App) *History {
	return &History{app: app}
}

// History serves the activity log
type History struct {
	app *app.App
}

type historyQuery struct {
	Search  string `schema:"q"`
	Action  string `schema:"action"`
	From    string `schema:"from"`
	To      string `schema:"to"`
	Page    int    `schema:"page"`
	PerPage int    `schema:"per_page"`
	Format  string `schema:"format"`
}

func (q historyQuery) params() (app.ActivitiesParams, error) {
	from, err := parseDatePtr("from", q.From)
	if err != nil {
		return app.ActivitiesParams{}, err
	}
	to, err := parseDatePtr("to", q.To)
	if err != nil {
		return app.ActivitiesParams{}, err
	}

	return app.ActivitiesParams{
		Search:  q.Search,
		Action:  q.Action,
		From:    from,
		To:      to,
		Page:    q.Page,
		PerPage: q.PerPage,
	}, nil
}

func parseHistoryQuery(r *http.Request) (historyQuery, app.ActivitiesParams, error) {
	var q historyQuery
	if err := parseQuery(r, &q); err != nil {
		return q, app.ActivitiesParams{}, err
	}

	p, err := q.params()
	return q, p, err
}

// Index handles GET /api/history
func (h *History) Index(w http.ResponseWriter, r *http.Request) {
	_, p, err := parseHistoryQuery(r)
	if err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	res, err := h.app.GetActivities(p)
	if err != nil {
		handleJSONError(w, err, "finding activities")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentActivityPage(res))
}

// Export handles GET /api/history/export. The format defaults to csv.
func (h *History) Export(w http.ResponseWriter, r *http.Request) {
	q, p, err := parseHistoryQuery(r)
	if err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	format := q.Format
	if format == "" {
		format = tabular.FormatCSV
	}

	var buf bytes.Buffer
	if err := h.app.ExportActivities(&buf, format, p); err != nil {
		handleJSONError(w, err, "exporting activities")
		return
	}

	respondFile(w, "history", format, buf.Bytes())
}
