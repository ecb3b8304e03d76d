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
	"time"

	"github.com/campuslib/campuslib/pkg/clock"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ActivityTimeLayout is the timestamp format of the exported activity log
const ActivityTimeLayout = "02/01/2006 15:04"

// activityColumns is the column order of the exported activity log
var activityColumns = []string{"timestamp", "action", "title", "description", "subject", "performed_by"}

// ActivityParams is the content of an activity entry
type ActivityParams struct {
	Action      string
	Title       string
	Description string
	Subject     string
}

// appendActivity records a mutation. It must run in the transaction of the
// mutation so that both are committed or rolled back together.
func (a *App) appendActivity(tx *gorm.DB, actor *database.Librarian, p ActivityParams) (database.ActivityLog, error) {
	if p.Title == "" {
		return database.ActivityLog{}, invalid("title", "is required")
	}
	if !isAction(p.Action) {
		return database.ActivityLog{}, invalid("action", "'%s' is not a known action", p.Action)
	}

	entry := database.ActivityLog{
		Action:      p.Action,
		Title:       p.Title,
		Description: p.Description,
		Subject:     p.Subject,
		CreatedAt:   a.Clock.Now().UTC(),
	}
	if actor != nil {
		id := actor.ID
		entry.LibrarianID = &id
	}

	if err := tx.Omit("Librarian").Create(&entry).Error; err != nil {
		return database.ActivityLog{}, errors.Wrap(err, "inserting activity")
	}

	return entry, nil
}

func isAction(action string) bool {
	for _, a := range database.Actions {
		if a == action {
			return true
		}
	}

	return false
}

// ActivitiesParams filters the activity log. From and To are inclusive days.
type ActivitiesParams struct {
	Search  string
	Action  string
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

// ActivitiesResult is a page of the activity log
type ActivitiesResult struct {
	Activities []database.ActivityLog `json:"activities"`
	Pagination
}

func activitiesQuery(db *gorm.DB, p ActivitiesParams) *gorm.DB {
	q := db.Model(&database.ActivityLog{})

	if p.Search != "" {
		pattern := likePattern(p.Search)
		q = q.Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\' OR LOWER(subject) LIKE ? ESCAPE '\\'", pattern, pattern, pattern)
	}
	if p.Action != "" {
		q = q.Where("action = ?", p.Action)
	}
	if p.From != nil {
		q = q.Where("created_at >= ?", clock.Date(*p.From))
	}
	if p.To != nil {
		q = q.Where("created_at < ?", clock.Date(*p.To).AddDate(0, 0, 1))
	}

	return q
}

// GetActivities returns a page of the activity log, newest first
func (a *App) GetActivities(p ActivitiesParams) (ActivitiesResult, error) {
	if p.Action != "" && !isAction(p.Action) {
		return ActivitiesResult{}, invalid("action", "'%s' is not a known action", p.Action)
	}

	perPage := p.PerPage
	if perPage <= 0 {
		perPage = a.pageSize()
	}

	var total int64
	if err := activitiesQuery(a.DB, p).Count(&total).Error; err != nil {
		return ActivitiesResult{}, errors.Wrap(err, "counting activities")
	}

	pg := newPagination(p.Page, perPage, total)

	var activities []database.ActivityLog
	if err := activitiesQuery(a.DB, p).
		Preload("Librarian").
		Order("created_at DESC, id DESC").
		Scopes(pg.scope).
		Find(&activities).Error; err != nil {
		return ActivitiesResult{}, errors.Wrap(err, "finding activities")
	}

	return ActivitiesResult{Activities: activities, Pagination: pg}, nil
}

// SystemPerformer names the performer of activities recorded without a
// librarian, such as command line imports
const SystemPerformer = "system"

func performerName(l *database.Librarian) string {
	if l == nil {
		return SystemPerformer
	}
	if l.FullName != "" {
		return l.FullName
	}

	return l.Email
}

// ExportActivities writes every activity matching the filters, newest first,
// in the given tabular format
func (a *App) ExportActivities(w io.Writer, format string, p ActivitiesParams) error {
	var activities []database.ActivityLog
	if err := activitiesQuery(a.DB, p).
		Preload("Librarian").
		Order("created_at DESC, id DESC").
		Find(&activities).Error; err != nil {
		return errors.Wrap(err, "finding activities")
	}

	rows := make([][]string, 0, len(activities)+1)
	rows = append(rows, activityColumns)
	for _, act := range activities {
		rows = append(rows, []string{
			act.CreatedAt.UTC().Format(ActivityTimeLayout),
			act.Action,
			act.Title,
			act.Description,
			act.Subject,
			performerName(act.Librarian),
		})
	}

	return tabular.Write(w, format, "history", rows)
}

// ExportActivitiesCSV writes the activity log as CSV
func (a *App) ExportActivitiesCSV(w io.Writer, p ActivitiesParams) error {
	return a.ExportActivities(w, tabular.FormatCSV, p)
}
