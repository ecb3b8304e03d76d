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
	"time"

	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/database"
)

// Activity is a result of PresentActivities
type Activity struct {
	ID          int       `json:"id"`
	Action      string    `json:"action"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	PerformedBy string    `json:"performed_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// PresentActivity presents an activity entry
func PresentActivity(a database.ActivityLog) Activity {
	ret := Activity{
		ID:          a.ID,
		Action:      a.Action,
		Title:       a.Title,
		Description: a.Description,
		Subject:     a.Subject,
		PerformedBy: app.SystemPerformer,
		CreatedAt:   FormatTS(a.CreatedAt),
	}
	if a.Librarian != nil {
		ret.PerformedBy = a.Librarian.Email
	}

	return ret
}

// ActivityPage is a page of the activity log
type ActivityPage struct {
	Activities []Activity `json:"activities"`
	Page
}

// PresentActivityPage presents a page of the activity log
func PresentActivityPage(res app.ActivitiesResult) ActivityPage {
	activities := []Activity{}
	for _, a := range res.Activities {
		activities = append(activities, PresentActivity(a))
	}

	return ActivityPage{Activities: activities, Page: PresentPage(res.Pagination)}
}
