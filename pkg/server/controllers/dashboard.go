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
	"github.com/campuslib/campuslib/pkg/server/presenters"
)

// NewDashboard creates a new Dashboard controller.
func NewDashboard(app *app.App) *Dashboard {
	return &Dashboard{app: app}
}

// Dashboard is a dashboard controller.
type Dashboard struct {
	app *app.App
}

// Show handles GET /api/dashboard
func (d *Dashboard) Show(w http.ResponseWriter, r *http.Request) {
	dashboard, err := d.app.GetDashboard()
	if err != nil {
		handleJSONError(w, err, "computing dashboard")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentDashboard(dashboard))
}
