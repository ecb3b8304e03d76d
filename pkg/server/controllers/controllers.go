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

// Package controllers implements the HTTP handlers of the JSON API
package controllers

import (
	"github.com/campuslib/campuslib/pkg/server/app"
)

// Controllers is a group of controllers
type Controllers struct {
	Librarians *Librarians
	Dashboard  *Dashboard
	Books      *Books
	Categories *Categories
	Students   *Students
	Loans      *Loans
	History    *History
	Transfers  *Transfers
	Health     *Health
}

// New returns a new group of controllers
func New(app *app.App) *Controllers {
	c := Controllers{}

	c.Librarians = NewLibrarians(app)
	c.Dashboard = NewDashboard(app)
	c.Books = NewBooks(app)
	c.Categories = NewCategories(app)
	c.Students = NewStudents(app)
	c.Loans = NewLoans(app)
	c.History = NewHistory(app)
	c.Transfers = NewTransfers(app)
	c.Health = NewHealth(app)

	return &c
}
