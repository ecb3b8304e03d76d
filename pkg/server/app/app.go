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

// Package app implements the library operations: catalog, borrowers, loans,
// the activity log, the dashboard and bulk imports
package app

import (
	"github.com/campuslib/campuslib/pkg/clock"
	"github.com/campuslib/campuslib/pkg/server/config"
	"github.com/campuslib/campuslib/pkg/server/mailer"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrEmptyDB is an error for missing database connection in the app configuration
	ErrEmptyDB = errors.New("No database connection was provided")
	// ErrEmptyClock is an error for missing clock in the app configuration
	ErrEmptyClock = errors.New("No clock was provided")
	// ErrEmptyEmailBackend is an error for missing EmailBackend content in the app configuration
	ErrEmptyEmailBackend = errors.New("No EmailBackend was provided")
)

// App is an application context
type App struct {
	DB           *gorm.DB
	Clock        clock.Clock
	EmailBackend mailer.Backend
	Config       config.Config
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.Clock == nil {
		return ErrEmptyClock
	}
	if a.EmailBackend == nil {
		return ErrEmptyEmailBackend
	}
	if a.DB == nil {
		return ErrEmptyDB
	}

	return nil
}

func (a *App) pageSize() int {
	if a.Config.PageSize > 0 {
		return a.Config.PageSize
	}

	return config.DefaultPageSize
}

func (a *App) loanDays() int {
	if a.Config.LoanDays > 0 {
		return a.Config.LoanDays
	}

	return config.DefaultLoanDays
}

func (a *App) sessionDays() int {
	if a.Config.SessionDays > 0 {
		return a.Config.SessionDays
	}

	return config.DefaultSessionDays
}

// withTx runs fn inside a transaction. The transaction is committed only if fn
// returns no error.
func (a *App) withTx(fn func(tx *gorm.DB) error) error {
	tx := a.DB.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "beginning a transaction")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}
