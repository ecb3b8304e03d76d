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

package cmd

import (
	"github.com/campuslib/campuslib/pkg/clock"
	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/config"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/log"
	"github.com/campuslib/campuslib/pkg/server/mailer"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func initDB(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.OpenParams())
	if err != nil {
		return nil, err
	}
	if err := database.Setup(db); err != nil {
		return nil, errors.Wrap(err, "setting up database")
	}

	return db, nil
}

func initApp(cfg config.Config) (app.App, error) {
	db, err := initDB(cfg)
	if err != nil {
		return app.App{}, err
	}

	emailBackend, err := mailer.NewBackend()
	if err != nil {
		return app.App{}, errors.Wrap(err, "initializing email backend")
	}

	return app.App{
		DB:           db,
		Clock:        clock.New(),
		EmailBackend: emailBackend,
		Config:       cfg,
	}, nil
}

// setupApp loads the configuration and returns an app along with a function
// releasing its database connection
func setupApp(p config.Params) (*app.App, func(), error) {
	if err := config.LoadEnvFile(".env"); err != nil {
		return nil, nil, err
	}

	cfg, err := config.New(p)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading configuration")
	}
	log.SetLevel(cfg.LogLevel)

	a, err := initApp(cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		sqlDB, err := a.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return &a, cleanup, nil
}

// findActor returns the librarian of the given email, or nil for an empty
// email. Mutations without an actor are logged as performed by the system.
func findActor(a *app.App, email string) (*database.Librarian, error) {
	if email == "" {
		return nil, nil
	}

	librarian, err := a.GetLibrarianByEmail(email)
	if err != nil {
		return nil, errors.Wrapf(err, "finding librarian %s", email)
	}

	return &librarian, nil
}
