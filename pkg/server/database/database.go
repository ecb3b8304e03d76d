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

package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/campuslib/campuslib/pkg/server/log"
	_ "github.com/lib/pq" // registers the postgres database/sql driver used by gorm
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnsupportedDriver is returned when the configured driver is neither sqlite nor postgres
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// OpenParams are the parameters for opening a database connection
type OpenParams struct {
	// Driver is either DriverSQLite or DriverPostgres
	Driver string
	// Path is the sqlite database file
	Path string
	// DSN is the postgres connection string
	DSN string
	// LogLevel is the application log level the gorm logger follows
	LogLevel string
}

// getDBLogLevel maps the application log level to the gorm log level
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

// sqliteDSN appends the connection options used for every sqlite database
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return path + sep + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

func dialector(p OpenParams) (gorm.Dialector, error) {
	switch p.Driver {
	case DriverSQLite, "":
		if p.Path == "" {
			return nil, errors.New("sqlite path is empty")
		}
		if !strings.HasPrefix(p.Path, "file:") && p.Path != ":memory:" {
			dir := filepath.Dir(p.Path)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, errors.Wrapf(err, "creating database directory at %s", dir)
			}
		}

		return sqlite.Open(sqliteDSN(p.Path)), nil
	case DriverPostgres:
		if p.DSN == "" {
			return nil, errors.New("postgres DSN is empty")
		}

		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        p.DSN,
		}), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "'%s'", p.Driver)
	}
}

// Open initializes the database connection
func Open(p OpenParams) (*gorm.DB, error) {
	d, err := dialector(p)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:         logger.Default.LogMode(getDBLogLevel(p.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database connection")
	}

	return db, nil
}

// InitSchema migrates database schema to reflect the latest model definition
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Librarian{},
		&Session{},
		&Author{},
		&Publisher{},
		&Category{},
		&Book{},
		&School{},
		&Student{},
		&Loan{},
		&ActivityLog{},
	); err != nil {
		return errors.Wrap(err, "auto-migrating models")
	}

	return nil
}

// Setup initializes the schema and applies the SQL migrations
func Setup(db *gorm.DB) error {
	if err := InitSchema(db); err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return errors.Wrap(err, "running migrations")
	}

	return nil
}

// IsPostgres reports whether the connection talks to postgres
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == DriverPostgres
}
