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
	"io/fs"
	"net/http"
	"strings"

	"github.com/campuslib/campuslib/pkg/server/database/migrations"
	"github.com/campuslib/campuslib/pkg/server/log"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"
)

// MigrationTableName is the name of the table that keeps track of migrations
const MigrationTableName = "schema_migrations"

// validateMigrationFilename checks if filename follows format: NNN-description.sql
func validateMigrationFilename(name string) error {
	if !strings.HasSuffix(name, ".sql") {
		return errors.Errorf("invalid migration filename %s: must end with .sql", name)
	}

	parts := strings.SplitN(strings.TrimSuffix(name, ".sql"), "-", 2)
	if len(parts) != 2 {
		return errors.Errorf("invalid migration filename %s: must be NNN-description.sql", name)
	}

	version, description := parts[0], parts[1]
	if len(version) != 3 {
		return errors.Errorf("invalid migration filename %s: version must be 3 digits", name)
	}
	for _, c := range version {
		if c < '0' || c > '9' {
			return errors.Errorf("invalid migration filename %s: version must be numeric", name)
		}
	}
	if description == "" {
		return errors.Errorf("invalid migration filename %s: description is required", name)
	}

	return nil
}

// validateMigrationFiles rejects badly named or duplicated migration files
func validateMigrationFiles(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return errors.Wrap(err, "reading migration directory")
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		if err := validateMigrationFilename(name); err != nil {
			return err
		}

		version := name[:3]
		if existing, found := seen[version]; found {
			return errors.Errorf("duplicate migration version %s: %s and %s", version, existing, name)
		}
		seen[version] = name
	}

	return nil
}

// sqlMigrateDialect returns the sql-migrate dialect of the connection
func sqlMigrateDialect(db *gorm.DB) string {
	if IsPostgres(db) {
		return "postgres"
	}

	return "sqlite3"
}

// Migrate runs the embedded migrations
func Migrate(db *gorm.DB) error {
	return migrateFS(db, migrations.Files)
}

func migrateFS(db *gorm.DB, fsys fs.FS) error {
	if err := validateMigrationFiles(fsys); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "getting the sql connection")
	}

	set := migrate.MigrationSet{TableName: MigrationTableName}
	src := &migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(fsys)}

	n, err := set.Exec(sqlDB, sqlMigrateDialect(db), src, migrate.Up)
	if err != nil {
		return errors.Wrap(err, "applying migrations")
	}

	log.WithFields(log.Fields{
		"applied": n,
	}).Info("Database migrated.")

	return nil
}
