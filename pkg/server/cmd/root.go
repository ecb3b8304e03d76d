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

// Package cmd provides the command line interface of the campuslib server
package cmd

import (
	"github.com/campuslib/campuslib/pkg/server/config"
	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	configFile string
	dbDriver   string
	dbPath     string
	dbDSN      string
	logLevel   string
}

func (f globalFlags) params() config.Params {
	return config.Params{
		ConfigFile: f.configFile,
		DBDriver:   f.dbDriver,
		DBPath:     f.dbPath,
		DBDSN:      f.dbDSN,
		LogLevel:   f.logLevel,
	}
}

// NewRoot returns the root command with every subcommand registered
func NewRoot() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "campuslib",
		Short:         "Campuslib - the loan desk of a campus library",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "path to the YAML configuration file (env: CONFIG_FILE)")
	pf.StringVar(&flags.dbDriver, "dbDriver", "", "database driver, sqlite or postgres (env: DB_DRIVER, default: sqlite)")
	pf.StringVar(&flags.dbPath, "dbPath", "", "path to the SQLite database file (env: DB_PATH)")
	pf.StringVar(&flags.dbDSN, "dbDSN", "", "postgres connection string (env: DB_DSN)")
	pf.StringVar(&flags.logLevel, "logLevel", "", "log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")

	root.AddCommand(
		newStartCmd(&flags),
		newLibrarianCmd(&flags),
		newImportCmd(&flags),
		newExportCmd(&flags),
		newLoansCmd(&flags),
		newVersionCmd(),
	)

	return root
}

// Execute runs the main command
func Execute() error {
	return NewRoot().Execute()
}
