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

// Package config resolves the server configuration from flags, the
// environment, an optional .env file and an optional YAML file
package config

import (
	"os"
	"strconv"

	"github.com/campuslib/campuslib/pkg/dirs"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// AppEnvTest represents an app environment for automated tests. Rate
	// limiting is disabled in it.
	AppEnvTest string = "TEST"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"
	// DefaultConfigFilename is the default YAML configuration filename
	DefaultConfigFilename = "config.yml"
	// DefaultPageSize is the number of rows in a listing page
	DefaultPageSize = 10
	// DefaultLoanDays is the loan duration used when no due date is given
	DefaultLoanDays = 14
	// DefaultSessionDays is the lifetime of a librarian session
	DefaultSessionDays = 30
	// DefaultMailFrom is the sender of notices
	DefaultMailFrom = "Campuslib <noreply@campuslib.local>"
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrDBMissingDSN is an error for a postgres configuration without a DSN
	ErrDBMissingDSN = errors.New("DB DSN is empty")
	// ErrDBDriverInvalid is an error for an unknown database driver
	ErrDBDriverInvalid = errors.New("Invalid DB driver")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrPageSizeInvalid is an error for a non-positive page size
	ErrPageSizeInvalid = errors.New("Invalid page size")
	// ErrLoanDaysInvalid is an error for a non-positive loan duration
	ErrLoanDaysInvalid = errors.New("Invalid loan duration")
)

// Config is an application configuration
type Config struct {
	AppEnv      string
	Port        string
	DBDriver    string
	DBPath      string
	DBDSN       string
	LogLevel    string
	PageSize    int
	LoanDays    int
	SessionDays int
	MailFrom    string
}

// Params are the configuration parameters for creating a new Config.
// Zero values fall back to the environment, then the YAML file, then defaults.
type Params struct {
	AppEnv      string
	Port        string
	DBDriver    string
	DBPath      string
	DBDSN       string
	LogLevel    string
	PageSize    int
	LoanDays    int
	SessionDays int
	MailFrom    string
	// ConfigFile is the YAML file to read. A missing file is ignored.
	ConfigFile string
}

// fileConfig is the layout of the YAML configuration file
type fileConfig struct {
	AppEnv string `yaml:"app_env"`
	Port   string `yaml:"port"`
	DB     struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		DSN    string `yaml:"dsn"`
	} `yaml:"db"`
	LogLevel    string `yaml:"log_level"`
	PageSize    int    `yaml:"page_size"`
	LoanDays    int    `yaml:"loan_days"`
	SessionDays int    `yaml:"session_days"`
	MailFrom    string `yaml:"mail_from"`
}

// LoadEnvFile loads variables from a .env file into the environment without
// overriding the ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	return nil
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fc, nil
	}
	if err != nil {
		return fc, errors.Wrapf(err, "reading %s", path)
	}

	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, errors.Wrapf(err, "parsing %s", path)
	}

	return fc, nil
}

// firstString returns the first non-empty value
func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

// firstInt returns the first positive value
func firstInt(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}

	return 0
}

func intEnv(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", key)
	}

	return n, nil
}

// New constructs and returns a new validated config.
func New(p Params) (Config, error) {
	path := firstString(p.ConfigFile, os.Getenv("CONFIG_FILE"), dirs.ConfigPath(DefaultConfigFilename))
	fc, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	pageSize, err := intEnv("PAGE_SIZE")
	if err != nil {
		return Config{}, err
	}
	loanDays, err := intEnv("LOAN_DAYS")
	if err != nil {
		return Config{}, err
	}
	sessionDays, err := intEnv("SESSION_DAYS")
	if err != nil {
		return Config{}, err
	}

	c := Config{
		AppEnv:      firstString(p.AppEnv, os.Getenv("APP_ENV"), fc.AppEnv, AppEnvProduction),
		Port:        firstString(p.Port, os.Getenv("PORT"), fc.Port, "3001"),
		DBDriver:    firstString(p.DBDriver, os.Getenv("DB_DRIVER"), fc.DB.Driver, database.DriverSQLite),
		DBPath:      firstString(p.DBPath, os.Getenv("DB_PATH"), fc.DB.Path, dirs.DataPath(DefaultDBFilename)),
		DBDSN:       firstString(p.DBDSN, os.Getenv("DB_DSN"), fc.DB.DSN),
		LogLevel:    firstString(p.LogLevel, os.Getenv("LOG_LEVEL"), fc.LogLevel, "info"),
		PageSize:    firstInt(p.PageSize, pageSize, fc.PageSize, DefaultPageSize),
		LoanDays:    firstInt(p.LoanDays, loanDays, fc.LoanDays, DefaultLoanDays),
		SessionDays: firstInt(p.SessionDays, sessionDays, fc.SessionDays, DefaultSessionDays),
		MailFrom:    firstString(p.MailFrom, os.Getenv("MAIL_FROM"), fc.MailFrom, DefaultMailFrom),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// IsTest checks if the app environment is the test environment
func (c Config) IsTest() bool {
	return c.AppEnv == AppEnvTest
}

// OpenParams returns the parameters to open the configured database
func (c Config) OpenParams() database.OpenParams {
	return database.OpenParams{
		Driver:   c.DBDriver,
		Path:     c.DBPath,
		DSN:      c.DBDSN,
		LogLevel: c.LogLevel,
	}
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.Wrapf(ErrPortInvalid, "'%s'", c.Port)
	}

	switch c.DBDriver {
	case database.DriverSQLite:
		if c.DBPath == "" {
			return ErrDBMissingPath
		}
	case database.DriverPostgres:
		if c.DBDSN == "" {
			return ErrDBMissingDSN
		}
	default:
		return errors.Wrapf(ErrDBDriverInvalid, "'%s'", c.DBDriver)
	}

	if c.PageSize <= 0 {
		return ErrPageSizeInvalid
	}
	if c.LoanDays <= 0 {
		return ErrLoanDaysInvalid
	}

	return nil
}
