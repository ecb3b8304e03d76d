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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testServerBinary string

func init() {
	// Build server binary in temp directory
	testServerBinary = filepath.Join(os.TempDir(), "campuslib-test-server")
	buildCmd := exec.Command("go", "build", "-o", testServerBinary, "../server")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		panic(fmt.Sprintf("failed to build server: %v\n%s", err, out))
	}
}

// serverEnv isolates a server process from the configuration of the host
func serverEnv(dir string) []string {
	return append(os.Environ(),
		"DB_DRIVER=sqlite",
		"DB_PATH="+filepath.Join(dir, "test.db"),
		"CONFIG_FILE="+filepath.Join(dir, "missing.yml"),
		"APP_ENV=TEST",
	)
}

func runServerCmd(t *testing.T, dir string, args ...string) string {
	cmd := exec.Command(testServerBinary, args...)
	cmd.Env = serverEnv(dir)

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s failed: %v\nOutput: %s", strings.Join(args, " "), err, output)
	}

	return string(output)
}

// startServer runs the server on port until the test ends
func startServer(t *testing.T, dir, port string) string {
	cmd := exec.Command(testServerBinary, "start", "--port", port)
	cmd.Env = serverEnv(dir)
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	})

	endpoint := fmt.Sprintf("http://localhost:%s", port)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		res, err := http.Get(endpoint + "/health")
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				return endpoint
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatal("server did not become healthy")
	return ""
}

func doJSON(t *testing.T, method, url, key, body string, expectedStatus int, v interface{}) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(errors.Wrap(err, "constructing request"))
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "%s %s", method, url))
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading body"))
	}
	if res.StatusCode != expectedStatus {
		t.Fatalf("%s %s: got %d want %d. Body: %s", method, url, res.StatusCode, expectedStatus, b)
	}

	if v != nil {
		if err := json.Unmarshal(b, v); err != nil {
			t.Fatal(errors.Wrap(err, "decoding body"))
		}
	}
}

func TestServerStart(t *testing.T) {
	dir := t.TempDir()
	startServer(t, dir, "13456")

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM schema_migrations").Scan(&count).Error; err != nil {
		t.Fatalf("schema_migrations table not found: %v", err)
	}
	if count == 0 {
		t.Fatal("no migrations were run")
	}
}

func TestLoanDesk(t *testing.T) {
	dir := t.TempDir()
	runServerCmd(t, dir, "librarian", "create", "--email", "desk@library.test", "--password", "password123")
	endpoint := startServer(t, dir, "13457")

	var session struct {
		Key string `json:"key"`
	}
	doJSON(t, "POST", endpoint+"/api/signin", "", `{"email":"desk@library.test","password":"password123"}`, http.StatusOK, &session)
	key := session.Key

	doJSON(t, "POST", endpoint+"/api/books", key,
		`{"isbn":"9782070360024","title":"L'Étranger","language":"fr","quantity":1,"pages":185,"publisher":"gallimard","author":"albert camus","category":"Roman"}`,
		http.StatusCreated, nil)
	doJSON(t, "POST", endpoint+"/api/students", key,
		`{"matricule":"E001","last_name":"Rakoto","first_names":"Hery","birth_date":"2001-03-14","phone":"+261341234567","personal_email":"hery@mail.test","institutional_email":"hery@school.test","school":"ENI"}`,
		http.StatusCreated, nil)

	var loan struct {
		ID int `json:"id"`
	}
	doJSON(t, "POST", endpoint+"/api/loans", key, `{"matricule":"E001","isbn":"9782070360024"}`, http.StatusCreated, &loan)
	doJSON(t, "POST", endpoint+"/api/loans", key, `{"matricule":"E001","isbn":"9782070360024"}`, http.StatusConflict, nil)

	var dashboard struct {
		TotalBorrowed int `json:"total_borrowed"`
	}
	doJSON(t, "GET", endpoint+"/api/dashboard", key, "", http.StatusOK, &dashboard)
	assert.Equal(t, dashboard.TotalBorrowed, 1, "borrowed mismatch")

	doJSON(t, "POST", fmt.Sprintf("%s/api/loans/%d/return", endpoint, loan.ID), key, `{"condition":"good"}`, http.StatusOK, nil)

	var history struct {
		Total int `json:"total"`
	}
	doJSON(t, "GET", endpoint+"/api/history", key, "", http.StatusOK, &history)
	assert.Equal(t, history.Total >= 4, true, "every mutation should be in the history")

	doJSON(t, "POST", endpoint+"/api/signout", key, "", http.StatusNoContent, nil)
	doJSON(t, "GET", endpoint+"/api/me", key, "", http.StatusUnauthorized, nil)
}

func TestServerVersion(t *testing.T) {
	output := runServerCmd(t, t.TempDir(), "version")
	assert.Equal(t, strings.HasPrefix(output, "campuslib-"), true, "version output mismatch")
}

func TestServerRootCommand(t *testing.T) {
	output := runServerCmd(t, t.TempDir(), "--help")

	assert.Equal(t, strings.Contains(output, "Campuslib - the loan desk of a campus library"), true, "output should contain description")
	for _, name := range []string{"start", "librarian", "import", "export", "loans", "version"} {
		assert.Equal(t, strings.Contains(output, name), true, fmt.Sprintf("output should list %s", name))
	}
}

func TestServerUnknownCommand(t *testing.T) {
	cmd := exec.Command(testServerBinary, "unknown")
	cmd.Env = serverEnv(t.TempDir())
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Fatal("expected command to fail with unknown command")
	}
	assert.Equal(t, strings.Contains(string(output), "unknown command"), true, "output should contain unknown command message")
}

func TestServerStartInvalidConfig(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start", "--port", "not-a-port")
	cmd.Env = serverEnv(t.TempDir())
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Fatal("expected command to fail with invalid config")
	}
	assert.Equal(t, strings.Contains(string(output), "Invalid Port"), true, "output should mention the invalid port")
}

func TestServerLibrarianRemove(t *testing.T) {
	dir := t.TempDir()
	runServerCmd(t, dir, "librarian", "create", "--email", "desk@library.test", "--password", "password123")

	cmd := exec.Command(testServerBinary, "librarian", "remove", "--email", "desk@library.test")
	cmd.Env = serverEnv(dir)
	cmd.Stdin = strings.NewReader("y\n")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("librarian remove failed: %v\nOutput: %s", err, output)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	var count int64
	db.Table("librarians").Count(&count)
	assert.Equal(t, count, int64(0), "should have 0 librarians after removal")
}
