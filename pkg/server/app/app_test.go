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

package app

import (
	"testing"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/campuslib/campuslib/pkg/clock"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/testutils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// newTestApp returns a test app backed by a fresh in-memory database
func newTestApp(t *testing.T) (App, *clock.Mock) {
	c := clock.NewMock()

	a := NewTest()
	a.DB = testutils.InitMemoryDB(t)
	a.Clock = c

	return a, c
}

func countActivities(t *testing.T, db *gorm.DB) int64 {
	var count int64
	if err := db.Model(&database.ActivityLog{}).Count(&count).Error; err != nil {
		t.Fatal(errors.Wrap(err, "counting activities"))
	}

	return count
}

func lastActivity(t *testing.T, db *gorm.DB) database.ActivityLog {
	var entry database.ActivityLog
	if err := db.Order("id DESC").First(&entry).Error; err != nil {
		t.Fatal(errors.Wrap(err, "finding last activity"))
	}

	return entry
}

func TestValidate(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	testCases := []struct {
		name        string
		app         App
		expectedErr error
	}{
		{
			name:        "complete",
			app:         App{DB: db, Clock: clock.NewMock(), EmailBackend: &testutils.MockEmailbackendImplementation{}},
			expectedErr: nil,
		},
		{
			name:        "missing db",
			app:         App{Clock: clock.NewMock(), EmailBackend: &testutils.MockEmailbackendImplementation{}},
			expectedErr: ErrEmptyDB,
		},
		{
			name:        "missing clock",
			app:         App{DB: db, EmailBackend: &testutils.MockEmailbackendImplementation{}},
			expectedErr: ErrEmptyClock,
		},
		{
			name:        "missing email backend",
			app:         App{DB: db, Clock: clock.NewMock()},
			expectedErr: ErrEmptyEmailBackend,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.app.Validate()

			assert.Equal(t, err, tc.expectedErr, "error mismatch")
		})
	}
}

func TestWithTxRollsBack(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.withTx(func(tx *gorm.DB) error {
		if _, err := FindOrCreateSchool(tx, "ENI"); err != nil {
			return err
		}

		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.School{}).Count(&count), "counting schools")
	assert.Equal(t, count, int64(0), "school should have been rolled back")
}

func TestErrorKinds(t *testing.T) {
	wrapped := errors.Wrap(notFound("book", 42), "finding book")
	assert.ErrorIs(t, wrapped, ErrNotFound, "not found should match through wrapping")
	assert.Equal(t, notFound("book", 42).Error(), "book '42' not found", "message mismatch")

	assert.ErrorIs(t, invalid("year", "too old"), ErrValidation, "validation kind mismatch")
	assert.ErrorIs(t, &UniqueConstraintError{Resource: "category", Field: "slug", Value: "x"}, ErrDuplicate, "duplicate kind mismatch")
	assert.ErrorIs(t, &InconsistentStateError{ISBN: "1", Available: -1}, ErrInconsistentState, "inconsistent kind mismatch")

	importErr := &ImportError{Row: 2, Err: invalid("quantity", "'abc' is not an integer")}
	assert.ErrorIs(t, importErr, ErrValidation, "import error should unwrap to its cause")
	assert.Equal(t, importErr.Error(), "row 2: quantity: 'abc' is not an integer", "import message mismatch")
}
