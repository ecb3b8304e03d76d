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
	"time"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestCreateLibrarian(t *testing.T) {
	a, _ := newTestApp(t)

	librarian, err := a.CreateLibrarian("  Desk@Library.TEST ", "password123", " Hery   Rabe ")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating librarian"))
	}

	assert.Equal(t, librarian.Email, "desk@library.test", "email should be normalized")
	assert.Equal(t, librarian.FullName, "Hery Rabe", "name mismatch")
	assert.NotEqual(t, librarian.Password, "password123", "password should be hashed")

	testCases := []struct {
		name        string
		email       string
		password    string
		expectedErr error
	}{
		{name: "duplicate", email: "DESK@library.test", password: "password123", expectedErr: ErrDuplicate},
		{name: "short password", email: "other@library.test", password: "short", expectedErr: ErrPasswordTooShort},
		{name: "missing email", email: " ", password: "password123", expectedErr: ErrEmailRequired},
		{name: "invalid email", email: "not-an-email", password: "password123", expectedErr: ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.CreateLibrarian(tc.email, tc.password, "")

			assert.ErrorIs(t, err, tc.expectedErr, "error mismatch")
		})
	}
}

func TestSignIn(t *testing.T) {
	a, _ := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")

	session, err := a.SignIn("DESK@library.test", "password123")
	if err != nil {
		t.Fatal(errors.Wrap(err, "signing in"))
	}
	assert.Equal(t, session.LibrarianID, librarian.ID, "session owner mismatch")
	assert.Equal(t, session.ExpiresAt.Equal(a.Clock.Now().Add(30*24*time.Hour)), true, "expiry mismatch")

	var stored database.Librarian
	testutils.MustExec(t, a.DB.First(&stored, librarian.ID), "finding librarian")
	assert.Equal(t, stored.LastLoginAt != nil, true, "last login should be recorded")

	t.Run("wrong password", func(t *testing.T) {
		_, err := a.SignIn("desk@library.test", "password124")

		assert.ErrorIs(t, err, ErrInvalidCredentials, "error mismatch")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := a.SignIn("nobody@library.test", "password123")

		assert.ErrorIs(t, err, ErrInvalidCredentials, "error mismatch")
	})
}

func TestGetSessionLibrarian(t *testing.T) {
	a, c := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")

	session, err := a.CreateSession(librarian.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating session"))
	}

	got, err := a.GetSessionLibrarian(session.Key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting session librarian"))
	}
	assert.Equal(t, got.ID, librarian.ID, "librarian mismatch")

	_, err = a.GetSessionLibrarian("")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "empty key should be rejected")
	_, err = a.GetSessionLibrarian("unknown")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown key should be rejected")

	c.Advance(31 * 24 * time.Hour)
	_, err = a.GetSessionLibrarian(session.Key)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "expired session should be rejected")

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Session{}).Count(&count), "counting sessions")
	assert.Equal(t, count, int64(0), "expired session should be deleted")
}

func TestSignOut(t *testing.T) {
	a, _ := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")
	session := testutils.SetupSession(a.DB, librarian)

	if err := a.SignOut(session.Key); err != nil {
		t.Fatal(errors.Wrap(err, "signing out"))
	}

	_, err := a.GetSessionLibrarian(session.Key)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "session should be gone")
}

func TestResetPassword(t *testing.T) {
	a, _ := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")
	testutils.SetupSession(a.DB, librarian)
	testutils.SetupSession(a.DB, librarian)

	if err := a.ResetPassword("desk@library.test", "newpassword"); err != nil {
		t.Fatal(errors.Wrap(err, "resetting password"))
	}

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Session{}).Where("librarian_id = ?", librarian.ID).Count(&count), "counting sessions")
	assert.Equal(t, count, int64(0), "sessions should be deleted")

	_, err := a.Authenticate("desk@library.test", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "old password should be rejected")
	_, err = a.Authenticate("desk@library.test", "newpassword")
	assert.NilError(t, err, "new password should be accepted")

	err = a.ResetPassword("desk@library.test", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort, "error mismatch")

	err = a.ResetPassword("nobody@library.test", "newpassword")
	assert.ErrorIs(t, err, ErrNotFound, "error mismatch")
}

func TestUpdatePassword(t *testing.T) {
	a, _ := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")

	err := a.UpdatePassword(librarian, "wrong-password", "newpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "error mismatch")

	if err := a.UpdatePassword(librarian, "password123", "newpassword"); err != nil {
		t.Fatal(errors.Wrap(err, "updating password"))
	}

	_, err = a.Authenticate("desk@library.test", "newpassword")
	assert.NilError(t, err, "new password should be accepted")
}

func TestRemoveLibrarian(t *testing.T) {
	a, _ := newTestApp(t)
	librarian := testutils.SetupLibrarian(a.DB, "desk@library.test", "password123")
	testutils.SetupSession(a.DB, librarian)
	if _, err := a.CreateCategory(&librarian, CategoryParams{Name: "Poésie"}); err != nil {
		t.Fatal(errors.Wrap(err, "creating category"))
	}

	if err := a.RemoveLibrarian("desk@library.test"); err != nil {
		t.Fatal(errors.Wrap(err, "removing librarian"))
	}

	_, err := a.GetLibrarianByEmail("desk@library.test")
	assert.ErrorIs(t, err, ErrNotFound, "librarian should be gone")

	entry := lastActivity(t, a.DB)
	assert.Equal(t, entry.LibrarianID == nil, true, "activity should be kept without performer")

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Session{}).Count(&count), "counting sessions")
	assert.Equal(t, count, int64(0), "sessions should be deleted")
}
