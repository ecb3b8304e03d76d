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
	"strings"
	"time"

	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/helpers"
	"github.com/campuslib/campuslib/pkg/server/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// minPasswordLength is the minimum length of a librarian password
const minPasswordLength = 8

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}

	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateLibrarian creates a staff account
func (a *App) CreateLibrarian(email, password, fullName string) (database.Librarian, error) {
	email = normalizeEmail(email)
	if email == "" {
		return database.Librarian{}, ErrEmailRequired
	}
	if err := validate.Var(email, "email"); err != nil {
		return database.Librarian{}, invalid("email", "is not a valid email address")
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return database.Librarian{}, err
	}

	librarian := database.Librarian{
		Email:    email,
		Password: hashed,
		FullName: collapseSpaces(fullName),
	}
	if err := a.DB.Create(&librarian).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return database.Librarian{}, &UniqueConstraintError{Resource: "librarian", Field: "email", Value: email}
		}
		return database.Librarian{}, errors.Wrap(err, "inserting librarian")
	}

	return librarian, nil
}

// GetLibrarianByEmail returns the librarian of the given email
func (a *App) GetLibrarianByEmail(email string) (database.Librarian, error) {
	email = normalizeEmail(email)

	var librarian database.Librarian
	err := a.DB.Where("email = ?", email).First(&librarian).Error
	if database.IsNotFound(err) {
		return librarian, notFound("librarian", email)
	} else if err != nil {
		return librarian, errors.Wrap(err, "finding librarian")
	}

	return librarian, nil
}

// RemoveLibrarian deletes a librarian and its sessions. Its activities are
// kept without a performer.
func (a *App) RemoveLibrarian(email string) error {
	librarian, err := a.GetLibrarianByEmail(email)
	if err != nil {
		return err
	}

	return a.withTx(func(tx *gorm.DB) error {
		if err := a.DeleteLibrarianSessions(tx, librarian.ID); err != nil {
			return err
		}
		if err := tx.Model(&database.ActivityLog{}).Where("librarian_id = ?", librarian.ID).
			Update("librarian_id", nil).Error; err != nil {
			return errors.Wrap(err, "detaching activities")
		}
		if err := tx.Delete(&database.Librarian{}, librarian.ID).Error; err != nil {
			return errors.Wrap(err, "deleting librarian")
		}

		return nil
	})
}

// Authenticate returns the librarian matching the credentials. Unknown
// emails and wrong passwords fail alike with ErrInvalidCredentials.
func (a *App) Authenticate(email, password string) (*database.Librarian, error) {
	librarian, err := a.GetLibrarianByEmail(email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(librarian.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &librarian, nil
}

// TouchLastLoginAt updates the last login timestamp
func (a *App) TouchLastLoginAt(librarian database.Librarian, tx *gorm.DB) error {
	t := a.Clock.Now()
	if err := tx.Model(&librarian).Update("last_login_at", &t).Error; err != nil {
		return errors.Wrap(err, "updating last_login_at")
	}

	return nil
}

// SignIn authenticates a librarian and opens a session
func (a *App) SignIn(email, password string) (*database.Session, error) {
	librarian, err := a.Authenticate(email, password)
	if err != nil {
		return nil, err
	}

	if err := a.TouchLastLoginAt(*librarian, a.DB); err != nil {
		log.ErrorWrap(err, "touching login timestamp")
	}

	session, err := a.CreateSession(librarian.ID)
	if err != nil {
		return nil, errors.Wrap(err, "creating session")
	}

	return &session, nil
}

// CreateSession returns a new session for the librarian of the given id
func (a *App) CreateSession(librarianID int) (database.Session, error) {
	key, err := helpers.GetRandomStr(32)
	if err != nil {
		return database.Session{}, errors.Wrap(err, "generating key")
	}

	now := a.Clock.Now()
	session := database.Session{
		LibrarianID: librarianID,
		Key:         key,
		LastUsedAt:  now,
		ExpiresAt:   now.Add(time.Duration(a.sessionDays()) * 24 * time.Hour),
	}

	if err := a.DB.Create(&session).Error; err != nil {
		return database.Session{}, errors.Wrap(err, "saving session")
	}

	return session, nil
}

// SignOut deletes the session of the given key
func (a *App) SignOut(key string) error {
	if err := a.DB.Where("key = ?", key).Delete(&database.Session{}).Error; err != nil {
		return errors.Wrap(err, "deleting the session")
	}

	return nil
}

// DeleteLibrarianSessions deletes all existing sessions of the given librarian
func (a *App) DeleteLibrarianSessions(db *gorm.DB, librarianID int) error {
	if err := db.Where("librarian_id = ?", librarianID).Delete(&database.Session{}).Error; err != nil {
		return errors.Wrap(err, "deleting sessions")
	}

	return nil
}

// GetSessionLibrarian returns the librarian owning the session of the given
// key. Expired sessions are deleted and rejected with ErrInvalidCredentials.
func (a *App) GetSessionLibrarian(key string) (*database.Librarian, error) {
	if key == "" {
		return nil, ErrInvalidCredentials
	}

	var session database.Session
	err := a.DB.Where("key = ?", key).First(&session).Error
	if database.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, errors.Wrap(err, "finding session")
	}

	now := a.Clock.Now()
	if !session.ExpiresAt.After(now) {
		if err := a.SignOut(key); err != nil {
			log.ErrorWrap(err, "deleting expired session")
		}
		return nil, ErrInvalidCredentials
	}

	var librarian database.Librarian
	err = a.DB.Where("id = ?", session.LibrarianID).First(&librarian).Error
	if database.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, errors.Wrap(err, "finding librarian")
	}

	if err := a.DB.Model(&session).Update("last_used_at", now).Error; err != nil {
		log.ErrorWrap(err, "touching session")
	}

	return &librarian, nil
}

// UpdatePassword changes the password of a librarian who knows the current
// one. Other sessions of the librarian are signed out.
func (a *App) UpdatePassword(librarian database.Librarian, current, next string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(librarian.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	return a.setPassword(librarian, next)
}

// ResetPassword replaces the password of the librarian of the given email and
// signs out all of its sessions
func (a *App) ResetPassword(email, password string) error {
	librarian, err := a.GetLibrarianByEmail(email)
	if err != nil {
		return err
	}

	return a.setPassword(librarian, password)
}

func (a *App) setPassword(librarian database.Librarian, password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}

	return a.withTx(func(tx *gorm.DB) error {
		if err := tx.Model(&librarian).Update("password", hashed).Error; err != nil {
			return errors.Wrap(err, "updating password")
		}

		return a.DeleteLibrarianSessions(tx, librarian.ID)
	})
}
