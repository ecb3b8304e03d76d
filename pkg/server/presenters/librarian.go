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

package presenters

import (
	"time"

	"github.com/campuslib/campuslib/pkg/server/database"
)

// Librarian is a result of PresentLibrarian
type Librarian struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// PresentLibrarian presents a librarian
func PresentLibrarian(l database.Librarian) Librarian {
	return Librarian{
		ID:        l.ID,
		Email:     l.Email,
		FullName:  l.FullName,
		CreatedAt: FormatTS(l.CreatedAt),
	}
}

// Session is the result of a sign in
type Session struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PresentSession presents a session
func PresentSession(s database.Session) Session {
	return Session{
		Key:       s.Key,
		ExpiresAt: FormatTS(s.ExpiresAt),
	}
}
