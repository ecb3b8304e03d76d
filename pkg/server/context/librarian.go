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

package context

import (
	"context"

	"github.com/campuslib/campuslib/pkg/server/database"
)

const (
	librarianKey privateKey = "librarian"
	sessionKey   privateKey = "session_key"
)

type privateKey string

// WithLibrarian creates a new context with the given librarian
func WithLibrarian(ctx context.Context, librarian *database.Librarian) context.Context {
	return context.WithValue(ctx, librarianKey, librarian)
}

// WithSessionKey creates a new context with the key of the session used to
// authenticate the request
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKey, key)
}

// Librarian retrieves the librarian from the given context. If the context
// does not contain a librarian, it returns nil.
func Librarian(ctx context.Context) *database.Librarian {
	if temp := ctx.Value(librarianKey); temp != nil {
		if librarian, ok := temp.(*database.Librarian); ok {
			return librarian
		}
	}

	return nil
}

// SessionKey retrieves the session key from the given context
func SessionKey(ctx context.Context) string {
	if temp := ctx.Value(sessionKey); temp != nil {
		if key, ok := temp.(string); ok {
			return key
		}
	}

	return ""
}
