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
	"testing"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/campuslib/campuslib/pkg/server/database"
)

func TestLibrarian(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Librarian(ctx) == nil, true, "empty context should have no librarian")
	assert.Equal(t, SessionKey(ctx), "", "empty context should have no session key")

	librarian := &database.Librarian{Email: "desk@library.test"}
	ctx = WithSessionKey(WithLibrarian(ctx, librarian), "abc")

	assert.Equal(t, Librarian(ctx), librarian, "librarian mismatch")
	assert.Equal(t, SessionKey(ctx), "abc", "session key mismatch")
}
