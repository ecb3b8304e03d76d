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

package helpers

import (
	"encoding/base64"
	"testing"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/pkg/errors"
)

func TestGetRandomStr(t *testing.T) {
	s, err := GetRandomStr(32)
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating string"))
	}

	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		t.Fatal(errors.Wrap(err, "decoding string"))
	}

	assert.Equal(t, len(b), 32, "decoded length mismatch")
}
