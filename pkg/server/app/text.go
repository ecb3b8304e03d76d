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
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	titleCaser = cases.Title(language.Und)
	upperCaser = cases.Upper(language.Und)
)

// collapseSpaces trims s and replaces every run of whitespace with one space
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeAuthorName title-cases an author name: "jane  DOE" becomes "Jane Doe"
func NormalizeAuthorName(name string) string {
	return titleCaser.String(collapseSpaces(name))
}

// NormalizePublisherName uppercases a publisher name
func NormalizePublisherName(name string) string {
	return upperCaser.String(collapseSpaces(name))
}

// NormalizeSchoolName uppercases a school name
func NormalizeSchoolName(name string) string {
	return upperCaser.String(collapseSpaces(name))
}

// foldAccents strips combining marks: "É" becomes "E"
func foldAccents(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		return "", errors.Wrap(err, "folding accents")
	}

	return out, nil
}

// Slugify returns the URL-safe slug of s. Accents are folded, letters are
// lowercased and every run of other characters becomes a single dash.
func Slugify(s string) string {
	folded, err := foldAccents(s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}

		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// normalizeISBN drops the separators commonly found in printed ISBNs
func normalizeISBN(isbn string) string {
	r := strings.NewReplacer("-", "", " ", "")

	return strings.ToUpper(r.Replace(strings.TrimSpace(isbn)))
}

// likeEscaper escapes the LIKE wildcards. Clauses using likePattern declare
// ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern returns a case-insensitive substring pattern for a LIKE clause
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}
