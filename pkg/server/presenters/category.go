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
	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/database"
)

// Category is a result of PresentCategories
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Active      bool   `json:"active"`
	BookCount   int    `json:"book_count,omitempty"`
}

// PresentCategory presents a category
func PresentCategory(c database.Category, bookCount int) Category {
	return Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
		Active:      c.Active,
		BookCount:   bookCount,
	}
}

// PresentCategories presents categories with their book counts
func PresentCategories(categories []app.CategoryWithCount) []Category {
	ret := []Category{}

	for _, c := range categories {
		ret = append(ret, PresentCategory(c.Category, c.BookCount))
	}

	return ret
}
