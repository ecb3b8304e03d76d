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
	"fmt"

	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// FindOrCreateCategory returns the category whose slug matches the name,
// creating an active category with the default icon and color if none exists
func FindOrCreateCategory(db *gorm.DB, name string) (database.Category, error) {
	name = collapseSpaces(name)
	slug := Slugify(name)
	if slug == "" {
		return database.Category{}, invalid("category", "is required")
	}

	var category database.Category
	err := db.Where("slug = ?", slug).First(&category).Error
	if err == nil {
		return category, nil
	} else if !database.IsNotFound(err) {
		return category, errors.Wrap(err, "finding category")
	}

	category = database.Category{
		Name:   name,
		Slug:   slug,
		Icon:   database.DefaultCategoryIcon,
		Color:  database.DefaultCategoryColor,
		Active: true,
	}
	if err := db.Create(&category).Error; err != nil {
		return category, errors.Wrap(err, "inserting category")
	}

	return category, nil
}

// CategoryParams is the input of a category creation or update
type CategoryParams struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon" validate:"omitempty,categoryicon"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	// Slug is derived from Name when empty
	Slug   string `json:"slug"`
	Active *bool  `json:"active"`
}

func prepareCategory(category *database.Category, p CategoryParams) error {
	p.Name = collapseSpaces(p.Name)
	if err := validateStruct(&p); err != nil {
		return err
	}

	source := p.Slug
	if source == "" {
		source = p.Name
	}
	slug := Slugify(source)
	if slug == "" {
		return invalid("slug", "should contain at least one letter or digit")
	}

	category.Name = p.Name
	category.Description = p.Description
	category.Slug = slug
	category.Icon = p.Icon
	if category.Icon == "" {
		category.Icon = database.DefaultCategoryIcon
	}
	category.Color = p.Color
	if category.Color == "" {
		category.Color = database.DefaultCategoryColor
	}
	if p.Active != nil {
		category.Active = *p.Active
	}

	return nil
}

func findCategory(db *gorm.DB, id int) (database.Category, error) {
	var category database.Category
	err := db.Where("id = ?", id).First(&category).Error
	if database.IsNotFound(err) {
		return category, notFound("category", id)
	} else if err != nil {
		return category, errors.Wrap(err, "finding category")
	}

	return category, nil
}

// CreateCategory creates a category. A slug already taken is rejected with
// a *UniqueConstraintError.
func (a *App) CreateCategory(actor *database.Librarian, p CategoryParams) (database.Category, error) {
	category := database.Category{Active: true}
	if err := prepareCategory(&category, p); err != nil {
		return database.Category{}, err
	}

	err := a.withTx(func(tx *gorm.DB) error {
		if err := tx.Create(&category).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return &UniqueConstraintError{Resource: "category", Field: "slug", Value: category.Slug}
			}
			return errors.Wrap(err, "inserting category")
		}

		_, err := a.appendActivity(tx, actor, ActivityParams{
			Action:  database.ActionAddCategory,
			Title:   fmt.Sprintf("Category added: %s", category.Name),
			Subject: category.Slug,
		})
		return err
	})
	if err != nil {
		return database.Category{}, err
	}

	return category, nil
}

// UpdateCategory replaces the attributes of the category of the given id
func (a *App) UpdateCategory(actor *database.Librarian, id int, p CategoryParams) (database.Category, error) {
	var category database.Category

	err := a.withTx(func(tx *gorm.DB) error {
		var err error
		if category, err = findCategory(tx, id); err != nil {
			return err
		}
		if err := prepareCategory(&category, p); err != nil {
			return err
		}

		if err := tx.Save(&category).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return &UniqueConstraintError{Resource: "category", Field: "slug", Value: category.Slug}
			}
			return errors.Wrap(err, "updating category")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:  database.ActionUpdate,
			Title:   fmt.Sprintf("Category updated: %s", category.Name),
			Subject: category.Slug,
		})
		return err
	})
	if err != nil {
		return database.Category{}, err
	}

	return category, nil
}

// DeleteCategory removes a category that no book references
func (a *App) DeleteCategory(actor *database.Librarian, id int) error {
	return a.withTx(func(tx *gorm.DB) error {
		category, err := findCategory(tx, id)
		if err != nil {
			return err
		}

		var books int64
		if err := tx.Model(&database.Book{}).Where("category_id = ?", category.ID).Count(&books).Error; err != nil {
			return errors.Wrap(err, "counting books")
		}
		if books > 0 {
			return errors.Wrapf(ErrHasBooks, "category %s has %d book(s)", category.Slug, books)
		}

		if err := tx.Delete(&database.Category{}, category.ID).Error; err != nil {
			return errors.Wrap(err, "deleting category")
		}

		_, err = a.appendActivity(tx, actor, ActivityParams{
			Action:  database.ActionDelete,
			Title:   fmt.Sprintf("Category deleted: %s", category.Name),
			Subject: category.Slug,
		})
		return err
	})
}

// GetCategory returns the category of the given id
func (a *App) GetCategory(id int) (database.Category, error) {
	return findCategory(a.DB, id)
}

// CategoryWithCount is a category with the number of its books
type CategoryWithCount struct {
	database.Category
	BookCount int `json:"book_count"`
}

// GetCategories returns the categories ordered by name with their book counts
func (a *App) GetCategories(activeOnly bool) ([]CategoryWithCount, error) {
	q := a.DB.Model(&database.Category{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var categories []database.Category
	if err := q.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "finding categories")
	}

	var rows []struct {
		CategoryID int
		Count      int
	}
	if err := a.DB.Model(&database.Book{}).
		Select("category_id, COUNT(*) AS count").
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "counting books per category")
	}

	counts := map[int]int{}
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}

	ret := make([]CategoryWithCount, len(categories))
	for i, c := range categories {
		ret[i] = CategoryWithCount{Category: c, BookCount: counts[c.ID]}
	}

	return ret, nil
}
