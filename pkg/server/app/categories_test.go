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
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestCreateCategory(t *testing.T) {
	a, _ := newTestApp(t)

	category, err := a.CreateCategory(nil, CategoryParams{
		Name:  "Science‑Fiction!!",
		Icon:  "rocket",
		Color: "#1e90ff",
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating category"))
	}

	assert.Equal(t, category.Slug, "science-fiction", "slug mismatch")
	assert.Equal(t, category.Icon, "rocket", "icon mismatch")
	assert.Equal(t, category.Active, true, "new category should be active")
	assert.Equal(t, countActivities(t, a.DB), int64(1), "activity count mismatch")
	assert.Equal(t, lastActivity(t, a.DB).Action, database.ActionAddCategory, "activity action mismatch")

	t.Run("same slug from another name", func(t *testing.T) {
		_, err := a.CreateCategory(nil, CategoryParams{Name: "science fiction"})

		var uerr *UniqueConstraintError
		if !errors.As(err, &uerr) {
			t.Fatalf("expected a *UniqueConstraintError, got %v", err)
		}
		assert.Equal(t, uerr.Value, "science-fiction", "duplicate value mismatch")
		assert.Equal(t, countActivities(t, a.DB), int64(1), "failed creation should not be logged")
	})

	t.Run("explicit slug", func(t *testing.T) {
		c, err := a.CreateCategory(nil, CategoryParams{Name: "Science fiction jeunesse", Slug: "SF Jeunesse"})
		if err != nil {
			t.Fatal(errors.Wrap(err, "creating category"))
		}

		assert.Equal(t, c.Slug, "sf-jeunesse", "slug mismatch")
		assert.Equal(t, c.Icon, database.DefaultCategoryIcon, "default icon mismatch")
		assert.Equal(t, c.Color, database.DefaultCategoryColor, "default color mismatch")
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := a.CreateCategory(nil, CategoryParams{Name: "Poésie", Icon: "quill"})
		assert.ErrorIs(t, err, ErrValidation, "unknown icon should be rejected")

		_, err = a.CreateCategory(nil, CategoryParams{Name: "Poésie", Color: "blue"})
		assert.ErrorIs(t, err, ErrValidation, "invalid color should be rejected")

		_, err = a.CreateCategory(nil, CategoryParams{Name: "?!"})
		assert.ErrorIs(t, err, ErrValidation, "a name without letters should be rejected")
	})
}

func TestUpdateCategory(t *testing.T) {
	a, _ := newTestApp(t)
	history := testutils.SetupCategory(a.DB, "History", "history")
	testutils.SetupCategory(a.DB, "Poetry", "poetry")

	inactive := false
	updated, err := a.UpdateCategory(nil, history.ID, CategoryParams{Name: "Histoire", Icon: "landmark", Active: &inactive})
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating category"))
	}

	assert.Equal(t, updated.Slug, "histoire", "slug should follow the new name")
	assert.Equal(t, updated.Active, false, "active flag mismatch")
	assert.Equal(t, countActivities(t, a.DB), int64(1), "activity count mismatch")

	_, err = a.UpdateCategory(nil, history.ID, CategoryParams{Name: "Poetry"})
	assert.ErrorIs(t, err, ErrDuplicate, "taken slug should be rejected")

	_, err = a.UpdateCategory(nil, history.ID+100, CategoryParams{Name: "Other"})
	assert.ErrorIs(t, err, ErrNotFound, "missing category should be reported")
}

func TestDeleteCategory(t *testing.T) {
	a, _ := newTestApp(t)
	book := testutils.SetupBook(a.DB, "9782070612758", "Le Petit Prince", 1)
	empty := testutils.SetupCategory(a.DB, "Empty", "empty")

	err := a.DeleteCategory(nil, book.CategoryID)
	assert.ErrorIs(t, err, ErrHasBooks, "a category with books should not be deleted")

	if err := a.DeleteCategory(nil, empty.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting category"))
	}
	assert.Equal(t, countActivities(t, a.DB), int64(1), "activity count mismatch")
}

func TestGetCategories(t *testing.T) {
	a, _ := newTestApp(t)
	testutils.SetupBook(a.DB, "9782070612758", "Le Petit Prince", 1)
	testutils.SetupBook(a.DB, "9782070368228", "Vol de nuit", 1)
	archived := testutils.SetupCategory(a.DB, "Archives", "archives")
	testutils.MustExec(t, a.DB.Model(&archived).Update("active", false), "archiving category")

	all, err := a.GetCategories(false)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting categories"))
	}
	assert.Equal(t, len(all), 2, "category count mismatch")
	assert.Equal(t, all[0].Name, "Archives", "categories should be sorted by name")
	assert.Equal(t, all[0].BookCount, 0, "archives book count mismatch")
	assert.Equal(t, all[1].BookCount, 2, "general book count mismatch")

	active, err := a.GetCategories(true)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting categories"))
	}
	assert.Equal(t, len(active), 1, "active category count mismatch")
}
