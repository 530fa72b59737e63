package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kjelstad/chorebank/internal/model"
)

// AddCategory creates a category.
func (s *Store) AddCategory(name, color string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is required: %w", ErrValidation)
	}

	var created *model.Category
	err := s.mutate(func(st *state) ([]Event, error) {
		now := s.now()
		c := &model.Category{
			ID:        s.newID(),
			Name:      name,
			Color:     color,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.categories[c.ID] = c
		created = c.Clone()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RenameCategory changes a category's name.
func (s *Store) RenameCategory(categoryID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("category name is required: %w", ErrValidation)
	}
	return s.mutate(func(st *state) ([]Event, error) {
		c, ok := st.categories[categoryID]
		if !ok {
			return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
		}
		c.Name = newName
		c.UpdatedAt = s.now()
		return nil, nil
	})
}

// SetCategoryColor changes a category's display color.
func (s *Store) SetCategoryColor(categoryID, color string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		c, ok := st.categories[categoryID]
		if !ok {
			return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
		}
		c.Color = color
		c.UpdatedAt = s.now()
		return nil, nil
	})
}

// DeleteCategory removes a category. Tasks referencing it keep the dangling
// id, which readers treat as "no category".
func (s *Store) DeleteCategory(categoryID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		if _, ok := st.categories[categoryID]; !ok {
			return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
		}
		delete(st.categories, categoryID)
		return nil, nil
	})
}

// Category returns a copy of one category.
func (s *Store) Category(categoryID string) (*model.Category, error) {
	var c *model.Category
	s.view(func(st *state) {
		if found, ok := st.categories[categoryID]; ok {
			c = found.Clone()
		}
	})
	if c == nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}
	return c, nil
}

// Categories returns copies of all categories, oldest first.
func (s *Store) Categories() []model.Category {
	var out []model.Category
	s.view(func(st *state) {
		for _, c := range st.categories {
			out = append(out, *c)
		}
	})
	slices.SortFunc(out, func(a, b model.Category) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}
