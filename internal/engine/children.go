package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kjelstad/chorebank/internal/model"
)

// AddChild creates a new child with a zero balance.
func (s *Store) AddChild(name string) (*model.Child, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("child name is required: %w", ErrValidation)
	}

	var created *model.Child
	err := s.mutate(func(st *state) ([]Event, error) {
		now := s.now()
		c := &model.Child{
			ID:        s.newID(),
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.children[c.ID] = c
		created = c.Clone()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RenameChild changes a child's display name.
func (s *Store) RenameChild(childID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("child name is required: %w", ErrValidation)
	}
	return s.mutate(func(st *state) ([]Event, error) {
		c, ok := st.children[childID]
		if !ok {
			return nil, fmt.Errorf("child %s: %w", childID, ErrNotFound)
		}
		c.Name = newName
		c.UpdatedAt = s.now()
		return nil, nil
	})
}

// RemoveChild deletes a child record. Tasks assigned to the child keep their
// dangling assignee; approving them pays nobody.
func (s *Store) RemoveChild(childID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		if _, ok := st.children[childID]; !ok {
			return nil, fmt.Errorf("child %s: %w", childID, ErrNotFound)
		}
		delete(st.children, childID)
		return nil, nil
	})
}

// Child returns a copy of one child record.
func (s *Store) Child(childID string) (*model.Child, error) {
	var c *model.Child
	s.view(func(st *state) {
		if found, ok := st.children[childID]; ok {
			c = found.Clone()
		}
	})
	if c == nil {
		return nil, fmt.Errorf("child %s: %w", childID, ErrNotFound)
	}
	return c, nil
}

// Children returns copies of all children, oldest first.
func (s *Store) Children() []model.Child {
	var out []model.Child
	s.view(func(st *state) {
		for _, c := range st.children {
			out = append(out, *c)
		}
	})
	slices.SortFunc(out, func(a, b model.Child) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Balance returns a child's current point balance.
func (s *Store) Balance(childID string) (int, error) {
	c, err := s.Child(childID)
	if err != nil {
		return 0, err
	}
	return c.Points, nil
}

// AddPoints is the administrative balance adjustment. Delta may be negative;
// the resulting balance floors at zero (an admin may force a balance to zero,
// never below).
func (s *Store) AddPoints(childID string, delta int) error {
	return s.mutate(func(st *state) ([]Event, error) {
		c, ok := st.children[childID]
		if !ok {
			return nil, fmt.Errorf("child %s: %w", childID, ErrNotFound)
		}
		c.Points += delta
		if c.Points < 0 {
			c.Points = 0
		}
		c.UpdatedAt = s.now()
		return nil, nil
	})
}

// ResetPoints zeroes the balance of one child, or of every child when
// childID is empty.
func (s *Store) ResetPoints(childID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		now := s.now()
		if childID == "" {
			for _, c := range st.children {
				c.Points = 0
				c.UpdatedAt = now
			}
			return nil, nil
		}
		c, ok := st.children[childID]
		if !ok {
			return nil, fmt.Errorf("child %s: %w", childID, ErrNotFound)
		}
		c.Points = 0
		c.UpdatedAt = now
		return nil, nil
	})
}

// SetChildPIN stores a PIN hash for the child; an empty hash clears the PIN.
func (s *Store) SetChildPIN(childID, pinHash string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		c, ok := st.children[childID]
		if !ok {
			return nil, fmt.Errorf("child %s: %w", childID, ErrNotFound)
		}
		c.PINHash = pinHash
		c.UpdatedAt = s.now()
		return nil, nil
	})
}

// credit adds earned points to a child inside a mutation. A missing child is
// tolerated: state transitions still happen, nobody is paid.
func credit(st *state, childID string, points int) {
	if c, ok := st.children[childID]; ok {
		c.Points += points
	}
}

// debit removes points inside a mutation. It backstops the caller's
// sufficiency pre-check: a debit can never take a balance below zero.
func debit(st *state, childID string, points int) error {
	c, ok := st.children[childID]
	if !ok {
		return fmt.Errorf("child %s: %w", childID, ErrNotFound)
	}
	if c.Points < points {
		return fmt.Errorf("child %s has %d points, needs %d: %w", childID, c.Points, points, ErrInsufficientPoints)
	}
	c.Points -= points
	return nil
}
