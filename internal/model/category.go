package model

import "time"

// Category is an independent lookup table entry. Tasks reference categories by
// id; a dangling reference is tolerated and treated as "no category".
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the category.
func (c *Category) Clone() *Category {
	cp := *c
	return &cp
}
