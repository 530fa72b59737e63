package model

import "time"

// Child is a household member who earns and spends points.
// Children are created and removed by admin actions only, never automatically.
type Child struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	PINHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPIN reports whether a PIN has been set for this child.
func (c *Child) HasPIN() bool {
	return c.PINHash != ""
}

// Clone returns a deep copy of the child.
func (c *Child) Clone() *Child {
	cp := *c
	return &cp
}
