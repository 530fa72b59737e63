package model

import (
	"encoding/json"
	"slices"
	"time"
)

// ShopItem is something a child can spend points on. Actions are custom
// action descriptors passed through to consumers; the core never inspects them.
type ShopItem struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     int             `json:"price"`
	Icon      string          `json:"icon,omitempty"`
	Image     string          `json:"image,omitempty"`
	Active    bool            `json:"active"`
	Actions   json.RawMessage `json:"actions,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Clone returns a deep copy of the shop item.
func (i *ShopItem) Clone() *ShopItem {
	cp := *i
	cp.Actions = slices.Clone(i.Actions)
	return &cp
}

// Purchase is one entry in the append-only shop history. Title, price, image
// and child name are snapshots taken at purchase time; later edits to the item
// or the child never alter history.
type Purchase struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"child_id"`
	ChildName string    `json:"child_name"`
	ItemID    string    `json:"item_id"`
	Title     string    `json:"title"`
	Price     int       `json:"price"`
	Image     string    `json:"image,omitempty"`
	TS        time.Time `json:"ts"`
}
