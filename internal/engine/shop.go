package engine

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/kjelstad/chorebank/internal/metrics"
	"github.com/kjelstad/chorebank/internal/model"
)

// ShopItemDraft carries the fields for a new shop item.
type ShopItemDraft struct {
	Title   string
	Price   int
	Icon    string
	Image   string
	Active  bool
	Actions json.RawMessage
}

// AddShopItem creates a shop item.
func (s *Store) AddShopItem(draft ShopItemDraft) (*model.ShopItem, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, fmt.Errorf("item title is required: %w", ErrValidation)
	}
	if draft.Price < 0 {
		return nil, fmt.Errorf("item price must not be negative: %w", ErrValidation)
	}

	var created *model.ShopItem
	err := s.mutate(func(st *state) ([]Event, error) {
		now := s.now()
		item := &model.ShopItem{
			ID:        s.newID(),
			Title:     strings.TrimSpace(draft.Title),
			Price:     draft.Price,
			Icon:      draft.Icon,
			Image:     draft.Image,
			Active:    draft.Active,
			Actions:   slices.Clone(draft.Actions),
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.items[item.ID] = item
		created = item.Clone()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ShopItemUpdate patches shop item fields; nil fields are left unchanged.
type ShopItemUpdate struct {
	Title   *string
	Price   *int
	Icon    *string
	Image   *string
	Active  *bool
	Actions json.RawMessage
}

// UpdateShopItem applies the patch. Past purchases keep their snapshots.
func (s *Store) UpdateShopItem(itemID string, upd ShopItemUpdate) (*model.ShopItem, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("item title is required: %w", ErrValidation)
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, fmt.Errorf("item price must not be negative: %w", ErrValidation)
	}

	var updated *model.ShopItem
	err := s.mutate(func(st *state) ([]Event, error) {
		item, ok := st.items[itemID]
		if !ok {
			return nil, fmt.Errorf("shop item %s: %w", itemID, ErrNotFound)
		}
		if upd.Title != nil {
			item.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.Price != nil {
			item.Price = *upd.Price
		}
		if upd.Icon != nil {
			item.Icon = *upd.Icon
		}
		if upd.Image != nil {
			item.Image = *upd.Image
		}
		if upd.Active != nil {
			item.Active = *upd.Active
		}
		if upd.Actions != nil {
			item.Actions = slices.Clone(upd.Actions)
		}
		item.UpdatedAt = s.now()
		updated = item.Clone()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteShopItem removes an item. Purchase history keeps its snapshots.
func (s *Store) DeleteShopItem(itemID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		if _, ok := st.items[itemID]; !ok {
			return nil, fmt.Errorf("shop item %s: %w", itemID, ErrNotFound)
		}
		delete(st.items, itemID)
		return nil, nil
	})
}

// ShopItem returns a copy of one item.
func (s *Store) ShopItem(itemID string) (*model.ShopItem, error) {
	var item *model.ShopItem
	s.view(func(st *state) {
		if found, ok := st.items[itemID]; ok {
			item = found.Clone()
		}
	})
	if item == nil {
		return nil, fmt.Errorf("shop item %s: %w", itemID, ErrNotFound)
	}
	return item, nil
}

// ShopItems returns copies of all items, oldest first.
func (s *Store) ShopItems() []model.ShopItem {
	var out []model.ShopItem
	s.view(func(st *state) {
		for _, item := range st.items {
			out = append(out, *item.Clone())
		}
	})
	slices.SortFunc(out, func(a, b model.ShopItem) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Buy debits the item's price from the child and appends an immutable
// purchase record in the same atomic commit. A failure anywhere — validation,
// debit, persist — leaves both the balance and the history untouched.
func (s *Store) Buy(childID, itemID string) (*model.Purchase, error) {
	var purchase *model.Purchase
	err := s.mutate(func(st *state) ([]Event, error) {
		child, ok := st.children[childID]
		if !ok {
			return nil, fmt.Errorf("child %s: %w", childID, ErrNotFound)
		}
		item, ok := st.items[itemID]
		if !ok {
			return nil, fmt.Errorf("shop item %s: %w", itemID, ErrNotFound)
		}
		if !item.Active {
			return nil, fmt.Errorf("shop item %s: %w", itemID, ErrInactive)
		}
		if child.Points < item.Price {
			return nil, fmt.Errorf("child %s has %d points, item costs %d: %w",
				childID, child.Points, item.Price, ErrInsufficientPoints)
		}
		if err := debit(st, childID, item.Price); err != nil {
			return nil, err
		}

		p := model.Purchase{
			ID:        s.newID(),
			ChildID:   child.ID,
			ChildName: child.Name,
			ItemID:    item.ID,
			Title:     item.Title,
			Price:     item.Price,
			Image:     item.Image,
			TS:        s.now(),
		}
		st.purchases = append(st.purchases, p)
		purchase = &p

		metrics.Purchases.Inc()
		metrics.PointsDebited.Add(float64(item.Price))

		return []Event{{
			Kind:      EventPurchase,
			ChildID:   child.ID,
			ChildName: child.Name,
			ItemID:    item.ID,
			ItemTitle: item.Title,
			Price:     item.Price,
			Image:     item.Image,
			TS:        p.TS,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// PurchaseHistory returns the purchase ledger, newest last, optionally
// filtered to one child. The empty filter returns everything.
func (s *Store) PurchaseHistory(childID string) []model.Purchase {
	var out []model.Purchase
	s.view(func(st *state) {
		for _, p := range st.purchases {
			if childID == "" || p.ChildID == childID {
				out = append(out, p)
			}
		}
	})
	return out
}

// ClearHistory deletes purchase records for one child, or all records when
// childID is empty. Balances are unaffected.
func (s *Store) ClearHistory(childID string) error {
	return s.mutate(func(st *state) ([]Event, error) {
		if childID == "" {
			st.purchases = nil
			return nil, nil
		}
		kept := st.purchases[:0:0]
		for _, p := range st.purchases {
			if p.ChildID != childID {
				kept = append(kept, p)
			}
		}
		st.purchases = kept
		return nil, nil
	})
}
