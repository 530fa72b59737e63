package engine

import (
	"cmp"
	"slices"

	"github.com/kjelstad/chorebank/internal/model"
)

// state is the owned entity aggregate. It is only ever touched while holding
// the store's mutation gate; mutations work on a clone that replaces the live
// state after the persist fence succeeds.
type state struct {
	children   map[string]*model.Child
	categories map[string]*model.Category
	tasks      map[string]*model.Task
	items      map[string]*model.ShopItem
	purchases  []model.Purchase
}

func newState() *state {
	return &state{
		children:   make(map[string]*model.Child),
		categories: make(map[string]*model.Category),
		tasks:      make(map[string]*model.Task),
		items:      make(map[string]*model.ShopItem),
	}
}

func (st *state) clone() *state {
	next := &state{
		children:   make(map[string]*model.Child, len(st.children)),
		categories: make(map[string]*model.Category, len(st.categories)),
		tasks:      make(map[string]*model.Task, len(st.tasks)),
		items:      make(map[string]*model.ShopItem, len(st.items)),
		purchases:  slices.Clone(st.purchases),
	}
	for id, c := range st.children {
		next.children[id] = c.Clone()
	}
	for id, c := range st.categories {
		next.categories[id] = c.Clone()
	}
	for id, t := range st.tasks {
		next.tasks[id] = t.Clone()
	}
	for id, i := range st.items {
		next.items[id] = i.Clone()
	}
	return next
}

// snapshot flattens the aggregate into the deterministic persistence shape.
func (st *state) snapshot() *Snapshot {
	snap := &Snapshot{
		Children:   make([]model.Child, 0, len(st.children)),
		Categories: make([]model.Category, 0, len(st.categories)),
		Tasks:      make([]model.Task, 0, len(st.tasks)),
		ShopItems:  make([]model.ShopItem, 0, len(st.items)),
		Purchases:  slices.Clone(st.purchases),
	}
	for _, c := range st.children {
		snap.Children = append(snap.Children, *c)
	}
	for _, c := range st.categories {
		snap.Categories = append(snap.Categories, *c)
	}
	for _, t := range st.tasks {
		snap.Tasks = append(snap.Tasks, *t)
	}
	for _, i := range st.items {
		snap.ShopItems = append(snap.ShopItems, *i)
	}
	slices.SortFunc(snap.Children, func(a, b model.Child) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	slices.SortFunc(snap.Categories, func(a, b model.Category) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	slices.SortFunc(snap.Tasks, func(a, b model.Task) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	slices.SortFunc(snap.ShopItems, func(a, b model.ShopItem) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return snap
}

func stateFromSnapshot(snap *Snapshot) *state {
	st := newState()
	if snap == nil {
		return st
	}
	for i := range snap.Children {
		c := snap.Children[i]
		st.children[c.ID] = &c
	}
	for i := range snap.Categories {
		c := snap.Categories[i]
		st.categories[c.ID] = &c
	}
	for i := range snap.Tasks {
		t := snap.Tasks[i]
		st.tasks[t.ID] = &t
	}
	for i := range snap.ShopItems {
		item := snap.ShopItems[i]
		st.items[item.ID] = &item
	}
	st.purchases = slices.Clone(snap.Purchases)
	return st
}

// sortedTasks returns the tasks in deterministic order for batch passes.
func (st *state) sortedTasks() []*model.Task {
	tasks := make([]*model.Task, 0, len(st.tasks))
	for _, t := range st.tasks {
		tasks = append(tasks, t)
	}
	slices.SortFunc(tasks, func(a, b *model.Task) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return tasks
}
