package engine

import "github.com/kjelstad/chorebank/internal/model"

// Snapshot is the full entity graph handed to the persistence collaborator.
// Slices are ordered deterministically (by creation time, then id) so
// repeated saves of the same state produce identical writes.
type Snapshot struct {
	Children   []model.Child
	Categories []model.Category
	Tasks      []model.Task
	ShopItems  []model.ShopItem
	Purchases  []model.Purchase
}

// Persister durably stores the entity graph. Save is the engine's write
// fence: a mutation is not considered complete until Save returns nil, and a
// Save error aborts the mutation with no in-memory change.
type Persister interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// NopPersister keeps nothing. Useful for tests and ephemeral runs.
type NopPersister struct{}

func (NopPersister) Load() (*Snapshot, error) { return &Snapshot{}, nil }
func (NopPersister) Save(*Snapshot) error     { return nil }
