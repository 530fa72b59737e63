// Package engine owns the household chore economy: children and their point
// balances, tasks and their lifecycle, categories, the shop and its history.
//
// All mutation funnels through a single gate. Each operation clones the
// current state, validates and applies its change to the clone, runs the
// persistence collaborator's write fence, and only then swaps the clone in.
// A validation or persist failure therefore leaves every entity, balance and
// history record exactly as it was.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the single serialization point for all entity mutations.
type Store struct {
	mu sync.Mutex
	st *state

	persister Persister
	notifier  Notifier
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides entity id generation, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a Store backed by the given collaborators. Pass NopPersister /
// NopNotifier for ephemeral use.
func New(p Persister, n Notifier, logger *slog.Logger, opts ...Option) *Store {
	if p == nil {
		p = NopPersister{}
	}
	if n == nil {
		n = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		st:        newState(),
		persister: p,
		notifier:  n,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory aggregate with the persisted entity graph.
// Called once at startup before any operation is accepted.
func (s *Store) Load() error {
	snap, err := s.persister.Load()
	if err != nil {
		return fmt.Errorf("load entity graph: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = stateFromSnapshot(snap)
	s.logger.Info("entity graph loaded",
		"children", len(s.st.children),
		"tasks", len(s.st.tasks),
		"categories", len(s.st.categories),
		"shop_items", len(s.st.items),
		"purchases", len(s.st.purchases),
	)
	return nil
}

// mutate runs fn against a clone of the current state. The clone becomes the
// live state only after the persist fence succeeds; events returned by fn are
// dispatched after the commit, never before.
func (s *Store) mutate(fn func(st *state) ([]Event, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st.clone()
	events, err := fn(next)
	if err != nil {
		return err
	}
	if err := s.persister.Save(next.snapshot()); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	s.st = next

	for _, ev := range events {
		s.notifier.Notify(ev)
	}
	return nil
}

// view runs fn against the live state under the gate, for reads. fn must not
// retain references past its return; copy out what it needs.
func (s *Store) view(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}
