// internal/store/memory.go
//
// In-memory store for live matches.
//
// Characteristics:
//   - *game.Match values keyed by ID. The map lock only guards lookups; every
//     match carries its own RWMutex.
//   - Update runs a mutation under that match's write lock, so requests on
//     the same match are serialized while other matches proceed.
//   - View runs a read under the match's read lock.
//   - Finished matches can be evicted with Delete; state is lost on restart.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/AsyncSite/deduction-server/internal/game"
)

var ErrNotFound = errors.New("match not found")

// Store holds live matches.
type Store interface {
	Save(ctx context.Context, m *game.Match) error
	// Get returns the stored pointer without locking the match; use View
	// or Update to read or change it while other requests may be running.
	Get(ctx context.Context, id string) (*game.Match, error)
	// Update applies fn to the stored match while holding its write lock.
	Update(ctx context.Context, id string, fn func(*game.Match) error) error
	// View applies fn to the stored match while holding its read lock.
	View(ctx context.Context, id string, fn func(*game.Match) error) error
	Delete(ctx context.Context, id string) error
	Len() int
}

type entry struct {
	mu sync.RWMutex
	m  *game.Match
}

type memory struct {
	mu      sync.RWMutex
	matches map[string]*entry
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{matches: make(map[string]*entry)}
}

func (m *memory) Save(ctx context.Context, g *game.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[g.ID] = &entry{m: g}
	return nil
}

func (m *memory) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.matches[id]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Get(ctx context.Context, id string) (*game.Match, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.m, nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(*game.Match) error) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.m)
}

func (m *memory) View(ctx context.Context, id string, fn func(*game.Match) error) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.m)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, id)
	return nil
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}
