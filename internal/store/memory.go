// internal/store/memory.go
//
// In-memory implementation of board.Store.
// Used for local play without a database (STORE=memory) and in tests.
//
// Characteristics:
//   - Holds a single board keyed by its id.
//   - Concurrency-safe via RWMutex; each call copies in and out so callers
//     never alias the stored document.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/cathunt/internal/board"
)

// Memory is a board.Store held in process memory.
type Memory struct {
	mu     sync.RWMutex // guards state and writes
	id     string
	name   string
	state  *board.GameState // nil until first access
	now    func() time.Time
	writes int
}

// NewMemory constructs an empty in-memory store for board id.
func NewMemory(id, defaultName string) *Memory {
	return &Memory{id: id, name: defaultName, now: time.Now}
}

// Load returns the board, seeding the default one on first access.
func (m *Memory) Load(ctx context.Context) (board.GameState, error) {
	if err := ctx.Err(); err != nil {
		return board.GameState{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		seed := board.NewState(m.id, m.name)
		seed.UpdatedAt = m.now().UTC()
		m.state = &seed
	}
	return m.state.Clone(), nil
}

// Save replaces the board with s, stamps UpdatedAt and returns the stored copy.
func (m *Memory) Save(ctx context.Context, s board.GameState) (board.GameState, error) {
	if err := ctx.Err(); err != nil {
		return board.GameState{}, err
	}
	stored := s.Clone()
	stored.ID = m.id
	stored.UpdatedAt = m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &stored
	m.writes++
	return stored.Clone(), nil
}

// Writes reports how many times Save has succeeded.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
