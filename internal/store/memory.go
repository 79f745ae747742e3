// internal/store/memory.go
//
// In-memory Store implementation. Games live in maps keyed by id and room
// code; a per-game mutex serializes Update so no two mutations for the same
// game interleave, and reads take the same mutex and hand out deep copies
// so a snapshot poll never observes a mutation in flight. State is lost on
// restart, which is fine for development and tests.

package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/robmny/codebreakers/internal/game"
)

type memory struct {
	mu     sync.RWMutex          // guards the maps below
	games  map[string]*game.Game // keyed by Game.ID
	byCode map[string]*game.Game // keyed by Game.RoomCode
	locks  map[string]*sync.Mutex
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		games:  make(map[string]*game.Game),
		byCode: make(map[string]*game.Game),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *memory) Create(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	m.byCode[g.RoomCode] = g
	m.locks[g.ID] = &sync.Mutex{}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	g, ok := m.games[id]
	var lock *sync.Mutex
	if ok {
		lock = m.locks[g.ID]
	}
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()
	return cloneGame(g)
}

func (m *memory) GetByCode(ctx context.Context, code string) (*game.Game, error) {
	m.mu.RLock()
	g, ok := m.byCode[code]
	var lock *sync.Mutex
	if ok {
		lock = m.locks[g.ID]
	}
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()
	return cloneGame(g)
}

func (m *memory) Update(ctx context.Context, code string, fn func(*game.Game) error) error {
	m.mu.RLock()
	g, ok := m.byCode[code]
	var lock *sync.Mutex
	if ok {
		lock = m.locks[g.ID]
	}
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()
	return fn(g)
}

func (m *memory) Close() error { return nil }

// cloneGame deep-copies through the same JSON round-trip the sqlite store
// performs on every read.
func cloneGame(g *game.Game) (*game.Game, error) {
	out := &game.Game{}
	buf, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return nil, err
	}
	return out, nil
}
