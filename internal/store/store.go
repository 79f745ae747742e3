// internal/store/store.go
//
// Persistence interface for game state. Every mutation against one game id
// must be applied under mutual exclusion: each operation reads the current
// state and writes a derived next state, so Update holds the per-game
// critical section for the whole read-modify-write and persists only when
// the mutator succeeds.

package store

import (
	"context"
	"errors"

	"github.com/robmny/codebreakers/internal/game"
)

// ErrNotFound is returned when a game id or room code is unknown.
var ErrNotFound = errors.New("game not found")

// Store defines the persistence contract for games. Implementations may be
// backed by memory (development, tests) or SQLite (durable rooms).
type Store interface {
	// Create persists a brand-new game.
	Create(ctx context.Context, g *game.Game) error

	// Get retrieves a game by internal id.
	Get(ctx context.Context, id string) (*game.Game, error)

	// GetByCode retrieves a game by its shareable room code.
	GetByCode(ctx context.Context, code string) (*game.Game, error)

	// Update loads the game for the given room code, runs fn under the
	// game's critical section, and persists the result iff fn returns nil.
	// fn's error is returned verbatim so rule rejections survive the trip.
	Update(ctx context.Context, code string, fn func(*game.Game) error) error

	// Close releases any underlying resources.
	Close() error
}
