// internal/store/sqlite.go
//
// SQLite-backed Store implementation.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, FKs).
//   - Applying the schema idempotently on open.
//   - Persisting each game as a JSON state column keyed by id + room code.
//   - Serializing mutations per game with an in-process lock manager, so a
//     poll-driven client always reads its own just-committed write.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robmny/codebreakers/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
    id         TEXT PRIMARY KEY,
    room_code  TEXT NOT NULL UNIQUE,
    mode       TEXT NOT NULL,
    status     TEXT NOT NULL,
    state      TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
`

type sqlite struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per room code
}

// NewSQLiteStore opens (creating if missing) a SQLite database file and
// ensures the schema exists.
func NewSQLiteStore(dsn string) (Store, error) {
	// Ensure directory exists for ./data/games.db, etc.
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Info().Str("dsn", dsn).Msg("sqlite store ready")
	return &sqlite{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

// lockFor returns the mutex serializing one room's mutations.
func (s *sqlite) lockFor(code string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[code]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[code] = l
	return l
}

func (s *sqlite) Create(ctx context.Context, g *game.Game) error {
	state, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO games (id, room_code, mode, status, state, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.RoomCode, string(g.Mode), string(g.Status), string(state), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.ID, err)
	}
	return nil
}

func (s *sqlite) Get(ctx context.Context, id string) (*game.Game, error) {
	return s.load(ctx, `SELECT state FROM games WHERE id=?`, id)
}

func (s *sqlite) GetByCode(ctx context.Context, code string) (*game.Game, error) {
	return s.load(ctx, `SELECT state FROM games WHERE room_code=?`, code)
}

func (s *sqlite) load(ctx context.Context, query, key string) (*game.Game, error) {
	var state string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var g game.Game
	if err := json.Unmarshal([]byte(state), &g); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	return &g, nil
}

// Update runs fn inside the room's critical section and commits the derived
// state only when fn succeeds; a rejection leaves the stored row untouched.
func (s *sqlite) Update(ctx context.Context, code string, fn func(*game.Game) error) error {
	lock := s.lockFor(code)
	lock.Lock()
	defer lock.Unlock()

	g, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if err := fn(g); err != nil {
		return err
	}

	state, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        UPDATE games SET status=?, state=?, updated_at=? WHERE room_code=?`,
		string(g.Status), string(state), time.Now().UTC().Format(time.RFC3339), code,
	)
	if err != nil {
		return fmt.Errorf("update game %s: %w", g.ID, err)
	}
	return nil
}

func (s *sqlite) Close() error { return s.db.Close() }
