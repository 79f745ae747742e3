package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmny/codebreakers/internal/game"
)

func newSQLite(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newSQLite(t)
	g := newStoredGame(t, s)

	got, err := s.Get(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.RoomCode, got.RoomCode)
	assert.Equal(t, g.Status, got.Status)

	byCode, err := s.GetByCode(context.Background(), g.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, g.ID, byCode.ID)

	_, err = s.GetByCode(context.Background(), "NOPE42")
	assert.ErrorIs(t, err, ErrNotFound)
}

// A client must read its own just-applied mutation on the next poll.
func TestSQLiteReadYourWrites(t *testing.T) {
	s := newSQLite(t)
	g := newStoredGame(t, s)

	err := s.Update(context.Background(), g.RoomCode, func(g *game.Game) error {
		_, err := g.Join("alice", "green", -1, t0)
		return err
	})
	require.NoError(t, err)

	got, err := s.GetByCode(context.Background(), g.RoomCode)
	require.NoError(t, err)
	require.Len(t, got.Players, 1)
	assert.Equal(t, "alice", got.Players[0].Name)
	assert.Len(t, got.Players[0].Used, 0)
}

// A rejected command leaves the stored row untouched.
func TestSQLiteUpdateIsAtomic(t *testing.T) {
	s := newSQLite(t)
	g := newStoredGame(t, s)

	boom := errors.New("boom")
	err := s.Update(context.Background(), g.RoomCode, func(g *game.Game) error {
		_, _ = g.Join("phantom", "", -1, t0)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetByCode(context.Background(), g.RoomCode)
	require.NoError(t, err)
	assert.Empty(t, got.Players, "failed update must not persist")
}
