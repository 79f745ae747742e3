package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newDuel returns a duel in setup with both players joined.
func newDuel(t *testing.T) (*Game, *Player, *Player) {
	t.Helper()
	g, err := New(Config{Mode: ModeDuel}, t0)
	require.NoError(t, err)
	p1, err := g.Join("alice", "green", -1, t0)
	require.NoError(t, err)
	p2, err := g.Join("bob", "red", -1, t0)
	require.NoError(t, err)
	return g, p1, p2
}

// startedDuel returns a playing duel: alice holds 1234, bob holds 5678,
// alice to act.
func startedDuel(t *testing.T) (*Game, *Player, *Player) {
	t.Helper()
	g, p1, p2 := newDuel(t)
	require.NoError(t, g.SubmitCode(p1.ID, "1234", nil, t0))
	require.NoError(t, g.SubmitCode(p2.ID, "5678", nil, t0))
	require.Equal(t, StatusPlaying, g.Status)
	return g, p1, p2
}

// startedParty returns a playing party game with n players, codes
// "1111".."nnnn", first-joined player to act.
func startedParty(t *testing.T, n int, cfg Config) (*Game, []*Player) {
	t.Helper()
	cfg.Mode = ModeParty
	g, err := New(cfg, t0)
	require.NoError(t, err)
	players := make([]*Player, 0, n)
	for i := 0; i < n; i++ {
		p, err := g.Join(fmt.Sprintf("player%d", i+1), "", -1, t0)
		require.NoError(t, err)
		players = append(players, p)
	}
	for i, p := range players {
		d := byte('1' + i)
		require.NoError(t, g.SubmitCode(p.ID, string([]byte{d, d, d, d}), nil, t0))
	}
	require.Equal(t, StatusPlaying, g.Status)
	return g, players
}

// startedTeam returns a playing 2v2 team game. Fragments: team 0 holds
// "123"+"456", team 1 holds "654"+"321". Team 0's first operator acts.
func startedTeam(t *testing.T) (*Game, []*Player) {
	t.Helper()
	g, err := New(Config{Mode: ModeTeam}, t0)
	require.NoError(t, err)
	a1, err := g.Join("a1", "", 0, t0)
	require.NoError(t, err)
	a2, err := g.Join("a2", "", 0, t0)
	require.NoError(t, err)
	b1, err := g.Join("b1", "", 1, t0)
	require.NoError(t, err)
	b2, err := g.Join("b2", "", 1, t0)
	require.NoError(t, err)

	require.NoError(t, g.SubmitCode(a1.ID, "123", []PowerupKind{PowerupFirewall, PowerupVirus}, t0))
	require.NoError(t, g.SubmitCode(a2.ID, "456", []PowerupKind{PowerupEMP, PowerupSpyware}, t0))
	require.NoError(t, g.SubmitCode(b1.ID, "654", []PowerupKind{PowerupFirewall, PowerupVirus}, t0))
	require.NoError(t, g.SubmitCode(b2.ID, "321", []PowerupKind{PowerupEMP, PowerupSpyware}, t0))
	require.Equal(t, StatusPlaying, g.Status)
	return g, []*Player{a1, a2, b1, b2}
}

func TestDuelEndToEnd(t *testing.T) {
	g, p1, p2 := newDuel(t)
	assert.Equal(t, StatusSetup, g.Status)

	require.NoError(t, g.SubmitCode(p1.ID, "1234", nil, t0))
	assert.Equal(t, StatusSetup, g.Status, "one code locked is not enough")

	require.NoError(t, g.SubmitCode(p2.ID, "5678", nil, t0))
	assert.Equal(t, StatusPlaying, g.Status)
	assert.Equal(t, p1.ID, g.Turn.PlayerID, "first-joined player acts first")

	res, err := g.SubmitGuess(p1.ID, 0, "5678", t0)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Hits)
	assert.True(t, res.Won)
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, p1.ID, g.WinnerID)
}

func TestDuelWaitsForBothPlayers(t *testing.T) {
	g, err := New(Config{Mode: ModeDuel}, t0)
	require.NoError(t, err)
	host, err := g.Join("alice", "green", -1, t0)
	require.NoError(t, err)

	// The host may lock before anyone else joins, but a duel never starts
	// with one player.
	require.NoError(t, g.SubmitCode(host.ID, "1234", nil, t0))
	assert.Equal(t, StatusSetup, g.Status)

	_, err = g.SubmitGuess(host.ID, 0, "0000", t0)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))

	p2, err := g.Join("bob", "red", -1, t0)
	require.NoError(t, err)
	require.NoError(t, g.SubmitCode(p2.ID, "5678", nil, t0))
	assert.Equal(t, StatusPlaying, g.Status)
	assert.Equal(t, host.ID, g.Turn.PlayerID)
}

func TestDuelTurnAlternation(t *testing.T) {
	g, p1, p2 := startedDuel(t)

	res, err := g.SubmitGuess(p1.ID, 0, "1111", t0)
	require.NoError(t, err)
	assert.False(t, res.Won)
	assert.Equal(t, p2.ID, g.Turn.PlayerID)

	_, err = g.SubmitGuess(p2.ID, 0, "2222", t0)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, g.Turn.PlayerID)
}

func TestGuessRejections(t *testing.T) {
	t.Run("not your turn leaves state unchanged", func(t *testing.T) {
		g, _, p2 := startedDuel(t)
		before := len(g.Guesses)
		_, err := g.SubmitGuess(p2.ID, 0, "1234", t0)
		require.Error(t, err)
		assert.Equal(t, KindTurnViolation, KindOf(err))
		assert.Equal(t, before, len(g.Guesses))
	})

	t.Run("malformed guess", func(t *testing.T) {
		g, p1, _ := startedDuel(t)
		for _, bad := range []string{"123", "12345", "12a4", ""} {
			_, err := g.SubmitGuess(p1.ID, 0, bad, t0)
			require.Error(t, err, "guess %q", bad)
			assert.Equal(t, KindInvalidInput, KindOf(err))
		}
	})

	t.Run("guessing before playing", func(t *testing.T) {
		g, p1, _ := newDuel(t)
		_, err := g.SubmitGuess(p1.ID, 0, "1234", t0)
		require.Error(t, err)
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("unknown attacker", func(t *testing.T) {
		g, _, _ := startedDuel(t)
		_, err := g.SubmitGuess(99, 0, "1234", t0)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestJoinValidation(t *testing.T) {
	t.Run("duel is full at two", func(t *testing.T) {
		g, _, _ := newDuel(t)
		_, err := g.Join("carol", "", -1, t0)
		require.Error(t, err)
		assert.Equal(t, KindCapacity, KindOf(err))
	})

	t.Run("empty name", func(t *testing.T) {
		g, err := New(Config{Mode: ModeParty}, t0)
		require.NoError(t, err)
		_, err = g.Join("  ", "", -1, t0)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("party room closes once codes lock", func(t *testing.T) {
		g, err := New(Config{Mode: ModeParty}, t0)
		require.NoError(t, err)
		var ps []*Player
		for i := 0; i < 3; i++ {
			p, err := g.Join(fmt.Sprintf("p%d", i), "", -1, t0)
			require.NoError(t, err)
			ps = append(ps, p)
		}
		require.NoError(t, g.SubmitCode(ps[0].ID, "1234", nil, t0))
		assert.Equal(t, StatusSetup, g.Status)
		_, err = g.Join("late", "", -1, t0)
		require.Error(t, err)
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("party room caps at configured max", func(t *testing.T) {
		g, err := New(Config{Mode: ModeParty, MaxPlayers: 3}, t0)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err := g.Join(fmt.Sprintf("p%d", i), "", -1, t0)
			require.NoError(t, err)
		}
		_, err = g.Join("overflow", "", -1, t0)
		require.Error(t, err)
		assert.Equal(t, KindCapacity, KindOf(err))
	})

	t.Run("team slots cap at two", func(t *testing.T) {
		g, err := New(Config{Mode: ModeTeam}, t0)
		require.NoError(t, err)
		_, err = g.Join("a1", "", 0, t0)
		require.NoError(t, err)
		_, err = g.Join("a2", "", 0, t0)
		require.NoError(t, err)
		_, err = g.Join("a3", "", 0, t0)
		require.Error(t, err)
		assert.Equal(t, KindCapacity, KindOf(err))
	})
}

func TestSubmitCodeValidation(t *testing.T) {
	t.Run("code locks once", func(t *testing.T) {
		g, p1, _ := newDuel(t)
		require.NoError(t, g.SubmitCode(p1.ID, "1234", nil, t0))
		err := g.SubmitCode(p1.ID, "9999", nil, t0)
		require.Error(t, err)
		assert.Equal(t, KindInvalidState, KindOf(err))
		assert.Equal(t, "1234", p1.Code)
	})

	t.Run("wrong length or charset", func(t *testing.T) {
		g, p1, _ := newDuel(t)
		for _, bad := range []string{"123", "12345", "abcd", ""} {
			err := g.SubmitCode(p1.ID, bad, nil, t0)
			require.Error(t, err, "code %q", bad)
			assert.Equal(t, KindInvalidInput, KindOf(err))
		}
	})

	t.Run("party lobby needs min players before locking", func(t *testing.T) {
		g, err := New(Config{Mode: ModeParty}, t0)
		require.NoError(t, err)
		p, err := g.Join("solo", "", -1, t0)
		require.NoError(t, err)
		err = g.SubmitCode(p.ID, "1234", nil, t0)
		require.Error(t, err)
		assert.Equal(t, KindInvalidState, KindOf(err))
		assert.False(t, p.IsSetup)
	})
}

func TestTeamLoadouts(t *testing.T) {
	newTeamPair := func(t *testing.T) (*Game, *Player, *Player) {
		g, err := New(Config{Mode: ModeTeam}, t0)
		require.NoError(t, err)
		a1, err := g.Join("a1", "", 0, t0)
		require.NoError(t, err)
		a2, err := g.Join("a2", "", 0, t0)
		require.NoError(t, err)
		_, err = g.Join("b1", "", 1, t0)
		require.NoError(t, err)
		_, err = g.Join("b2", "", 1, t0)
		require.NoError(t, err)
		return g, a1, a2
	}

	t.Run("loadout must be exactly two picks", func(t *testing.T) {
		g, a1, _ := newTeamPair(t)
		err := g.SubmitCode(a1.ID, "123", []PowerupKind{PowerupFirewall}, t0)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("teammates cannot claim the same slot", func(t *testing.T) {
		g, a1, a2 := newTeamPair(t)
		require.NoError(t, g.SubmitCode(a1.ID, "123", []PowerupKind{PowerupFirewall, PowerupVirus}, t0))
		err := g.SubmitCode(a2.ID, "456", []PowerupKind{PowerupVirus, PowerupEMP}, t0)
		require.Error(t, err)
		assert.Equal(t, KindCapacity, KindOf(err))
		assert.False(t, a2.IsSetup)
	})

	t.Run("duplicate picks rejected", func(t *testing.T) {
		g, a1, _ := newTeamPair(t)
		err := g.SubmitCode(a1.ID, "123", []PowerupKind{PowerupVirus, PowerupVirus}, t0)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})
}

func TestTeamCompositeWin(t *testing.T) {
	g, ps := startedTeam(t)
	a1 := ps[0]

	// Team 1's composite code is "654" + "321".
	res, err := g.SubmitGuess(a1.ID, 0, "654321", t0)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Hits)
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, 0, g.WinnerTeam)
	assert.Equal(t, a1.ID, g.WinnerID)
}

func TestTeamOperatorAlternation(t *testing.T) {
	g, ps := startedTeam(t)
	a1, a2, b1, b2 := ps[0], ps[1], ps[2], ps[3]

	assert.Equal(t, a1.ID, g.Turn.PlayerID)
	assert.Equal(t, 0, g.Turn.Team)

	_, err := g.SubmitGuess(a1.ID, 0, "000000", t0)
	require.NoError(t, err)
	assert.Equal(t, b1.ID, g.Turn.PlayerID, "turn passes to the other team")
	assert.Equal(t, 1, g.Turn.Team)

	_, err = g.SubmitGuess(b1.ID, 0, "000000", t0)
	require.NoError(t, err)
	assert.Equal(t, a2.ID, g.Turn.PlayerID, "teams alternate their operators")

	_, err = g.SubmitGuess(a2.ID, 0, "000000", t0)
	require.NoError(t, err)
	assert.Equal(t, b2.ID, g.Turn.PlayerID)

	// A partner cannot act out of rotation.
	_, err = g.SubmitGuess(b1.ID, 0, "000000", t0)
	require.Error(t, err)
	assert.Equal(t, KindTurnViolation, KindOf(err))
}

func TestPartyEliminationEndToEnd(t *testing.T) {
	g, ps := startedParty(t, 3, Config{Win: WinElimination})
	p1, p2, p3 := ps[0], ps[1], ps[2]

	// p1 cracks p2's code exactly.
	res, err := g.SubmitGuess(p1.ID, p2.ID, "2222", t0)
	require.NoError(t, err)
	assert.True(t, res.Won)
	assert.True(t, p2.IsEliminated)
	assert.False(t, p2.IsGhost, "no ghost eligibility configured")
	assert.Equal(t, StatusPlaying, g.Status, "two players still standing")

	// Rotation skips the eliminated player entirely.
	assert.Equal(t, p3.ID, g.Turn.PlayerID)
	_, err = g.SubmitGuess(p3.ID, p1.ID, "9999", t0)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, g.Turn.PlayerID, "p2 is skipped in every subsequent rotation")

	// An eliminated non-ghost cannot act at all.
	_, err = g.SubmitGuess(p2.ID, p1.ID, "1111", t0)
	require.Error(t, err)
	assert.Equal(t, KindTurnViolation, KindOf(err))

	// p1 eliminates p3: last player standing wins.
	_, err = g.SubmitGuess(p1.ID, p3.ID, "3333", t0)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, p1.ID, g.WinnerID)
}

func TestPartyPointsCrackAndReset(t *testing.T) {
	g, ps := startedParty(t, 3, Config{Win: WinPoints, TargetPoints: 4})
	p1, p2, p3 := ps[0], ps[1], ps[2]

	res, err := g.SubmitGuess(p1.ID, p2.ID, "2222", t0)
	require.NoError(t, err)
	assert.True(t, res.Won)
	assert.Equal(t, DefaultAttackPoints, p1.Score)
	assert.Equal(t, StatusPlaying, g.Status)
	assert.False(t, p2.IsEliminated, "points mode never eliminates")
	assert.False(t, p2.IsSetup, "cracked code is burned")

	// The turn lands on p2 eventually; without a fresh code it is broken.
	assert.Equal(t, p2.ID, g.Turn.PlayerID)
	assert.True(t, g.BrokenTurn)
	_, err = g.SubmitGuess(p2.ID, p1.ID, "1111", t0)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))

	// Attacking a player with no locked code is rejected too.
	require.NoError(t, g.SkipTurn(p2.ID, t0))
	assert.Equal(t, p3.ID, g.Turn.PlayerID)
	_, err = g.SubmitGuess(p3.ID, p2.ID, "2222", t0)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))

	// p2 re-locks mid-game and rejoins the fight.
	require.NoError(t, g.SubmitCode(p2.ID, "8888", nil, t0))
	assert.True(t, p2.IsSetup)
	res, err = g.SubmitGuess(p3.ID, p2.ID, "8888", t0)
	require.NoError(t, err)
	assert.True(t, res.Won)

	// Second crack for p1 reaches the 4-point target.
	require.NoError(t, g.SubmitCode(p2.ID, "7777", nil, t0))
	assert.Equal(t, p1.ID, g.Turn.PlayerID)
	_, err = g.SubmitGuess(p1.ID, p2.ID, "7777", t0)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, p1.ID, g.WinnerID)
}

func TestRestart(t *testing.T) {
	g, ps := startedParty(t, 3, Config{Win: WinElimination})
	p1, p2, p3 := ps[0], ps[1], ps[2]

	_, err := g.ApplyPowerup(p1.ID, Honeypot{}, t0)
	require.NoError(t, err)
	_, err = g.SubmitGuess(p1.ID, p2.ID, "2222", t0)
	require.NoError(t, err)
	_, err = g.SubmitGuess(p3.ID, p2.ID, "9999", t0)
	require.Error(t, err, "p2 is out")
	_, err = g.SubmitGuess(p3.ID, p1.ID, "1111", t0)
	require.NoError(t, err)
	require.Equal(t, StatusFinished, g.Status)

	require.NoError(t, g.Restart(t0))
	assert.Equal(t, StatusSetup, g.Status)
	assert.Len(t, g.Players, 3, "membership survives")
	for _, p := range g.Players {
		assert.Empty(t, p.Code)
		assert.False(t, p.IsSetup)
		assert.False(t, p.IsEliminated)
		assert.Zero(t, p.Score)
		assert.Empty(t, p.Used)
		assert.False(t, p.HoneypotArmed)
	}
	assert.Zero(t, g.WinnerID)
	assert.Empty(t, g.Guesses)

	// A finished duel does not restart.
	d, d1, d2 := startedDuel(t)
	_, err = d.SubmitGuess(d1.ID, 0, "5678", t0)
	require.NoError(t, err)
	err = d.Restart(t0)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
	_ = d2
}

func TestRestartRequiresFinished(t *testing.T) {
	g, _ := startedParty(t, 3, Config{Win: WinElimination})
	err := g.Restart(t0)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestNewRulesValidation(t *testing.T) {
	_, err := NewRules(Config{Mode: "chess"})
	require.Error(t, err)

	_, err = NewRules(Config{Mode: ModeParty, MaxPlayers: 2})
	require.Error(t, err)

	_, err = NewRules(Config{Mode: ModeParty, Win: WinElimination, Bounty: true})
	require.Error(t, err, "bounty needs points mode")

	_, err = NewRules(Config{Mode: ModeParty, Win: WinPoints, Ghosts: true})
	require.Error(t, err, "ghosts need elimination mode")

	_, err = NewRules(Config{Mode: ModeDuel, Powerups: []PowerupKind{"nuke"}})
	require.Error(t, err)

	r, err := NewRules(Config{Mode: ModeTeam})
	require.NoError(t, err)
	assert.Equal(t, 6, r.CodeLength)
	assert.Equal(t, 3, r.FragmentLength)
	assert.Equal(t, 2, r.LoadoutSize)
}

func TestRoomCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := NewRoomCode()
		assert.Len(t, code, roomCodeLen)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45, "codes should rarely collide")
}
