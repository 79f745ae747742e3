// internal/game/turns.go
//
// Turn scheduler.
// Responsibilities:
//   - First-actor assignment on the setup → playing transition.
//   - Rotation: duel alternation, party fixed join-order rotation with
//     elimination/ghost skipping, team alternation with per-team operator
//     swapping.
//   - Forced advancement: explicit skip and poll-triggered timeout.
//   - Derived turn timers (pure function of turnStartedAt + config + now).
//   - Bounty contract rotation on a turn-count schedule.

package game

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// isAuthorizedActor reports whether p may act right now. The turn pointer is
// the single source of truth; ghosts hold real turns in the rotation, so no
// side channel is needed for the revenge rule.
func (g *Game) isAuthorizedActor(p *Player) bool {
	return g.Turn.PlayerID == p.ID
}

// startPlaying fires the setup → playing transition. First actor assignment
// is deterministic: the first-joined player (team mode: team 0's
// first-joined operator), decided once and held for the whole match.
func (g *Game) startPlaying(now time.Time) {
	g.Status = StatusPlaying
	g.TurnCount = 0
	g.TurnStartedAt = now
	g.BrokenTurn = false

	if g.Mode == ModeTeam {
		first := g.teamPlayers(0)[0]
		g.Turn = TurnPointer{PlayerID: first.ID, Team: 0}
		g.TeamOperator = [2]int{1, 0} // team 0's second operator goes next for them
	} else {
		g.Turn = TurnPointer{PlayerID: g.Players[0].ID, Team: -1}
	}

	g.logf(LogSuccess, now, "all codes locked, the match begins: %s goes first", g.player(g.Turn.PlayerID).Name)
}

// advanceTurn moves the pointer to the next eligible actor and restarts the
// derived turn timer. Landing on a player who cannot currently act (code
// reset pending re-lock) raises the broken-turn flag: only a skip, or the
// player re-locking, clears it.
func (g *Game) advanceTurn(now time.Time) {
	if g.Status != StatusPlaying {
		return
	}
	prev := g.player(g.Turn.PlayerID)

	switch g.Mode {
	case ModeDuel:
		for _, p := range g.Players {
			if p.ID != g.Turn.PlayerID {
				g.Turn.PlayerID = p.ID
				break
			}
		}
	case ModeParty:
		g.Turn.PlayerID = g.nextPartyActor()
	case ModeTeam:
		team := 1 - g.Turn.Team
		members := g.teamPlayers(team)
		op := members[g.TeamOperator[team]%len(members)]
		g.TeamOperator[team] = (g.TeamOperator[team] + 1) % len(members)
		g.Turn = TurnPointer{PlayerID: op.ID, Team: team}
	}

	g.TurnCount++
	g.TurnStartedAt = now

	// Silence drains as the silenced player's turns elapse; a DDOS cut
	// spends itself on the one turn it hit.
	if prev != nil {
		if prev.SilencedTurns > 0 {
			prev.SilencedTurns--
		}
		prev.TimePenalty = 0
	}

	next := g.player(g.Turn.PlayerID)
	g.BrokenTurn = next != nil && !next.IsSetup

	g.rotateBounty(now)
}

// nextPartyActor walks the fixed join-order rotation from the current
// pointer, skipping players with no standing to act (eliminated non-ghosts
// and retired ghosts). Falls back to the current actor if nobody else is
// eligible; win detection will have ended the game before that matters.
func (g *Game) nextPartyActor() int {
	cur := 0
	for i, p := range g.Players {
		if p.ID == g.Turn.PlayerID {
			cur = i
			break
		}
	}
	for step := 1; step <= len(g.Players); step++ {
		p := g.Players[(cur+step)%len(g.Players)]
		if p.CanAct() {
			return p.ID
		}
	}
	return g.Turn.PlayerID
}

// SkipTurn advances past the caller's own turn without consuming a guess.
// This is the explicit affordance for broken turns (code reset pending) and
// for players who simply cannot or will not act.
func (g *Game) SkipTurn(playerID int, now time.Time) error {
	if g.Status != StatusPlaying {
		return invalidState("cannot skip: game is %s", g.Status)
	}
	p := g.player(playerID)
	if p == nil {
		return notFound("player %d is not in this game", playerID)
	}
	if !g.isAuthorizedActor(p) {
		return turnViolation("%s: not your turn to skip", p.Name)
	}
	g.BrokenTurn = false
	g.logf(LogInfo, now, "%s passed the turn", p.Name)
	g.advanceTurn(now)
	return nil
}

// Remaining reports how much of the current turn's timer is left. The value
// is derived on every read from the stored turn start, the configured
// duration and any DDOS penalty against the current actor; no server-side
// countdown exists. Games without a timer report a negative duration.
func (g *Game) Remaining(now time.Time) time.Duration {
	if !g.Rules.TimerEnabled || g.Status != StatusPlaying {
		return -1
	}
	budget := time.Duration(g.Rules.TurnSeconds) * time.Second
	if p := g.player(g.Turn.PlayerID); p != nil {
		budget -= time.Duration(p.TimePenalty) * time.Second
	}
	left := budget - now.Sub(g.TurnStartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// DeclareTimeout applies the poll-triggered timeout transition: once a
// client computes zero remaining time for the current actor, any player in
// the room may report it and the turn advances with no penalty beyond the
// lost turn. A stalled or disconnected actor can never hold the room
// hostage. Rejected while time remains.
func (g *Game) DeclareTimeout(playerID int, now time.Time) error {
	if g.Status != StatusPlaying {
		return invalidState("cannot time out: game is %s", g.Status)
	}
	if !g.Rules.TimerEnabled {
		return invalidState("this game has no turn timer")
	}
	if g.player(playerID) == nil {
		return notFound("player %d is not in this game", playerID)
	}
	if g.Remaining(now) > 0 {
		return invalidState("time remains on the clock")
	}
	stalled := g.player(g.Turn.PlayerID)
	g.BrokenTurn = false
	g.logf(LogWarning, now, "%s ran out of time", stalled.Name)
	g.advanceTurn(now)
	return nil
}

// rotateBounty flags a new bounty target every Rules.BountyCycle turns.
// Selection is deterministic for a given game and round: an HMAC of the
// round number keyed by the game id, reduced modulo the living player count.
// Orthogonal to the rest of scheduling; runs inside the same critical
// section as the turn transition.
func (g *Game) rotateBounty(now time.Time) {
	if g.Rules.Win != WinPoints || g.Rules.BountyCycle <= 0 {
		return
	}
	if g.TurnCount == 0 || g.TurnCount%g.Rules.BountyCycle != 0 {
		return
	}

	living := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Alive() {
			living = append(living, p)
		}
	}
	if len(living) == 0 {
		g.BountyTargetID = 0
		return
	}

	g.BountyRound++
	h := hmac.New(sha256.New, []byte(g.ID))
	h.Write([]byte(fmt.Sprintf("bounty-%d", g.BountyRound)))
	sum := h.Sum(nil)
	n := binary.BigEndian.Uint64(sum[:8])
	target := living[int(n%uint64(len(living)))]

	g.BountyTargetID = target.ID
	g.logf(LogWarning, now, "a bounty contract is out on %s (%d points)", target.Name, g.Rules.BountyPoints)
}
