// internal/game/game.go
//
// Mode state machines for Codebreakers matches.
// One Game type serves all three modes; the Rules capability table decides
// code dimensions, rotation and win policy. Operations:
//   - New / Join: room creation and lobby membership.
//   - SubmitCode: lock a secret (or re-lock after a points-mode reset).
//   - SubmitGuess: the central attack flow: scoring, honeypot/EMP
//     post-processing, win detection, turn advancement.
//   - Restart: reset a finished party/team match in place.
//   - PostChat: team-channel chat entries.
//
// Commands are atomic: any rejection leaves the game untouched.

package game

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const roomCodeLen = 6

// roomCodeAlphabet avoids lookalike characters in shareable codes.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewRoomCode returns a short human-shareable join code.
func NewRoomCode() string {
	b := make([]byte, roomCodeLen)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
	}
	return string(b)
}

// NewRules resolves a caller Config into a full capability table,
// validating mode-specific constraints.
func NewRules(cfg Config) (Rules, error) {
	powerups := cfg.Powerups
	if len(powerups) == 0 {
		powerups = append([]PowerupKind{}, AllPowerups...)
	}
	for _, k := range powerups {
		if !ValidPowerup(k) {
			return Rules{}, invalidInput("unknown powerup %q", k)
		}
	}

	turnSeconds := cfg.TurnSeconds
	if turnSeconds <= 0 {
		turnSeconds = DefaultTurnSeconds
	}
	target := cfg.TargetPoints
	if target <= 0 {
		target = DefaultTargetPoints
	}

	switch cfg.Mode {
	case ModeDuel:
		return Rules{
			CodeLength: 4, FragmentLength: 4,
			MinPlayers: 2, MaxPlayers: 2,
			Win:      WinExactMatch,
			Powerups: powerups,
			TimerEnabled: cfg.Timer, TurnSeconds: turnSeconds,
		}, nil

	case ModeParty:
		win := cfg.Win
		if win == "" {
			win = WinPoints
		}
		if win != WinPoints && win != WinElimination {
			return Rules{}, invalidInput("party mode win condition must be points or elimination")
		}
		maxPlayers := cfg.MaxPlayers
		if maxPlayers == 0 {
			maxPlayers = 6
		}
		if maxPlayers < 3 || maxPlayers > 6 {
			return Rules{}, invalidInput("party mode holds 3-6 players")
		}
		r := Rules{
			CodeLength: 4, FragmentLength: 4,
			MinPlayers: 3, MaxPlayers: maxPlayers,
			Win:          win,
			TargetPoints: target,
			AttackPoints: DefaultAttackPoints,
			BountyPoints: DefaultBountyPoints,
			Powerups:     powerups,
			TimerEnabled: cfg.Timer, TurnSeconds: turnSeconds,
		}
		if cfg.Bounty {
			if win != WinPoints {
				return Rules{}, invalidInput("bounty contracts require the points win condition")
			}
			r.BountyCycle = DefaultBountyCycle
		}
		if cfg.Ghosts {
			if win != WinElimination {
				return Rules{}, invalidInput("ghost revenge requires the elimination win condition")
			}
			r.GhostRevenge = true
		}
		return r, nil

	case ModeTeam:
		return Rules{
			CodeLength: 6, FragmentLength: 3,
			MinPlayers: 4, MaxPlayers: 4,
			Win:         WinTeamMatch,
			Powerups:    powerups,
			LoadoutSize: 2,
			TimerEnabled: cfg.Timer, TurnSeconds: turnSeconds,
		}, nil
	}
	return Rules{}, invalidInput("unknown mode %q", cfg.Mode)
}

// New creates an empty game for the given config. Duels open directly in
// setup; party and team games open a waiting lobby first. The creator joins
// through Join like everyone else.
func New(cfg Config, now time.Time) (*Game, error) {
	rules, err := NewRules(cfg)
	if err != nil {
		return nil, err
	}
	status := StatusWaiting
	if cfg.Mode == ModeDuel {
		status = StatusSetup
	}
	g := &Game{
		ID:           uuid.NewString(),
		RoomCode:     NewRoomCode(),
		Mode:         cfg.Mode,
		Status:       status,
		Rules:        rules,
		NextPlayerID: 1,
		Turn:         TurnPointer{Team: -1},
		WinnerTeam:   -1,
		CreatedAt:    now,
	}
	g.logf(LogInfo, now, "room %s opened (%s mode)", g.RoomCode, g.Mode)
	return g, nil
}

// Join adds a player to the room. Party/team rooms accept players while the
// lobby is open (before the first code locks); duels accept the second
// player during setup. Team mode additionally checks the two-per-team cap.
func (g *Game) Join(name, color string, team int, now time.Time) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("a display name is required")
	}

	switch g.Mode {
	case ModeDuel:
		if g.Status != StatusSetup {
			return nil, invalidState("this duel already started")
		}
		team = -1
	case ModeParty:
		if g.Status != StatusWaiting {
			return nil, invalidState("this room is no longer accepting players")
		}
		team = -1
	case ModeTeam:
		if g.Status != StatusWaiting {
			return nil, invalidState("this room is no longer accepting players")
		}
		if team != 0 && team != 1 {
			return nil, invalidInput("team must be 0 or 1")
		}
		if len(g.teamPlayers(team)) >= 2 {
			return nil, capacity("team %d already has two operators", team+1)
		}
	}
	if len(g.Players) >= g.Rules.MaxPlayers {
		return nil, capacity("room %s is full", g.RoomCode)
	}

	p := &Player{
		ID:    g.NextPlayerID,
		Name:  name,
		Color: color,
		Team:  team,
		Used:  make(map[PowerupKind]bool),
	}
	g.NextPlayerID++
	g.Players = append(g.Players, p)
	g.logf(LogInfo, now, "%s joined the room", name)
	return p, nil
}

// SubmitCode locks a player's secret code (a 3-digit fragment in team mode,
// a 4-digit code otherwise). Team mode also records the operator's powerup
// loadout, which must be exactly LoadoutSize picks disjoint from the
// partner's already-locked picks.
//
// A code locks once for setup; during play only the changeDigit/swapDigits
// powerups may rewrite it. One exception: a player whose code was
// reset by a points-mode crack may re-lock a fresh one mid-game.
func (g *Game) SubmitCode(playerID int, code string, loadout []PowerupKind, now time.Time) error {
	p := g.player(playerID)
	if p == nil {
		return notFound("player %d is not in this game", playerID)
	}

	switch g.Status {
	case StatusWaiting, StatusSetup:
	case StatusPlaying:
		if p.IsSetup {
			return invalidState("codes cannot change once the match started")
		}
		// re-lock after a points-mode reset
	default:
		return invalidState("cannot set a code: game is %s", g.Status)
	}
	if p.IsSetup {
		return invalidState("%s already locked a code", p.Name)
	}
	if !validCode(code, g.Rules.FragmentLength) {
		return invalidInput("code must be exactly %d digits 0-9", g.Rules.FragmentLength)
	}

	if g.Mode == ModeTeam && g.Status != StatusPlaying {
		if err := g.checkLoadout(p, loadout); err != nil {
			return err
		}
		p.Loadout = append([]PowerupKind{}, loadout...)
	}

	p.Code = code
	p.IsSetup = true

	if g.Status == StatusPlaying {
		// Re-lock mid-game: the player can act again.
		if g.Turn.PlayerID == p.ID {
			g.BrokenTurn = false
		}
		g.logf(LogInfo, now, "%s locked a fresh code", p.Name)
		return nil
	}

	// First code lock closes a party/team lobby.
	if g.Status == StatusWaiting {
		if len(g.Players) < g.Rules.MinPlayers {
			p.Code, p.IsSetup, p.Loadout = "", false, nil
			return invalidState("need at least %d players before codes lock", g.Rules.MinPlayers)
		}
		g.Status = StatusSetup
	}
	g.logf(LogInfo, now, "%s locked in a code", p.Name)

	// A duel host may lock before the opponent joins; the match never
	// starts short-handed.
	if len(g.Players) < g.Rules.MinPlayers {
		return nil
	}
	for _, q := range g.Players {
		if !q.IsSetup {
			return nil
		}
	}
	g.startPlaying(now)
	return nil
}

// checkLoadout enforces the team-mode powerup slot rules: each operator
// picks exactly LoadoutSize enabled powerups, and the four team slots must
// be unique across the two teammates.
func (g *Game) checkLoadout(p *Player, loadout []PowerupKind) error {
	if len(loadout) != g.Rules.LoadoutSize {
		return invalidInput("pick exactly %d powerups", g.Rules.LoadoutSize)
	}
	seen := map[PowerupKind]bool{}
	for _, k := range loadout {
		if !ValidPowerup(k) {
			return invalidInput("unknown powerup %q", k)
		}
		enabled := false
		for _, e := range g.Rules.Powerups {
			if e == k {
				enabled = true
			}
		}
		if !enabled {
			return invalidInput("powerup %q is not enabled in this game", k)
		}
		if seen[k] {
			return invalidInput("duplicate powerup %q in loadout", k)
		}
		seen[k] = true
	}
	for _, mate := range g.teamPlayers(p.Team) {
		if mate.ID == p.ID || !mate.IsSetup {
			continue
		}
		for _, k := range mate.Loadout {
			if seen[k] {
				return capacity("your teammate already claimed %s", k)
			}
		}
	}
	return nil
}

// GuessResult is the caller-facing outcome of a submitted guess.
type GuessResult struct {
	Feedback
	Jammed bool `json:"jammed"` // EMP withheld the real readings
	Won    bool `json:"won"`
}

// SubmitGuess resolves one attack: validation, scoring, honeypot/EMP
// post-processing, history append, win detection and turn advancement.
//
// Target resolution per mode: duel and team infer the sole opponent (an
// explicit targetID, if sent, must agree); party requires a living,
// non-self target id.
func (g *Game) SubmitGuess(attackerID, targetID int, guess string, now time.Time) (GuessResult, error) {
	var res GuessResult

	if g.Status != StatusPlaying {
		return res, invalidState("cannot guess: game is %s", g.Status)
	}
	attacker := g.player(attackerID)
	if attacker == nil {
		return res, notFound("player %d is not in this game", attackerID)
	}
	if !g.isAuthorizedActor(attacker) {
		return res, turnViolation("%s: not your turn", attacker.Name)
	}
	if g.BrokenTurn {
		return res, invalidState("your code was cracked: lock a fresh code or skip")
	}
	if !validCode(guess, g.Rules.CodeLength) {
		return res, invalidInput("guess must be exactly %d digits 0-9", g.Rules.CodeLength)
	}

	var target *Player
	var secret string
	targetTeam := -1
	switch g.Mode {
	case ModeDuel:
		for _, p := range g.Players {
			if p.ID != attacker.ID {
				target = p
			}
		}
		if targetID != 0 && (target == nil || targetID != target.ID) {
			return res, invalidInput("invalid target for a duel")
		}
		secret = target.Code
	case ModeParty:
		if targetID == 0 {
			return res, invalidInput("a target is required")
		}
		target = g.player(targetID)
		if target == nil {
			return res, notFound("target %d is not in this game", targetID)
		}
		if target.ID == attacker.ID {
			return res, invalidInput("you cannot attack yourself")
		}
		if !target.Alive() {
			return res, invalidInput("%s is already out of the game", target.Name)
		}
		if !target.IsSetup {
			return res, invalidState("%s has no locked code right now", target.Name)
		}
		secret = target.Code
	case ModeTeam:
		targetTeam = 1 - attacker.Team
		secret = g.compositeCode(targetTeam)
	}

	fb := Score(secret, guess)
	exact := fb.Exact(g.Rules.CodeLength)

	// Honeypot: falsified readings for one incoming guess, consumed either
	// way. A real breach is never masked. In team mode the trap belongs to
	// whichever defending operator armed one.
	trap := target
	if trap == nil && targetTeam >= 0 {
		for _, p := range g.teamPlayers(targetTeam) {
			if p.HoneypotArmed {
				trap = p
				break
			}
		}
	}
	if trap != nil && trap.HoneypotArmed {
		trap.HoneypotArmed = false
		if !exact {
			fb.Hits, fb.Blips = fb.Blips, fb.Hits
			g.logTeam(trap.Team, LogInfo, now, "honeypot sprung: %s saw false readings", attacker.Name)
		}
	}

	// EMP: the attacker's readings are withheld, but the attack still lands.
	jammed := false
	if attacker.JammedGuesses > 0 {
		attacker.JammedGuesses--
		jammed = true
	}

	rec := Guess{
		AttackerID: attacker.ID,
		TargetTeam: targetTeam,
		Code:       guess,
		Hits:       fb.Hits,
		Blips:      fb.Blips,
		Jammed:     jammed,
		At:         now,
	}
	if target != nil {
		rec.TargetID = target.ID
	}
	if jammed {
		rec.Hits, rec.Blips = -1, -1
	}
	g.Guesses = append(g.Guesses, rec)

	if jammed {
		g.logf(LogWarning, now, "%s attacked, but their scanner was jammed", attacker.Name)
	} else if target != nil {
		g.logf(LogInfo, now, "%s attacked %s: %d hits, %d blips", attacker.Name, target.Name, fb.Hits, fb.Blips)
	} else {
		g.logf(LogInfo, now, "%s attacked team %d: %d hits, %d blips", attacker.Name, targetTeam+1, fb.Hits, fb.Blips)
	}

	if exact {
		g.resolveCrack(attacker, target, targetTeam, now)
	}

	res = GuessResult{Feedback: fb, Jammed: jammed, Won: exact}
	if jammed {
		res.Feedback = Feedback{Hits: -1, Blips: -1}
	}

	if g.Status != StatusPlaying {
		return res, nil
	}

	// Firewall: the attacker keeps the turn once; the timer still restarts.
	if attacker.ExtraTurns > 0 {
		attacker.ExtraTurns--
		g.TurnCount++
		g.TurnStartedAt = now
		g.rotateBounty(now)
		g.logf(LogInfo, now, "%s's firewall holds: they keep the turn", attacker.Name)
		return res, nil
	}

	g.advanceTurn(now)
	return res, nil
}

// resolveCrack applies the consequences of an exact match under the active
// win condition.
func (g *Game) resolveCrack(attacker, target *Player, targetTeam int, now time.Time) {
	switch g.Rules.Win {
	case WinExactMatch:
		g.finishWithWinner(attacker, now)

	case WinPoints:
		award := g.Rules.AttackPoints
		if g.BountyTargetID != 0 && target.ID == g.BountyTargetID {
			award = g.Rules.BountyPoints
			g.BountyTargetID = 0
			g.logf(LogSuccess, now, "%s collected the bounty on %s", attacker.Name, target.Name)
		}
		attacker.Score += award
		// The cracked code is burned; the target locks a fresh one.
		target.Code = ""
		target.IsSetup = false
		g.logf(LogSuccess, now, "%s cracked %s's code for %d points", attacker.Name, target.Name, award)
		if attacker.Score >= g.Rules.TargetPoints {
			g.finishWithWinner(attacker, now)
		}

	case WinElimination:
		target.IsEliminated = true
		target.IsGhost = g.Rules.GhostRevenge // the revenge rule keeps them in the rotation
		if g.BountyTargetID == target.ID {
			g.BountyTargetID = 0
		}
		g.logf(LogError, now, "%s was eliminated by %s", target.Name, attacker.Name)
		if attacker.IsGhost {
			attacker.GhostStrikes++
			g.logf(LogWarning, now, "%s struck from beyond (%d/%d)", attacker.Name, attacker.GhostStrikes, GhostStrikeCap)
			if attacker.GhostStrikes >= GhostStrikeCap {
				attacker.IsGhost = false
				g.logf(LogInfo, now, "%s's ghost fades", attacker.Name)
			}
		}
		g.checkLastStanding(now)

	case WinTeamMatch:
		g.Status = StatusFinished
		g.WinnerID = attacker.ID
		g.WinnerTeam = attacker.Team
		g.logf(LogSuccess, now, "team %d cracked the enemy code: %s wins it", attacker.Team+1, attacker.Name)
	}
}

// checkLastStanding ends an elimination match when one living player
// remains.
func (g *Game) checkLastStanding(now time.Time) {
	var last *Player
	alive := 0
	for _, p := range g.Players {
		if p.Alive() {
			alive++
			last = p
		}
	}
	if alive == 1 {
		g.finishWithWinner(last, now)
	}
}

// finishWithWinner transitions to finished and attributes the win.
func (g *Game) finishWithWinner(p *Player, now time.Time) {
	g.Status = StatusFinished
	g.WinnerID = p.ID
	g.WinnerTeam = p.Team
	g.logf(LogSuccess, now, "%s wins the match", p.Name)
}

// Restart resets a finished party/team match in place: codes, flags, scores
// and history clear; room membership and identities survive. The game
// returns to setup so players re-lock codes directly.
func (g *Game) Restart(now time.Time) error {
	if g.Status != StatusFinished {
		return invalidState("only a finished game can restart")
	}
	if g.Mode == ModeDuel {
		return invalidState("duels do not restart: open a new room")
	}
	for _, p := range g.Players {
		p.Code = ""
		p.IsSetup = false
		p.Score = 0
		p.IsEliminated = false
		p.IsGhost = false
		p.GhostStrikes = 0
		p.SilencedTurns = 0
		p.Used = make(map[PowerupKind]bool)
		p.Loadout = nil
		p.HoneypotArmed = false
		p.JammedGuesses = 0
		p.ExtraTurns = 0
		p.TimePenalty = 0
	}
	g.Status = StatusSetup
	g.Turn = TurnPointer{Team: -1}
	g.TurnCount = 0
	g.TurnStartedAt = time.Time{}
	g.BrokenTurn = false
	g.WinnerID = 0
	g.WinnerTeam = -1
	g.BountyTargetID = 0
	g.BountyRound = 0
	g.TeamOperator = [2]int{}
	g.Guesses = nil
	g.Intel = nil
	g.logf(LogInfo, now, "rematch: lock in new codes")
	return nil
}

// PostChat appends a chat entry. In team mode the entry lands on the
// author's team channel; other modes post to the shared feed. Silenced
// players cannot chat.
func (g *Game) PostChat(playerID int, message string, now time.Time) error {
	p := g.player(playerID)
	if p == nil {
		return notFound("player %d is not in this game", playerID)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return invalidInput("empty message")
	}
	if p.SilencedTurns > 0 {
		return turnViolation("%s is silenced", p.Name)
	}
	if g.Mode == ModeTeam {
		g.logTeam(p.Team, LogInfo, now, "[team] %s: %s", p.Name, message)
	} else {
		g.logf(LogInfo, now, "%s: %s", p.Name, message)
	}
	return nil
}

// String implements a compact debug description.
func (g *Game) String() string {
	return fmt.Sprintf("game %s (%s, %s, %d players)", g.RoomCode, g.Mode, g.Status, len(g.Players))
}
