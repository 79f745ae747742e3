// internal/game/powerup.go
//
// Powerup engine.
// Responsibilities:
//   - The powerup catalog and its per-kind command types.
//   - Validation (fixed order: status, turn, silence, one-shot flag, target).
//   - Atomic apply-or-reject effect application.
//
// Every powerup is one-shot per player per game. Commands are tagged
// variants: each kind carries exactly the fields it needs, decoded
// exhaustively at the transport boundary. No powerup consumes the turn;
// turn advancement belongs to the guess flow alone.

package game

import (
	"fmt"
	"time"
)

// PowerupKind names one entry of the powerup catalog.
type PowerupKind string

const (
	PowerupFirewall    PowerupKind = "firewall"    // extra turn: the opponent's incoming turn is skipped
	PowerupBruteforce  PowerupKind = "bruteforce"  // reveal the parity of the target's digit sum
	PowerupChangeDigit PowerupKind = "changeDigit" // rewrite one digit of your own locked code
	PowerupSwapDigits  PowerupKind = "swapDigits"  // exchange two digits of your own locked code
	PowerupVirus       PowerupKind = "virus"       // corrupt recent log entries for everyone else
	PowerupTimeHack    PowerupKind = "timeHack"    // cut the target's next turn timer
	PowerupEMP         PowerupKind = "emp"         // jam the target's next guess feedback
	PowerupSpyware     PowerupKind = "spyware"     // leak one digit of the target's code
	PowerupHoneypot    PowerupKind = "honeypot"    // falsify feedback for the next incoming guess
	PowerupPhishing    PowerupKind = "phishing"    // steal a point and leak the target's arsenal count
	PowerupLogicBomb   PowerupKind = "logicBomb"   // silence the target's powerups for a few turns
)

// AllPowerups is the full catalog in display order.
var AllPowerups = []PowerupKind{
	PowerupFirewall, PowerupBruteforce, PowerupChangeDigit, PowerupSwapDigits,
	PowerupVirus, PowerupTimeHack, PowerupEMP, PowerupSpyware,
	PowerupHoneypot, PowerupPhishing, PowerupLogicBomb,
}

// ValidPowerup reports whether k names a catalog entry.
func ValidPowerup(k PowerupKind) bool {
	for _, p := range AllPowerups {
		if p == k {
			return true
		}
	}
	return false
}

// needsTarget reports whether the kind requires a living, non-self target.
// Virus may target or broadcast, so it is not listed here.
func needsTarget(k PowerupKind) bool {
	switch k {
	case PowerupBruteforce, PowerupTimeHack, PowerupEMP, PowerupSpyware,
		PowerupPhishing, PowerupLogicBomb:
		return true
	}
	return false
}

// PowerupCommand is the tagged-variant command interface. Each concrete type
// carries exactly the arguments its kind requires.
type PowerupCommand interface {
	Kind() PowerupKind
}

type Firewall struct{}

type Bruteforce struct{ TargetID int }

type ChangeDigit struct {
	Index int
	Digit byte // '0'-'9'
}

type SwapDigits struct{ I, J int }

// Virus corrupts the shared log. TargetID 0 broadcasts; a non-zero target is
// validated but the corruption is game-wide either way.
type Virus struct{ TargetID int }

type TimeHack struct{ TargetID int }

type EMP struct{ TargetID int }

type Spyware struct{ TargetID int }

type Honeypot struct{}

type Phishing struct{ TargetID int }

type LogicBomb struct{ TargetID int }

func (Firewall) Kind() PowerupKind    { return PowerupFirewall }
func (Bruteforce) Kind() PowerupKind  { return PowerupBruteforce }
func (ChangeDigit) Kind() PowerupKind { return PowerupChangeDigit }
func (SwapDigits) Kind() PowerupKind  { return PowerupSwapDigits }
func (Virus) Kind() PowerupKind       { return PowerupVirus }
func (TimeHack) Kind() PowerupKind    { return PowerupTimeHack }
func (EMP) Kind() PowerupKind         { return PowerupEMP }
func (Spyware) Kind() PowerupKind     { return PowerupSpyware }
func (Honeypot) Kind() PowerupKind    { return PowerupHoneypot }
func (Phishing) Kind() PowerupKind    { return PowerupPhishing }
func (LogicBomb) Kind() PowerupKind   { return PowerupLogicBomb }

// PowerupResult is the caller-facing outcome of a successful powerup.
// Revealed carries information powerups' loot; it is also recorded as intel
// so the snapshot can replay it to the caster later.
type PowerupResult struct {
	Kind     PowerupKind `json:"kind"`
	Message  string      `json:"message"`
	Revealed string      `json:"revealed,omitempty"`
}

// ApplyPowerup validates and applies one powerup command for the calling
// player. Validation happens in a fixed order before any mutation:
//
//  1. game status must be playing
//  2. caller must be the authorized actor for the current turn
//  3. caller must not be silenced
//  4. the caller's one-shot flag for this kind must still be clear
//  5. a required target must reference a living, non-self player
//
// On success the used flag is set, the effect lands, and a log entry is
// emitted. The turn pointer is never touched.
func (g *Game) ApplyPowerup(playerID int, cmd PowerupCommand, now time.Time) (*PowerupResult, error) {
	kind := cmd.Kind()
	if !ValidPowerup(kind) {
		return nil, invalidInput("unknown powerup %q", kind)
	}
	if g.Status != StatusPlaying {
		return nil, invalidState("powerups are only usable while playing")
	}

	caller := g.player(playerID)
	if caller == nil {
		return nil, notFound("player %d is not in this game", playerID)
	}
	if !g.isAuthorizedActor(caller) {
		return nil, turnViolation("%s: not your turn", caller.Name)
	}
	if caller.SilencedTurns > 0 {
		return nil, turnViolation("%s is silenced for %d more turns", caller.Name, caller.SilencedTurns)
	}
	if !g.powerupEnabled(caller, kind) {
		return nil, invalidInput("powerup %q is not available in this game", kind)
	}
	if caller.Used[kind] {
		return nil, turnViolation("%s already used %s", caller.Name, kind)
	}

	target, err := g.resolvePowerupTarget(caller, cmd)
	if err != nil {
		return nil, err
	}

	res, err := g.applyPowerupEffect(caller, target, cmd, now)
	if err != nil {
		return nil, err
	}

	caller.Used[kind] = true

	// Phishing can push the caster over the points target.
	if g.Rules.Win == WinPoints && g.Status == StatusPlaying && caller.Score >= g.Rules.TargetPoints {
		g.finishWithWinner(caller, now)
	}
	return res, nil
}

// powerupEnabled checks the game's enabled set and, in team mode, the
// caller's personal loadout.
func (g *Game) powerupEnabled(p *Player, kind PowerupKind) bool {
	found := false
	for _, k := range g.Rules.Powerups {
		if k == kind {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if g.Mode == ModeTeam {
		for _, k := range p.Loadout {
			if k == kind {
				return true
			}
		}
		return false
	}
	return true
}

// resolvePowerupTarget extracts and validates the target (if any) from the
// command. Returns nil for self-acting and broadcast powerups.
func (g *Game) resolvePowerupTarget(caller *Player, cmd PowerupCommand) (*Player, error) {
	id := 0
	switch c := cmd.(type) {
	case Bruteforce:
		id = c.TargetID
	case TimeHack:
		id = c.TargetID
	case EMP:
		id = c.TargetID
	case Spyware:
		id = c.TargetID
	case Phishing:
		id = c.TargetID
	case LogicBomb:
		id = c.TargetID
	case Virus:
		if c.TargetID == 0 {
			return nil, nil // broadcast
		}
		id = c.TargetID
	default:
		return nil, nil
	}

	if id == 0 {
		if needsTarget(cmd.Kind()) {
			return nil, invalidInput("%s requires a target", cmd.Kind())
		}
		return nil, nil
	}
	target := g.player(id)
	if target == nil {
		return nil, notFound("target %d is not in this game", id)
	}
	if target.ID == caller.ID {
		return nil, invalidInput("%s cannot target yourself", cmd.Kind())
	}
	if !target.Alive() {
		return nil, invalidInput("%s is already out of the game", target.Name)
	}
	if g.Mode == ModeTeam && target.Team == caller.Team {
		return nil, invalidInput("cannot target your own teammate")
	}
	return target, nil
}

// applyPowerupEffect lands the already-validated effect. Effects and logging
// only; the used flag is set by the caller once this returns nil.
func (g *Game) applyPowerupEffect(caller, target *Player, cmd PowerupCommand, now time.Time) (*PowerupResult, error) {
	switch c := cmd.(type) {
	case Firewall:
		caller.ExtraTurns++
		g.logf(LogWarning, now, "%s raised a firewall: the next counterattack is blocked", caller.Name)
		return &PowerupResult{Kind: PowerupFirewall, Message: "firewall raised, you keep the turn after your next attack"}, nil

	case Bruteforce:
		sum := 0
		for i := 0; i < len(target.Code); i++ {
			sum += int(target.Code[i] - '0')
		}
		parity := "odd"
		if sum%2 == 0 {
			parity = "even"
		}
		msg := fmt.Sprintf("%s's digit sum is %s", target.Name, parity)
		g.addIntel(caller.ID, target.ID, PowerupBruteforce, msg)
		g.logf(LogWarning, now, "%s ran a brute force probe against %s", caller.Name, target.Name)
		return &PowerupResult{Kind: PowerupBruteforce, Message: "probe complete", Revealed: msg}, nil

	case ChangeDigit:
		if !caller.IsSetup {
			return nil, invalidState("%s has no locked code to rewrite", caller.Name)
		}
		if c.Index < 0 || c.Index >= len(caller.Code) {
			return nil, invalidInput("digit index %d out of range", c.Index)
		}
		if c.Digit < '0' || c.Digit > '9' {
			return nil, invalidInput("replacement must be a digit 0-9")
		}
		code := []byte(caller.Code)
		code[c.Index] = c.Digit
		caller.Code = string(code)
		g.logf(LogInfo, now, "%s rewrote part of their code", caller.Name)
		return &PowerupResult{Kind: PowerupChangeDigit, Message: "digit rewritten"}, nil

	case SwapDigits:
		if !caller.IsSetup {
			return nil, invalidState("%s has no locked code to rewrite", caller.Name)
		}
		n := len(caller.Code)
		if c.I < 0 || c.I >= n || c.J < 0 || c.J >= n {
			return nil, invalidInput("swap indices out of range")
		}
		if c.I == c.J {
			return nil, invalidInput("swap indices must differ")
		}
		code := []byte(caller.Code)
		code[c.I], code[c.J] = code[c.J], code[c.I]
		caller.Code = string(code)
		g.logf(LogInfo, now, "%s shuffled their code", caller.Name)
		return &PowerupResult{Kind: PowerupSwapDigits, Message: "digits swapped"}, nil

	case Virus:
		corrupted := g.corruptRecentLog(caller.ID, 3)
		g.logf(LogError, now, "%s released a virus into the feed", caller.Name)
		return &PowerupResult{Kind: PowerupVirus, Message: fmt.Sprintf("%d log entries corrupted", corrupted)}, nil

	case TimeHack:
		target.TimePenalty += DefaultTimeHackCut
		g.logf(LogWarning, now, "%s launched a DDOS: %s loses %ds of turn time", caller.Name, target.Name, DefaultTimeHackCut)
		return &PowerupResult{Kind: PowerupTimeHack, Message: fmt.Sprintf("%s's timer cut by %ds", target.Name, DefaultTimeHackCut)}, nil

	case EMP:
		target.JammedGuesses++
		g.logf(LogWarning, now, "%s fired an EMP at %s", caller.Name, target.Name)
		return &PowerupResult{Kind: PowerupEMP, Message: fmt.Sprintf("%s's next scan is jammed", target.Name)}, nil

	case Spyware:
		idx := g.TurnCount % len(target.Code)
		msg := fmt.Sprintf("%s's digit %d is %c", target.Name, idx+1, target.Code[idx])
		g.addIntel(caller.ID, target.ID, PowerupSpyware, msg)
		g.logf(LogWarning, now, "%s planted spyware on %s", caller.Name, target.Name)
		return &PowerupResult{Kind: PowerupSpyware, Message: "spyware report received", Revealed: msg}, nil

	case Honeypot:
		caller.HoneypotArmed = true
		g.logf(LogInfo, now, "%s deployed a honeypot", caller.Name)
		return &PowerupResult{Kind: PowerupHoneypot, Message: "the next incoming scan will be fed false readings"}, nil

	case Phishing:
		stolen := 0
		if target.Score > 0 {
			target.Score--
			caller.Score++
			stolen = 1
		}
		arsenal := 0
		for _, k := range g.Rules.Powerups {
			if !target.Used[k] {
				arsenal++
			}
		}
		msg := fmt.Sprintf("%s has %d unused powerups", target.Name, arsenal)
		g.addIntel(caller.ID, target.ID, PowerupPhishing, msg)
		g.logf(LogWarning, now, "%s phished %s", caller.Name, target.Name)
		return &PowerupResult{
			Kind:     PowerupPhishing,
			Message:  fmt.Sprintf("stole %d point(s)", stolen),
			Revealed: msg,
		}, nil

	case LogicBomb:
		target.SilencedTurns = DefaultSilenceTurns
		g.logf(LogError, now, "%s detonated a logic bomb: %s is silenced for %d turns", caller.Name, target.Name, DefaultSilenceTurns)
		return &PowerupResult{Kind: PowerupLogicBomb, Message: fmt.Sprintf("%s silenced", target.Name)}, nil
	}

	return nil, invalidInput("unknown powerup command %T", cmd)
}
