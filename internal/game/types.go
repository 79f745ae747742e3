// internal/game/types.go
//
// Core type definitions for the Codebreakers game engine.
// Defines:
//   - Mode/Status/WinCondition: lifecycle and rule-selection enums.
//   - Rules: the per-mode capability table (one state machine, three modes).
//   - Game/Player/Guess/LogEntry/IntelEntry: authoritative match state.
//
// All fields that belong to persisted state are exported so a store can
// round-trip a Game through JSON without loss.

package game

import "time"

// Mode selects which rule set a game runs under.
type Mode string

const (
	ModeDuel  Mode = "duel"  // 1v1, 4-digit codes
	ModeParty Mode = "party" // 3-6 players, points or elimination
	ModeTeam  Mode = "team"  // 2v2, split 6-digit codes
)

// Status is the coarse lifecycle phase of a game.
type Status string

const (
	StatusWaiting  Status = "waiting" // lobby, players joining (party/team)
	StatusSetup    Status = "setup"   // players locking secret codes
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// WinCondition selects how a game ends.
type WinCondition string

const (
	WinExactMatch  WinCondition = "exact"       // duel: first crack wins
	WinPoints      WinCondition = "points"      // party: first to target points
	WinElimination WinCondition = "elimination" // party: last player standing
	WinTeamMatch   WinCondition = "team"        // team: crack the composite code
)

// Rules is the capability table that parameterizes the single Game state
// machine per mode: code dimensions, player counts, rotation/win policy,
// enabled powerups and timer settings. Built once at game creation and
// never mutated afterwards.
type Rules struct {
	CodeLength     int           `json:"codeLength"`     // length of the guessable code (4, or 6 in team mode)
	FragmentLength int           `json:"fragmentLength"` // length each player locks (== CodeLength except team mode)
	MinPlayers     int           `json:"minPlayers"`
	MaxPlayers     int           `json:"maxPlayers"`
	Win            WinCondition  `json:"win"`
	TargetPoints   int           `json:"targetPoints"` // points mode
	AttackPoints   int           `json:"attackPoints"` // award per cracked code
	BountyPoints   int           `json:"bountyPoints"` // award for cracking the flagged bounty target
	BountyCycle    int           `json:"bountyCycle"`  // turns per bounty rotation; 0 disables contracts
	Powerups       []PowerupKind `json:"powerups"`     // enabled catalog subset
	GhostRevenge   bool          `json:"ghostRevenge"` // elimination mode: eliminated players haunt the rotation
	TimerEnabled   bool          `json:"timerEnabled"`
	TurnSeconds    int           `json:"turnSeconds"`
	LoadoutSize    int           `json:"loadoutSize"` // team mode: picks per operator (0 = no loadouts)
}

// Default reward/timing constants. These are deliberately configuration,
// not hidden behavior: callers may override them through Config.
const (
	DefaultTargetPoints = 10
	DefaultAttackPoints = 2
	DefaultBountyPoints = 6
	DefaultBountyCycle  = 5
	DefaultTurnSeconds  = 60
	DefaultTimeHackCut  = 20 // seconds removed from the target's turn timer
	DefaultSilenceTurns = 3  // turns a logic bomb mutes its target
	GhostStrikeCap      = 2  // successful revenge strikes before a ghost retires
)

// Config carries the caller-facing knobs for creating a game. Zero values
// fall back to mode defaults in NewRules.
type Config struct {
	Mode         Mode          `json:"mode"`
	Win          WinCondition  `json:"win,omitempty"`          // party only: points | elimination
	MaxPlayers   int           `json:"maxPlayers,omitempty"`   // party only: 3-6
	TargetPoints int           `json:"targetPoints,omitempty"` // points mode
	Timer        bool          `json:"timer,omitempty"`
	TurnSeconds  int           `json:"turnSeconds,omitempty"`
	Bounty       bool          `json:"bounty,omitempty"` // points mode: enable bounty contracts
	Ghosts       bool          `json:"ghosts,omitempty"` // elimination mode: enable ghost revenge
	Powerups     []PowerupKind `json:"powerups,omitempty"`
}

// TurnPointer identifies whose action is currently valid: a player in duel
// and party mode, a team + operator pair in team mode.
type TurnPointer struct {
	PlayerID int `json:"playerId"`
	Team     int `json:"team"` // -1 outside team mode
}

// Player is one participant in a game. Codes are secrets: they only leave
// the engine through a player's own snapshot or a powerup reveal.
type Player struct {
	ID            int                  `json:"id"`
	Name          string               `json:"name"`
	Color         string               `json:"color"`
	Team          int                  `json:"team"` // 0 or 1 in team mode, -1 otherwise
	Code          string               `json:"code"` // fragment in team mode
	IsSetup       bool                 `json:"isSetup"`
	Score         int                  `json:"score"`
	IsEliminated  bool                 `json:"isEliminated"`
	IsGhost       bool                 `json:"isGhost"`
	GhostStrikes  int                  `json:"ghostStrikes"`
	SilencedTurns int                  `json:"silencedTurns"`
	Used          map[PowerupKind]bool `json:"used"`
	Loadout       []PowerupKind        `json:"loadout,omitempty"` // team mode selection
	HoneypotArmed bool                 `json:"honeypotArmed"`
	JammedGuesses int                  `json:"jammedGuesses"`
	ExtraTurns    int                  `json:"extraTurns"`
	TimePenalty   int                  `json:"timePenalty"` // seconds shaved off this player's turn timer
}

// Alive reports whether the player still holds a crackable code. Ghosts are
// not alive: they act, but cannot be targeted.
func (p *Player) Alive() bool { return !p.IsEliminated }

// CanAct reports whether the player retains standing to take a turn.
func (p *Player) CanAct() bool { return !p.IsEliminated || p.IsGhost }

// Guess is one resolved attack. Immutable once appended; the slice on Game
// is the append-only history of gameplay.
type Guess struct {
	AttackerID int       `json:"attackerId"`
	TargetID   int       `json:"targetId"` // 0 in team mode (the opposing team is implicit)
	TargetTeam int       `json:"targetTeam"`
	Code       string    `json:"code"`
	Hits       int       `json:"hits"`
	Blips      int       `json:"blips"`
	Jammed     bool      `json:"jammed"` // feedback withheld by an EMP
	At         time.Time `json:"at"`
}

// LogType classifies a log entry for rendering.
type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogWarning LogType = "warning"
	LogError   LogType = "error"
)

// LogEntry is one human-readable state-change event. TeamChannel scopes an
// entry to one team's view (team chat); -1 means visible to everyone.
// Corrupted entries render garbled to everyone except CorruptedBy.
type LogEntry struct {
	Message     string    `json:"message"`
	Type        LogType   `json:"type"`
	TeamChannel int       `json:"teamChannel"`
	Corrupted   bool      `json:"corrupted"`
	CorruptedBy int       `json:"corruptedBy,omitempty"`
	At          time.Time `json:"at"`
}

// IntelEntry is information a powerup revealed to exactly one player
// (bruteforce parity, spyware digits, phishing loot). The snapshot replays
// these only to the entitled viewer.
type IntelEntry struct {
	ForPlayerID int         `json:"forPlayerId"`
	TargetID    int         `json:"targetId"`
	Kind        PowerupKind `json:"kind"`
	Message     string      `json:"message"`
	Turn        int         `json:"turn"`
}

// Game is the authoritative state of one match. It is a plain value: all
// mutation goes through the operation methods, and callers are responsible
// for serializing access per game id (see the store package).
type Game struct {
	ID             string       `json:"id"`       // internal identifier
	RoomCode       string       `json:"roomCode"` // human-shareable join code
	Mode           Mode         `json:"mode"`
	Status         Status       `json:"status"`
	Rules          Rules        `json:"rules"`
	Players        []*Player    `json:"players"` // join order; rotation order in party mode
	NextPlayerID   int          `json:"nextPlayerId"`
	Turn           TurnPointer  `json:"turn"`
	TurnCount      int          `json:"turnCount"`
	TurnStartedAt  time.Time    `json:"turnStartedAt"`
	BrokenTurn     bool         `json:"brokenTurn"` // pointer landed on a player who cannot act; skip required
	WinnerID       int          `json:"winnerId"`   // 0 = none
	WinnerTeam     int          `json:"winnerTeam"` // -1 = none
	BountyTargetID int          `json:"bountyTargetId"` // 0 = no contract flagged
	BountyRound    int          `json:"bountyRound"`
	TeamOperator   [2]int       `json:"teamOperator"` // per-team index of the next acting operator
	Guesses        []Guess      `json:"guesses"`
	Log            []LogEntry   `json:"log"`
	Intel          []IntelEntry `json:"intel"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// player returns the player with the given id, or nil.
func (g *Game) player(id int) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// teamPlayers returns the members of a team in join order.
func (g *Game) teamPlayers(team int) []*Player {
	out := make([]*Player, 0, 2)
	for _, p := range g.Players {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out
}

// compositeCode concatenates a team's fragments in join order. Only
// meaningful once both operators have locked.
func (g *Game) compositeCode(team int) string {
	code := ""
	for _, p := range g.teamPlayers(team) {
		code += p.Code
	}
	return code
}
