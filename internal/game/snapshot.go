// internal/game/snapshot.go
//
// Per-viewer masked state views. The snapshot is what leaves the engine on
// every poll: a viewer sees their own code, never an opponent's (except
// through recorded intel), their own team's chat channel, and corrupted log
// entries garbled unless they released the virus themselves.

package game

import "time"

// PlayerView is the per-player slice of a snapshot. Code is populated only
// for the viewer's own row.
type PlayerView struct {
	ID            int                  `json:"id"`
	Name          string               `json:"name"`
	Color         string               `json:"color"`
	Team          int                  `json:"team"`
	Code          string               `json:"code,omitempty"`
	IsSetup       bool                 `json:"isSetup"`
	Score         int                  `json:"score"`
	IsEliminated  bool                 `json:"isEliminated"`
	IsGhost       bool                 `json:"isGhost"`
	SilencedTurns int                  `json:"silencedTurns"`
	Used          map[PowerupKind]bool `json:"used"`
	Loadout       []PowerupKind        `json:"loadout,omitempty"`
	IsBounty      bool                 `json:"isBounty"`
}

// LogView is a log entry as one viewer sees it.
type LogView struct {
	Message string    `json:"message"`
	Type    LogType   `json:"type"`
	At      time.Time `json:"at"`
}

// Snapshot is the full polled state for one viewer.
type Snapshot struct {
	RoomCode         string       `json:"roomCode"`
	Mode             Mode         `json:"mode"`
	Status           Status       `json:"status"`
	Rules            Rules        `json:"rules"`
	You              int          `json:"you"`
	Turn             TurnPointer  `json:"turn"`
	TurnCount        int          `json:"turnCount"`
	BrokenTurn       bool         `json:"brokenTurn"`
	RemainingSeconds int          `json:"remainingSeconds"` // -1 when no timer applies
	WinnerID         int          `json:"winnerId"`
	WinnerTeam       int          `json:"winnerTeam"`
	Players          []PlayerView `json:"players"`
	Guesses          []Guess      `json:"guesses"`
	Log              []LogView    `json:"log"`
	Intel            []IntelEntry `json:"intel"`
}

const garbledMessage = "▒▒▒ TRANSMISSION CORRUPTED ▒▒▒"

// View builds the masked snapshot for one viewer. viewerID 0 produces a
// spectator view with every code hidden.
func (g *Game) View(viewerID int, now time.Time) Snapshot {
	viewer := g.player(viewerID)

	s := Snapshot{
		RoomCode:   g.RoomCode,
		Mode:       g.Mode,
		Status:     g.Status,
		Rules:      g.Rules,
		You:        viewerID,
		Turn:       g.Turn,
		TurnCount:  g.TurnCount,
		BrokenTurn: g.BrokenTurn,
		WinnerID:   g.WinnerID,
		WinnerTeam: g.WinnerTeam,
		Guesses:    g.Guesses,
	}

	if rem := g.Remaining(now); rem >= 0 {
		s.RemainingSeconds = int(rem / time.Second)
	} else {
		s.RemainingSeconds = -1
	}

	for _, p := range g.Players {
		pv := PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			Color:         p.Color,
			Team:          p.Team,
			IsSetup:       p.IsSetup,
			Score:         p.Score,
			IsEliminated:  p.IsEliminated,
			IsGhost:       p.IsGhost,
			SilencedTurns: p.SilencedTurns,
			Used:          p.Used,
			IsBounty:      g.BountyTargetID == p.ID,
		}
		if viewer != nil && p.ID == viewer.ID {
			pv.Code = p.Code
			pv.Loadout = p.Loadout
		}
		s.Players = append(s.Players, pv)
	}

	for _, e := range g.Log {
		// Team channels stay within the team.
		if e.TeamChannel >= 0 && (viewer == nil || viewer.Team != e.TeamChannel) {
			continue
		}
		lv := LogView{Message: e.Message, Type: e.Type, At: e.At}
		if e.Corrupted && (viewer == nil || viewer.ID != e.CorruptedBy) {
			lv.Message = garbledMessage
			lv.Type = LogError
		}
		s.Log = append(s.Log, lv)
	}

	for _, in := range g.Intel {
		if viewer != nil && in.ForPlayerID == viewer.ID {
			s.Intel = append(s.Intel, in)
		}
	}

	return s
}
