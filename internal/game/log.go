// internal/game/log.go
//
// Log/event emitter. Every state-changing operation appends at least one
// entry; the UI consumes them verbatim. Corruption (virus powerup) and team
// channels are resolved at snapshot time, not here.

package game

import (
	"fmt"
	"time"
)

// logf appends a game-wide log entry.
func (g *Game) logf(t LogType, now time.Time, format string, args ...any) {
	g.Log = append(g.Log, LogEntry{
		Message:     fmt.Sprintf(format, args...),
		Type:        t,
		TeamChannel: -1,
		At:          now,
	})
}

// logTeam appends an entry visible only to one team's members.
func (g *Game) logTeam(team int, t LogType, now time.Time, format string, args ...any) {
	g.Log = append(g.Log, LogEntry{
		Message:     fmt.Sprintf(format, args...),
		Type:        t,
		TeamChannel: team,
		At:          now,
	})
}

// corruptRecentLog marks up to n of the newest uncorrupted entries as
// corrupted by the given player. Team-scoped entries are left alone.
// Returns how many entries were hit.
func (g *Game) corruptRecentLog(byPlayerID, n int) int {
	hit := 0
	for i := len(g.Log) - 1; i >= 0 && hit < n; i-- {
		e := &g.Log[i]
		if e.Corrupted || e.TeamChannel >= 0 {
			continue
		}
		e.Corrupted = true
		e.CorruptedBy = byPlayerID
		hit++
	}
	return hit
}

// addIntel records a per-viewer reveal produced by an information powerup.
func (g *Game) addIntel(forPlayerID, targetID int, kind PowerupKind, msg string) {
	g.Intel = append(g.Intel, IntelEntry{
		ForPlayerID: forPlayerID,
		TargetID:    targetID,
		Kind:        kind,
		Message:     msg,
		Turn:        g.TurnCount,
	})
}
