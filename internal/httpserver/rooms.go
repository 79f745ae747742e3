// internal/httpserver/rooms.go
//
// Request/response payloads and handlers for the room command surface.
// Each handler decodes one command, runs it through the store's per-room
// critical section, and returns the engine's answer or rejection.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robmny/codebreakers/internal/game"
)

func roomCode(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "code"))
}

// ------------------------------ create --------------------------------------

type createRoomReq struct {
	game.Config
	Name  string `json:"name"`
	Color string `json:"color"`
	Team  int    `json:"team"`
}

type joinedRes struct {
	RoomCode string `json:"roomCode"`
	PlayerID int    `json:"playerId"`
	Token    string `json:"token"`
}

// handleCreateRoom allocates a room and seats its creator as player one.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	team := -1
	if req.Config.Mode == game.ModeTeam {
		team = req.Team
	}

	now := time.Now().UTC()
	g, err := game.New(req.Config, now)
	if err != nil {
		writeErr(w, err)
		return
	}
	host, err := g.Join(req.Name, req.Color, team, now)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.Create(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("create game")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	token, err := s.signPlayerToken(g.RoomCode, host.ID)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	setPlayerCookie(w, token)
	log.Info().Str("room", g.RoomCode).Str("mode", string(g.Mode)).Msg("room created")
	writeJSON(w, joinedRes{RoomCode: g.RoomCode, PlayerID: host.ID, Token: token})
}

// ------------------------------- join ---------------------------------------

type joinReq struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Team  int    `json:"team"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	code := roomCode(r)
	now := time.Now().UTC()

	var playerID int
	err := s.store.Update(r.Context(), code, func(g *game.Game) error {
		team := -1
		if g.Mode == game.ModeTeam {
			team = req.Team
		}
		p, err := g.Join(req.Name, req.Color, team, now)
		if err == nil {
			playerID = p.ID
		}
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	token, err := s.signPlayerToken(code, playerID)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	setPlayerCookie(w, token)
	writeJSON(w, joinedRes{RoomCode: code, PlayerID: playerID, Token: token})
}

// ------------------------------- setup --------------------------------------

type setupReq struct {
	Code     string             `json:"code"`
	Powerups []game.PowerupKind `json:"powerups,omitempty"` // team-mode loadout
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	claim := s.currentPlayer(r)
	now := time.Now().UTC()
	err := s.store.Update(r.Context(), roomCode(r), func(g *game.Game) error {
		return g.SubmitCode(claim.PlayerID, req.Code, req.Powerups, now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// ------------------------------- guess --------------------------------------

type guessReq struct {
	TargetID int    `json:"targetId,omitempty"`
	Guess    string `json:"guess"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	claim := s.currentPlayer(r)
	now := time.Now().UTC()

	var res game.GuessResult
	err := s.store.Update(r.Context(), roomCode(r), func(g *game.Game) error {
		var err error
		res, err = g.SubmitGuess(claim.PlayerID, req.TargetID, req.Guess, now)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, res)
}

// ------------------------------ powerup -------------------------------------

// powerupReq is the union of every powerup's arguments; decodePowerup picks
// the fields its kind requires and ignores the rest.
type powerupReq struct {
	Type     game.PowerupKind `json:"type"`
	TargetID int              `json:"targetId,omitempty"`
	Index    int              `json:"index,omitempty"`
	Digit    string           `json:"digit,omitempty"`
	I        int              `json:"i,omitempty"`
	J        int              `json:"j,omitempty"`
}

// decodePowerup builds the tagged command for a request. Unknown kinds fall
// through to the engine's own rejection.
func decodePowerup(req powerupReq) (game.PowerupCommand, error) {
	switch req.Type {
	case game.PowerupFirewall:
		return game.Firewall{}, nil
	case game.PowerupBruteforce:
		return game.Bruteforce{TargetID: req.TargetID}, nil
	case game.PowerupChangeDigit:
		if len(req.Digit) != 1 {
			return nil, &game.RuleError{Kind: game.KindInvalidInput, Message: "digit must be a single character 0-9"}
		}
		return game.ChangeDigit{Index: req.Index, Digit: req.Digit[0]}, nil
	case game.PowerupSwapDigits:
		return game.SwapDigits{I: req.I, J: req.J}, nil
	case game.PowerupVirus:
		return game.Virus{TargetID: req.TargetID}, nil
	case game.PowerupTimeHack:
		return game.TimeHack{TargetID: req.TargetID}, nil
	case game.PowerupEMP:
		return game.EMP{TargetID: req.TargetID}, nil
	case game.PowerupSpyware:
		return game.Spyware{TargetID: req.TargetID}, nil
	case game.PowerupHoneypot:
		return game.Honeypot{}, nil
	case game.PowerupPhishing:
		return game.Phishing{TargetID: req.TargetID}, nil
	case game.PowerupLogicBomb:
		return game.LogicBomb{TargetID: req.TargetID}, nil
	}
	return nil, &game.RuleError{Kind: game.KindInvalidInput, Message: "unknown powerup type " + string(req.Type)}
}

func (s *Server) handlePowerup(w http.ResponseWriter, r *http.Request) {
	var req powerupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	cmd, err := decodePowerup(req)
	if err != nil {
		writeErr(w, err)
		return
	}
	claim := s.currentPlayer(r)
	now := time.Now().UTC()

	var res *game.PowerupResult
	err = s.store.Update(r.Context(), roomCode(r), func(g *game.Game) error {
		var err error
		res, err = g.ApplyPowerup(claim.PlayerID, cmd, now)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, res)
}

// --------------------------- turn commands ----------------------------------

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	claim := s.currentPlayer(r)
	now := time.Now().UTC()
	err := s.store.Update(r.Context(), roomCode(r), func(g *game.Game) error {
		return g.SkipTurn(claim.PlayerID, now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// handleTimeout is the poll-triggered timeout report: clients call it once
// the snapshot's derived clock reaches zero for the current actor.
func (s *Server) handleTimeout(w http.ResponseWriter, r *http.Request) {
	claim := s.currentPlayer(r)
	now := time.Now().UTC()
	err := s.store.Update(r.Context(), roomCode(r), func(g *game.Game) error {
		return g.DeclareTimeout(claim.PlayerID, now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	err := s.store.Update(r.Context(), roomCode(r), func(g *game.Game) error {
		return g.Restart(now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// -------------------------------- chat --------------------------------------

type chatReq struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	claim := s.currentPlayer(r)
	now := time.Now().UTC()
	err := s.store.Update(r.Context(), roomCode(r), func(g *game.Game) error {
		return g.PostChat(claim.PlayerID, req.Message, now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// ------------------------------- reads --------------------------------------

// handleState returns the masked snapshot for the polling viewer. Requests
// without a token get the spectator view: no codes, no intel.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetByCode(r.Context(), roomCode(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	viewerID := 0
	if claim := s.currentPlayer(r); claim != nil {
		viewerID = claim.PlayerID
	}
	writeJSON(w, g.View(viewerID, time.Now().UTC()))
}

// handleLog returns just the viewer's log slice of the snapshot.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetByCode(r.Context(), roomCode(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	viewerID := 0
	if claim := s.currentPlayer(r); claim != nil {
		viewerID = claim.PlayerID
	}
	writeJSON(w, g.View(viewerID, time.Now().UTC()).Log)
}
