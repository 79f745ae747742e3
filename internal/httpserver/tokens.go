// internal/httpserver/tokens.go
//
// Per-room player tokens. Create/join hand back a signed JWT carrying only
// {room code, player id}; later commands present it as a bearer header or
// cookie and act as that player. This is attribution, not authentication:
// there are no accounts behind the tokens.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const playerCookieName = "cb_player"

type playerClaim struct {
	RoomCode string
	PlayerID int
}

type ctxPlayerKey struct{}

// signPlayerToken issues a token tying a player id to one room.
func (s *Server) signPlayerToken(roomCode string, playerID int) (string, error) {
	claims := jwt.MapClaims{
		"room": roomCode,
		"pid":  playerID,
		"iat":  time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// setPlayerCookie mirrors the token into a cookie so browser clients keep
// their seat across polls without juggling headers.
func setPlayerCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// bearerOrCookie extracts a raw token from the Authorization header or the
// player cookie.
func bearerOrCookie(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(playerCookieName); err == nil {
		return c.Value
	}
	return ""
}

// parsePlayer validates a token and returns its claim, or nil.
func (s *Server) parsePlayer(tokenStr string) *playerClaim {
	if tokenStr == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	room, _ := claims["room"].(string)
	pid, _ := claims["pid"].(float64)
	if room == "" || pid <= 0 {
		return nil
	}
	return &playerClaim{RoomCode: room, PlayerID: int(pid)}
}

// requirePlayer gates command routes: the request must carry a valid token
// for the room in its path.
func (s *Server) requirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim := s.parsePlayer(bearerOrCookie(r))
		if claim == nil || claim.RoomCode != roomCode(r) {
			http.Error(w, `{"error":"unauthorized","message":"missing or foreign player token"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxPlayerKey{}, claim)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentPlayer returns the claim installed by requirePlayer, or nil for
// optional-identity routes (state/log polls by spectators).
func (s *Server) currentPlayer(r *http.Request) *playerClaim {
	if c, _ := r.Context().Value(ctxPlayerKey{}).(*playerClaim); c != nil {
		return c
	}
	if claim := s.parsePlayer(bearerOrCookie(r)); claim != nil && claim.RoomCode == roomCode(r) {
		return claim
	}
	return nil
}
