// internal/httpserver/server.go
//
// HTTP wiring for the Codebreakers backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Room lifecycle endpoints: create, join, setup, restart.
//   - Gameplay endpoints: guess, powerup, skip, timeout, chat.
//   - Polled reads: full masked snapshot and log view.
//
// The engine owns every rule; this package only decodes commands, runs them
// under the store's per-room critical section, and maps rejection kinds to
// status codes. Player identity is a signed per-room token issued on
// create/join (see tokens.go); there are no accounts.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robmny/codebreakers/internal/game"
	"github.com/robmny/codebreakers/internal/store"
)

// Server bundles the router, the game store, and the token signing key.
type Server struct {
	r      *chi.Mux
	store  store.Store
	secret []byte
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		secret: []byte(getEnv("JWT_SECRET", "dev_secret_change_me")),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"codebreakers","endpoints":["/health","POST /rooms","POST /rooms/{code}/join","GET /rooms/{code}"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Post("/rooms", s.handleCreateRoom)
	s.r.Route("/rooms/{code}", func(r chi.Router) {
		r.Post("/join", s.handleJoin)
		r.With(s.requirePlayer).Post("/setup", s.handleSetup)
		r.With(s.requirePlayer).Post("/guess", s.handleGuess)
		r.With(s.requirePlayer).Post("/powerup", s.handlePowerup)
		r.With(s.requirePlayer).Post("/skip", s.handleSkip)
		r.With(s.requirePlayer).Post("/timeout", s.handleTimeout)
		r.With(s.requirePlayer).Post("/restart", s.handleRestart)
		r.With(s.requirePlayer).Post("/chat", s.handleChat)
		r.Get("/", s.handleState)
		r.Get("/log", s.handleLog)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ helpers -------------------------------------

// writeErr maps engine rejections and store errors to HTTP responses.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "internal"
	if errors.Is(err, store.ErrNotFound) {
		status, kind = http.StatusNotFound, string(game.KindNotFound)
	} else if k := game.KindOf(err); k != "" {
		kind = string(k)
		switch k {
		case game.KindNotFound:
			status = http.StatusNotFound
		case game.KindInvalidInput:
			status = http.StatusBadRequest
		case game.KindInvalidState, game.KindCapacity:
			status = http.StatusConflict
		case game.KindTurnViolation:
			status = http.StatusForbidden
		}
	} else {
		log.Error().Err(err).Msg("unexpected handler error")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
