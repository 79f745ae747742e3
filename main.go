// main.go
//
// Entrypoint for the codebreakers server. Loads .env, sets the global log
// level, picks a store (in-memory by default, sqlite via STORE=sqlite) and
// serves HTTP on PORT.

package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robmny/codebreakers/internal/httpserver"
	"github.com/robmny/codebreakers/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	var st store.Store
	switch getEnv("STORE", "memory") {
	case "sqlite":
		var err error
		st, err = store.NewSQLiteStore(getEnv("SQLITE_DSN", "./data/games.db"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite store")
		}
	default:
		st = store.NewMemoryStore()
	}
	defer func() { _ = st.Close() }()

	srv := httpserver.New(st)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting codebreakers server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
