package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AsyncSite/deduction-server/internal/config"
	"github.com/AsyncSite/deduction-server/internal/httpserver"
	"github.com/AsyncSite/deduction-server/internal/keywords"
	"github.com/AsyncSite/deduction-server/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := keywords.Init(cfg.KeywordsFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load keyword pool")
	}
	pool := keywords.Default()

	db, err := store.OpenMigrated(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()

	mem := store.NewMemoryStore()
	srv := httpserver.New(cfg, mem, db, pool)
	log.Info().Str("port", cfg.Port).Int("keywords", pool.Len()).
		Int("hypothesisCap", cfg.Solver.Limits.Cap).Msg("starting deduction-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
