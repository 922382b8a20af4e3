package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shadowfleet/aisforensics/internal/api"
	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/internal/db"
	"github.com/shadowfleet/aisforensics/internal/pipeline"
)

// CLI surface. `start` boots the HTTP API and websocket hub (no
// background pipeline loop is started); `update` runs one pipeline pass
// against the current database and exits. Both are the documented contract for a future real CLI
// framework, not a full command tree — ingestion and scheduling stay
// the HTTP surface's job.
const usage = `usage: engine <start|update>

  start   run the HTTP API and websocket alert stream
  update  run one detection pass against the database and exit
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	log.Println("Starting Shadow Fleet AIS Forensics Engine...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values. Use a .env file for local
	// development: cp .env.example .env && edit .env
	// ────────────────────────────────────────────────────────────────────

	dbURL := config.RequireEnv("DATABASE_URL")

	store, err := db.Connect(dbURL)
	if err != nil {
		log.Fatalf("FATAL: failed to connect to PostgreSQL: %v", err)
	}
	defer store.Close()
	if err := store.MigrateUp(dbURL); err != nil {
		log.Fatalf("FATAL: schema migration failed: %v", err)
	}

	scoringCfgPath := config.GetEnvOrDefault("SCORING_CONFIG_PATH", "")
	var cfg *config.ScoringConfig
	if scoringCfgPath != "" {
		cfg, err = config.LoadScoringConfig(scoringCfgPath)
		if err != nil {
			log.Fatalf("FATAL: failed to load scoring config from %s: %v", scoringCfgPath, err)
		}
	} else {
		cfg = config.DefaultScoringConfig()
	}
	log.Printf("Scoring config loaded (hash=%s)", cfg.Hash())

	idx, err := corridor.Build(store.AllCorridors(), store.AllPorts())
	if err != nil {
		log.Fatalf("FATAL: failed to build corridor index: %v", err)
	}

	runner := &pipeline.Runner{}

	switch flag.Arg(0) {
	case "update":
		runUpdate(store, idx, cfg, runner)
		os.Exit(0)
	case "start":
		runStart(store, idx, cfg, runner)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runUpdate(store *db.Store, idx *corridor.Index, cfg *config.ScoringConfig, runner *pipeline.Runner) {
	report, err := runner.Run(store, idx, cfg, pipeline.AllEnabled(), time.Now().UTC())
	if err != nil {
		log.Fatalf("FATAL: pipeline run failed: %v", err)
	}
	log.Printf("Pipeline run complete: %+v", report)
}

func runStart(store *db.Store, idx *corridor.Index, cfg *config.ScoringConfig, runner *pipeline.Runner) {
	wsHub := api.NewHub()
	go wsHub.Run()

	r := api.SetupRouter(store, idx, cfg, wsHub)

	port := config.GetEnvOrDefault("PORT", "5339")
	log.Printf("Engine running on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("FATAL: failed to start server: %v", err)
	}
}
