// Package main runs a seeded, headless arena through the engine and prints
// the event transcript.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/config"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/observability"
	"github.com/davidpendergast/skeletris-sub001/internal/sim"
	"github.com/davidpendergast/skeletris-sub001/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	arenaPath := flag.String("arena", "content/arenas/crypt.yaml", "path to arena YAML file")
	maxFrames := flag.Int("max-frames", 100_000, "frame budget for the run")
	seed := flag.Uint64("seed", 0, "dice seed; overrides engine.seed when non-zero")
	transcript := flag.Bool("transcript", true, "print every published event")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}

	baseLogger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = baseLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New()
	bus := event.NewBus(0)
	var ledger *postgres.KillLedger
	if cfg.Database.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			baseLogger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		ledger = postgres.NewKillLedger(pool.DB())
		run, err := ledger.StartRun(ctx, cfg.Engine.Seed, *arenaPath)
		if err != nil {
			baseLogger.Fatal("starting run", zap.Error(err))
		}
		runID = run.ID
	}
	logger := observability.ForRun(baseLogger, runID.String(), cfg.Engine.Seed)
	if ledger != nil {
		ledger.Attach(ctx, bus, runID, logger)
	}

	roller := sim.NewRoller(cfg.Engine.Seed, logger)
	content, err := sim.LoadContent(cfg.Content, cfg.Scripting, roller, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	defer content.Close()

	arena, err := sim.LoadArena(*arenaPath)
	if err != nil {
		logger.Fatal("loading arena", zap.Error(err))
	}

	if *transcript {
		bus.SubscribeAll(func(e event.Event) {
			if e.Kind != event.ActionStarted {
				fmt.Fprintln(os.Stdout, e)
			}
		})
	}

	rec := &event.Recorder{}
	s, err := sim.New(cfg.Engine, content, arena, roller, bus, rec, logger)
	if err != nil {
		logger.Fatal("assembling arena", zap.Error(err))
	}

	res, err := s.Run(ctx, *maxFrames)
	if err != nil {
		logger.Error("run aborted", zap.Error(err))
	}
	if ledger != nil {
		if ferr := ledger.FinishRun(context.Background(), runID, res.Turns, res.Outcome); ferr != nil {
			logger.Warn("finishing run", zap.Error(ferr))
		}
	}

	logger.Info("run finished",
		zap.String("outcome", res.Outcome),
		zap.Int("turns", res.Turns),
		zap.Int("ticks", res.Ticks),
		zap.Int("frames", res.Frames),
		zap.Int("kills", res.Kills),
		zap.Int("cues", len(rec.Cues)),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Fprintf(os.Stdout, "%s after %d turns (%d kills)\n%s", res.Outcome, res.Turns, res.Kills, s.Grid)
	if err != nil {
		os.Exit(1)
	}
}
