// Command simulate runs the combat engine headless against the wave arena
// for a fixed span of game time and prints a report. Runs are reproducible:
// the arena, crit rolls and tick cadence are all seeded or fixed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"
	"time"

	"arena/internal/config"
	"arena/internal/debugview"
	"arena/internal/game"
	"arena/internal/sandbox"

	"github.com/joho/godotenv"
)

type options struct {
	duration  time.Duration
	seed      uint64
	tickRate  int
	pilotEach time.Duration
	pngPath   string
	eventLog  string
	top       int
	verbose   bool
}

func main() {
	var opt options
	flag.DurationVar(&opt.duration, "duration", 60*time.Second, "game time to simulate")
	flag.Uint64Var(&opt.seed, "seed", 1, "arena and critical roll seed")
	flag.IntVar(&opt.tickRate, "tick-rate", 0, "ticks per second (0 uses TICK_RATE or the default)")
	flag.DurationVar(&opt.pilotEach, "pilot-every", 0, "autopilot decision interval (0 uses AUTOPILOT_INTERVAL)")
	flag.StringVar(&opt.pngPath, "png", "", "write a final minimap to this path")
	flag.StringVar(&opt.eventLog, "events", "", "write a JSONL combat log to this path")
	flag.IntVar(&opt.top, "top", 5, "damage meter rows to print")
	flag.BoolVar(&opt.verbose, "v", false, "log engine activity")
	flag.Parse()

	_ = godotenv.Load(".env")
	cfg := config.Load()

	logOut := io.Discard
	if opt.verbose {
		logOut = os.Stderr
	}
	logger := cfg.Log.Logger(logOut)

	if err := run(cfg, opt, logger, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}
}

func run(cfg config.AppConfig, opt options, logger *slog.Logger, out io.Writer) error {
	if opt.duration <= 0 {
		return errors.New("duration must be positive")
	}
	if opt.tickRate > 0 {
		cfg.Engine.TickRate = opt.tickRate
	}
	if opt.pilotEach > 0 {
		cfg.Arena.AutopilotInterval = opt.pilotEach
	}
	cfg.Arena.Seed = opt.seed

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Warn("⚠️ catalog rejected, using built-in kit", "path", cfg.CatalogPath, "error", err)
	}

	arena := sandbox.New(cfg.Arena.Sandbox())
	gameCfg := cfg.Engine.Game(catalog)
	gameCfg.Roller = rand.New(rand.NewPCG(opt.seed, opt.seed^0x9e3779b97f4a7c15))
	engine, err := game.NewEngine(gameCfg, arena, logger.With("component", "engine"))
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	var hits, crits, kills int
	arena.Attach(engine, game.Hooks{
		OnHit: func(ev game.HitEvent) {
			hits++
			if ev.IsCritical {
				crits++
			}
			if ev.Killed {
				kills++
			}
		},
	})

	if opt.eventLog != "" {
		if err := engine.StartEventLog(opt.eventLog); err != nil {
			return fmt.Errorf("event log: %w", err)
		}
		defer engine.StopEventLog()
	}

	pilot := sandbox.NewAutopilot(engine, catalog.Abilities, logger.With("component", "autopilot"))

	tickRate := gameCfg.TickRate
	if tickRate <= 0 {
		tickRate = game.DefaultConfig().TickRate
	}
	dt := time.Second / time.Duration(tickRate)
	ticks := int(opt.duration / dt)
	pilotEvery := max(1, int(cfg.Arena.AutopilotInterval/dt))

	started := time.Now()
	for i := 0; i < ticks; i++ {
		if i%pilotEvery == 0 {
			pilot.Step()
		}
		engine.Tick(dt)
	}
	elapsed := time.Since(started)

	snap := engine.Snapshot()
	world := arena.Stats()
	chain := engine.ChainStats()

	fmt.Fprintf(out, "simulated %s in %d ticks (%s wall, seed %d)\n",
		opt.duration, engine.TickCount(), elapsed.Round(time.Millisecond), opt.seed)
	fmt.Fprintf(out, "waves %d  spawned %d  kills %d  boss kills %d  alive %d\n",
		world.Wave, world.Spawned, world.Kills, world.BossKills, snap.AliveCount)
	fmt.Fprintf(out, "hits %d  crits %d  killing blows %d  total damage %d\n",
		hits, crits, kills, snap.TotalDamage)
	fmt.Fprintf(out, "chain triggers %d  marks %d  strikes %d  kills %d  fizzled %d\n",
		chain.Triggers, chain.Marks, chain.Strikes, chain.Kills, chain.Fizzled)

	fmt.Fprintln(out, "damage meter:")
	for _, e := range engine.Meter().Top(opt.top) {
		fmt.Fprintf(out, "  #%d %-20s %8d dmg %6d hits\n", e.Rank, e.SourceID, e.Damage, e.Hits)
	}

	accepted := pilot.Accepted()
	ids := make([]string, 0, len(accepted))
	for id := range accepted {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintln(out, "activations:")
	for _, id := range ids {
		fmt.Fprintf(out, "  %-20s %d\n", id, accepted[id])
	}

	if opt.pngPath != "" {
		r := debugview.NewRenderer(gameCfg.Bounds, debugview.DefaultSize)
		if err := r.SavePNG(opt.pngPath, snap); err != nil {
			return fmt.Errorf("minimap: %w", err)
		}
		fmt.Fprintf(out, "minimap written to %s\n", opt.pngPath)
	}
	return nil
}
