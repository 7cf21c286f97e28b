package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arena/internal/api"
	"arena/internal/config"
	"arena/internal/debugview"
	"arena/internal/game"
	"arena/internal/input"
	"arena/internal/sandbox"
	"arena/internal/telemetry"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env from the parent directory, then the current one
	envErr := godotenv.Load("../.env")
	if envErr != nil {
		envErr = godotenv.Load(".env")
	}

	cfg := config.Load()
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("💡 no .env file found, using environment variables only")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("❌ server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("👋 goodbye")
}

func run(cfg config.AppConfig, logger *slog.Logger) error {
	logger.Info("🎮 ================================")
	logger.Info("🎮  ARENA - COMBAT ENGINE")
	logger.Info("🎮 ================================")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("⚠️ trace flush failed", "error", err)
		}
	}()

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Warn("⚠️ catalog rejected, using built-in kit", "path", cfg.CatalogPath, "error", err)
	}
	logger.Info("📜 catalog loaded", "abilities", len(catalog.Abilities), "summons", len(catalog.Summons))

	arena := sandbox.New(cfg.Arena.Sandbox())
	gameCfg := cfg.Engine.Game(catalog)
	engine, err := game.NewEngine(gameCfg, arena, logger.With("component", "engine"))
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	arena.Attach(engine, game.Hooks{
		OnHit: func(ev game.HitEvent) {
			if ev.Killed {
				logger.Debug("💀 kill", "source", ev.SourceID, "ability", ev.AbilityID,
					"target", ev.TargetID, "damage", ev.Damage, "generation", ev.Generation)
			}
		},
	})

	queue := input.NewQueue(cfg.Input.Queue(), logger.With("component", "input"))
	engine.SetInput(queue)

	if path := cfg.Engine.EventLogPath; path != "" {
		if err := engine.StartEventLog(path); err != nil {
			logger.Warn("⚠️ event log disabled", "error", err)
		} else {
			logger.Info("📝 event log", "path", path)
			defer engine.StopEventLog()
		}
	}

	server := api.NewServer(api.ServerConfig{
		Engine:       engine,
		Commands:     queue,
		World:        arena,
		Minimap:      debugview.NewRenderer(gameCfg.Bounds, debugview.DefaultSize),
		CORSOrigins:  cfg.Server.AllowedOrigins,
		BroadcastFPS: cfg.Server.BroadcastFPS,
		Tracer:       telemetry.Tracer("api"),
		Logger:       logger.With("component", "api"),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(ctx) })
	g.Go(func() error { return server.Start(ctx, fmt.Sprintf(":%d", cfg.Server.Port)) })
	g.Go(func() error {
		return api.RunDebugServer(ctx, api.DebugConfig{
			Enabled:    cfg.Server.DebugAddr != "",
			ListenAddr: cfg.Server.DebugAddr,
		}, logger)
	})
	g.Go(func() error { return queue.RunJanitor(ctx, time.Minute) })
	if cfg.Arena.Autopilot {
		pilot := sandbox.NewAutopilot(engine, catalog.Abilities, logger.With("component", "autopilot"))
		g.Go(func() error { return pilot.Run(ctx, cfg.Arena.AutopilotInterval) })
		logger.Info("🤖 autopilot enabled", "interval", cfg.Arena.AutopilotInterval)
	}

	logger.Info("✅ server ready, press Ctrl+C to stop",
		"http", fmt.Sprintf("http://localhost:%d/api/state", cfg.Server.Port),
		"ws", fmt.Sprintf("ws://localhost:%d/ws", cfg.Server.Port),
		"minimap", fmt.Sprintf("http://localhost:%d/api/minimap.png", cfg.Server.Port))

	err = g.Wait()
	logger.Info("🛑 shutting down", "ticks", engine.TickCount(), "kills", engine.Snapshot().TotalKills)
	return err
}
