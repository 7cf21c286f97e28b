// Package config provides centralized configuration management for the
// arena server. Every setting has a default and an environment override;
// the ability and summon catalog lives in a YAML file (see catalog.go).
package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds combat engine settings.
type EngineConfig struct {
	TickRate      int           // Simulation ticks per second
	CasterLevel   int           // Hero level used for level-scaled damage
	BossReduction float64       // Fraction of summon damage a boss takes
	SweepInterval time.Duration // Periodic status sweep
	EventLogPath  string        // JSONL combat log; empty disables it
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		TickRate:      30,
		CasterLevel:   1,
		BossReduction: 0.5,
		SweepInterval: time.Second,
	}
}

// EngineFromEnv returns engine configuration with environment overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvInt("CASTER_LEVEL", 0); v > 0 {
		cfg.CasterLevel = v
	}
	if v := getEnvFloat("BOSS_REDUCTION", -1); v > 0 && v <= 1 {
		cfg.BossReduction = v
	}
	if v := getEnvDuration("STATUS_SWEEP_INTERVAL", 0); v > 0 {
		cfg.SweepInterval = v
	}
	cfg.EventLogPath = os.Getenv("EVENT_LOG")

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	DebugAddr      string   // pprof and /metrics, localhost only
	AllowedOrigins []string // CORS
	BroadcastFPS   int      // WebSocket snapshot rate
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		DebugAddr:      "localhost:6060",
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		BroadcastFPS:   10,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}
	if v := getEnvList("CORS_ORIGINS"); len(v) > 0 {
		cfg.AllowedOrigins = v
	}
	if v := getEnvInt("WS_BROADCAST_FPS", 0); v > 0 {
		cfg.BroadcastFPS = v
	}

	return cfg
}

// =============================================================================
// INPUT CONFIGURATION
// =============================================================================

// InputConfig holds control command limits.
type InputConfig struct {
	BufferSize int           // Queued commands between ticks
	PerSecond  float64       // Sustained commands per source
	Burst      int           // Burst per source
	IdleTTL    time.Duration // Forget idle sources after this long
}

// DefaultInput returns the default input configuration.
func DefaultInput() InputConfig {
	return InputConfig{
		BufferSize: 1024,
		PerSecond:  20,
		Burst:      10,
		IdleTTL:    5 * time.Minute,
	}
}

// InputFromEnv returns input configuration with environment overrides.
func InputFromEnv() InputConfig {
	cfg := DefaultInput()

	if v := getEnvInt("INPUT_BUFFER", 0); v > 0 {
		cfg.BufferSize = v
	}
	if v := getEnvFloat("INPUT_RATE", 0); v > 0 {
		cfg.PerSecond = v
	}
	if v := getEnvInt("INPUT_BURST", 0); v > 0 {
		cfg.Burst = v
	}
	if v := getEnvDuration("INPUT_IDLE_TTL", 0); v > 0 {
		cfg.IdleTTL = v
	}

	return cfg
}

// =============================================================================
// ARENA CONFIGURATION
// =============================================================================

// ArenaConfig holds the reference world layer settings.
type ArenaConfig struct {
	WaveSize          int
	BossEvery         int
	Seed              uint64
	Autopilot         bool          // Play the hero's kit automatically
	AutopilotInterval time.Duration // Time between autopilot decisions
}

// DefaultArena returns the default arena configuration.
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		WaveSize:          6,
		BossEvery:         3,
		Seed:              1,
		Autopilot:         true,
		AutopilotInterval: 250 * time.Millisecond,
	}
}

// ArenaFromEnv returns arena configuration with environment overrides.
func ArenaFromEnv() ArenaConfig {
	cfg := DefaultArena()

	if v := getEnvInt("ARENA_WAVE_SIZE", 0); v > 0 {
		cfg.WaveSize = v
	}
	if v := getEnvInt("ARENA_BOSS_EVERY", -1); v >= 0 {
		cfg.BossEvery = v
	}
	if v := getEnvInt("ARENA_SEED", 0); v > 0 {
		cfg.Seed = uint64(v)
	}
	cfg.Autopilot = getEnvBool("AUTOPILOT", cfg.Autopilot)
	if v := getEnvDuration("AUTOPILOT_INTERVAL", 0); v > 0 {
		cfg.AutopilotInterval = v
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string // OTLP/HTTP host:port; empty uses the OTEL_* variables
	Insecure    bool   // plain HTTP to the collector
}

// TelemetryFromEnv returns telemetry configuration with environment overrides.
func TelemetryFromEnv() TelemetryConfig {
	cfg := TelemetryConfig{
		Enabled:     getEnvBool("TELEMETRY_ENABLED", false),
		ServiceName: "arena",
		Endpoint:    os.Getenv("TELEMETRY_ENDPOINT"),
		Insecure:    getEnvBool("TELEMETRY_INSECURE", false),
	}
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}
	return cfg
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// LogFromEnv reads LOG_LEVEL and LOG_FORMAT.
func LogFromEnv() LogConfig {
	cfg := LogConfig{Level: slog.LevelInfo, Format: "text"}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			cfg.Level = lvl
		}
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		cfg.Format = "json"
	}
	return cfg
}

// Logger builds a slog logger writing to w.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Engine      EngineConfig
	Server      ServerConfig
	Input       InputConfig
	Arena       ArenaConfig
	Telemetry   TelemetryConfig
	Log         LogConfig
	CatalogPath string
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	catalog := os.Getenv("CATALOG_PATH")
	if catalog == "" {
		catalog = "configs/catalog.yaml"
	}
	return AppConfig{
		Engine:      EngineFromEnv(),
		Server:      ServerFromEnv(),
		Input:       InputFromEnv(),
		Arena:       ArenaFromEnv(),
		Telemetry:   TelemetryFromEnv(),
		Log:         LogFromEnv(),
		CatalogPath: catalog,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
