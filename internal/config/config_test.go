package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"arena/internal/game/ability"
	"arena/internal/game/aggro"
	"arena/internal/game/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, DefaultEngine().TickRate, cfg.Engine.TickRate)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "configs/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TICK_RATE", "60")
	t.Setenv("BOSS_REDUCTION", "0.25")
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("INPUT_RATE", "5.5")
	t.Setenv("AUTOPILOT", "false")
	t.Setenv("AUTOPILOT_INTERVAL", "1s")
	t.Setenv("ARENA_BOSS_EVERY", "0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("TELEMETRY_ENABLED", "true")
	t.Setenv("EVENT_LOG", "logs/combat.jsonl")

	cfg := Load()
	assert.Equal(t, 60, cfg.Engine.TickRate)
	assert.Equal(t, 0.25, cfg.Engine.BossReduction)
	assert.Equal(t, "logs/combat.jsonl", cfg.Engine.EventLogPath)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5.5, cfg.Input.PerSecond)
	assert.False(t, cfg.Arena.Autopilot)
	assert.Equal(t, time.Second, cfg.Arena.AutopilotInterval)
	assert.Zero(t, cfg.Arena.BossEvery)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestInvalidEnvKeepsDefaults(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")
	t.Setenv("BOSS_REDUCTION", "3")
	t.Setenv("AUTOPILOT", "maybe")

	cfg := Load()
	assert.Equal(t, 30, cfg.Engine.TickRate)
	assert.Equal(t, 0.5, cfg.Engine.BossReduction)
	assert.True(t, cfg.Arena.Autopilot)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	cat, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), cat)
	assert.NoError(t, cat.Validate())
}

func TestLoadShippedCatalog(t *testing.T) {
	cat, err := LoadCatalog(filepath.Join("..", "..", "configs", "catalog.yaml"))
	require.NoError(t, err)

	var ids []string
	for _, d := range cat.Abilities {
		ids = append(ids, d.ID)
	}
	var want []string
	for _, d := range ability.DefaultCatalog() {
		want = append(want, d.ID)
	}
	assert.Equal(t, want, ids)

	longbow := cat.Abilities[0]
	assert.Equal(t, ability.KindChargedShot, longbow.Kind)
	assert.Equal(t, 4*time.Second, longbow.Cooldown)
	assert.Equal(t, 2*time.Second, longbow.MaxChargeTime)
	assert.Equal(t, 3.0, longbow.StatusBonus["freeze"])

	types := cat.SummonTypes()
	require.Contains(t, types, "wraith")
	assert.Equal(t, 89.0, types["wraith"].Damage)
	assert.Equal(t, 1200*time.Millisecond, types["wraith"].AttackCooldown)
	assert.Equal(t, aggro.ModeRandomInRange, types["totem"].Targeting.Mode)
	assert.Equal(t, "wraith", cat.Chain.SummonType)
	assert.Equal(t, 2*time.Second, cat.Chain.MarkDuration)
}

func TestLoadCatalogPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
abilities:
  - id: zap
    kind: nova
    charges: 1
    cooldown: 500ms
    damage: 5
    range: 3
    status: slow
    status_duration: 1s
`), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, cat.Abilities, 1)
	assert.Equal(t, 500*time.Millisecond, cat.Abilities[0].Cooldown)
	assert.Equal(t, status.Slow, cat.Abilities[0].Status)
	assert.Equal(t, DefaultCatalog().Summons, cat.Summons, "summons keep defaults")
	assert.Equal(t, DefaultCatalog().Chain, cat.Chain)
}

func TestLoadCatalogRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "abilities: [oops"},
		{"duplicate id", "abilities:\n  - {id: a, kind: nova}\n  - {id: a, kind: nova}\n"},
		{"unknown summon", "abilities:\n  - {id: a, kind: totem, summon: dragon}\n"},
		{"unknown status", "abilities:\n  - {id: a, kind: nova, status: burn}\n"},
		{"missing id", "abilities:\n  - {kind: nova}\n"},
		{"chain summon", "chain:\n  summon_type: dragon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			cat, err := LoadCatalog(path)
			assert.Error(t, err)
			assert.Equal(t, DefaultCatalog(), cat, "defaults on error")
		})
	}
}

func TestAssemble(t *testing.T) {
	t.Setenv("TICK_RATE", "20")
	t.Setenv("CASTER_LEVEL", "5")
	t.Setenv("ARENA_SEED", "42")
	t.Setenv("INPUT_BURST", "3")
	cfg := Load()
	cat := DefaultCatalog()

	gc := cfg.Engine.Game(cat)
	assert.Equal(t, 20, gc.TickRate)
	assert.Equal(t, 5, gc.CasterLevel)
	assert.Len(t, gc.Abilities, len(cat.Abilities))
	assert.Contains(t, gc.Summons, "wraith")
	assert.Equal(t, cat.Chain, gc.Chain)

	sc := cfg.Arena.Sandbox()
	assert.EqualValues(t, 42, sc.Seed)
	assert.Equal(t, 6, sc.WaveSize)

	qc := cfg.Input.Queue()
	assert.Equal(t, 3, qc.RateLimit.Burst)
	assert.Equal(t, 1024, qc.BufferSize)
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: slog.LevelWarn, Format: "json"}.Logger(&buf).Info("hidden")
	assert.Zero(t, buf.Len())

	LogConfig{Level: slog.LevelInfo, Format: "json"}.Logger(&buf).Info("shown", "wave", 2)
	assert.Contains(t, buf.String(), `"wave":2`)
}
