package debugview

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"arena/internal/game"
	"arena/internal/game/chain"
	"arena/internal/game/projectile"
	"arena/internal/game/status"
	"arena/internal/game/summon"
	"arena/internal/game/world"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *game.Snapshot {
	return &game.Snapshot{
		Tick:     90,
		GameTime: 3 * time.Second,
		Caster:   game.CasterSnapshot{ID: "hero", Facing: 0.5},
		Enemies: []game.EnemySnapshot{
			{Enemy: world.Enemy{ID: "a", Position: world.Vec3{X: 5, Z: 5}, Health: 50, MaxHealth: 100}, Statuses: []status.Kind{status.Freeze}},
			{Enemy: world.Enemy{ID: "boss", Position: world.Vec3{X: -10, Z: 3}, Health: 900, MaxHealth: 1000, IsBoss: true}},
			{Enemy: world.Enemy{ID: "dead", Position: world.Vec3{X: 2}, IsDying: true, MaxHealth: 100}},
		},
		Projectiles: []projectile.Snapshot{{
			ID: "p1", Position: world.Vec3{X: 3}, Opacity: 0.5,
			Trail: []world.Vec3{{X: 0}, {X: 1}, {X: 2}},
		}},
		Summons:       []summon.Snapshot{{ID: "wraith_1", Position: world.Vec3{X: 4, Z: 4}, TargetID: "a"}},
		ChainTargets:  []chain.Target{{EnemyID: "a"}},
		DamageNumbers: []game.DamageNumber{{Position: world.Vec3{X: 5, Z: 5}, Amount: 89, Style: "critical", Opacity: 1}},
		AliveCount:    2,
	}
}

func TestWritePNG(t *testing.T) {
	r := NewRenderer(game.DefaultConfig().Bounds, 256)

	var buf bytes.Buffer
	require.NoError(t, r.WritePNG(&buf, sampleSnapshot()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestRenderDrawsHeroAtCenter(t *testing.T) {
	r := NewRenderer(game.Bounds{MinX: -50, MinZ: -50, Width: 100, Depth: 100}, 200)
	img := r.Render(&game.Snapshot{})

	// Hero sits at the origin, the middle of the map.
	cr, cg, cb, _ := img.At(100, 100).RGBA()
	er, eg, eb, _ := colorHero.RGBA()
	assert.Equal(t, []uint32{er, eg, eb}, []uint32{cr, cg, cb})

	// Corners are background.
	br, bg, bb, _ := img.At(5, 195).RGBA()
	wr, wg, wb, _ := colorBackground.RGBA()
	assert.Equal(t, []uint32{wr, wg, wb}, []uint32{br, bg, bb})
}

func TestRenderReturnsIndependentCopy(t *testing.T) {
	r := NewRenderer(game.DefaultConfig().Bounds, 128)
	first := r.Render(sampleSnapshot())
	before := first.At(64, 64)
	r.Render(nil)
	assert.Equal(t, before, first.At(64, 64))
}

func TestSizeClamped(t *testing.T) {
	assert.Equal(t, DefaultSize, NewRenderer(game.Bounds{}, 0).Size())
	assert.Equal(t, MinSize, NewRenderer(game.Bounds{}, 10).Size())
	assert.Equal(t, MaxSize, NewRenderer(game.Bounds{}, 1<<20).Size())
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.png")
	r := NewRenderer(game.Bounds{}, 64)
	require.NoError(t, r.SavePNG(path, sampleSnapshot()))
	assert.FileExists(t, path)
}
