// Package debugview draws a top-down minimap of an engine snapshot. It is
// served by the API for debugging encounters in a browser and written to
// disk by the simulator.
package debugview

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"arena/internal/game"
	"arena/internal/game/combat"
	"arena/internal/game/status"
	"arena/internal/game/world"

	"github.com/fogleman/gg"
)

const (
	DefaultSize = 512
	MinSize     = 64
	MaxSize     = 2048
)

var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorGrid       = color.RGBA{30, 30, 45, 255}
	colorHero       = color.RGBA{80, 200, 255, 255}
	colorEnemy      = color.RGBA{230, 70, 70, 255}
	colorBoss       = color.RGBA{255, 140, 0, 255}
	colorDying      = color.RGBA{110, 110, 110, 160}
	colorProjectile = color.RGBA{255, 240, 120, 255}
	colorSummon     = color.RGBA{160, 110, 255, 255}
	colorChainMark  = color.RGBA{120, 255, 200, 255}
	colorFrozen     = color.RGBA{170, 220, 255, 255}
	colorStunned    = color.RGBA{255, 255, 90, 255}
	colorText       = color.RGBA{220, 220, 235, 255}
)

// Renderer reuses one drawing context between frames. Safe for
// concurrent use; frames are drawn one at a time.
type Renderer struct {
	mu     sync.Mutex
	bounds game.Bounds
	size   int
	dc     *gg.Context
}

// NewRenderer creates a renderer mapping bounds onto a size x size image.
func NewRenderer(bounds game.Bounds, size int) *Renderer {
	size = clampSize(size)
	if bounds.Width <= 0 || bounds.Depth <= 0 {
		bounds = game.DefaultConfig().Bounds
	}
	return &Renderer{
		bounds: bounds,
		size:   size,
		dc:     gg.NewContext(size, size),
	}
}

func clampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

// Size returns the image edge in pixels.
func (r *Renderer) Size() int {
	return r.size
}

// Render draws snap and returns a copy of the frame.
func (r *Renderer) Render(snap *game.Snapshot) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw(snap)

	src := r.dc.Image()
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.(*image.RGBA).Pix)
	return out
}

// WritePNG draws snap and encodes it to w.
func (r *Renderer) WritePNG(w io.Writer, snap *game.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw(snap)
	if err := r.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode minimap: %w", err)
	}
	return nil
}

// SavePNG draws snap into a file.
func (r *Renderer) SavePNG(path string, snap *game.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw(snap)
	if err := r.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save minimap %s: %w", path, err)
	}
	return nil
}

// project maps a world position onto the image. The X axis runs right and
// Z runs down.
func (r *Renderer) project(p world.Vec3) (float64, float64) {
	s := float64(r.size)
	x := (p.X - r.bounds.MinX) / r.bounds.Width * s
	y := (p.Z - r.bounds.MinZ) / r.bounds.Depth * s
	return x, y
}

func (r *Renderer) scale() float64 {
	return float64(r.size) / r.bounds.Width
}

func (r *Renderer) draw(snap *game.Snapshot) {
	dc := r.dc
	s := float64(r.size)

	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, s, s)
	dc.Fill()
	r.drawGrid()

	if snap == nil {
		return
	}

	marked := make(map[string]bool, len(snap.ChainTargets))
	for _, t := range snap.ChainTargets {
		marked[t.EnemyID] = true
	}
	for _, e := range snap.Enemies {
		r.drawEnemy(e, marked[e.ID])
	}
	for _, u := range snap.Summons {
		x, y := r.project(u.Position)
		dc.SetColor(colorSummon)
		dc.DrawRegularPolygon(4, x, y, 6, u.Facing)
		dc.Fill()
		if u.TargetID != "" {
			if t, ok := findEnemy(snap.Enemies, u.TargetID); ok {
				tx, ty := r.project(t.Position)
				dc.SetLineWidth(1)
				dc.DrawLine(x, y, tx, ty)
				dc.Stroke()
			}
		}
	}
	for _, p := range snap.Projectiles {
		c := colorProjectile
		c.A = uint8(math.Round(clamp01(p.Opacity) * 255))
		dc.SetColor(c)
		dc.SetLineWidth(2)
		if len(p.Trail) > 1 {
			x0, y0 := r.project(p.Trail[0])
			for _, pt := range p.Trail[1:] {
				x1, y1 := r.project(pt)
				dc.DrawLine(x0, y0, x1, y1)
				x0, y0 = x1, y1
			}
			dc.Stroke()
		}
		x, y := r.project(p.Position)
		dc.DrawCircle(x, y, 2.5)
		dc.Fill()
	}
	r.drawHero(snap.Caster)
	for _, n := range snap.DamageNumbers {
		x, y := r.project(n.Position)
		c := colorText
		if n.IsCritical || n.Style == combat.StyleCritical {
			c = colorBoss
		}
		c.A = uint8(math.Round(clamp01(n.Opacity) * 255))
		dc.SetColor(c)
		dc.DrawStringAnchored(fmt.Sprintf("%d", n.Amount), x, y-14, 0.5, 0.5)
	}

	dc.SetColor(colorText)
	dc.DrawString(fmt.Sprintf("t=%.1fs alive=%d kills=%d dmg=%d",
		snap.GameTime.Seconds(), snap.AliveCount, snap.TotalKills, snap.TotalDamage), 6, 14)
}

func (r *Renderer) drawGrid() {
	cell := r.bounds.CellSize
	if cell <= 0 {
		return
	}
	dc := r.dc
	s := float64(r.size)
	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	step := cell * r.scale()
	if step < 4 {
		return
	}
	for x := 0.0; x <= s; x += step {
		dc.DrawLine(x, 0, x, s)
	}
	for y := 0.0; y <= s; y += step {
		dc.DrawLine(0, y, s, y)
	}
	dc.Stroke()
}

func (r *Renderer) drawEnemy(e game.EnemySnapshot, marked bool) {
	dc := r.dc
	x, y := r.project(e.Position)
	radius := 5.0
	c := colorEnemy
	if e.IsBoss {
		radius = 9
		c = colorBoss
	}
	if !e.Alive() {
		c = colorDying
	}
	dc.SetColor(c)
	dc.DrawCircle(x, y, radius)
	dc.Fill()

	for _, k := range e.Statuses {
		switch k {
		case status.Freeze:
			dc.SetColor(colorFrozen)
		case status.Stun:
			dc.SetColor(colorStunned)
		default:
			continue
		}
		dc.SetLineWidth(2)
		dc.DrawCircle(x, y, radius+2)
		dc.Stroke()
	}
	if marked {
		dc.SetColor(colorChainMark)
		dc.SetLineWidth(1.5)
		dc.DrawCircle(x, y, radius+5)
		dc.Stroke()
	}

	// Health bar
	if e.MaxHealth > 0 && e.Alive() {
		w := radius * 2.4
		pct := clamp01(float64(e.Health) / float64(e.MaxHealth))
		dc.SetColor(color.RGBA{51, 51, 51, 255})
		dc.DrawRectangle(x-w/2, y-radius-6, w, 3)
		dc.Fill()
		if pct > 0.5 {
			dc.SetColor(color.RGBA{83, 255, 69, 255})
		} else if pct > 0.25 {
			dc.SetColor(color.RGBA{255, 149, 0, 255})
		} else {
			dc.SetColor(color.RGBA{255, 62, 62, 255})
		}
		dc.DrawRectangle(x-w/2, y-radius-6, w*pct, 3)
		dc.Fill()
	}
}

func (r *Renderer) drawHero(c game.CasterSnapshot) {
	dc := r.dc
	x, y := r.project(c.Position)
	dc.SetColor(colorHero)
	dc.DrawCircle(x, y, 7)
	dc.Fill()

	dir := world.FromHeading(c.Facing)
	fx := x + dir.X*14
	fy := y + dir.Z*14
	dc.SetLineWidth(2)
	dc.DrawLine(x, y, fx, fy)
	dc.Stroke()
}

func findEnemy(list []game.EnemySnapshot, id string) (game.EnemySnapshot, bool) {
	for _, e := range list {
		if e.ID == id {
			return e, true
		}
	}
	return game.EnemySnapshot{}, false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
