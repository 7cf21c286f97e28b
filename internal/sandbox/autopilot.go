package sandbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"arena/internal/game"
	"arena/internal/game/ability"
	"arena/internal/game/world"
)

// Driver is the part of the engine the autopilot plays through.
type Driver interface {
	Snapshot() *game.Snapshot
	StartCharging(abilityID string) bool
	ReleaseCharge(abilityID string, aim ability.Aim) bool
	CastAbility(abilityID string, aim ability.Aim) bool
	ShootProjectile(abilityID string, aim ability.Aim) bool
}

// Autopilot plays the hero's kit against the nearest enemy so a server
// without clients still exercises every entrypoint. Each Step performs at
// most one accepted activation.
type Autopilot struct {
	driver Driver
	defs   []ability.Definition
	log    *slog.Logger

	mu            sync.Mutex
	charging      string
	chargingSince time.Duration
	accepted      map[string]int
}

// NewAutopilot plays defs through driver.
func NewAutopilot(driver Driver, defs []ability.Definition, logger *slog.Logger) *Autopilot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Autopilot{
		driver:   driver,
		defs:     defs,
		log:      logger,
		accepted: make(map[string]int),
	}
}

// Run steps every interval until ctx is done.
func (p *Autopilot) Run(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Step()
		}
	}
}

// Step looks at the latest snapshot and activates one ability. It returns
// the id of the accepted ability, or "".
func (p *Autopilot) Step() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.driver.Snapshot()
	target, ok := nearest(snap)
	if !ok {
		return ""
	}
	caster := snap.Caster.Position
	dist := world.Dist2D(caster, target.Position)
	aim := ability.Aim{
		Direction: target.Position.Sub(caster).Flatten(),
		TargetID:  target.ID,
	}
	states := make(map[string]ability.State, len(snap.Abilities))
	for _, st := range snap.Abilities {
		states[st.ID] = st
	}

	if p.charging != "" {
		def, _ := p.def(p.charging)
		if snap.GameTime-p.chargingSince < def.MaxChargeTime {
			return ""
		}
		id := p.charging
		p.charging = ""
		if p.driver.ReleaseCharge(id, aim) {
			return p.record(id)
		}
		return ""
	}

	for _, def := range p.defs {
		if def.Kind == ability.KindChargedShot {
			continue
		}
		st, ok := states[def.ID]
		if !ok || !ready(st) || !inReach(def, dist) {
			continue
		}
		if p.activate(def, aim) {
			return p.record(def.ID)
		}
	}

	for _, def := range p.defs {
		if def.Kind != ability.KindChargedShot {
			continue
		}
		st, ok := states[def.ID]
		if !ok || !ready(st) || dist > def.MaxRange {
			continue
		}
		if p.driver.StartCharging(def.ID) {
			p.charging = def.ID
			p.chargingSince = snap.GameTime
			p.log.Debug("autopilot charging", "ability", def.ID, "target", target.ID)
			return ""
		}
	}
	return ""
}

func (p *Autopilot) activate(def ability.Definition, aim ability.Aim) bool {
	if def.Kind == ability.KindVolley {
		return p.driver.ShootProjectile(def.ID, aim)
	}
	return p.driver.CastAbility(def.ID, aim)
}

func (p *Autopilot) record(id string) string {
	p.accepted[id]++
	return id
}

func (p *Autopilot) def(id string) (ability.Definition, bool) {
	for _, d := range p.defs {
		if d.ID == id {
			return d, true
		}
	}
	return ability.Definition{}, false
}

// Accepted returns accepted activations per ability.
func (p *Autopilot) Accepted() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.accepted))
	for k, v := range p.accepted {
		out[k] = v
	}
	return out
}

func ready(st ability.State) bool {
	if st.CooldownRemaining > 0 {
		return false
	}
	if st.Kind == ability.KindVolley && st.ShotsRemaining > 0 {
		return true
	}
	return st.Size == 0 || st.Available > 0
}

// totemReach is how close an enemy must be before a totem is worth placing.
const totemReach = 10

func inReach(def ability.Definition, dist float64) bool {
	switch def.Kind {
	case ability.KindTotem:
		return dist <= totemReach
	default:
		return dist <= def.Range
	}
}

func nearest(snap *game.Snapshot) (world.Enemy, bool) {
	var best world.Enemy
	bestDist := -1.0
	for _, e := range snap.Enemies {
		if !e.Alive() {
			continue
		}
		d := world.DistSq2D(snap.Caster.Position, e.Position)
		if bestDist < 0 || d < bestDist || (d == bestDist && e.ID < best.ID) {
			best, bestDist = e.Enemy, d
		}
	}
	return best, bestDist >= 0
}
