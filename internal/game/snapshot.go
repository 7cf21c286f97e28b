package game

import (
	"sync/atomic"
	"time"

	"arena/internal/game/ability"
	"arena/internal/game/chain"
	"arena/internal/game/projectile"
	"arena/internal/game/status"
	"arena/internal/game/summon"
	"arena/internal/game/world"
)

// CasterSnapshot is the hero's state.
type CasterSnapshot struct {
	ID       string     `json:"id"`
	Position world.Vec3 `json:"position"`
	Facing   float64    `json:"facing"`
	Level    int        `json:"level"`
}

// EnemySnapshot is an enemy plus the statuses active on it.
type EnemySnapshot struct {
	world.Enemy
	Statuses []status.Kind `json:"statuses,omitempty"`
}

// Snapshot is an immutable view of one tick for readers outside the tick
// goroutine: the API, the WebSocket hub, the minimap.
type Snapshot struct {
	Sequence  uint64        `json:"sequence"`
	Tick      uint64        `json:"tick"`
	GameTime  time.Duration `json:"gameTimeNs"`
	Timestamp time.Time     `json:"timestamp"`

	Caster        CasterSnapshot        `json:"caster"`
	Enemies       []EnemySnapshot       `json:"enemies"`
	Projectiles   []projectile.Snapshot `json:"projectiles"`
	Summons       []summon.Snapshot     `json:"summons"`
	Abilities     []ability.State       `json:"abilities"`
	ChainTargets  []chain.Target        `json:"chainTargets"`
	DamageNumbers []DamageNumber        `json:"damageNumbers"`

	AliveCount  int   `json:"aliveCount"`
	TotalKills  int   `json:"totalKills"`
	TotalDamage int64 `json:"totalDamage"`
}

// SnapshotPool publishes snapshots to readers on other goroutines. Every
// publish is a freshly allocated Snapshot, so a reader may hold one for as
// long as it likes while the tick keeps building new ones.
type SnapshotPool struct {
	limits   Limits
	latest   atomic.Pointer[Snapshot]
	sequence atomic.Uint64
}

// NewSnapshotPool creates a pool whose first read is an empty snapshot.
func NewSnapshotPool(limits Limits) *SnapshotPool {
	p := &SnapshotPool{limits: limits}
	p.latest.Store(&Snapshot{})
	return p
}

// AcquireWrite allocates the next snapshot. Producer only; the result is
// invisible to readers until PublishWrite.
func (p *SnapshotPool) AcquireWrite() *Snapshot {
	return &Snapshot{
		Enemies:       make([]EnemySnapshot, 0, p.limits.MaxEnemies),
		Projectiles:   make([]projectile.Snapshot, 0, p.limits.MaxProjectiles),
		Summons:       make([]summon.Snapshot, 0, p.limits.MaxSummons),
		ChainTargets:  make([]chain.Target, 0, p.limits.MaxChainTargets),
		DamageNumbers: make([]DamageNumber, 0, p.limits.MaxDamageNumbers),
		Sequence:      p.sequence.Add(1),
		Timestamp:     time.Now(),
	}
}

// PublishWrite makes snap the latest snapshot. snap must not be modified
// afterwards.
func (p *SnapshotPool) PublishWrite(snap *Snapshot) {
	p.latest.Store(snap)
}

// AcquireRead returns the latest published snapshot.
func (p *SnapshotPool) AcquireRead() *Snapshot {
	return p.latest.Load()
}

// Limits returns the caps.
func (p *SnapshotPool) Limits() Limits {
	return p.limits
}
