// Package chain propagates damage from a killing blow to nearby enemies.
//
// A kill marks up to MaxTargets nearby enemies. Each mark is a deferred
// strike that lands after MarkDuration, provided its target still exists
// and is alive at that moment. A strike that kills starts the next
// generation; generations beyond MaxGenerations are dropped.
package chain

import (
	"log/slog"
	"sort"
	"time"

	"arena/internal/game/clock"
	"arena/internal/game/combat"
	"arena/internal/game/status"
	"arena/internal/game/world"
)

// Config tunes the chain reaction.
type Config struct {
	Range          float64       `yaml:"range" json:"range"`
	MaxTargets     int           `yaml:"max_targets" json:"maxTargets"`
	MaxGenerations int           `yaml:"max_generations" json:"maxGenerations"`
	MarkDuration   time.Duration `yaml:"mark_duration" json:"markDuration"`
	BaseDamage     float64       `yaml:"base_damage" json:"baseDamage"`
	DamagePerLevel float64       `yaml:"damage_per_level" json:"damagePerLevel"`
	SummonType     string        `yaml:"summon_type" json:"summonType"`
}

// DefaultConfig returns the observed tuning.
func DefaultConfig() Config {
	return Config{
		Range:          5,
		MaxTargets:     2,
		MaxGenerations: 1,
		MarkDuration:   2 * time.Second,
		BaseDamage:     150,
		DamagePerLevel: 25,
		SummonType:     "wraith",
	}
}

// Host is the engine-side contract the chain needs.
type Host interface {
	// Lookup resolves an enemy's current state.
	Lookup(id string) (world.Enemy, bool)
	// Enemies returns the current snapshot.
	Enemies() []world.Enemy
	// ApplyHit routes damage through the damage pipeline.
	ApplyHit(h combat.Hit) combat.HitOutcome
}

// Nearby is optionally implemented by a Host with a spatial index.
type Nearby interface {
	EnemiesNear(pos world.Vec3, radius float64) []world.Enemy
}

// Summoner spawns an allied unit of a type when none exists.
type Summoner interface {
	SpawnIfAbsent(unitType string, pos world.Vec3) bool
}

// Kill is a killing blow that may start or continue a chain.
type Kill struct {
	SourceID   string
	EnemyID    string
	Position   world.Vec3
	Generation int
	Level      int
}

// Target is a marked enemy awaiting its strike.
type Target struct {
	EnemyID    string        `json:"enemyId"`
	Generation int           `json:"generation"`
	MarkedAt   time.Time     `json:"markedAt"`
	Timer      clock.TimerID `json:"-"`
}

// Stats counts chain activity.
type Stats struct {
	Triggers  uint64 `json:"triggers"`
	Marks     uint64 `json:"marks"`
	Strikes   uint64 `json:"strikes"`
	Kills     uint64 `json:"kills"`
	Fizzled   uint64 `json:"fizzled"`
	Truncated uint64 `json:"truncated"`
}

// Engine runs chain reactions. Not safe for concurrent use.
type Engine struct {
	cfg      Config
	sched    *clock.Scheduler
	host     Host
	tracker  *status.Tracker
	summoner Summoner
	log      *slog.Logger

	// IsTargeted lets the host exclude enemies another effect has claimed.
	IsTargeted func(enemyID string) bool

	// OnMark and OnStrike are optional observers.
	OnMark   func(t Target, pos world.Vec3)
	OnStrike func(t Target, out combat.HitOutcome)

	targets map[string]*Target
	stats   Stats
}

// New creates a chain engine. tracker and summoner may be nil.
func New(cfg Config, sched *clock.Scheduler, host Host, tracker *status.Tracker, summoner Summoner, logger *slog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.Range <= 0 {
		cfg.Range = def.Range
	}
	if cfg.MaxTargets <= 0 {
		cfg.MaxTargets = def.MaxTargets
	}
	if cfg.MaxGenerations <= 0 {
		cfg.MaxGenerations = def.MaxGenerations
	}
	if cfg.MarkDuration <= 0 {
		cfg.MarkDuration = def.MarkDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		sched:    sched,
		host:     host,
		tracker:  tracker,
		summoner: summoner,
		log:      logger,
		targets:  make(map[string]*Target),
	}
}

// Config returns the active tuning.
func (e *Engine) Config() Config {
	return e.cfg
}

// Trigger handles a killing blow. The primary kill enters at generation 1.
func (e *Engine) Trigger(k Kill) int {
	if k.Generation < 1 {
		k.Generation = 1
	}
	e.stats.Triggers++

	if e.summoner != nil && e.cfg.SummonType != "" {
		e.summoner.SpawnIfAbsent(e.cfg.SummonType, k.Position)
	}

	if k.Generation > e.cfg.MaxGenerations {
		e.stats.Truncated++
		return 0
	}

	picked := e.pickTargets(k)
	for _, enemy := range picked {
		e.mark(k, enemy)
	}
	if len(picked) > 0 {
		e.log.Debug("chain marked targets",
			"source", k.EnemyID,
			"generation", k.Generation,
			"targets", len(picked))
	}
	return len(picked)
}

type candidate struct {
	enemy world.Enemy
	dist  float64
}

func (e *Engine) pickTargets(k Kill) []world.Enemy {
	var cands []candidate
	limit := e.cfg.Range * e.cfg.Range
	pool := e.host.Enemies()
	if n, ok := e.host.(Nearby); ok {
		pool = n.EnemiesNear(k.Position, e.cfg.Range)
	}
	for _, en := range pool {
		if en.ID == k.EnemyID || !en.Alive() {
			continue
		}
		if _, marked := e.targets[en.ID]; marked {
			continue
		}
		if e.IsTargeted != nil && e.IsTargeted(en.ID) {
			continue
		}
		d := world.DistSq2D(k.Position, en.Position)
		if d > limit {
			continue
		}
		cands = append(cands, candidate{enemy: en, dist: d})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist == cands[j].dist {
			return cands[i].enemy.ID < cands[j].enemy.ID
		}
		return cands[i].dist < cands[j].dist
	})
	if len(cands) > e.cfg.MaxTargets {
		cands = cands[:e.cfg.MaxTargets]
	}
	out := make([]world.Enemy, len(cands))
	for i, c := range cands {
		out[i] = c.enemy
	}
	return out
}

func (e *Engine) mark(k Kill, enemy world.Enemy) {
	t := &Target{
		EnemyID:    enemy.ID,
		Generation: k.Generation,
		MarkedAt:   e.sched.Now(),
	}
	id := enemy.ID
	source, level := k.SourceID, k.Level
	t.Timer = e.sched.After(e.cfg.MarkDuration, func() {
		e.strike(id, source, level)
	})
	e.targets[id] = t
	e.stats.Marks++

	if e.tracker != nil {
		e.tracker.ApplyAt(id, status.Mark, e.cfg.MarkDuration, 0, enemy.Position)
	}
	if e.OnMark != nil {
		e.OnMark(*t, enemy.Position)
	}
}

// strike runs when a mark expires. Only the enemy id is carried; the
// enemy is re-resolved here.
func (e *Engine) strike(enemyID, sourceID string, level int) {
	t, ok := e.targets[enemyID]
	if !ok {
		return
	}
	delete(e.targets, enemyID)

	enemy, ok := e.host.Lookup(enemyID)
	if !ok || !enemy.Alive() {
		e.stats.Fizzled++
		return
	}

	out := e.host.ApplyHit(combat.Hit{
		SourceID:   sourceID,
		SourceKind: combat.SourceChain,
		AbilityID:  "chain",
		TargetID:   enemyID,
		Base:       combat.LevelScaled(e.cfg.BaseDamage, e.cfg.DamagePerLevel, level),
		Generation: t.Generation,
		Origin:     enemy.Position,
		Style:      combat.StyleChain,
	})
	if !out.Applied {
		e.stats.Fizzled++
		return
	}
	e.stats.Strikes++
	if e.OnStrike != nil {
		e.OnStrike(*t, out)
	}

	if out.Killed {
		e.stats.Kills++
		e.Trigger(Kill{
			SourceID:   sourceID,
			EnemyID:    enemyID,
			Position:   out.TargetPosition,
			Generation: t.Generation + 1,
			Level:      level,
		})
	}
}

// IsMarked reports whether an enemy awaits a chain strike.
func (e *Engine) IsMarked(enemyID string) bool {
	_, ok := e.targets[enemyID]
	return ok
}

// Targets returns the pending marks sorted by enemy id.
func (e *Engine) Targets() []Target {
	out := make([]Target, 0, len(e.targets))
	for _, t := range e.targets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnemyID < out[j].EnemyID })
	return out
}

// Len returns the number of pending marks.
func (e *Engine) Len() int {
	return len(e.targets)
}

// Stats returns counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Reset cancels pending strikes.
func (e *Engine) Reset() {
	for _, t := range e.targets {
		e.sched.Cancel(t.Timer)
	}
	e.targets = make(map[string]*Target)
	e.stats = Stats{}
}
