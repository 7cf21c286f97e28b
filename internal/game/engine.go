// Package game runs the combat core: it owns the game clock, routes every
// hit through one damage pipeline, dispatches ability entrypoints and
// publishes an immutable snapshot after each tick.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"arena/internal/game/ability"
	"arena/internal/game/aggro"
	"arena/internal/game/chain"
	"arena/internal/game/clock"
	"arena/internal/game/combat"
	"arena/internal/game/eventlog"
	"arena/internal/game/projectile"
	"arena/internal/game/spatial"
	"arena/internal/game/status"
	"arena/internal/game/summon"
	"arena/internal/game/world"
	"arena/internal/input"
	"arena/internal/netsync"
)

// Engine is the combat engine. Exported methods are safe for concurrent
// use; the tick and every activation run under one lock.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	log *slog.Logger

	clock  *clock.Clock
	sched  *clock.Scheduler
	source world.Source

	calc        *combat.Calculator
	tracker     *status.Tracker
	projectiles *projectile.Simulator
	selector    *aggro.Selector
	summons     *summon.Controller
	chain       *chain.Engine
	kit         *ability.Kit
	env         *combatEnv

	caster ability.Caster
	hooks  Hooks

	inputs    *input.Queue
	outbox    *netsync.Outbox
	events    *eventlog.Log
	meter     *DamageMeter
	snapshots *SnapshotPool

	// Rebuilt every tick from the source for radius queries.
	grid    *spatial.Grid
	enemies []world.Enemy

	numbers   []DamageNumber
	claims    map[string]time.Time // enemy id -> end of the primary ability's claim
	lastSweep time.Time

	tickCount   uint64
	totalKills  int
	totalDamage int64

	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewEngine wires the combat services around source.
func NewEngine(cfg Config, source world.Source, logger *slog.Logger) (*Engine, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	clk := clock.New()
	sched := clock.NewScheduler(clk)
	kit, err := ability.NewKit(cfg.Abilities, sched)
	if err != nil {
		return nil, fmt.Errorf("build ability kit: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		log:       logger,
		clock:     clk,
		sched:     sched,
		source:    source,
		calc:      combat.New(cfg.Roller),
		tracker:   status.NewTracker(clk),
		selector:  aggro.NewSelector(clk, nil),
		kit:       kit,
		outbox:    netsync.NewOutbox(cfg.OutboxSize),
		events:    eventlog.New(),
		meter:     NewDamageMeter(),
		snapshots: NewSnapshotPool(cfg.Limits),
		grid: spatial.NewGrid(cfg.Bounds.MinX, cfg.Bounds.MinZ,
			cfg.Bounds.Width, cfg.Bounds.Depth, cfg.Bounds.CellSize, cfg.Limits.MaxEnemies),
		enemies:  make([]world.Enemy, 0, cfg.Limits.MaxEnemies),
		numbers:  make([]DamageNumber, 0, cfg.Limits.MaxDamageNumbers),
		caster: ability.Caster{
			ID:       cfg.CasterID,
			Position: cfg.CasterPosition,
			Level:    cfg.CasterLevel,
		},
		claims:    make(map[string]time.Time),
		lastSweep: clk.Now(),
	}
	e.env = &combatEnv{e: e}

	e.tracker.OnVisualRequest(e.onStatusVisual)
	e.projectiles = projectile.NewSimulator(cfg.Projectiles, func(p *projectile.Projectile, target world.Enemy) {
		e.kit.OnProjectileHit(e.env, p, target)
	})

	e.summons = summon.NewController(cfg.Summons, sched, e.selector, e.env, logger)
	e.summons.SetOwner(e.caster.ID)
	e.summons.OnSpawn = e.onSummonSpawn
	e.summons.OnDestroy = e.onSummonDestroy

	e.chain = chain.New(cfg.Chain, sched, e.env, e.tracker, e.summons, logger)
	e.chain.IsTargeted = e.isClaimed
	e.chain.OnMark = e.onChainMark
	e.chain.OnStrike = e.onChainStrike

	e.publish(e.clock.Now())
	return e, nil
}

// SetHooks replaces the presentation hooks.
func (e *Engine) SetHooks(h Hooks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = h
}

// SetInput attaches the queue drained at the start of each tick.
func (e *Engine) SetInput(q *input.Queue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = q
}

// Start runs the fixed-rate loop in a goroutine until Stop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.done = make(chan struct{})
	e.stopChan = make(chan struct{})
	stop := e.stopChan
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()
	go func() {
		defer close(e.done)
		e.Run(ctx)
	}()
}

// Stop ends a loop started with Start and waits for the last tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopChan)
	done := e.done
	e.mu.Unlock()
	<-done
}

// Run ticks at the configured rate until ctx is done. Each tick advances
// game time by a fixed 1/TickRate.
func (e *Engine) Run(ctx context.Context) error {
	dt := time.Second / time.Duration(e.cfg.TickRate)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	e.log.Info("🎮 combat engine started", "tps", e.cfg.TickRate)
	for {
		select {
		case <-ctx.Done():
			e.log.Info("🛑 combat engine stopped", "ticks", e.TickCount())
			return nil
		case <-ticker.C:
			e.Tick(dt)
		}
	}
}

// Tick advances the simulation by dt.
func (e *Engine) Tick(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tick(dt)
}

func (e *Engine) tick(dt time.Duration) {
	start := time.Now()
	if dt < 0 {
		dt = 0
	}
	e.tickCount++
	e.clock.Advance(dt)
	now := e.clock.Now()
	sec := dt.Seconds()

	if adv, ok := e.source.(world.Advancer); ok {
		adv.Advance(sec)
	}
	e.refreshEnemies()
	e.sched.RunDue()
	e.drainCommands()

	e.projectiles.Tick(now, sec, e.source.Enemies())
	e.summons.Tick(now, sec, summon.Owner{
		ID:       e.caster.ID,
		Position: e.caster.Position,
		Valid:    true,
	}, e.source.Enemies())

	if now.Sub(e.lastSweep) >= e.cfg.SweepInterval {
		e.tracker.Sweep(e.isAlive)
		e.pruneClaims(now)
		e.lastSweep = now
	}
	e.fadeNumbers(now, sec)
	e.publish(now)

	projectilesActive.Set(float64(e.projectiles.Len()))
	summonsActive.Set(float64(e.summons.Len()))
	statusesActive.Set(float64(e.tracker.Len()))
	tickDuration.Observe(time.Since(start).Seconds())
}

func (e *Engine) refreshEnemies() {
	e.enemies = append(e.enemies[:0], e.source.Enemies()...)
	e.grid.Clear()
	for i, en := range e.enemies {
		if en.Alive() {
			e.grid.Insert(uint32(i), en.Position.X, en.Position.Z)
		}
	}
}

func (e *Engine) isAlive(enemyID string) bool {
	en, ok := e.source.Lookup(enemyID)
	return ok && en.Alive()
}

// enemiesNear resolves grid candidates against the live source.
// isClaimed reports whether an accepted activation aimed at the enemy
// within the last TargetClaim. Chain reactions skip claimed enemies.
func (e *Engine) isClaimed(enemyID string) bool {
	until, ok := e.claims[enemyID]
	if !ok {
		return false
	}
	if !e.clock.Now().Before(until) {
		delete(e.claims, enemyID)
		return false
	}
	return true
}

func (e *Engine) pruneClaims(now time.Time) {
	for id, until := range e.claims {
		if !now.Before(until) || !e.isAlive(id) {
			delete(e.claims, id)
		}
	}
}

func (e *Engine) enemiesNear(pos world.Vec3, radius float64) []world.Enemy {
	var out []world.Enemy
	limit := radius * radius
	for _, idx := range e.grid.QueryRadius(pos.X, pos.Z, radius) {
		live, ok := e.source.Lookup(e.enemies[idx].ID)
		if !ok {
			continue
		}
		if world.DistSq2D(pos, live.Position) <= limit {
			out = append(out, live)
		}
	}
	return out
}

// applyHit is the damage pipeline. Every damage source goes through it.
func (e *Engine) applyHit(h combat.Hit) combat.HitOutcome {
	target, ok := e.source.Lookup(h.TargetID)
	if !ok || !target.Alive() {
		return combat.HitOutcome{}
	}

	// Status is read before anything changes the target.
	statuses := e.statusKinds(target.ID)
	mods := h.Mods
	if len(h.StatusBonus) > 0 {
		mods.StatusMultiplier = e.tracker.Multiplier(target.ID, h.StatusBonus)
	}
	if h.SourceKind == combat.SourceSummon && target.IsBoss {
		mods.BossReduction = e.cfg.BossReduction
	}

	res := e.calc.Compute(h.Base, mods)
	out := combat.HitOutcome{
		Applied:        true,
		Result:         res,
		Killed:         res.Damage >= target.Health,
		TargetPosition: target.Position,
		Statuses:       statuses,
	}

	style := h.Style
	if style == "" {
		style = combat.StyleNormal
	}
	if style == combat.StyleNormal && res.IsCritical {
		style = combat.StyleCritical
	}
	now := e.clock.Now()

	if e.hooks.OnHit != nil {
		e.hooks.OnHit(HitEvent{
			SourceID:   h.SourceID,
			SourceKind: h.SourceKind,
			AbilityID:  h.AbilityID,
			TargetID:   target.ID,
			Damage:     res.Damage,
			IsCritical: res.IsCritical,
			Killed:     out.Killed,
			Position:   target.Position,
			Style:      style,
			Generation: h.Generation,
		})
	}
	e.spawnNumber(DamageNumber{
		TargetID:   target.ID,
		Position:   target.Position,
		Amount:     res.Damage,
		IsCritical: res.IsCritical,
		Style:      style,
		SpawnedAt:  now,
		Opacity:    1,
	})

	e.meter.Record(h.SourceID, res.Damage)
	e.totalDamage += int64(res.Damage)
	damageDealt.WithLabelValues(string(h.SourceKind)).Add(float64(res.Damage))
	switch {
	case res.TipHit:
		criticalHits.WithLabelValues("tip").Inc()
	case res.Backstab:
		criticalHits.WithLabelValues("backstab").Inc()
	case res.IsCritical:
		criticalHits.WithLabelValues("roll").Inc()
	}

	health := target.Health - res.Damage
	if health < 0 {
		health = 0
	}
	e.emit(eventlog.TypeDamage, h.SourceID, eventlog.DamagePayload{
		TargetID:   target.ID,
		AbilityID:  h.AbilityID,
		SourceKind: string(h.SourceKind),
		Base:       h.Base,
		Damage:     res.Damage,
		Critical:   res.IsCritical,
		Forced:     res.Forced,
		HealthLeft: health,
		Boss:       target.IsBoss,
	})

	if out.Killed {
		e.totalKills++
		kills.WithLabelValues(string(h.SourceKind)).Inc()
		e.log.Debug("enemy killed",
			"target", target.ID,
			"source", h.SourceID,
			"ability", h.AbilityID,
			"damage", res.Damage)
		e.emit(eventlog.TypeKill, h.SourceID, eventlog.KillPayload{
			TargetID:   target.ID,
			AbilityID:  h.AbilityID,
			Generation: h.Generation,
		})
		if h.ChainOnKill {
			e.chain.Trigger(chain.Kill{
				SourceID:   h.SourceID,
				EnemyID:    target.ID,
				Position:   target.Position,
				Generation: 1,
				Level:      e.caster.Level,
			})
		}
	}
	return out
}

func (e *Engine) statusKinds(enemyID string) []string {
	active := e.tracker.Active(enemyID)
	if len(active) == 0 {
		return nil
	}
	out := make([]string, len(active))
	for i, s := range active {
		out[i] = string(s.Kind)
	}
	return out
}

func (e *Engine) applyStatus(enemyID string, kind status.Kind, d time.Duration, magnitude float64, pos world.Vec3) {
	if d <= 0 {
		return
	}
	e.tracker.ApplyAt(enemyID, kind, d, magnitude, pos)
	e.emit(eventlog.TypeStatus, e.caster.ID, eventlog.StatusPayload{
		TargetID: enemyID,
		Kind:     string(kind),
		Duration: d,
	})
}

func (e *Engine) sendEffect(d netsync.Descriptor) {
	if d.At.IsZero() {
		d.At = e.clock.Now()
	}
	if d.OwnerID == "" {
		d.OwnerID = e.caster.ID
	}
	e.outbox.Send(d)
	if e.hooks.SendNetworkEffect != nil {
		e.hooks.SendNetworkEffect(d)
	}
}

func (e *Engine) onStatusVisual(r status.VisualRequest) {
	if e.hooks.OnStatusVisualRequest != nil {
		e.hooks.OnStatusVisualRequest(r)
	}
}

func (e *Engine) onChainMark(t chain.Target, pos world.Vec3) {
	chainHops.Inc()
	e.emit(eventlog.TypeChainMark, e.caster.ID, eventlog.ChainPayload{
		TargetID:   t.EnemyID,
		Generation: t.Generation,
	})
	e.sendEffect(netsync.Descriptor{
		Kind:      netsync.KindChainMark,
		AbilityID: "chain",
		Position:  pos,
		Duration:  e.chain.Config().MarkDuration,
	})
}

func (e *Engine) onChainStrike(t chain.Target, out combat.HitOutcome) {
	e.log.Debug("chain strike",
		"target", t.EnemyID,
		"generation", t.Generation,
		"damage", out.Result.Damage,
		"killed", out.Killed)
	e.emit(eventlog.TypeChainStrike, e.caster.ID, eventlog.ChainPayload{
		TargetID:   t.EnemyID,
		Generation: t.Generation,
		Damage:     out.Result.Damage,
	})
}

func (e *Engine) onSummonSpawn(u *summon.Unit) {
	e.emit(eventlog.TypeSummonSpawn, u.OwnerID, eventlog.SummonPayload{UnitID: u.ID, Type: u.Type})
}

func (e *Engine) onSummonDestroy(u *summon.Unit, reason string) {
	e.emit(eventlog.TypeSummonDestroy, u.OwnerID, eventlog.SummonPayload{UnitID: u.ID, Type: u.Type, Reason: reason})
}

func (e *Engine) emit(t eventlog.Type, sourceID string, payload any) {
	if !e.events.Running() {
		return
	}
	e.events.Emit(eventlog.NewEvent(t, e.tickCount, e.clock.Elapsed(), sourceID, payload))
}

func (e *Engine) spawnNumber(n DamageNumber) {
	if limit := e.cfg.Limits.MaxDamageNumbers; limit > 0 && len(e.numbers) >= limit {
		copy(e.numbers, e.numbers[1:])
		e.numbers = e.numbers[:len(e.numbers)-1]
	}
	e.numbers = append(e.numbers, n)
	if e.hooks.OnDamageNumberSpawn != nil {
		e.hooks.OnDamageNumberSpawn(n)
	}
}

// fadeNumbers floats damage numbers upward and drops them once their
// lifetime is over. In-place filter, no allocation.
func (e *Engine) fadeNumbers(now time.Time, dt float64) {
	life := e.cfg.DamageNumberLife
	n := 0
	for _, num := range e.numbers {
		age := now.Sub(num.SpawnedAt)
		if age >= life {
			continue
		}
		num.Opacity = 1 - float64(age)/float64(life)
		num.Position.Y += e.cfg.DamageNumberRise * dt
		e.numbers[n] = num
		n++
	}
	e.numbers = e.numbers[:n]
}

// publish writes the current state into the snapshot pool.
func (e *Engine) publish(now time.Time) {
	snap := e.snapshots.AcquireWrite()
	limits := e.snapshots.Limits()

	snap.Tick = e.tickCount
	snap.GameTime = e.clock.Elapsed()
	snap.Caster = CasterSnapshot{
		ID:       e.caster.ID,
		Position: e.caster.Position,
		Facing:   e.caster.Facing,
		Level:    e.caster.Level,
	}

	alive := 0
	for _, en := range e.enemies {
		if en.Alive() {
			alive++
		}
		if len(snap.Enemies) >= limits.MaxEnemies {
			continue
		}
		var kinds []status.Kind
		for _, s := range e.tracker.Active(en.ID) {
			kinds = append(kinds, s.Kind)
		}
		snap.Enemies = append(snap.Enemies, EnemySnapshot{Enemy: en, Statuses: kinds})
	}
	snap.AliveCount = alive

	for _, p := range e.projectiles.Active() {
		if len(snap.Projectiles) >= limits.MaxProjectiles {
			break
		}
		snap.Projectiles = append(snap.Projectiles, p.ToSnapshot())
	}
	for _, u := range e.summons.Units() {
		if len(snap.Summons) >= limits.MaxSummons {
			break
		}
		snap.Summons = append(snap.Summons, u.ToSnapshot())
	}
	for _, t := range e.chain.Targets() {
		if len(snap.ChainTargets) >= limits.MaxChainTargets {
			break
		}
		snap.ChainTargets = append(snap.ChainTargets, t)
	}
	snap.DamageNumbers = append(snap.DamageNumbers, e.numbers...)
	snap.Abilities = e.kit.States(now)
	snap.TotalKills = e.totalKills
	snap.TotalDamage = e.totalDamage

	e.snapshots.PublishWrite(snap)
}

// Snapshot returns the latest published tick. Treat it as read-only.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshots.AcquireRead()
}

// ApplyHit runs a hit through the damage pipeline.
func (e *Engine) ApplyHit(h combat.Hit) combat.HitOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyHit(h)
}

// StartCharging begins charging abilityID.
func (e *Engine) StartCharging(abilityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activate(abilityID, "start_charging", ability.Aim{}, func() bool {
		return e.kit.StartCharging(abilityID, e.env, e.caster)
	})
}

// ReleaseCharge releases a charging ability.
func (e *Engine) ReleaseCharge(abilityID string, aim ability.Aim) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activate(abilityID, "release_charge", aim, func() bool {
		return e.kit.ReleaseCharge(abilityID, e.env, e.caster, aim)
	})
}

// CastAbility activates an instant ability.
func (e *Engine) CastAbility(abilityID string, aim ability.Aim) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activate(abilityID, "cast", aim, func() bool {
		return e.kit.CastAbility(abilityID, e.env, e.caster, aim)
	})
}

// ShootProjectile fires one shot of a volley ability.
func (e *Engine) ShootProjectile(abilityID string, aim ability.Aim) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activate(abilityID, "shoot", aim, func() bool {
		return e.kit.ShootProjectile(abilityID, e.env, e.caster, aim)
	})
}

func (e *Engine) activate(abilityID, action string, aim ability.Aim, fn func() bool) bool {
	if _, ok := e.kit.Get(abilityID); !ok {
		return false
	}
	ok := fn()
	result := "rejected"
	if ok {
		result = "accepted"
	}
	activations.WithLabelValues(abilityID, result).Inc()
	if ok && aim.TargetID != "" {
		e.claims[aim.TargetID] = e.clock.Now().Add(e.cfg.TargetClaim)
	}
	e.emit(eventlog.TypeAbility, e.caster.ID, eventlog.AbilityPayload{
		AbilityID: abilityID,
		Action:    action,
		Accepted:  ok,
	})
	return ok
}

// Execute applies one control command immediately.
func (e *Engine) Execute(cmd input.Command) bool {
	if input.Validate(cmd) != nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(cmd)
}

func (e *Engine) drainCommands() {
	if e.inputs == nil {
		return
	}
	for _, cmd := range e.inputs.Drain(e.cfg.MaxCommandsPerTick) {
		e.execute(cmd)
	}
}

func (e *Engine) execute(cmd input.Command) bool {
	commandsApplied.WithLabelValues(string(cmd.Action)).Inc()

	aim := ability.Aim{TargetID: cmd.TargetID, Point: cmd.Point}
	if cmd.Direction != nil {
		aim.Direction = *cmd.Direction
	}

	switch cmd.Action {
	case input.ActionStartCharging:
		return e.activate(cmd.AbilityID, "start_charging", ability.Aim{}, func() bool {
			return e.kit.StartCharging(cmd.AbilityID, e.env, e.caster)
		})
	case input.ActionReleaseCharge:
		return e.activate(cmd.AbilityID, "release_charge", aim, func() bool {
			return e.kit.ReleaseCharge(cmd.AbilityID, e.env, e.caster, aim)
		})
	case input.ActionCast:
		return e.activate(cmd.AbilityID, "cast", aim, func() bool {
			return e.kit.CastAbility(cmd.AbilityID, e.env, e.caster, aim)
		})
	case input.ActionShoot:
		return e.activate(cmd.AbilityID, "shoot", aim, func() bool {
			return e.kit.ShootProjectile(cmd.AbilityID, e.env, e.caster, aim)
		})
	case input.ActionMove:
		if cmd.Position != nil {
			e.caster.Position = *cmd.Position
		}
		if cmd.Facing != nil {
			e.caster.Facing = *cmd.Facing
		}
		return true
	case input.ActionLevel:
		if cmd.Level < 1 {
			return false
		}
		e.caster.Level = cmd.Level
		return true
	case input.ActionFocus:
		focused := 0
		for _, u := range e.summons.Units() {
			if e.selector.Focus(u.ID, cmd.TargetID, e.cfg.FocusDuration) {
				focused++
			}
		}
		return focused > 0
	case input.ActionReset:
		e.reset()
		return true
	}
	return false
}

// Reset restores every service to its initial state, as on a game
// restart. A source with a Reset method is reset too.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Engine) reset() {
	e.kit.Reset()
	e.projectiles.Clear()
	e.summons.Reset()
	e.chain.Reset()
	e.tracker.Reset()
	e.selector.Reset()
	e.sched.Reset()
	e.meter.Reset()
	e.numbers = e.numbers[:0]
	clear(e.claims)
	e.totalKills = 0
	e.totalDamage = 0
	if r, ok := e.source.(interface{ Reset() }); ok {
		r.Reset()
	}
	e.refreshEnemies()
	e.emit(eventlog.TypeReset, "", nil)
	e.log.Info("combat state reset")
	e.publish(e.clock.Now())
}

// SetCaster moves or re-levels the hero.
func (e *Engine) SetCaster(pos world.Vec3, facing float64, level int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.caster.Position = pos
	e.caster.Facing = facing
	if level >= 1 {
		e.caster.Level = level
	}
}

// Caster returns the hero.
func (e *Engine) Caster() ability.Caster {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.caster
}

// Now returns game time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// TickCount returns the number of ticks run.
func (e *Engine) TickCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickCount
}

// Abilities returns the catalog sorted by id. Definitions never change
// after construction.
func (e *Engine) Abilities() []ability.Definition {
	defs := e.kit.Definitions()
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// SummonTypes returns the unit catalog.
func (e *Engine) SummonTypes() []summon.Type {
	return e.summons.Types()
}

// ChainStats returns chain counters.
func (e *Engine) ChainStats() chain.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chain.Stats()
}

// Meter returns the damage meter.
func (e *Engine) Meter() *DamageMeter {
	return e.meter
}

// Outbox returns mirrored effects waiting for broadcast.
func (e *Engine) Outbox() *netsync.Outbox {
	return e.outbox
}

// GridStats returns enemy grid occupancy from the last tick.
func (e *Engine) GridStats() spatial.GridStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid.Stats()
}

// Tracker exposes status queries to the scene layer. Only call its
// methods from the tick goroutine, for example inside Advance.
func (e *Engine) Tracker() *status.Tracker {
	return e.tracker
}

// StartEventLog starts writing combat events to path.
func (e *Engine) StartEventLog(path string) error {
	return e.events.Start(path)
}

// StopEventLog flushes and closes the event log.
func (e *Engine) StopEventLog() {
	e.events.Stop()
}

// EventLogStats returns event log counters.
func (e *Engine) EventLogStats() eventlog.Stats {
	return e.events.Stats()
}

// RecentEvents returns up to n of the latest logged events.
func (e *Engine) RecentEvents(n int) []eventlog.Event {
	return e.events.Recent(n)
}
