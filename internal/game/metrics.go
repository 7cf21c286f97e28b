package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Combat metrics. Labels are limited to ability ids from the catalog and
// source kinds, never enemy or client ids.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in one engine tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	projectilesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_projectiles_active",
		Help: "Projectiles currently simulated, fading ones included",
	})

	summonsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_summons_active",
		Help: "Summoned units alive",
	})

	statusesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_status_effects",
		Help: "Status effects stored after the last sweep",
	})

	damageDealt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_damage_dealt_total",
		Help: "Damage dealt through the damage pipeline",
	}, []string{"source"})

	criticalHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_critical_hits_total",
		Help: "Critical hits by cause",
	}, []string{"cause"}) // tip, backstab, roll

	kills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_kills_total",
		Help: "Killing blows",
	}, []string{"source"})

	chainHops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_chain_marks_total",
		Help: "Enemies marked by chain reactions",
	})

	activations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_ability_activations_total",
		Help: "Ability entrypoint calls by result",
	}, []string{"ability", "result"}) // accepted, rejected

	commandsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_commands_total",
		Help: "Control commands drained from the input queue",
	}, []string{"action"})
)
