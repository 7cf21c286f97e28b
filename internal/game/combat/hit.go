package combat

import "arena/internal/game/world"

// SourceKind identifies what dealt a hit.
type SourceKind string

const (
	SourcePlayer SourceKind = "player"
	SourceSummon SourceKind = "summon"
	SourceChain  SourceKind = "chain"
)

// Damage number styles.
const (
	StyleNormal   = "normal"
	StyleCritical = "critical"
	StyleChain    = "chain"
	StyleSummon   = "summon"
)

// Hit describes one damage application routed through the damage pipeline.
type Hit struct {
	SourceID   string
	SourceKind SourceKind
	AbilityID  string
	TargetID   string
	Base       float64
	Mods       Modifiers

	// StatusBonus maps a status kind name to a damage multiplier. The
	// pipeline reads the target's statuses before damaging it and applies
	// the highest matching multiplier.
	StatusBonus map[string]float64

	// ChainOnKill triggers the chain reaction engine when the hit kills.
	ChainOnKill bool
	Generation  int

	Origin world.Vec3
	Style  string
}

// HitOutcome is what the pipeline reports back to the caller.
type HitOutcome struct {
	Applied        bool
	Result         Result
	Killed         bool
	TargetPosition world.Vec3
	// Statuses active on the target when the hit was resolved.
	Statuses []string
}

// HadStatus reports whether kind was active on the target before the hit.
func (o HitOutcome) HadStatus(kind string) bool {
	for _, s := range o.Statuses {
		if s == kind {
			return true
		}
	}
	return false
}
