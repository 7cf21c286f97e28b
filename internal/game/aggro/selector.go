package aggro

import (
	"math/rand/v2"
	"sort"
	"time"

	"arena/internal/game/clock"
	"arena/internal/game/world"
)

// Mode is a targeting archetype.
type Mode string

const (
	ModeNearest       Mode = "nearest"
	ModeRandomInRange Mode = "random_in_range"
)

// Switch interval bounds observed across archetypes.
const (
	MinSwitchInterval = 2400 * time.Millisecond
	MaxSwitchInterval = 9 * time.Second
)

// Profile configures how one actor picks targets.
type Profile struct {
	Mode           Mode          `yaml:"mode" json:"mode"`
	Range          float64       `yaml:"range" json:"range"`
	SwitchInterval time.Duration `yaml:"switch_interval" json:"switchInterval"`
}

func (p Profile) normalized() Profile {
	if p.Mode == "" {
		p.Mode = ModeNearest
	}
	if p.SwitchInterval < MinSwitchInterval {
		p.SwitchInterval = MinSwitchInterval
	}
	if p.SwitchInterval > MaxSwitchInterval {
		p.SwitchInterval = MaxSwitchInterval
	}
	return p
}

type actorState struct {
	profile    Profile
	current    string
	lastSwitch time.Time

	focus    string
	focusEnd time.Time
}

// Selector is the registry of AI actors and their current targets.
// It is constructed explicitly and handed to whoever needs it. Not safe for
// concurrent use.
type Selector struct {
	clock  clock.Source
	rng    Roller
	actors map[string]*actorState
}

// NewSelector creates an empty registry. A nil rng uses math/rand/v2.
func NewSelector(src clock.Source, rng Roller) *Selector {
	if rng == nil {
		rng = globalRoller{}
	}
	return &Selector{
		clock:  src,
		rng:    rng,
		actors: make(map[string]*actorState),
	}
}

type globalRoller struct{}

func (globalRoller) IntN(n int) int { return rand.IntN(n) }

// Register adds an actor. Registering again replaces its profile and
// clears its target.
func (s *Selector) Register(actorID string, p Profile) {
	s.actors[actorID] = &actorState{profile: p.normalized()}
}

// Deregister removes an actor.
func (s *Selector) Deregister(actorID string) {
	delete(s.actors, actorID)
}

// IsRegistered reports whether actorID is known.
func (s *Selector) IsRegistered(actorID string) bool {
	_, ok := s.actors[actorID]
	return ok
}

// Registered returns the known actor ids, sorted.
func (s *Selector) Registered() []string {
	ids := make([]string, 0, len(s.actors))
	for id := range s.actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Current returns the actor's current target id.
func (s *Selector) Current(actorID string) (string, bool) {
	a, ok := s.actors[actorID]
	if !ok || a.current == "" {
		return "", false
	}
	return a.current, true
}

// Focus pins an actor to enemyID for ttl, overriding its archetype while
// the enemy stays valid.
func (s *Selector) Focus(actorID, enemyID string, ttl time.Duration) bool {
	a, ok := s.actors[actorID]
	if !ok || ttl <= 0 {
		return false
	}
	a.focus = enemyID
	a.focusEnd = s.clock.Now().Add(ttl)
	return true
}

// ClearFocus drops an actor's focus target.
func (s *Selector) ClearFocus(actorID string) {
	if a, ok := s.actors[actorID]; ok {
		a.focus = ""
	}
}

// Target returns the enemy the actor should engage. Unregistered actors get
// nothing.
//
// Priority: a live focus target, then the current target while it is still
// valid and the switch timer has not elapsed, then a fresh selection that
// prefers someone other than the previous target.
func (s *Selector) Target(actorID string, pos world.Vec3, enemies []world.Enemy) (world.Enemy, bool) {
	a, ok := s.actors[actorID]
	if !ok {
		return world.Enemy{}, false
	}
	now := s.clock.Now()

	if a.focus != "" {
		if now.Before(a.focusEnd) {
			if e, ok := find(enemies, a.focus); ok && e.Alive() {
				a.current = e.ID
				return e, true
			}
		}
		a.focus = ""
	}

	exclude := ""
	if a.current != "" {
		cur, ok := find(enemies, a.current)
		valid := ok && cur.Alive() && s.inRange(a.profile, pos, cur)
		if valid && now.Sub(a.lastSwitch) < a.profile.SwitchInterval {
			return cur, true
		}
		if valid {
			exclude = a.current
		}
	}

	var next world.Enemy
	var found bool
	switch a.profile.Mode {
	case ModeRandomInRange:
		next, found = RandomInRange(pos, enemies, a.profile.Range, exclude, s.rng)
	default:
		next, found = Nearest(pos, enemies, a.profile.Range, exclude)
	}

	if !found {
		a.current = ""
		return world.Enemy{}, false
	}
	a.current = next.ID
	a.lastSwitch = now
	return next, true
}

func (s *Selector) inRange(p Profile, pos world.Vec3, e world.Enemy) bool {
	if p.Range <= 0 {
		return true
	}
	return world.Dist2D(pos, e.Position) <= p.Range
}

func find(enemies []world.Enemy, id string) (world.Enemy, bool) {
	for _, e := range enemies {
		if e.ID == id {
			return e, true
		}
	}
	return world.Enemy{}, false
}

// Reset forgets every actor.
func (s *Selector) Reset() {
	s.actors = make(map[string]*actorState)
}
