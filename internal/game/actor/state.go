// Package actor holds per-actor runtime state and the actor entity.
package actor

import (
	"math"

	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/status"
)

// MaxEnergy is the energy an actor needs to act.
const MaxEnergy = 8

// PlayerAlignment is the team ID of the player and its allies.
const PlayerAlignment = 0

const (
	maxHPCap        = 999
	maxIntelligence = 5
	maxRange        = 8
	maxAttack       = 99
)

// State is an actor's runtime state.
//
// Invariant: 0 <= HP() <= MaxHP() and 0 <= Energy() <= MaxEnergy.
// Derived values (speed, ranges, intelligence) are bounded reads over
// base + equipment + status contributions and are never stored.
type State struct {
	Name      string
	Level     int
	Base      stat.Table
	Inventory *item.Inventory
	Alignment int
	// ReadyToAct is set by the scheduler when accumulated energy crosses MaxEnergy.
	ReadyToAct bool
	// Boss actors never act while standing in a hidden region.
	Boss bool
	// UnarmedProjectile makes unarmed attacks ranged projectiles.
	UnarmedProjectile bool
	// Leaps allows the FrogLeap action.
	Leaps bool
	// Spawns is the actor template spawned by SpawnActor; empty = none.
	Spawns string
	// Interactable actors are targets of Interact rather than attacks; the
	// value names their Lua hook.
	Interactable string

	hp       int
	energy   int
	statuses *status.ActiveSet
}

// NewState creates a State at full hp and zero energy.
//
// Precondition: base must be non-nil.
func NewState(name string, level int, base stat.Table, inv *item.Inventory, alignment int) *State {
	if inv == nil {
		inv = item.NewInventory(0)
	}
	s := &State{
		Name:      name,
		Level:     level,
		Base:      base,
		Inventory: inv,
		Alignment: alignment,
		statuses:  status.NewActiveSet(),
	}
	s.hp = s.MaxHP()
	return s
}

// StatValue sums base, equipped item and status contributions for t.
// When local is true only the base table is consulted.
func (s *State) StatValue(t stat.Type, local bool) int {
	v := s.Base.StatValue(t, true)
	if local {
		return v
	}
	return v + s.Inventory.EquippedStat(t) + s.statuses.StatValue(t, false)
}

// Stat is StatValue(t, false).
func (s *State) Stat(t stat.Type) int { return s.StatValue(t, false) }

// MaxHP returns bound(VIT, 1, 999).
func (s *State) MaxHP() int { return stat.Bound(s.Stat(stat.VIT), 1, maxHPCap) }

// MaxEnergy returns the constant MaxEnergy.
func (s *State) MaxEnergy() int { return MaxEnergy }

// HP returns the current hit points.
func (s *State) HP() int { return s.hp }

// Energy returns the current energy.
func (s *State) Energy() int { return s.energy }

// IsAlive reports whether HP() > 0.
func (s *State) IsAlive() bool { return s.hp > 0 }

// SetHP sets hp clamped to [0, MaxHP()].
func (s *State) SetHP(hp int) { s.hp = stat.Bound(hp, 0, s.MaxHP()) }

// SetEnergy sets energy clamped to [0, MaxEnergy].
func (s *State) SetEnergy(e int) { s.energy = stat.Bound(e, 0, MaxEnergy) }

// ClampHP re-applies the hp bound after MaxHP changed (equipment or status).
func (s *State) ClampHP() { s.SetHP(s.hp) }

// Speed returns bound(SPEED, 1, MaxEnergy).
func (s *State) Speed() int { return stat.Bound(s.Stat(stat.SPEED), 1, MaxEnergy) }

// Defense returns bound(DEF, 0, 99).
func (s *State) Defense() int { return stat.Bound(s.Stat(stat.DEF), 0, maxAttack) }

// UnarmedRange returns bound(1 + UNARMED_RANGE, 1, 8).
func (s *State) UnarmedRange() int { return stat.Bound(1+s.Stat(stat.UnarmedRange), 1, maxRange) }

// Intelligence returns bound(INTELLIGENCE, 1, 5).
func (s *State) Intelligence() int { return stat.Bound(s.Stat(stat.Intelligence), 1, maxIntelligence) }

// AttackValue returns the attack dice pool size.
//
// With an item that is not thrown, the global ATT (which already includes the
// equipped weapon) is used. A thrown item uses UNARMED_ATT plus the item's
// local THROWN_ATT. Unarmed attacks use UNARMED_ATT.
//
// Postcondition: result in [0, 99].
func (s *State) AttackValue(it item.Item, thrown bool) int {
	var v int
	switch {
	case thrown && it != nil:
		v = s.Stat(stat.UnarmedATT) + it.StatValue(stat.ThrownATT, true)
	case it != nil:
		v = s.Stat(stat.ATT)
	default:
		v = s.Stat(stat.UnarmedATT)
	}
	return stat.Bound(v, 0, maxAttack)
}

// Statuses exposes the active status effects for read-only queries.
func (s *State) Statuses() *status.ActiveSet { return s.statuses }

// HasStatus reports whether the status effect id is active.
func (s *State) HasStatus(id string) bool { return s.statuses.Has(id) }

// AddStatusEffect applies def for duration turns, honouring the blocking rule.
// A duration <= 0 uses def.Duration. Returns false when the add was rejected.
func (s *State) AddStatusEffect(def *status.Definition, duration int) bool {
	if duration <= 0 {
		duration = def.Duration
	}
	ok := s.statuses.Add(def, duration)
	s.ClampHP()
	return ok
}

// CountdownStatusEffects ticks every status effect and returns the expired ones.
func (s *State) CountdownStatusEffects() []*status.Definition {
	expired := s.statuses.Countdown()
	s.ClampHP()
	return expired
}

// ClearStatusEffects removes every status effect.
func (s *State) ClearStatusEffects() {
	s.statuses.Clear()
	s.ClampHP()
}

// TurnsUntilNextActivation projects how many ticks remain until energy reaches
// MaxEnergy, computed as round(missing/speed + 0.49999), i.e. a ceiling that
// is stable against floating point error. Returns 0 when already ready.
func (s *State) TurnsUntilNextActivation() int {
	if s.ReadyToAct {
		return 0
	}
	missing := MaxEnergy - s.energy
	if missing <= 0 {
		return 0
	}
	return int(math.Round(float64(missing)/float64(s.Speed()) + 0.49999))
}

// ActivationsAfterNRounds projects how many times the actor acts in the next
// n ticks without mutating state. A pending activation (ReadyToAct) counts
// as one.
func (s *State) ActivationsAfterNRounds(n int) int {
	if n <= 0 {
		return 0
	}
	pending := 0
	if s.ReadyToAct {
		pending = 1
	}
	return pending + (s.energy+n*s.Speed())/MaxEnergy
}
