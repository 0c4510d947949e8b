// Package stat implements the layered stat model: registered stat types,
// the Provider capability, and bounded reads.
package stat

import (
	"fmt"
	"sort"
	"strings"
)

// Type identifies a stat. Types are registered once at package init and are
// compared by identifier.
type Type string

type info struct {
	color       string
	description string
}

var registry = map[Type]info{}

func register(id, color, description string) Type {
	t := Type(id)
	if _, dup := registry[t]; dup {
		panic("stat: duplicate registration of " + id)
	}
	registry[t] = info{color: color, description: description}
	return t
}

// Core stats.
var (
	ATT          = register("ATT", "red", "+{} Attack")
	DEF          = register("DEF", "blue", "+{} Defense")
	VIT          = register("VIT", "green", "+{} Vitality")
	SPEED        = register("SPEED", "yellow", "+{} Speed")
	UnarmedATT   = register("UNARMED_ATT", "red", "+{} Unarmed Attack")
	UnarmedRange = register("UNARMED_RANGE", "red", "+{} Unarmed Range")
	Intelligence = register("INTELLIGENCE", "purple", "")
	ThrownATT    = register("THROWN_ATT", "red", "+{} Attack when thrown")
)

// Per-turn and condition stats contributed by status effects.
var (
	POISON    = register("POISON", "green", "Lose {} HP per turn")
	HEALING   = register("HEALING", "pink", "Regain {} HP per turn")
	CONFUSION = register("CONFUSION", "purple", "Movement is erratic")
	BLINDNESS = register("BLINDNESS", "grey", "Vision is reduced")
	FLINCHED  = register("FLINCHED", "orange", "Cannot act")
	GRASPED   = register("GRASPED", "brown", "Cannot move")
)

// On-hit and interaction stats.
var (
	HPOnKill         = register("HP_ON_KILL", "green", "+{} HP on kill")
	PlusDefenseOnHit = register("PLUS_DEFENSE_ON_HIT", "blue", "Gain defense for {} turns on hit")
	PoisonOnHit      = register("POISON_ON_HIT", "green", "Poison for {} turns on hit")
	ConfusionOnHit   = register("CONFUSION_ON_HIT", "purple", "Confuse for {} turns on hit")
	BlindnessOnHit   = register("BLINDNESS_ON_HIT", "grey", "Blind for {} turns on hit")
	FlinchOnHit      = register("FLINCH_ON_HIT", "orange", "Flinch for {} turns on hit")
	SlowOnHit        = register("SLOW_ON_HIT", "yellow", "Slow for {} turns on hit")
	ChillOnHit       = register("CHILL_ON_HIT", "cyan", "Chill for {} turns on hit")
	GraspOnMeleeHit  = register("GRASP_ON_MELEE_HIT", "brown", "Grasp for {} turns on melee hit")
	SwapOnHit        = register("SWAP_ON_HIT", "white", "Swap places on hit")
	SwapsWhenHit     = register("SWAPS_WHEN_HIT", "white", "Swaps places when hit")
	Unswappable      = register("UNSWAPPABLE", "white", "Cannot be swapped")
	FlinchResist     = register("FLINCH_RESIST", "orange", "Resist flinching for {} turns")
	PotionAffinity   = register("POTION_AFFINITY", "pink", "")
	ThrowAffinity    = register("THROW_AFFINITY", "red", "")
)

// Lookup returns the registered Type named id.
func Lookup(id string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(id)))
	_, ok := registry[t]
	return t, ok
}

// All returns every registered Type sorted by identifier.
func All() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Color returns the display color of t, or "white" when t is unregistered.
func (t Type) Color() string {
	if in, ok := registry[t]; ok {
		return in.color
	}
	return "white"
}

// Describe renders the description template of t for value v.
// Returns "" when t has no description.
func (t Type) Describe(v int) string {
	in, ok := registry[t]
	if !ok || in.description == "" {
		return ""
	}
	return strings.ReplaceAll(in.description, "{}", fmt.Sprint(v))
}

// Provider is anything that contributes stat values.
//
// When local is true only contributions intrinsic to the provider itself are
// returned; this keeps item-only bonuses out of global stat queries.
type Provider interface {
	StatValue(t Type, local bool) int
}

// Bound clamps v to [lo, hi].
//
// Precondition: lo <= hi.
func Bound(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
