package action

import (
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
)

// Provider builds the action an item offers for a given target cell.
type Provider interface {
	Kind() item.ActionKind
	ActionFor(a *actor.Actor, it item.Item, target geom.Point) Action
}

// AttackProvider offers a melee or projectile attack with a weapon.
type AttackProvider struct{}

func (AttackProvider) Kind() item.ActionKind { return item.ActionAttack }

func (AttackProvider) ActionFor(a *actor.Actor, it item.Item, target geom.Point) Action {
	if it.IsProjectile() {
		return NewProjectileAttack(a.ID, it, target)
	}
	return NewMeleeAttack(a.ID, it, target)
}

// ConsumeProvider offers drinking a consumable; the target is ignored.
type ConsumeProvider struct{}

func (ConsumeProvider) Kind() item.ActionKind { return item.ActionConsume }

func (ConsumeProvider) ActionFor(a *actor.Actor, it item.Item, _ geom.Point) Action {
	return NewConsumeItem(a.ID, it)
}

// ThrowProvider offers throwing an item at the target cell.
type ThrowProvider struct{}

func (ThrowProvider) Kind() item.ActionKind { return item.ActionThrow }

func (ThrowProvider) ActionFor(a *actor.Actor, it item.Item, target geom.Point) Action {
	return NewThrowItem(a.ID, it, target)
}

var providers = map[item.ActionKind]Provider{
	item.ActionAttack:  AttackProvider{},
	item.ActionConsume: ConsumeProvider{},
	item.ActionThrow:   ThrowProvider{},
}

// ProvidersFor returns the providers for every action it offers, in the
// order the item lists them.
func ProvidersFor(it item.Item) []Provider {
	var out []Provider
	for _, k := range it.Actions() {
		if p, ok := providers[k]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PossibleActions returns every action a's items offer at target that is
// currently possible.
func PossibleActions(ctx *GameContext, a *actor.Actor, target geom.Point) []Action {
	var out []Action
	for _, it := range a.State.Inventory.Items() {
		for _, p := range ProvidersFor(it) {
			if act := p.ActionFor(a, it, target); act.IsPossible(ctx) {
				out = append(out, act)
			}
		}
	}
	return out
}
