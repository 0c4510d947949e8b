package action

import (
	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/combat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
)

// DefaultThrowRange is the Manhattan reach of ThrowItem.
const DefaultThrowRange = 6

// World is the map capability actions consume. The engine never implements
// it; world.Grid is the reference implementation.
type World interface {
	InBounds(p geom.Point) bool
	// IsSolid reports walls and closed doors, plus occupied cells when
	// includingEntities is set.
	IsSolid(p geom.Point, includingEntities bool) bool
	IsDoor(p geom.Point) bool
	// OpenDoor opens a closed door, returning false when p holds none.
	OpenDoor(p geom.Point) bool
	// IsHidden reports cells in a region not yet revealed to the player.
	IsHidden(p geom.Point) bool
	// IsVisible reports cells the player can currently see.
	IsVisible(p geom.Point) bool

	Actor(id actor.ID) (*actor.Actor, bool)
	ActorAt(p geom.Point) (*actor.Actor, bool)
	// Actors returns every actor in a stable order.
	Actors() []*actor.Actor
	Player() (*actor.Actor, bool)
	AddActor(a *actor.Actor) error
	RemoveActor(id actor.ID)
	MoveActor(id actor.ID, to geom.Point) error
	SwapActors(a, b actor.ID) error

	// CellsBetween enumerates line-of-sight cells, endpoints excluded.
	CellsBetween(a, b geom.Point) []geom.Point
	// PathBetween returns the cells from start (exclusive) to end
	// (inclusive) of a shortest path through cells accepted by passable, or
	// nil when none exists within maxLen steps.
	PathBetween(start, end geom.Point, passable func(geom.Point) bool, maxLen int) []geom.Point

	ItemsAt(p geom.Point) []item.Item
	PlaceItem(p geom.Point, it item.Item)
	TakeItem(p geom.Point, it item.Item) bool
}

// HookCall is the argument set of a content script hook.
type HookCall struct {
	Ctx    *GameContext
	Actor  *actor.Actor
	Target *actor.Actor // may be nil
	Item   item.Item    // may be nil
}

// Scripts runs named content hooks. Script runtime errors are the
// implementation's to log; a returned error means the hook is missing.
type Scripts interface {
	RunHook(hook string, call HookCall) error
}

// GameContext is the explicit game state threaded through every action
// phase.
type GameContext struct {
	World     World
	Bus       *event.Bus
	Presenter event.Presenter
	Combat    *combat.Resolver
	Roller    *dice.Roller
	Logger    *zap.Logger

	// Scripts may be nil; hooks are then skipped with a warning.
	Scripts  Scripts
	Bestiary *actor.Bestiary
	Catalog  *item.Catalog

	// Held is the player's held-item slot used by the grid actions.
	Held item.Item
	// Tick is the current global tick, stamped on published events.
	Tick int

	ThrowRange int
}

// NewGameContext creates a GameContext with the default tunables.
//
// Precondition: every argument must be non-nil.
func NewGameContext(world World, bus *event.Bus, presenter event.Presenter, resolver *combat.Resolver, roller *dice.Roller, logger *zap.Logger) *GameContext {
	if world == nil || bus == nil || presenter == nil || resolver == nil || roller == nil || logger == nil {
		panic("action.NewGameContext: all dependencies must be non-nil")
	}
	return &GameContext{
		World:      world,
		Bus:        bus,
		Presenter:  presenter,
		Combat:     resolver,
		Roller:     roller,
		Logger:     logger,
		ThrowRange: DefaultThrowRange,
	}
}

// living returns the actor with id if it is still in the world and alive.
func (ctx *GameContext) living(id actor.ID) (*actor.Actor, bool) {
	a, ok := ctx.World.Actor(id)
	if !ok || !a.IsAlive() {
		return nil, false
	}
	return a, true
}

// holds reports whether a carries it, in its inventory or, for the player,
// in the held-item slot.
func (ctx *GameContext) holds(a *actor.Actor, it item.Item) bool {
	if it == nil {
		return false
	}
	if a.Player && ctx.Held != nil && ctx.Held.ID() == it.ID() {
		return true
	}
	return a.State.Inventory.Contains(it)
}

// release takes it away from a, reporting whether it was found.
func (ctx *GameContext) release(a *actor.Actor, it item.Item) bool {
	if a.Player && ctx.Held != nil && ctx.Held.ID() == it.ID() {
		ctx.Held = nil
		return true
	}
	return a.State.Inventory.Remove(it)
}

// lineClear reports whether every cell strictly between from and to is free
// of walls, closed doors and actors.
func (ctx *GameContext) lineClear(from, to geom.Point) bool {
	for _, c := range ctx.World.CellsBetween(from, to) {
		if ctx.World.IsSolid(c, true) {
			return false
		}
	}
	return true
}
