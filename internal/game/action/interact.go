package action

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
)

// Interact triggers the content hook of an adjacent interactable actor.
type Interact struct {
	Base
	hook Once
}

func NewInteract(id actor.ID, target geom.Point) *Interact {
	return &Interact{Base: Base{Actor: id, Cell: target, HasTarget: true, Frames: FramesInteract}}
}

func (i *Interact) Name() string     { return "interact" }
func (i *Interact) CausesTurn() bool { return true }

func (i *Interact) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(i.Actor)
	if !ok || !geom.IsAdjacent(a.Pos, i.Cell) {
		return false
	}
	other, ok := ctx.World.ActorAt(i.Cell)
	return ok && other.IsAlive() && other.State.Interactable != ""
}

func (i *Interact) start(*GameContext) error { return nil }

func (i *Interact) finalize(ctx *GameContext) error {
	return i.hook.Do(func() error {
		a, ok := ctx.living(i.Actor)
		if !ok {
			return nil
		}
		other, ok := ctx.World.ActorAt(i.Cell)
		if !ok || !other.IsAlive() {
			return nil
		}
		if ctx.Scripts == nil {
			ctx.Logger.Warn("no script host for interact hook", zap.String("hook", other.State.Interactable))
			return nil
		}
		if err := ctx.Scripts.RunHook(other.State.Interactable, HookCall{Ctx: ctx, Actor: a, Target: other}); err != nil {
			ctx.Logger.Warn("interact hook failed", zap.String("hook", other.State.Interactable), zap.Error(err))
		}
		return nil
	})
}

// SpawnActor summons the actor's Spawns template into an adjacent open cell.
type SpawnActor struct {
	Base
	spawned actor.ID
}

func NewSpawnActor(id actor.ID, at geom.Point) *SpawnActor {
	return &SpawnActor{Base: Base{Actor: id, Cell: at, HasTarget: true, Frames: FramesSpawn}}
}

func (s *SpawnActor) Name() string { return "spawn_actor" }

// Spawned returns the ID of the summoned actor once started.
func (s *SpawnActor) Spawned() actor.ID { return s.spawned }

func (s *SpawnActor) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(s.Actor)
	if !ok || a.State.Spawns == "" || ctx.Bestiary == nil || ctx.Catalog == nil {
		return false
	}
	if _, ok := ctx.Bestiary.Get(a.State.Spawns); !ok {
		return false
	}
	if !geom.IsAdjacent(a.Pos, s.Cell) || !ctx.World.InBounds(s.Cell) {
		return false
	}
	return !ctx.World.IsSolid(s.Cell, true)
}

func (s *SpawnActor) start(ctx *GameContext) error {
	a, _ := ctx.World.Actor(s.Actor)
	tmpl, _ := ctx.Bestiary.Get(a.State.Spawns)
	child, err := tmpl.Spawn(s.Cell, ctx.Catalog)
	if err != nil {
		return fmt.Errorf("spawn %q: %w", tmpl.ID, err)
	}
	if err := ctx.World.AddActor(child); err != nil {
		return fmt.Errorf("spawn %q at %s: %w", tmpl.ID, s.Cell, err)
	}
	s.spawned = child.ID
	ctx.Presenter.Effect("spawn", s.Cell)
	return nil
}
