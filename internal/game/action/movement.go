package action

import (
	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
)

// MoveTo steps the actor into an adjacent open cell.
type MoveTo struct {
	Base
}

// NewMoveTo creates a MoveTo.
func NewMoveTo(id actor.ID, to geom.Point) *MoveTo {
	return &MoveTo{Base{Actor: id, Cell: to, HasTarget: true, Frames: FramesMove}}
}

func (m *MoveTo) Name() string { return "move" }

func (m *MoveTo) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(m.Actor)
	if !ok || !geom.IsAdjacent(a.Pos, m.Cell) {
		return false
	}
	return ctx.World.InBounds(m.Cell) && !ctx.World.IsSolid(m.Cell, true)
}

func (m *MoveTo) start(ctx *GameContext) error {
	return ctx.World.MoveActor(m.Actor, m.Cell)
}

// OpenDoor opens an adjacent closed door.
type OpenDoor struct {
	Base
}

func NewOpenDoor(id actor.ID, door geom.Point) *OpenDoor {
	return &OpenDoor{Base{Actor: id, Cell: door, HasTarget: true, Frames: FramesDoor}}
}

func (o *OpenDoor) Name() string     { return "open_door" }
func (o *OpenDoor) CausesTurn() bool { return true }

func (o *OpenDoor) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(o.Actor)
	if !ok || !geom.IsAdjacent(a.Pos, o.Cell) {
		return false
	}
	return ctx.World.IsDoor(o.Cell) && ctx.World.IsSolid(o.Cell, false)
}

func (o *OpenDoor) start(ctx *GameContext) error {
	ctx.World.OpenDoor(o.Cell)
	ctx.Presenter.Sound("door_open")
	return nil
}

// FrogLeap jumps two cells in a straight line over a non-wall middle cell.
type FrogLeap struct {
	Base
}

func NewFrogLeap(id actor.ID, to geom.Point) *FrogLeap {
	return &FrogLeap{Base{Actor: id, Cell: to, HasTarget: true, Frames: FramesLeap}}
}

func (f *FrogLeap) Name() string     { return "frog_leap" }
func (f *FrogLeap) CausesTurn() bool { return true }

func (f *FrogLeap) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(f.Actor)
	if !ok || !a.State.Leaps {
		return false
	}
	dir, dist, ok := geom.StraightLine(a.Pos, f.Cell)
	if !ok || dist != 2 {
		return false
	}
	mid := a.Pos.Add(dir)
	if ctx.World.IsSolid(mid, false) {
		return false
	}
	return ctx.World.InBounds(f.Cell) && !ctx.World.IsSolid(f.Cell, true)
}

func (f *FrogLeap) start(ctx *GameContext) error {
	ctx.Presenter.Sound("leap")
	return ctx.World.MoveActor(f.Actor, f.Cell)
}

// SkipTurn ends the turn doing nothing. Intentional skips are chosen by a
// controller; the others are forced by status effects.
type SkipTurn struct {
	Base
	Intentional bool
}

func NewSkipTurn(id actor.ID, intentional bool) *SkipTurn {
	return &SkipTurn{Base: Base{Actor: id, Frames: FramesSkip}, Intentional: intentional}
}

func (s *SkipTurn) Name() string { return "skip_turn" }

func (s *SkipTurn) IsPossible(ctx *GameContext) bool {
	_, ok := ctx.living(s.Actor)
	return ok
}

func (s *SkipTurn) start(ctx *GameContext) error {
	if !s.Intentional {
		if a, ok := ctx.World.Actor(s.Actor); ok {
			ctx.Logger.Debug("turn skipped", zap.Stringer("actor", a))
		}
	}
	return nil
}

// PlayerWait is what the player does while no input is queued. It is free,
// so the scheduler polls the player again on the next frame.
type PlayerWait struct {
	Base
}

func NewPlayerWait(id actor.ID) *PlayerWait {
	return &PlayerWait{Base{Actor: id, Frames: FramesInstant}}
}

func (p *PlayerWait) Name() string { return "player_wait" }
func (p *PlayerWait) IsFree() bool { return true }

func (p *PlayerWait) IsPossible(ctx *GameContext) bool {
	_, ok := ctx.living(p.Actor)
	return ok
}

func (p *PlayerWait) start(*GameContext) error { return nil }
