// Package action implements the action state machine: every thing an actor
// can do on its turn, validated against the world and executed in four
// ordered phases.
package action

import (
	"errors"
	"fmt"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
)

var (
	// ErrPhase is returned when a lifecycle method is called out of order.
	ErrPhase = errors.New("action phase violation")
	// ErrNotPossible is returned by Start when IsPossible no longer holds.
	ErrNotPossible = errors.New("action not possible")
)

// Phase is the lifecycle position of an Action.
type Phase int

const (
	Unvalidated Phase = iota
	Started
	Animating
	Finalized
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Unvalidated:
		return "unvalidated"
	case Started:
		return "started"
	case Animating:
		return "animating"
	case Finalized:
		return "finalized"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Animation durations, in frames.
const (
	FramesInstant    = 0
	FramesSkip       = 2
	FramesMove       = 6
	FramesDoor       = 6
	FramesMelee      = 10
	FramesProjectile = 12
	FramesConsume    = 8
	FramesThrow      = 12
	FramesTrade      = 6
	FramesInteract   = 8
	FramesSpawn      = 10
	FramesLeap       = 14
)

// Action is one of the closed set of action variants defined in this
// package. Drive it with Start, Animate and Finalize.
type Action interface {
	// Name is a stable lowercase label used in events and logs.
	Name() string
	ActorID() actor.ID
	// Item is the item the action uses, or nil.
	Item() item.Item
	// Target is the target cell; ok is false for untargeted actions.
	Target() (geom.Point, bool)
	// Duration is the animation length in frames.
	Duration() int
	Phase() Phase
	// IsFree actions do not consume the actor's turn and bypass status
	// interception.
	IsFree() bool
	// CausesTurn reports whether the actor reorients toward the target.
	CausesTurn() bool
	// IsPossible is a pure legality check against the current world.
	IsPossible(ctx *GameContext) bool

	base() *Base
	start(ctx *GameContext) error
	animate(ctx *GameContext, progress float64) error
	finalize(ctx *GameContext) error
}

// Base carries the fields every variant shares.
type Base struct {
	Actor     actor.ID
	Used      item.Item
	Cell      geom.Point
	HasTarget bool
	Frames    int

	phase Phase
}

func (b *Base) base() *Base                { return b }
func (b *Base) ActorID() actor.ID          { return b.Actor }
func (b *Base) Item() item.Item            { return b.Used }
func (b *Base) Target() (geom.Point, bool) { return b.Cell, b.HasTarget }
func (b *Base) Duration() int              { return b.Frames }
func (b *Base) Phase() Phase               { return b.phase }
func (b *Base) IsFree() bool               { return false }
func (b *Base) CausesTurn() bool           { return false }

func (b *Base) animate(*GameContext, float64) error { return nil }
func (b *Base) finalize(*GameContext) error         { return nil }

// Start moves a from Unvalidated to Started after re-checking IsPossible,
// publishes ActionStarted and commits the action's point-of-no-return
// mutation.
//
// Postcondition: on ErrNotPossible or ErrPhase, no state was mutated.
func Start(ctx *GameContext, a Action) error {
	b := a.base()
	if b.phase != Unvalidated {
		return fmt.Errorf("%s: start in phase %s: %w", a.Name(), b.phase, ErrPhase)
	}
	if !a.IsPossible(ctx) {
		return fmt.Errorf("%s by %s: %w", a.Name(), b.Actor, ErrNotPossible)
	}
	b.phase = Started
	ctx.Bus.Publish(event.Event{Kind: event.ActionStarted, Tick: ctx.Tick, Action: a.Name(), ActorID: b.Actor})
	return a.start(ctx)
}

// Animate advances the presentation of a. progress is clamped to [0, 1].
// It may be called any number of times between Start and Finalize; stateful
// effects it triggers are applied at most once.
func Animate(ctx *GameContext, a Action, progress float64) error {
	b := a.base()
	if b.phase != Started && b.phase != Animating {
		return fmt.Errorf("%s: animate in phase %s: %w", a.Name(), b.phase, ErrPhase)
	}
	b.phase = Animating
	return a.animate(ctx, min(max(progress, 0), 1))
}

// Finalize commits every effect not yet applied and publishes ActionFinished.
// The action is Finalized even when an error is returned.
func Finalize(ctx *GameContext, a Action) error {
	b := a.base()
	if b.phase != Started && b.phase != Animating {
		return fmt.Errorf("%s: finalize in phase %s: %w", a.Name(), b.phase, ErrPhase)
	}
	err := a.finalize(ctx)
	b.phase = Finalized
	ctx.Bus.Publish(event.Event{Kind: event.ActionFinished, Tick: ctx.Tick, Action: a.Name(), ActorID: b.Actor})
	return err
}

// Run executes a to completion without intermediate frames.
func Run(ctx *GameContext, a Action) error {
	if err := Start(ctx, a); err != nil {
		return err
	}
	return Finalize(ctx, a)
}

// ApplyState is the sub-state of a one-shot effect.
type ApplyState int

const (
	NotApplied ApplyState = iota
	Applied
)

// Once guards a stateful side effect shared between animate and finalize.
// The zero value is NotApplied.
type Once struct {
	state ApplyState
}

// Do runs f if it has not run yet. The state flips to Applied before f runs,
// so a failing f is not retried.
func (o *Once) Do(f func() error) error {
	if o.state == Applied {
		return nil
	}
	o.state = Applied
	return f()
}

// Run is Do for side effects that cannot fail.
func (o *Once) Run(f func()) {
	if o.state == Applied {
		return
	}
	o.state = Applied
	f()
}

// State returns the current sub-state.
func (o *Once) State() ApplyState { return o.state }

// IsMove reports whether a is a plain step.
func IsMove(a Action) bool {
	_, ok := a.(*MoveTo)
	return ok
}

// IsSkip reports whether a is a SkipTurn.
func IsSkip(a Action) bool {
	_, ok := a.(*SkipTurn)
	return ok
}
