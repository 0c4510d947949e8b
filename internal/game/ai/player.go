// Package ai holds the controllers that choose actions: the input-buffered
// player controller and the heuristic enemy controller.
package ai

import (
	"sort"

	"github.com/davidpendergast/skeletris-sub001/internal/game/action"
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
)

// DefaultInputBuffer is how many ticks a player request stays valid.
const DefaultInputBuffer = 5

// Request priorities used by SubmitToward; lower wins.
const (
	PriorityAttack = iota
	PriorityInteract
	PriorityDoor
	PriorityMove
)

// Request is one pending player input.
type Request struct {
	Action   action.Action
	Priority int
	Tick     int
}

// PlayerController turns buffered player input into actions.
type PlayerController struct {
	buffer   int
	requests []Request
}

// NewPlayerController creates a PlayerController that discards requests
// older than inputBuffer ticks.
//
// Precondition: inputBuffer >= 0.
func NewPlayerController(inputBuffer int) *PlayerController {
	if inputBuffer < 0 {
		panic("ai.NewPlayerController: inputBuffer must be >= 0")
	}
	return &PlayerController{buffer: inputBuffer}
}

// Submit queues act with priority, stamped with tick.
func (p *PlayerController) Submit(act action.Action, priority, tick int) {
	p.requests = append(p.requests, Request{Action: act, Priority: priority, Tick: tick})
}

// SubmitToward queues every interpretation of "go toward cell" for a:
// attack, interact, open door and step, in that priority order. The first
// one possible at dispatch wins.
func (p *PlayerController) SubmitToward(a *actor.Actor, cell geom.Point, tick int) {
	p.Submit(action.AttackFor(a, cell), PriorityAttack, tick)
	p.Submit(action.NewInteract(a.ID, cell), PriorityInteract, tick)
	p.Submit(action.NewOpenDoor(a.ID, cell), PriorityDoor, tick)
	p.Submit(action.NewMoveTo(a.ID, cell), PriorityMove, tick)
}

// Pending returns the number of queued requests.
func (p *PlayerController) Pending() int { return len(p.requests) }

// Clear drops every queued request.
func (p *PlayerController) Clear() { p.requests = nil }

// NextAction discards stale requests, then returns the first request in
// ascending priority (submission order breaks ties) that is possible, and
// clears the queue. With nothing possible it returns a free PlayerWait so
// the player is polled again next frame.
func (p *PlayerController) NextAction(ctx *action.GameContext, a *actor.Actor) action.Action {
	fresh := p.requests[:0]
	for _, r := range p.requests {
		if ctx.Tick-r.Tick <= p.buffer {
			fresh = append(fresh, r)
		}
	}
	p.requests = fresh

	sort.SliceStable(p.requests, func(i, j int) bool {
		return p.requests[i].Priority < p.requests[j].Priority
	})
	for _, r := range p.requests {
		if r.Action.ActorID() == a.ID && r.Action.IsPossible(ctx) {
			p.requests = nil
			return r.Action
		}
	}
	return action.NewPlayerWait(a.ID)
}
