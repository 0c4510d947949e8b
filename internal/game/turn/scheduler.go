// Package turn drives the energy-based initiative clock and the action in
// flight.
package turn

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/action"
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/status"
)

// ErrPlayerDead is returned by RunUntilIdle once the player has died.
var ErrPlayerDead = errors.New("player is dead")

// Controller chooses an actor's next action.
type Controller interface {
	NextAction(ctx *action.GameContext, a *actor.Actor) action.Action
}

// ControllerFactory returns the controller for a. It is called once per
// actor; the result is cached for the actor's lifetime.
type ControllerFactory func(a *actor.Actor) Controller

// Config holds the scheduler tunables.
type Config struct {
	// ConfusionChance is the probability a confused actor's move is redirected.
	ConfusionChance float64
	// FramesPerTick is the number of idle frames per energy tick.
	FramesPerTick int
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{ConfusionChance: 0.25, FramesPerTick: 1}
}

// Scheduler serializes turns: at most one action is in flight, and no
// other actor starts until it is finalized.
type Scheduler struct {
	ctx         *action.GameContext
	factory     ControllerFactory
	controllers map[actor.ID]Controller
	cfg         Config
	logger      *zap.Logger

	current    action.Action
	elapsed    int
	idleFrames int
	waiting    bool
	playerDead bool
	turns      int
}

// NewScheduler creates a Scheduler over ctx.
//
// Precondition: ctx and factory must be non-nil; cfg.FramesPerTick >= 1.
func NewScheduler(ctx *action.GameContext, factory ControllerFactory, cfg Config) *Scheduler {
	if ctx == nil || factory == nil {
		panic("turn.NewScheduler: ctx and factory must be non-nil")
	}
	if cfg.FramesPerTick < 1 {
		cfg.FramesPerTick = 1
	}
	return &Scheduler{
		ctx:         ctx,
		factory:     factory,
		controllers: make(map[actor.ID]Controller),
		cfg:         cfg,
		logger:      ctx.Logger,
	}
}

// Add places a into the world.
func (s *Scheduler) Add(a *actor.Actor) error {
	return s.ctx.World.AddActor(a)
}

// Current returns the action in flight, or nil.
func (s *Scheduler) Current() action.Action { return s.current }

// PlayerDead reports whether the player has died.
func (s *Scheduler) PlayerDead() bool { return s.playerDead }

// Turns returns the number of completed non-free actions.
func (s *Scheduler) Turns() int { return s.turns }

// Waiting reports whether the last dispatch found the player with no input.
func (s *Scheduler) Waiting() bool { return s.waiting }

// Update advances the simulation by one frame.
//
// An action in flight is animated and, once its duration has elapsed,
// finalized. Otherwise the first ready actor is asked for an action, which
// is intercepted by status effects, started, and finalized at once when it
// is free or has no duration. When no actor is ready, energy ticks.
//
// Errors are hard failures (corrupted grid state or lifecycle misuse).
func (s *Scheduler) Update() error {
	if s.playerDead {
		return nil
	}
	if s.current != nil {
		return s.advance()
	}
	return s.dispatch()
}

func (s *Scheduler) advance() error {
	s.elapsed++
	dur := s.current.Duration()
	if s.elapsed >= dur {
		return s.finish()
	}
	return action.Animate(s.ctx, s.current, float64(s.elapsed)/float64(dur))
}

func (s *Scheduler) dispatch() error {
	a := s.nextReady()
	if a == nil {
		s.idleFrames++
		if s.idleFrames >= s.cfg.FramesPerTick {
			s.idleFrames = 0
			s.Tick()
		}
		return nil
	}
	s.waiting = false

	act := s.controllerFor(a).NextAction(s.ctx, a)
	if act == nil {
		act = action.NewSkipTurn(a.ID, true)
	}
	act = s.Intercept(a, act)
	if !act.IsPossible(s.ctx) {
		s.logger.Debug("action dropped at dispatch",
			zap.Stringer("actor", a),
			zap.String("action", act.Name()),
		)
		if act.IsFree() {
			return nil
		}
		act = action.NewSkipTurn(a.ID, false)
	}

	if err := action.Start(s.ctx, act); err != nil {
		return fmt.Errorf("starting %s for %s: %w", act.Name(), a.ID, err)
	}
	if act.IsFree() {
		if _, ok := act.(*action.PlayerWait); ok {
			s.waiting = true
		}
		if err := action.Finalize(s.ctx, act); err != nil {
			return fmt.Errorf("finalizing %s for %s: %w", act.Name(), a.ID, err)
		}
		s.reap()
		return nil
	}
	s.current = act
	s.elapsed = 0
	if act.Duration() <= 0 {
		return s.finish()
	}
	return nil
}

// finish finalizes the action in flight and ends its actor's turn.
func (s *Scheduler) finish() error {
	act := s.current
	s.current = nil
	s.elapsed = 0
	err := action.Finalize(s.ctx, act)
	if a, ok := s.ctx.World.Actor(act.ActorID()); ok {
		a.State.ReadyToAct = false
		s.endOfTurnStatuses(a)
	}
	s.turns++
	s.reap()
	if err != nil {
		return fmt.Errorf("finalizing %s for %s: %w", act.Name(), act.ActorID(), err)
	}
	return nil
}

// nextReady returns the first living actor, in world order, with
// ReadyToAct set.
func (s *Scheduler) nextReady() *actor.Actor {
	for _, a := range s.ctx.World.Actors() {
		if a.IsAlive() && a.State.ReadyToAct {
			return a
		}
	}
	return nil
}

func (s *Scheduler) controllerFor(a *actor.Actor) Controller {
	c, ok := s.controllers[a.ID]
	if !ok {
		c = s.factory(a)
		s.controllers[a.ID] = c
	}
	return c
}

// Tick advances the global clock by one: every living actor not already
// ready gains speed energy and becomes ready on reaching MaxEnergy.
//
// Postcondition: 0 <= Energy() < MaxEnergy for every actor.
func (s *Scheduler) Tick() {
	s.ctx.Tick++
	for _, a := range s.ctx.World.Actors() {
		if !a.IsAlive() || a.State.ReadyToAct {
			continue
		}
		e := a.State.Energy() + a.State.Speed()
		if e >= a.State.MaxEnergy() {
			a.State.ReadyToAct = true
			e %= a.State.MaxEnergy()
		}
		a.State.SetEnergy(e)
	}
}

// Intercept rewrites act according to a's status effects. Free actions pass
// through. FLINCHED turns anything but a skip into a forced skip; GRASPED
// turns moves into forced skips; CONFUSED redirects a move, with
// ConfusionChance, to the first possible shuffled neighbor, preferring to
// open a door when a is the player.
func (s *Scheduler) Intercept(a *actor.Actor, act action.Action) action.Action {
	if act.IsFree() {
		return act
	}
	st := a.State
	if st.Stat(stat.FLINCHED) > 0 && !action.IsSkip(act) {
		return action.NewSkipTurn(a.ID, false)
	}
	if !action.IsMove(act) {
		return act
	}
	if st.Stat(stat.GRASPED) > 0 {
		return action.NewSkipTurn(a.ID, false)
	}
	if st.Stat(stat.CONFUSION) > 0 && dice.Chance(s.ctx.Roller, s.cfg.ConfusionChance) {
		cells := geom.Neighbors(a.Pos)
		dice.Shuffle(s.ctx.Roller, cells)
		for _, c := range cells {
			if a.Player {
				if door := action.NewOpenDoor(a.ID, c); door.IsPossible(s.ctx) {
					return door
				}
			}
			if mv := action.NewMoveTo(a.ID, c); mv.IsPossible(s.ctx) {
				s.ctx.Presenter.FloatingText(a.Pos, "?", "purple")
				return mv
			}
		}
	}
	return act
}

// endOfTurnStatuses applies poison and healing, then counts every status
// effect down. An actor with FLINCH_RESIST whose FLINCHED expires becomes
// UNFLINCHING for that many turns.
func (s *Scheduler) endOfTurnStatuses(a *actor.Actor) {
	st := a.State
	if !a.IsAlive() {
		return
	}
	if poison := st.Stat(stat.POISON); poison > 0 {
		st.SetHP(st.HP() - poison)
		s.ctx.Presenter.FloatingText(a.Pos, fmt.Sprintf("-%d", poison), "green")
		s.ctx.Presenter.DamageTaken(a.ID)
		if !a.IsAlive() {
			s.ctx.Bus.Publish(event.Event{Kind: event.ActorKilled, Tick: s.ctx.Tick, VictimID: a.ID})
			return
		}
	}
	if heal := st.Stat(stat.HEALING); heal > 0 && st.HP() < st.MaxHP() {
		st.SetHP(st.HP() + heal)
		s.ctx.Presenter.FloatingText(a.Pos, fmt.Sprintf("+%d", heal), "green")
	}
	for _, def := range st.CountdownStatusEffects() {
		if def.ID != status.Flinched {
			continue
		}
		if resist := st.Stat(stat.FlinchResist); resist > 0 {
			s.ctx.Combat.ApplyStatus(a, status.Unflinching, resist)
		}
	}
}

// reap removes dead enemies from the world and records player death.
func (s *Scheduler) reap() {
	for _, a := range s.ctx.World.Actors() {
		if a.IsAlive() {
			continue
		}
		if a.Player {
			if !s.playerDead {
				s.logger.Info("player died", zap.Stringer("actor", a), zap.Int("tick", s.ctx.Tick))
			}
			s.playerDead = true
			continue
		}
		s.ctx.World.RemoveActor(a.ID)
		delete(s.controllers, a.ID)
		s.logger.Debug("actor removed", zap.Stringer("actor", a))
	}
}

// RunUntilIdle calls Update until the player is waiting for input, the
// player dies, or maxFrames frames have run. It returns the frames used.
func (s *Scheduler) RunUntilIdle(maxFrames int) (int, error) {
	for frame := 1; frame <= maxFrames; frame++ {
		s.waiting = false
		if err := s.Update(); err != nil {
			return frame, err
		}
		if s.playerDead {
			return frame, ErrPlayerDead
		}
		if s.waiting {
			return frame, nil
		}
	}
	return maxFrames, nil
}

// NextToAct projects which living actor activates soonest without mutating
// state, returning it and its ticks to wait. Ties go to world order.
func (s *Scheduler) NextToAct() (*actor.Actor, int) {
	var (
		best  *actor.Actor
		turns int
	)
	for _, a := range s.ctx.World.Actors() {
		if !a.IsAlive() {
			continue
		}
		t := a.State.TurnsUntilNextActivation()
		if best == nil || t < turns {
			best, turns = a, t
		}
	}
	return best, turns
}

// ActivationsAfter projects how many times each living actor acts in the
// next n ticks.
func (s *Scheduler) ActivationsAfter(n int) map[actor.ID]int {
	out := make(map[actor.ID]int)
	for _, a := range s.ctx.World.Actors() {
		if a.IsAlive() {
			out[a.ID] = a.State.ActivationsAfterNRounds(n)
		}
	}
	return out
}
