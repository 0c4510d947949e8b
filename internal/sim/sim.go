package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/config"
	"github.com/davidpendergast/skeletris-sub001/internal/game/action"
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/ai"
	"github.com/davidpendergast/skeletris-sub001/internal/game/combat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/turn"
	"github.com/davidpendergast/skeletris-sub001/internal/game/world"
)

// Outcomes of a run.
const (
	OutcomePlayerDead = "player_dead"
	OutcomeCleared    = "cleared"
	OutcomeFrameLimit = "frame_limit"
)

// playerPathLimit bounds the scripted player's path search.
const playerPathLimit = 64

// Result summarizes a finished run.
type Result struct {
	Outcome string
	Frames  int
	Turns   int
	Ticks   int
	Kills   int
}

// Simulation is one assembled arena.
type Simulation struct {
	Ctx       *action.GameContext
	Grid      *world.Grid
	Scheduler *turn.Scheduler
	Player    *actor.Actor
	Input     *ai.PlayerController

	logger  *zap.Logger
	visited map[actor.ID]bool
}

// NewRoller returns a logged roller over a seeded source, or crypto
// randomness when seed is 0.
func NewRoller(seed uint64, logger *zap.Logger) *dice.Roller {
	var src dice.Source
	if seed == 0 {
		src = dice.NewCryptoSource()
	} else {
		src = dice.NewSeededSource(seed)
	}
	return dice.NewLoggedRoller(src, logger)
}

// New builds the grid, spawns every placement and wires the scheduler.
//
// Precondition: every argument must be non-nil.
// Postcondition: Returns a Simulation ready to Run, or a non-nil error.
func New(cfg config.EngineConfig, content *Content, arena *Arena, roller *dice.Roller, bus *event.Bus, presenter event.Presenter, logger *zap.Logger) (*Simulation, error) {
	grid, err := arena.Grid()
	if err != nil {
		return nil, fmt.Errorf("arena %q: %w", arena.Name, err)
	}
	resolver := combat.NewResolver(content.Statuses, roller, bus, presenter, logger)
	ctx := action.NewGameContext(grid, bus, presenter, resolver, roller, logger)
	ctx.Bestiary = content.Bestiary
	ctx.Catalog = content.Catalog
	ctx.ThrowRange = cfg.ThrowRange
	if content.Scripts != nil {
		ctx.Scripts = content.Scripts
	}

	player, err := spawn(ctx, arena.Player)
	if err != nil {
		return nil, err
	}
	player.Player = true
	for _, p := range arena.Actors {
		if _, err := spawn(ctx, p); err != nil {
			return nil, err
		}
	}
	for _, p := range arena.Items {
		it, err := content.Catalog.Spawn(p.Template)
		if err != nil {
			return nil, fmt.Errorf("arena %q: %w", arena.Name, err)
		}
		grid.PlaceItem(p.Pos(), it)
	}

	input := ai.NewPlayerController(cfg.InputBuffer)
	enemies := ai.NewEnemyController(ai.EnemyConfig{
		AttackRadius:      cfg.EnemyAttackRadius,
		SmartPathingRange: cfg.EnemySmartPathingRange,
		PathingSkill:      cfg.EnemyPathingSkill,
		SpawnChance:       cfg.EnemySpawnChance,
	})
	factory := func(a *actor.Actor) turn.Controller {
		switch {
		case a.Player:
			return input
		case a.State.Interactable != "":
			return idle{}
		default:
			return enemies
		}
	}
	sched := turn.NewScheduler(ctx, factory, turn.Config{
		ConfusionChance: cfg.ConfusionChance,
		FramesPerTick:   cfg.FramesPerTick,
	})

	logger.Info("arena assembled",
		zap.String("arena", arena.Name),
		zap.Int("width", grid.Width()),
		zap.Int("height", grid.Height()),
		zap.Int("actors", len(grid.Actors())),
	)
	return &Simulation{Ctx: ctx, Grid: grid, Scheduler: sched, Player: player, Input: input, logger: logger, visited: make(map[actor.ID]bool)}, nil
}

func spawn(ctx *action.GameContext, p Placement) (*actor.Actor, error) {
	tmpl, ok := ctx.Bestiary.Get(p.Template)
	if !ok {
		return nil, fmt.Errorf("unknown actor template %q", p.Template)
	}
	a, err := tmpl.Spawn(p.Pos(), ctx.Catalog)
	if err != nil {
		return nil, err
	}
	if err := ctx.World.AddActor(a); err != nil {
		return nil, fmt.Errorf("placing %q at %s: %w", p.Template, p.Pos(), err)
	}
	return a, nil
}

// idle is the controller of interactable actors: they never act.
type idle struct{}

func (idle) NextAction(_ *action.GameContext, a *actor.Actor) action.Action {
	return action.NewSkipTurn(a.ID, true)
}

// Run alternates scheduler frames with scripted player input until the
// player dies, no hostile actor remains, ctx is cancelled, or maxFrames
// frames have run.
func (s *Simulation) Run(ctx context.Context, maxFrames int) (Result, error) {
	var res Result
	kills := 0
	s.Ctx.Bus.Subscribe(event.ActorKilled, func(event.Event) { kills++ })
	s.Ctx.Bus.Subscribe(event.ActionFinished, func(e event.Event) {
		if e.ActorID == s.Player.ID && e.Action == "interact" {
			for _, a := range s.shrines() {
				if geom.IsAdjacent(a.Pos, s.Player.Pos) {
					s.visited[a.ID] = true
				}
			}
		}
	})

	for res.Frames < maxFrames {
		if err := ctx.Err(); err != nil {
			return s.result(res, kills), err
		}
		if len(s.hostiles()) == 0 {
			res.Outcome = OutcomeCleared
			return s.result(res, kills), nil
		}
		frames, err := s.Scheduler.RunUntilIdle(maxFrames - res.Frames)
		res.Frames += frames
		switch {
		case errors.Is(err, turn.ErrPlayerDead):
			res.Outcome = OutcomePlayerDead
			return s.result(res, kills), nil
		case err != nil:
			return s.result(res, kills), err
		}
		if s.Scheduler.Waiting() {
			s.decide()
		}
	}
	res.Outcome = OutcomeFrameLimit
	return s.result(res, kills), nil
}

func (s *Simulation) result(res Result, kills int) Result {
	res.Turns = s.Scheduler.Turns()
	res.Ticks = s.Ctx.Tick
	res.Kills = kills
	return res
}

// hostiles returns living non-interactable enemies of the player, nearest first.
func (s *Simulation) hostiles() []*actor.Actor {
	var out []*actor.Actor
	for _, a := range s.Grid.Actors() {
		if a.IsAlive() && a.IsEnemyOf(s.Player) && a.State.Interactable == "" {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return geom.Manhattan(s.Player.Pos, out[i].Pos) < geom.Manhattan(s.Player.Pos, out[j].Pos)
	})
	return out
}

// shrines returns living interactable actors not yet visited, nearest first.
func (s *Simulation) shrines() []*actor.Actor {
	var out []*actor.Actor
	for _, a := range s.Grid.Actors() {
		if a.IsAlive() && a.State.Interactable != "" && !s.visited[a.ID] {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return geom.Manhattan(s.Player.Pos, out[i].Pos) < geom.Manhattan(s.Player.Pos, out[j].Pos)
	})
	return out
}

// decide queues the scripted player's next input: drink a healing potion
// when badly hurt, visit a shrine when wounded, otherwise head for the
// nearest reachable hostile. Nothing reachable skips the turn.
func (s *Simulation) decide() {
	p := s.Player
	tick := s.Ctx.Tick
	if p.State.HP()*3 <= p.State.MaxHP() {
		for _, it := range p.State.Inventory.Items() {
			if eff, ok := it.ConsumeEffect(); ok && eff.Heal != "" {
				s.Input.Submit(action.NewConsumeItem(p.ID, it), ai.PriorityAttack, tick)
				return
			}
		}
	}
	passable := func(c geom.Point) bool { return !s.Grid.IsSolid(c, true) || s.Grid.IsDoor(c) }
	targets := s.hostiles()
	if p.State.HP()*2 <= p.State.MaxHP() {
		targets = append(s.shrines(), targets...)
	}
	for _, target := range targets {
		if path := s.Grid.PathBetween(p.Pos, target.Pos, passable, playerPathLimit); len(path) > 0 {
			s.Input.SubmitToward(p, path[0], tick)
			return
		}
	}
	s.logger.Debug("player has no reachable target", zap.Int("tick", tick))
	s.Input.Submit(action.NewSkipTurn(p.ID, true), ai.PriorityMove+1, tick)
}
