package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
)

// ErrRunNotFound is returned when a run lookup yields no results.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded simulation run.
type Run struct {
	ID         uuid.UUID
	Seed       uint64
	Arena      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Turns      int
	Outcome    string
}

// Kill is one persisted ActorKilled event.
type Kill struct {
	ID         int64
	RunID      uuid.UUID
	Tick       int
	VictimID   actor.ID
	KillerID   actor.ID // empty for environmental deaths
	RecordedAt time.Time
}

// KillLedger provides run and kill persistence operations.
type KillLedger struct {
	db *pgxpool.Pool
}

// NewKillLedger creates a KillLedger backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewKillLedger(db *pgxpool.Pool) *KillLedger {
	return &KillLedger{db: db}
}

// StartRun inserts a new run row.
//
// Postcondition: Returns the Run with a fresh ID and StartedAt set.
func (l *KillLedger) StartRun(ctx context.Context, seed uint64, arena string) (Run, error) {
	run := Run{ID: uuid.New(), Seed: seed, Arena: arena}
	err := l.db.QueryRow(ctx,
		`INSERT INTO runs (id, seed, arena) VALUES ($1, $2, $3) RETURNING started_at`,
		run.ID, int64(seed), arena,
	).Scan(&run.StartedAt)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's final turn count and outcome.
//
// Postcondition: Returns ErrRunNotFound if no run has the given id.
func (l *KillLedger) FinishRun(ctx context.Context, id uuid.UUID, turns int, outcome string) error {
	tag, err := l.db.Exec(ctx,
		`UPDATE runs SET finished_at = NOW(), turns = $2, outcome = $3 WHERE id = $1`,
		id, turns, outcome,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a run by id.
func (l *KillLedger) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	var (
		run  Run
		seed int64
	)
	err := l.db.QueryRow(ctx,
		`SELECT id, seed, arena, started_at, finished_at, turns, outcome FROM runs WHERE id = $1`,
		id,
	).Scan(&run.ID, &seed, &run.Arena, &run.StartedAt, &run.FinishedAt, &run.Turns, &run.Outcome)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("querying run: %w", err)
	}
	run.Seed = uint64(seed)
	return run, nil
}

// Record inserts one kill.
//
// Precondition: k.RunID must reference an existing run; k.VictimID must be non-empty.
// Postcondition: Returns k with ID and RecordedAt set.
func (l *KillLedger) Record(ctx context.Context, k Kill) (Kill, error) {
	if k.VictimID == "" {
		return Kill{}, fmt.Errorf("recording kill: victim id must not be empty")
	}
	var killer *string
	if k.KillerID != "" {
		s := string(k.KillerID)
		killer = &s
	}
	err := l.db.QueryRow(ctx,
		`INSERT INTO kills (run_id, tick, victim_id, killer_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, recorded_at`,
		k.RunID, k.Tick, string(k.VictimID), killer,
	).Scan(&k.ID, &k.RecordedAt)
	if err != nil {
		return Kill{}, fmt.Errorf("inserting kill: %w", err)
	}
	return k, nil
}

// ListByRun returns the kills of a run in insertion order.
func (l *KillLedger) ListByRun(ctx context.Context, runID uuid.UUID) ([]Kill, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, run_id, tick, victim_id, COALESCE(killer_id, ''), recorded_at
		 FROM kills WHERE run_id = $1 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing kills: %w", err)
	}
	defer rows.Close()

	var kills []Kill
	for rows.Next() {
		var (
			k              Kill
			victim, killer string
		)
		if err := rows.Scan(&k.ID, &k.RunID, &k.Tick, &victim, &killer, &k.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning kill: %w", err)
		}
		k.VictimID = actor.ID(victim)
		k.KillerID = actor.ID(killer)
		kills = append(kills, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating kills: %w", err)
	}
	return kills, nil
}

// Attach subscribes the ledger to ActorKilled events on bus. Insert
// failures are logged at Warn level and never interrupt the engine.
//
// Precondition: runID must reference an existing run.
func (l *KillLedger) Attach(ctx context.Context, bus *event.Bus, runID uuid.UUID, logger *zap.Logger) {
	bus.Subscribe(event.ActorKilled, func(e event.Event) {
		_, err := l.Record(ctx, Kill{RunID: runID, Tick: e.Tick, VictimID: e.VictimID, KillerID: e.KillerID})
		if err != nil {
			logger.Warn("recording kill",
				zap.String("victim", string(e.VictimID)),
				zap.String("killer", string(e.KillerID)),
				zap.Error(err),
			)
		}
	})
}
