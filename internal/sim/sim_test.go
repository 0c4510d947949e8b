package sim_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/davidpendergast/skeletris-sub001/internal/config"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/sim"
)

const contentRoot = "../../content"

func contentConfig() config.ContentConfig {
	return config.ContentConfig{
		StatusesDir: filepath.Join(contentRoot, "statuses"),
		ItemsDir:    filepath.Join(contentRoot, "items"),
		EnemiesDir:  filepath.Join(contentRoot, "enemies"),
		ScriptsDir:  filepath.Join(contentRoot, "scripts"),
	}
}

func engineConfig(t *testing.T) config.EngineConfig {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return cfg.Engine
}

func loadContent(t *testing.T, seed uint64) (*sim.Content, *zap.Logger) {
	t.Helper()
	logger := zap.NewNop()
	content, err := sim.LoadContent(contentConfig(), config.ScriptingConfig{}, sim.NewRoller(seed, logger), logger)
	require.NoError(t, err)
	t.Cleanup(content.Close)
	return content, logger
}

const duel = `
name: duel
map: |
  #######
  #.....#
  #######
player: {template: hero, at: [1, 1]}
actors:
  - {template: rat, at: [5, 1]}
`

func runArena(t *testing.T, src string, seed uint64, maxFrames int) (sim.Result, *event.Bus) {
	t.Helper()
	content, logger := loadContent(t, seed)
	arena, err := sim.ParseArena([]byte(src))
	require.NoError(t, err)
	bus := event.NewBus(10_000)
	s, err := sim.New(engineConfig(t), content, arena, sim.NewRoller(seed, logger), bus, &event.Recorder{}, logger)
	require.NoError(t, err)
	res, err := s.Run(context.Background(), maxFrames)
	require.NoError(t, err)
	return res, bus
}

func TestLoadContent_ShippedContent(t *testing.T) {
	content, _ := loadContent(t, 1)

	hasted, ok := content.Statuses.Get("HASTED")
	require.True(t, ok)
	assert.True(t, hasted.HasTag("buff"))
	poisoned, ok := content.Statuses.Get("POISONED")
	require.True(t, ok)
	assert.Equal(t, 3, poisoned.Duration, "file definitions override defaults")

	_, ok = content.Catalog.Get("health_potion")
	assert.True(t, ok)
	king, ok := content.Bestiary.Get("rat_king")
	require.True(t, ok)
	assert.True(t, king.Boss)
	require.NotNil(t, content.Scripts)
	assert.True(t, content.Scripts.HasHook("on_bone_shrine"))
}

func TestLoadContent_MissingDir(t *testing.T) {
	cfg := contentConfig()
	cfg.ItemsDir = filepath.Join(t.TempDir(), "missing")
	_, err := sim.LoadContent(cfg, config.ScriptingConfig{}, sim.NewRoller(1, zap.NewNop()), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadContent_NoScriptsDir(t *testing.T) {
	cfg := contentConfig()
	cfg.ScriptsDir = ""
	content, err := sim.LoadContent(cfg, config.ScriptingConfig{}, sim.NewRoller(1, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, content.Scripts)
	content.Close()
}

func TestParseArena_Validation(t *testing.T) {
	_, err := sim.ParseArena([]byte("name: x\nmap: \"#.#\"\n"))
	assert.ErrorContains(t, err, "player template")

	_, err = sim.ParseArena([]byte("name: x\nmap: \"#.#\"\nplayer: {template: hero, at: [1, 0]}\nbogus: 1\n"))
	assert.Error(t, err, "unknown fields are rejected")

	a, err := sim.ParseArena([]byte(duel))
	require.NoError(t, err)
	assert.Equal(t, "duel", a.Name)
	assert.Len(t, a.Actors, 1)
}

func TestLoadArena_ShippedCrypt(t *testing.T) {
	a, err := sim.LoadArena(filepath.Join(contentRoot, "arenas", "crypt.yaml"))
	require.NoError(t, err)
	g, err := a.Grid()
	require.NoError(t, err)
	assert.True(t, g.IsHidden(a.Actors[len(a.Actors)-1].Pos()), "the boss waits in the hidden room")
}

func TestNew_UnknownTemplate(t *testing.T) {
	content, logger := loadContent(t, 1)
	arena, err := sim.ParseArena([]byte("name: x\nmap: \"#...#\"\nplayer: {template: nobody, at: [1, 0]}\n"))
	require.NoError(t, err)
	_, err = sim.New(engineConfig(t), content, arena, sim.NewRoller(1, logger), event.NewBus(0), event.NopPresenter{}, logger)
	assert.ErrorContains(t, err, "nobody")
}

func TestNew_OverlappingPlacements(t *testing.T) {
	content, logger := loadContent(t, 1)
	arena, err := sim.ParseArena([]byte("name: x\nmap: \"#...#\"\nplayer: {template: hero, at: [1, 0]}\nactors:\n  - {template: rat, at: [1, 0]}\n"))
	require.NoError(t, err)
	_, err = sim.New(engineConfig(t), content, arena, sim.NewRoller(1, logger), event.NewBus(0), event.NopPresenter{}, logger)
	assert.Error(t, err)
}

func TestRun_DuelEnds(t *testing.T) {
	res, bus := runArena(t, duel, 99, 20_000)
	assert.Contains(t, []string{sim.OutcomeCleared, sim.OutcomePlayerDead}, res.Outcome)
	assert.Equal(t, bus.Count(event.ActorKilled), res.Kills)
	assert.Positive(t, res.Turns)
	assert.Positive(t, res.Frames)
	assert.Equal(t, bus.Count(event.ActionStarted), bus.Count(event.ActionFinished))
}

func TestRun_FrameLimit(t *testing.T) {
	res, _ := runArena(t, duel, 5, 3)
	assert.Equal(t, sim.OutcomeFrameLimit, res.Outcome)
	assert.Equal(t, 3, res.Frames)
}

func TestRun_Cancelled(t *testing.T) {
	content, logger := loadContent(t, 1)
	arena, err := sim.ParseArena([]byte(duel))
	require.NoError(t, err)
	s, err := sim.New(engineConfig(t), content, arena, sim.NewRoller(1, logger), event.NewBus(0), event.NopPresenter{}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Crypt(t *testing.T) {
	a, err := sim.LoadArena(filepath.Join(contentRoot, "arenas", "crypt.yaml"))
	require.NoError(t, err)
	content, logger := loadContent(t, 1337)
	bus := event.NewBus(50_000)
	s, err := sim.New(engineConfig(t), content, a, sim.NewRoller(1337, logger), bus, &event.Recorder{}, logger)
	require.NoError(t, err)

	res, err := s.Run(context.Background(), 50_000)
	require.NoError(t, err)
	assert.Contains(t, []string{sim.OutcomeCleared, sim.OutcomePlayerDead, sim.OutcomeFrameLimit}, res.Outcome)
	assert.Equal(t, bus.Count(event.ActorKilled), res.Kills)
}

func TestPropertyRun_SeededDuelIsDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64Range(1, 1<<32).Draw(rt, "seed")
		first, _ := runArena(t, duel, seed, 5_000)
		second, _ := runArena(t, duel, seed, 5_000)
		assert.Equal(rt, first, second)
	})
}
