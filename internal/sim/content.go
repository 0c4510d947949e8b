// Package sim assembles a headless arena from configuration and content and
// drives it with a scripted player against AI enemies.
package sim

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/config"
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
	"github.com/davidpendergast/skeletris-sub001/internal/game/status"
	"github.com/davidpendergast/skeletris-sub001/internal/scripting"
)

// Content is every loaded data definition an arena draws on.
type Content struct {
	Statuses *status.Registry
	Catalog  *item.Catalog
	Bestiary *actor.Bestiary
	// Scripts is nil when no scripts directory is configured.
	Scripts *scripting.Manager
}

// Close releases the Lua VM, if any.
func (c *Content) Close() {
	if c.Scripts != nil {
		c.Scripts.Close()
	}
}

// LoadContent reads the status, item and enemy directories, then the Lua
// scripts when cfg.ScriptsDir is set.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns fully validated Content or a non-nil error.
func LoadContent(cfg config.ContentConfig, scfg config.ScriptingConfig, roller *dice.Roller, logger *zap.Logger) (*Content, error) {
	start := time.Now()

	statuses, err := status.LoadDirectory(cfg.StatusesDir)
	if err != nil {
		return nil, fmt.Errorf("loading statuses: %w", err)
	}
	catalog, err := item.LoadCatalog(cfg.ItemsDir)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	bestiary, err := actor.LoadBestiary(cfg.EnemiesDir)
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}
	if err := checkReferences(statuses, catalog, bestiary); err != nil {
		return nil, err
	}

	c := &Content{Statuses: statuses, Catalog: catalog, Bestiary: bestiary}
	if cfg.ScriptsDir != "" {
		mgr := scripting.NewManager(roller, logger, scfg.InstructionLimit)
		if err := mgr.Load(cfg.ScriptsDir); err != nil {
			mgr.Close()
			return nil, err
		}
		c.Scripts = mgr
	}

	logger.Info("content loaded",
		zap.Int("statuses", len(statuses.All())),
		zap.Int("items", len(catalog.IDs())),
		zap.Int("actors", len(bestiary.IDs())),
		zap.Bool("scripts", c.Scripts != nil),
		zap.Duration("elapsed", time.Since(start)),
	)
	return c, nil
}

// checkReferences verifies that cross-file references resolve.
func checkReferences(statuses *status.Registry, catalog *item.Catalog, bestiary *actor.Bestiary) error {
	for _, id := range catalog.IDs() {
		t, _ := catalog.Get(id)
		if t.Consume != nil && t.Consume.Status != "" {
			if _, ok := statuses.Get(t.Consume.Status); !ok {
				return fmt.Errorf("item %q: unknown status %q", id, t.Consume.Status)
			}
		}
	}
	for _, id := range bestiary.IDs() {
		t, _ := bestiary.Get(id)
		for _, ref := range append(append([]string(nil), t.Equipment...), t.Items...) {
			if _, ok := catalog.Get(ref); !ok {
				return fmt.Errorf("actor %q: unknown item %q", id, ref)
			}
		}
		if t.Spawns != "" {
			if _, ok := bestiary.Get(t.Spawns); !ok {
				return fmt.Errorf("actor %q: unknown spawn template %q", id, t.Spawns)
			}
		}
	}
	return nil
}
