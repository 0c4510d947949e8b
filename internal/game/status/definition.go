// Package status implements named, stacking and blocking status effects.
package status

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
)

// Well-known status effect identifiers referenced by engine code.
const (
	Poisoned     = "POISONED"
	Regeneration = "REGENERATION"
	Confused     = "CONFUSED"
	Blinded      = "BLINDED"
	Flinched     = "FLINCHED"
	Unflinching  = "UNFLINCHING"
	Steadfast    = "FLINCH_RESIST"
	Slowed       = "SLOWED"
	Chilled      = "CHILLED"
	Grasped      = "GRASPED"
	DefenseUp    = "DEFENSE_UP"
	Nullified    = "NULLIFICATION"
)

// Definition is the static description of a status effect, loaded from YAML.
//
// A Definition is a stat.Provider contributing its Stats table while active.
type Definition struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	Color    string     `yaml:"color"`
	Icon     string     `yaml:"icon"`
	Duration int        `yaml:"duration"` // default turns when granted without an explicit duration
	Stats    stat.Table `yaml:"stats"`
	Tags     []string   `yaml:"tags"`
	// Blocks lists effect IDs this effect removes on add and rejects while active.
	Blocks []string `yaml:"blocks"`
	// BlockedBy lists effect IDs that prevent this effect from being added.
	BlockedBy []string `yaml:"blocked_by"`
	// BlocksTags blocks every effect carrying one of these tags.
	BlocksTags []string `yaml:"blocks_tags"`
}

// StatValue returns the effect's contribution to t.
func (d *Definition) StatValue(t stat.Type, local bool) int {
	return d.Stats.StatValue(t, local)
}

// HasTag reports whether d carries tag.
func (d *Definition) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// IsBlockedBy reports whether other prevents d from being active.
// An effect never blocks itself.
func (d *Definition) IsBlockedBy(other *Definition) bool {
	if other == nil || other.ID == d.ID {
		return false
	}
	if slices.Contains(other.Blocks, d.ID) || slices.Contains(d.BlockedBy, other.ID) {
		return true
	}
	for _, tag := range other.BlocksTags {
		if d.HasTag(tag) {
			return true
		}
	}
	return false
}

// Validate checks the definition's invariants.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("status definition: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("status definition %q: name must not be empty", d.ID)
	}
	if d.Duration < 0 {
		return fmt.Errorf("status definition %q: duration must be >= 0", d.ID)
	}
	if slices.Contains(d.Blocks, d.ID) || slices.Contains(d.BlockedBy, d.ID) {
		return fmt.Errorf("status definition %q: must not block itself", d.ID)
	}
	return nil
}

// Registry holds every known Definition keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def, replacing any definition with the same ID.
//
// Precondition: def must be non-nil and valid.
func (r *Registry) Register(def *Definition) {
	r.defs[def.ID] = def
}

// Get returns the Definition for id.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every Definition sorted by ID.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory parses every *.yaml file in dir as a Definition and returns a
// Registry seeded with Defaults; file definitions override defaults by ID.
//
// Postcondition: Returns a non-nil Registry, or an error naming the first bad file.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading status dir %q: %w", dir, err)
	}
	reg := Defaults()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		def, err := LoadDefinitionFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		reg.Register(def)
	}
	return reg, nil
}

// LoadDefinitionFromBytes decodes and validates a single Definition.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing status definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Defaults returns a Registry holding the built-in effects the engine relies on.
//
// UNFLINCHING blocks FLINCHED, and NULLIFICATION blocks every effect tagged
// "buff". The grant of UNFLINCHING when FLINCHED expires on an actor with
// FLINCH_RESIST is performed by the turn scheduler, not by this table.
func Defaults() *Registry {
	reg := NewRegistry()
	for _, d := range []*Definition{
		{ID: Poisoned, Name: "Poisoned", Color: "green", Duration: 5, Stats: stat.Table{stat.POISON: 1}, Tags: []string{"debuff"}},
		{ID: Regeneration, Name: "Regeneration", Color: "pink", Duration: 5, Stats: stat.Table{stat.HEALING: 1}, Tags: []string{"buff"}},
		{ID: Confused, Name: "Confused", Color: "purple", Duration: 4, Stats: stat.Table{stat.CONFUSION: 1}, Tags: []string{"debuff"}},
		{ID: Blinded, Name: "Blinded", Color: "grey", Duration: 4, Stats: stat.Table{stat.BLINDNESS: 1}, Tags: []string{"debuff"}},
		{ID: Flinched, Name: "Flinched", Color: "orange", Duration: 1, Stats: stat.Table{stat.FLINCHED: 1}, Tags: []string{"debuff"}},
		{ID: Unflinching, Name: "Unflinching", Color: "orange", Duration: 2, Blocks: []string{Flinched}, Tags: []string{"buff"}},
		{ID: Steadfast, Name: "Steadfast", Color: "orange", Duration: 5, Stats: stat.Table{stat.FlinchResist: 2}, Tags: []string{"buff"}},
		{ID: Slowed, Name: "Slowed", Color: "yellow", Duration: 4, Stats: stat.Table{stat.SPEED: -2}, Tags: []string{"debuff"}},
		{ID: Chilled, Name: "Chilled", Color: "cyan", Duration: 4, Stats: stat.Table{stat.SPEED: -1, stat.ATT: -1}, Tags: []string{"debuff"}},
		{ID: Grasped, Name: "Grasped", Color: "brown", Duration: 2, Stats: stat.Table{stat.GRASPED: 1}, Tags: []string{"debuff"}},
		{ID: DefenseUp, Name: "Defense Up", Color: "blue", Duration: 3, Stats: stat.Table{stat.DEF: 1}, Tags: []string{"buff"}},
		{ID: Nullified, Name: "Nullified", Color: "white", Duration: 5, BlocksTags: []string{"buff"}, Tags: []string{"debuff"}},
	} {
		reg.Register(d)
	}
	return reg
}
