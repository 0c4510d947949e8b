package actor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
)

// DefaultInventoryCapacity is the number of inventory cells an actor gets
// when its template does not specify one.
const DefaultInventoryCapacity = 8

// Template is an actor archetype loaded from YAML.
type Template struct {
	ID                string     `yaml:"id"`
	Name              string     `yaml:"name"`
	Level             int        `yaml:"level"`
	Alignment         int        `yaml:"alignment"`
	Stats             stat.Table `yaml:"stats"`
	Boss              bool       `yaml:"boss"`
	UnarmedProjectile bool       `yaml:"unarmed_projectile"`
	Leaps             bool       `yaml:"leaps"`
	Spawns            string     `yaml:"spawns"`
	Interactable      string     `yaml:"interactable"`
	InventorySize     int        `yaml:"inventory_size"`
	Equipment         []string   `yaml:"equipment"` // item template IDs equipped at spawn
	Items             []string   `yaml:"items"`     // item template IDs carried at spawn
}

// Validate checks the template's invariants.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("actor template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("actor template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("actor template %q: level must be >= 1", t.ID)
	}
	if t.Stats.StatValue(stat.VIT, false) < 1 {
		return fmt.Errorf("actor template %q: VIT must be >= 1", t.ID)
	}
	if t.InventorySize < 0 {
		return fmt.Errorf("actor template %q: inventory_size must be >= 0", t.ID)
	}
	if len(t.Items) > t.capacity() {
		return fmt.Errorf("actor template %q: %d items exceed inventory size %d", t.ID, len(t.Items), t.capacity())
	}
	return nil
}

func (t *Template) capacity() int {
	if t.InventorySize == 0 {
		return DefaultInventoryCapacity
	}
	return t.InventorySize
}

// Spawn creates a live Actor from t at pos, drawing items from catalog.
//
// Postcondition: the actor has full hp, zero energy and a fresh UUID.
func (t *Template) Spawn(pos geom.Point, catalog *item.Catalog) (*Actor, error) {
	inv := item.NewInventory(t.capacity())
	for _, id := range t.Equipment {
		it, err := catalog.Spawn(id)
		if err != nil {
			return nil, fmt.Errorf("actor template %q: %w", t.ID, err)
		}
		if err := inv.Equip(it); err != nil {
			return nil, fmt.Errorf("actor template %q: equipping %q: %w", t.ID, id, err)
		}
	}
	for _, id := range t.Items {
		it, err := catalog.Spawn(id)
		if err != nil {
			return nil, fmt.Errorf("actor template %q: %w", t.ID, err)
		}
		if err := inv.Add(it); err != nil {
			return nil, fmt.Errorf("actor template %q: adding %q: %w", t.ID, id, err)
		}
	}
	st := NewState(t.Name, t.Level, t.Stats.Clone(), inv, t.Alignment)
	st.Boss = t.Boss
	st.UnarmedProjectile = t.UnarmedProjectile
	st.Leaps = t.Leaps
	st.Spawns = t.Spawns
	st.Interactable = t.Interactable
	return &Actor{
		ID:         ID(uuid.NewString()),
		TemplateID: t.ID,
		Pos:        pos,
		State:      st,
	}, nil
}

// Bestiary holds actor templates keyed by ID.
type Bestiary struct {
	templates map[string]*Template
}

// NewBestiary builds a Bestiary; later duplicates win.
func NewBestiary(templates ...*Template) *Bestiary {
	b := &Bestiary{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		b.templates[t.ID] = t
	}
	return b
}

// Get returns the template for id.
func (b *Bestiary) Get(id string) (*Template, bool) {
	t, ok := b.templates[id]
	return t, ok
}

// IDs returns template IDs in sorted order.
func (b *Bestiary) IDs() []string {
	out := make([]string, 0, len(b.templates))
	for id := range b.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadTemplateFromBytes decodes and validates a single Template.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var t Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing actor template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadBestiary reads every *.yaml file in dir.
func LoadBestiary(dir string) (*Bestiary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading actor dir %q: %w", dir, err)
	}
	var templates []*Template
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		t, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, t)
	}
	return NewBestiary(templates...), nil
}
