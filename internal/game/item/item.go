// Package item provides the item capability, YAML item templates and the
// per-actor inventory with its equip and inventory grids.
package item

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
)

// Kind classifies an item template.
type Kind string

const (
	KindWeapon Kind = "weapon"
	KindArmor  Kind = "armor"
	KindPotion Kind = "potion"
	KindMisc   Kind = "misc"
)

// ActionKind names an action an item makes available. The action package
// maps each kind to a concrete provider.
type ActionKind string

const (
	ActionAttack  ActionKind = "attack"
	ActionConsume ActionKind = "consume"
	ActionThrow   ActionKind = "throw"
)

// ConsumeEffect is what happens to whoever drinks, or is hit by, a consumable.
type ConsumeEffect struct {
	Status   string `yaml:"status"`   // status effect ID; empty = none
	Duration int    `yaml:"duration"` // turns; 0 = the definition's default
	Heal     string `yaml:"heal"`     // dice expression; empty = no heal
	Script   string `yaml:"script"`   // Lua hook name; empty = none
}

// IsZero reports whether the effect does nothing.
func (c ConsumeEffect) IsZero() bool {
	return c.Status == "" && c.Heal == "" && c.Script == ""
}

// Template is a reusable item archetype loaded from YAML.
type Template struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Kind       Kind           `yaml:"kind"`
	Slot       string         `yaml:"slot"` // equip slot; empty = not equippable
	Stats      stat.Table     `yaml:"stats"`
	Range      int            `yaml:"range"`
	Projectile bool           `yaml:"projectile"`
	Throwable  bool           `yaml:"throwable"`
	Consume    *ConsumeEffect `yaml:"consume"`
}

// Validate checks the template's invariants.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("item template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("item template %q: name must not be empty", t.ID)
	}
	switch t.Kind {
	case KindWeapon, KindArmor, KindPotion, KindMisc:
	default:
		return fmt.Errorf("item template %q: unknown kind %q", t.ID, t.Kind)
	}
	if t.Kind == KindWeapon && t.Slot == "" {
		return fmt.Errorf("item template %q: weapons must declare a slot", t.ID)
	}
	if t.Range < 0 {
		return fmt.Errorf("item template %q: range must be >= 0", t.ID)
	}
	if t.Consume != nil {
		if t.Consume.IsZero() {
			return fmt.Errorf("item template %q: consume effect is empty", t.ID)
		}
		if t.Consume.Heal != "" {
			if _, err := dice.Parse(t.Consume.Heal); err != nil {
				return fmt.Errorf("item template %q: %w", t.ID, err)
			}
		}
		if t.Consume.Duration < 0 {
			return fmt.Errorf("item template %q: consume duration must be >= 0", t.ID)
		}
	}
	return nil
}

// Item is the capability the engine consumes for any carried object.
type Item interface {
	stat.Provider
	ID() string
	Name() string
	TemplateID() string
	Kind() Kind
	Slot() string
	IsEquippable() bool
	IsConsumable() bool
	IsThrowable() bool
	// AttackRange is the weapon's reach in cells; 0 for non-weapons.
	AttackRange() int
	IsProjectile() bool
	// ConsumeEffect returns the effect and true for consumables.
	ConsumeEffect() (ConsumeEffect, bool)
	// Actions lists the action kinds the item provides, in menu order.
	Actions() []ActionKind
}

// Instance is a concrete item spawned from a Template.
type Instance struct {
	id   string
	tmpl *Template
}

// New creates an Instance of tmpl with a fresh UUID.
//
// Precondition: tmpl must be non-nil and valid.
func New(tmpl *Template) *Instance {
	return &Instance{id: uuid.NewString(), tmpl: tmpl}
}

// NewWithID creates an Instance with an explicit ID.
func NewWithID(id string, tmpl *Template) *Instance {
	return &Instance{id: id, tmpl: tmpl}
}

func (i *Instance) ID() string         { return i.id }
func (i *Instance) Name() string       { return i.tmpl.Name }
func (i *Instance) TemplateID() string { return i.tmpl.ID }
func (i *Instance) Kind() Kind         { return i.tmpl.Kind }
func (i *Instance) Slot() string       { return i.tmpl.Slot }
func (i *Instance) IsEquippable() bool { return i.tmpl.Slot != "" }
func (i *Instance) IsConsumable() bool { return i.tmpl.Consume != nil }
func (i *Instance) IsThrowable() bool  { return i.tmpl.Throwable }
func (i *Instance) IsProjectile() bool { return i.tmpl.Projectile }

// AttackRange returns the template range for weapons, at least 1.
func (i *Instance) AttackRange() int {
	if i.tmpl.Kind != KindWeapon {
		return 0
	}
	return max(i.tmpl.Range, 1)
}

// StatValue returns the item's intrinsic contribution to t.
func (i *Instance) StatValue(t stat.Type, local bool) int {
	return i.tmpl.Stats.StatValue(t, local)
}

func (i *Instance) ConsumeEffect() (ConsumeEffect, bool) {
	if i.tmpl.Consume == nil {
		return ConsumeEffect{}, false
	}
	return *i.tmpl.Consume, true
}

func (i *Instance) Actions() []ActionKind {
	var out []ActionKind
	if i.tmpl.Kind == KindWeapon {
		out = append(out, ActionAttack)
	}
	if i.IsConsumable() {
		out = append(out, ActionConsume)
	}
	if i.IsThrowable() {
		out = append(out, ActionThrow)
	}
	return out
}

func (i *Instance) String() string { return fmt.Sprintf("%s#%s", i.tmpl.ID, i.id) }

// Catalog holds item templates keyed by ID.
type Catalog struct {
	templates map[string]*Template
}

// NewCatalog builds a Catalog from templates; later duplicates win.
func NewCatalog(templates ...*Template) *Catalog {
	c := &Catalog{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		c.templates[t.ID] = t
	}
	return c
}

// Get returns the template for id.
func (c *Catalog) Get(id string) (*Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// IDs returns the template IDs in sorted order.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.templates))
	for id := range c.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Spawn creates a new Instance of template id.
func (c *Catalog) Spawn(id string) (*Instance, error) {
	t, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("unknown item template %q", id)
	}
	return New(t), nil
}

// LoadTemplateFromBytes decodes and validates a single Template.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var t Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing item template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadCatalog reads every *.yaml file in dir into a Catalog.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading item dir %q: %w", dir, err)
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
	return NewCatalog(templates...), nil
}
