package stat

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table is a fixed stat contribution table. It is a Provider whose local and
// global values are identical.
type Table map[Type]int

// StatValue returns the contribution of t, or 0.
func (tb Table) StatValue(t Type, _ bool) int {
	return tb[t]
}

// Clone returns an independent copy of tb.
func (tb Table) Clone() Table {
	out := make(Table, len(tb))
	for k, v := range tb {
		out[k] = v
	}
	return out
}

// String renders tb sorted by stat identifier, e.g. "ATT=2 DEF=1".
func (tb Table) String() string {
	keys := make([]string, 0, len(tb))
	for k := range tb {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, tb[Type(k)]))
	}
	return strings.Join(parts, " ")
}

// UnmarshalYAML decodes a mapping of stat identifiers to integers and rejects
// unknown identifiers.
func (tb *Table) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]int
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("stat table: %w", err)
	}
	out := make(Table, len(raw))
	for name, v := range raw {
		t, ok := Lookup(name)
		if !ok {
			return fmt.Errorf("stat table: unknown stat %q (line %d)", name, node.Line)
		}
		out[t] = v
	}
	*tb = out
	return nil
}

// Sum adds the global values of t across providers. Nil providers are skipped.
func Sum(t Type, providers ...Provider) int {
	total := 0
	for _, p := range providers {
		if p != nil {
			total += p.StatValue(t, false)
		}
	}
	return total
}
