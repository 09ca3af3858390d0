// Package loot turns the defeated-enemy list of a won encounter into reward
// items using level-tiered weighted tables.
package loot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// Nothing is the item id of an entry that drops no item.
const Nothing = "nothing"

// Entry is one weighted outcome of a tier roll.
type Entry struct {
	// Item is the dropped item id; empty or Nothing drops no item.
	Item string `yaml:"item"`
	// Category is informational (bomb, potion, trinket, weapon, nothing).
	Category string `yaml:"category"`
	Weight   int    `yaml:"weight"`
	// Quantity is a dice expression such as "1" or "1d3"; empty means 1.
	Quantity string `yaml:"quantity"`
}

func (e Entry) isNothing() bool { return e.Item == "" || e.Item == Nothing }

// Tier is the table used for enemies whose level lies in [MinLevel, MaxLevel].
type Tier struct {
	Name     string `yaml:"name"`
	MinLevel int    `yaml:"min_level"`
	// MaxLevel of 0 means no upper bound.
	MaxLevel int     `yaml:"max_level"`
	Entries  []Entry `yaml:"entries"`
	// GuaranteedRare, when non-empty, is rolled once per enemy regardless of
	// the drop chance.
	GuaranteedRare []Entry `yaml:"guaranteed_rare"`
	// BonusChance is the probability of one extra roll on Entries.
	BonusChance float64 `yaml:"bonus_chance"`
}

// Contains reports whether level falls in the tier.
func (t *Tier) Contains(level int) bool {
	return level >= t.MinLevel && (t.MaxLevel == 0 || level <= t.MaxLevel)
}

// Table is the complete loot configuration.
type Table struct {
	DeadDropChance          float64 `yaml:"dead_drop_chance"`
	IncapacitatedDropChance float64 `yaml:"incapacitated_drop_chance"`
	Tiers                   []Tier  `yaml:"tiers"`
}

// TierFor returns the first tier containing level, or nil.
func (t *Table) TierFor(level int) *Tier {
	for i := range t.Tiers {
		if t.Tiers[i].Contains(level) {
			return &t.Tiers[i]
		}
	}
	return nil
}

// Validate checks that the table satisfies its invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff both drop chances are in [0, 1], every tier
// has a non-empty level range that does not overlap an earlier tier, a
// positive total entry weight, a bonus chance in [0, 1], and every quantity
// expression parses.
func (t *Table) Validate() error {
	if t.DeadDropChance < 0 || t.DeadDropChance > 1 {
		return fmt.Errorf("loot table: dead_drop_chance must be in [0, 1], got %v", t.DeadDropChance)
	}
	if t.IncapacitatedDropChance < 0 || t.IncapacitatedDropChance > 1 {
		return fmt.Errorf("loot table: incapacitated_drop_chance must be in [0, 1], got %v", t.IncapacitatedDropChance)
	}
	if len(t.Tiers) == 0 {
		return fmt.Errorf("loot table: at least one tier is required")
	}
	for i, tier := range t.Tiers {
		if tier.MinLevel < 1 {
			return fmt.Errorf("loot table: tier[%d] min_level must be >= 1, got %d", i, tier.MinLevel)
		}
		if tier.MaxLevel != 0 && tier.MaxLevel < tier.MinLevel {
			return fmt.Errorf("loot table: tier[%d] max_level (%d) must be >= min_level (%d)", i, tier.MaxLevel, tier.MinLevel)
		}
		for j := 0; j < i; j++ {
			if overlaps(t.Tiers[j], tier) {
				return fmt.Errorf("loot table: tier[%d] overlaps tier[%d]", i, j)
			}
		}
		if tier.BonusChance < 0 || tier.BonusChance > 1 {
			return fmt.Errorf("loot table: tier[%d] bonus_chance must be in [0, 1], got %v", i, tier.BonusChance)
		}
		if err := validateEntries(tier.Entries); err != nil {
			return fmt.Errorf("loot table: tier[%d] entries: %w", i, err)
		}
		if len(tier.GuaranteedRare) > 0 {
			if err := validateEntries(tier.GuaranteedRare); err != nil {
				return fmt.Errorf("loot table: tier[%d] guaranteed_rare: %w", i, err)
			}
		}
	}
	return nil
}

// Items returns every item id the table can drop, in table order.
func (t *Table) Items() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(es []Entry) {
		for _, e := range es {
			if e.isNothing() || seen[e.Item] {
				continue
			}
			seen[e.Item] = true
			out = append(out, e.Item)
		}
	}
	for _, tier := range t.Tiers {
		add(tier.Entries)
		add(tier.GuaranteedRare)
	}
	return out
}

func overlaps(a, b Tier) bool {
	aMax, bMax := a.MaxLevel, b.MaxLevel
	if aMax == 0 {
		aMax = int(^uint(0) >> 1)
	}
	if bMax == 0 {
		bMax = int(^uint(0) >> 1)
	}
	return a.MinLevel <= bMax && b.MinLevel <= aMax
}

func validateEntries(entries []Entry) error {
	total := 0
	for i, e := range entries {
		if e.Weight < 0 {
			return fmt.Errorf("entry[%d] weight must be >= 0, got %d", i, e.Weight)
		}
		total += e.Weight
		if e.Quantity != "" {
			if _, err := dice.Parse(e.Quantity); err != nil {
				return fmt.Errorf("entry[%d] quantity: %w", i, err)
			}
		}
	}
	if total <= 0 {
		return fmt.Errorf("total weight must be > 0")
	}
	return nil
}

// ParseTable decodes and validates a YAML loot table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing loot table YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTable reads and parses the loot table at path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return t, nil
}
