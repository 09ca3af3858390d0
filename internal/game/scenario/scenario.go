// Package scenario loads encounter definitions: a battlefield layout plus
// the participants that fight on it.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/inventory"
)

// StackRef names a catalog item and how many of it a participant carries.
type StackRef struct {
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

// Participant is one combatant template inside a scenario.
type Participant struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Kind        string     `yaml:"kind"` // player, companion, or enemy
	X           int        `yaml:"x"`
	Y           int        `yaml:"y"`
	Level       int        `yaml:"level"`
	MaxHP       int        `yaml:"max_hp"`
	BaseDamage  int        `yaml:"base_damage"`
	Defense     int        `yaml:"defense"`
	Armor       int        `yaml:"armor"`
	AttackRange int        `yaml:"attack_range"`
	Speed       int        `yaml:"speed"`
	Weapon      string     `yaml:"weapon"` // empty = unarmed
	AIDomain    string     `yaml:"ai_domain"`
	Inventory   []StackRef `yaml:"inventory"`
}

var kinds = map[string]combat.Kind{
	"player":    combat.KindPlayer,
	"companion": combat.KindCompanion,
	"enemy":     combat.KindEnemy,
}

// Scenario is a complete encounter definition.
type Scenario struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Battlefield is the layout file path, relative to the scenario file.
	Battlefield  string        `yaml:"battlefield"`
	Participants []Participant `yaml:"participants"`

	dir string
}

// Validate checks that the scenario satisfies basic invariants.
//
// Precondition: s must not be nil.
// Postcondition: Returns nil iff ID and Battlefield are set, and every
// participant has a unique ID, a known kind, Level >= 1, and MaxHP >= 1.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario: id must not be empty")
	}
	if s.Battlefield == "" {
		return fmt.Errorf("scenario %q: battlefield must not be empty", s.ID)
	}
	seen := make(map[string]bool, len(s.Participants))
	for i, p := range s.Participants {
		if p.ID == "" {
			return fmt.Errorf("scenario %q: participant[%d] id must not be empty", s.ID, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("scenario %q: duplicate participant %q", s.ID, p.ID)
		}
		seen[p.ID] = true
		if _, ok := kinds[p.Kind]; !ok {
			return fmt.Errorf("scenario %q: participant %q has unknown kind %q", s.ID, p.ID, p.Kind)
		}
		if p.Level < 1 {
			return fmt.Errorf("scenario %q: participant %q level must be >= 1", s.ID, p.ID)
		}
		if p.MaxHP < 1 {
			return fmt.Errorf("scenario %q: participant %q max_hp must be >= 1", s.ID, p.ID)
		}
		for _, ref := range p.Inventory {
			if ref.Item == "" || ref.Count < 1 {
				return fmt.Errorf("scenario %q: participant %q has an invalid inventory entry %+v", s.ID, p.ID, ref)
			}
		}
	}
	return nil
}

// LoadFromBytes parses a single scenario from raw YAML bytes. Relative
// battlefield paths resolve against dir.
//
// Postcondition: Returns a validated *Scenario, or an error.
func LoadFromBytes(data []byte, dir string) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.dir = dir
	return &s, nil
}

// Load reads and parses the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	s, err := LoadFromBytes(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return s, nil
}

// LoadBattlefield loads the scenario's battlefield layout.
func (s *Scenario) LoadBattlefield() (*grid.Battlefield, error) {
	path := s.Battlefield
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	return grid.LoadBattlefield(path)
}

// Combatants resolves every participant's weapon and inventory against reg.
//
// Postcondition: Returns combatants in scenario order at full HP, or an
// error naming the first unresolved reference.
func (s *Scenario) Combatants(reg *inventory.Registry) ([]combat.Combatant, error) {
	out := make([]combat.Combatant, 0, len(s.Participants))
	for _, p := range s.Participants {
		c := combat.Combatant{
			ID:          p.ID,
			Name:        p.Name,
			Kind:        kinds[p.Kind],
			Position:    grid.Position{X: p.X, Y: p.Y},
			Level:       p.Level,
			CurrentHP:   p.MaxHP,
			MaxHP:       p.MaxHP,
			BaseDamage:  p.BaseDamage,
			Defense:     p.Defense,
			Armor:       p.Armor,
			AttackRange: p.AttackRange,
			Speed:       p.Speed,
		}
		if c.Name == "" {
			c.Name = p.ID
		}
		if p.Weapon != "" {
			w, err := reg.CombatWeapon(p.Weapon)
			if err != nil {
				return nil, fmt.Errorf("scenario %q: participant %q: %w", s.ID, p.ID, err)
			}
			c.Weapon = w
		}
		for _, ref := range p.Inventory {
			st, err := reg.Stack(ref.Item, ref.Count)
			if err != nil {
				return nil, fmt.Errorf("scenario %q: participant %q: %w", s.ID, p.ID, err)
			}
			c.Inventory = append(c.Inventory, st)
		}
		out = append(out, c)
	}
	return out, nil
}

// Domains returns the AI domain ID of every participant that names one.
func (s *Scenario) Domains() map[string]string {
	out := make(map[string]string)
	for _, p := range s.Participants {
		if p.AIDomain != "" {
			out[p.ID] = p.AIDomain
		}
	}
	return out
}
