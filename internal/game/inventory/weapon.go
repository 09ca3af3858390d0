// Package inventory provides the YAML catalog of weapons and consumable
// items and converts catalog entries into combat equipment.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// AreaDef overrides the blast profile of an area weapon or bomb.
type AreaDef struct {
	Pattern                grid.BlastPattern `yaml:"pattern"`
	FriendlyFire           bool              `yaml:"friendly_fire"`
	FriendlyFireMultiplier float64           `yaml:"friendly_fire_multiplier"`
}

func (a *AreaDef) validate() []error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Pattern != grid.PatternSquare && a.Pattern != grid.PatternCross {
		errs = append(errs, fmt.Errorf("area.pattern must be square or cross; got %q", a.Pattern))
	}
	if a.FriendlyFireMultiplier < 0 || a.FriendlyFireMultiplier > 1 {
		errs = append(errs, fmt.Errorf("area.friendly_fire_multiplier must be in [0, 1]; got %v", a.FriendlyFireMultiplier))
	}
	return errs
}

func (a *AreaDef) toCombat() *combat.AreaProfile {
	if a == nil {
		return nil
	}
	return &combat.AreaProfile{
		Pattern:                a.Pattern,
		FriendlyFire:           a.FriendlyFire,
		FriendlyFireMultiplier: a.FriendlyFireMultiplier,
	}
}

// WeaponDef defines the static properties of a weapon loaded from YAML.
type WeaponDef struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Subtype     combat.WeaponSubtype `yaml:"subtype"`
	Damage      int                  `yaml:"damage"`
	Range       int                  `yaml:"range"` // 0 or 1 = adjacent only
	Cleave      bool                 `yaml:"cleave"`
	ReloadGated bool                 `yaml:"reload_gated"`
	// ArmorPenetration overrides the subtype default (0.5 for guns, else 0).
	ArmorPenetration *float64 `yaml:"armor_penetration"`
	Area             *AreaDef `yaml:"area"`
	Rarity           Rarity   `yaml:"rarity"`
}

// Validate checks that the WeaponDef satisfies its invariants.
// Precondition: w is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (w *WeaponDef) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !w.Subtype.Valid() {
		errs = append(errs, fmt.Errorf("Subtype %q is not a known weapon subtype", w.Subtype))
	}
	if w.Damage < 0 {
		errs = append(errs, errors.New("Damage must be >= 0"))
	}
	if w.Range < 0 {
		errs = append(errs, errors.New("Range must be >= 0"))
	}
	if w.Cleave && w.Subtype != combat.SubtypeHeavyMelee {
		errs = append(errs, errors.New("Cleave is only valid on heavy_melee weapons"))
	}
	if w.ReloadGated && w.Subtype != combat.SubtypeLightRanged {
		errs = append(errs, errors.New("ReloadGated is only valid on light_ranged weapons"))
	}
	if p := w.ArmorPenetration; p != nil && (*p < 0 || *p > 1) {
		errs = append(errs, fmt.Errorf("ArmorPenetration must be in [0, 1]; got %v", *p))
	}
	if w.Area != nil && w.Subtype != combat.SubtypeMagicArea {
		errs = append(errs, errors.New("Area is only valid on magic_area weapons"))
	}
	errs = append(errs, w.Area.validate()...)
	if !w.Rarity.valid() {
		errs = append(errs, fmt.Errorf("Rarity %q is not known", w.Rarity))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon validation failed: %v", errs)
	}
	return nil
}

// ToCombat returns the combat equipment for w.
//
// Postcondition: the returned Weapon shares no memory with w.
func (w *WeaponDef) ToCombat() *combat.Weapon {
	cw := &combat.Weapon{
		ID:          w.ID,
		Name:        w.Name,
		Subtype:     w.Subtype,
		Damage:      w.Damage,
		Range:       w.Range,
		Cleave:      w.Cleave,
		ReloadGated: w.ReloadGated,
		Area:        w.Area.toCombat(),
	}
	if w.ArmorPenetration != nil {
		p := *w.ArmorPenetration
		cw.ArmorPenetration = &p
	}
	return cw
}

// LoadWeapons reads all *.yaml and *.yml files from dir, parses each as a
// WeaponDef, validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid WeaponDefs or the first encountered error.
func LoadWeapons(dir string) ([]*WeaponDef, error) {
	var weapons []*WeaponDef
	err := eachYAML(dir, func(path string, data []byte) error {
		var w WeaponDef
		if err := decodeStrict(data, &w); err != nil {
			return fmt.Errorf("cannot parse file %q: %w", path, err)
		}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("invalid weapon in %q: %w", path, err)
		}
		weapons = append(weapons, &w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadWeapons: %w", err)
	}
	return weapons, nil
}

// eachYAML calls fn for every *.yaml or *.yml file directly inside dir, in
// lexical order.
func eachYAML(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read directory %q: %w", dir, err)
	}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read file %q: %w", path, err)
		}
		if err := fn(path, data); err != nil {
			return err
		}
	}
	return nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
