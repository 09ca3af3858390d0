package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// Category constants for ItemDef.Category.
const (
	CategoryBomb    = "bomb"
	CategoryPotion  = "potion"
	CategoryTrinket = "trinket"
	CategoryWeapon  = "weapon"
)

// validCategories is the set of valid ItemDef categories.
var validCategories = map[string]bool{
	CategoryBomb:    true,
	CategoryPotion:  true,
	CategoryTrinket: true,
	CategoryWeapon:  true,
}

// Rarity grades how often an item appears in loot.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
)

func (r Rarity) valid() bool {
	switch r {
	case "", RarityCommon, RarityUncommon, RarityRare:
		return true
	}
	return false
}

// ItemDef defines the static properties of an inventory item loaded from YAML.
type ItemDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Rarity      Rarity `yaml:"rarity"`
	MaxStack    int    `yaml:"max_stack"`
	Value       int    `yaml:"value"`
	// WeaponRef names the WeaponDef a weapon-category item equips.
	WeaponRef string `yaml:"weapon_ref"`

	// potion: healing
	MinHeal     int     `yaml:"min_heal"`
	HealPercent float64 `yaml:"heal_percent"`
	// potion: buff; a potion with Buff.Turns > 0 is a buff potion.
	Buff combat.BuffEffect `yaml:"buff"`

	// bomb
	Damage int      `yaml:"damage"`
	Range  int      `yaml:"range"`   // 0 = default throw range
	APCost int      `yaml:"ap_cost"` // 0 = default bomb cost
	Area   *AreaDef `yaml:"area"`
}

// IsBuff reports whether a potion applies a timed buff rather than healing.
func (d *ItemDef) IsBuff() bool {
	return d.Category == CategoryPotion && d.Buff.Turns > 0
}

// UsableInCombat reports whether the item converts to a combat ItemStack.
func (d *ItemDef) UsableInCombat() bool {
	return d.Category == CategoryBomb || d.Category == CategoryPotion
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validCategories[d.Category] {
		errs = append(errs, fmt.Errorf("Category must be one of bomb, potion, trinket, weapon; got %q", d.Category))
	}
	if !d.Rarity.valid() {
		errs = append(errs, fmt.Errorf("Rarity %q is not known", d.Rarity))
	}
	if d.MaxStack < 1 {
		errs = append(errs, errors.New("MaxStack must be >= 1"))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("Value must be >= 0"))
	}
	switch d.Category {
	case CategoryWeapon:
		if d.WeaponRef == "" {
			errs = append(errs, errors.New("WeaponRef is required when Category is weapon"))
		}
	case CategoryPotion:
		if d.Buff.Turns < 0 {
			errs = append(errs, errors.New("Buff.Turns must be >= 0"))
		}
		if !d.IsBuff() && d.MinHeal <= 0 && d.HealPercent <= 0 {
			errs = append(errs, errors.New("healing potion needs MinHeal or HealPercent"))
		}
		if d.HealPercent < 0 || d.HealPercent > 1 {
			errs = append(errs, errors.New("HealPercent must be in [0, 1]"))
		}
	case CategoryBomb:
		if d.Damage < 0 {
			errs = append(errs, errors.New("Damage must be >= 0"))
		}
		if d.Range < 0 || d.APCost < 0 {
			errs = append(errs, errors.New("Range and APCost must be >= 0"))
		}
		errs = append(errs, d.Area.validate()...)
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// ToCombat returns the combat item for a bomb or potion.
//
// Precondition: d.UsableInCombat() is true.
func (d *ItemDef) ToCombat() combat.Item {
	it := combat.Item{ID: d.ID, Name: d.Name}
	switch {
	case d.Category == CategoryBomb:
		it.Kind = combat.ItemBomb
		it.Damage = d.Damage
		it.Range = d.Range
		it.APCost = d.APCost
		it.Area = d.Area.toCombat()
	case d.IsBuff():
		it.Kind = combat.ItemBuff
		it.Buff = d.Buff
	default:
		it.Kind = combat.ItemMedical
		it.MinHeal = d.MinHeal
		it.HealPercent = d.HealPercent
	}
	return it
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as an
// ItemDef, validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	var items []*ItemDef
	err := eachYAML(dir, func(path string, data []byte) error {
		var d ItemDef
		if err := decodeStrict(data, &d); err != nil {
			return fmt.Errorf("cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("invalid item in %q: %w", path, err)
		}
		items = append(items, &d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadItems: %w", err)
	}
	return items, nil
}
