package combat

import (
	"math"

	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// WeaponSubtype classifies a weapon for AP cost, turn-ending, and targeting rules.
type WeaponSubtype string

const (
	SubtypeHeavyMelee  WeaponSubtype = "heavy_melee"
	SubtypeLightMelee  WeaponSubtype = "light_melee"
	SubtypeHeavyRanged WeaponSubtype = "heavy_ranged"
	SubtypeLightRanged WeaponSubtype = "light_ranged"
	SubtypeGun         WeaponSubtype = "gun"
	SubtypeMagicDirect WeaponSubtype = "magic_direct"
	SubtypeMagicArea   WeaponSubtype = "magic_area"
)

// MaxLightAttacks is the per-turn cap on light-weapon attacks.
const MaxLightAttacks = 2

type subtypeRule struct {
	apCost      int
	endsTurn    bool
	light       bool
	requiresLOS bool
	armorPen    float64
	area        bool
}

var subtypeRules = map[WeaponSubtype]subtypeRule{
	SubtypeHeavyMelee:  {apCost: 2, endsTurn: true},
	SubtypeLightMelee:  {apCost: 1, light: true},
	SubtypeHeavyRanged: {apCost: 2, endsTurn: true, requiresLOS: true},
	SubtypeLightRanged: {apCost: 1, light: true, requiresLOS: true},
	SubtypeGun:         {apCost: 2, endsTurn: true, requiresLOS: true, armorPen: 0.5},
	SubtypeMagicDirect: {apCost: 2, endsTurn: true},
	SubtypeMagicArea:   {apCost: 3, endsTurn: true, area: true},
}

// Valid reports whether s is a known subtype.
func (s WeaponSubtype) Valid() bool {
	_, ok := subtypeRules[s]
	return ok
}

// APCost returns the base AP cost of one attack with this subtype.
func (s WeaponSubtype) APCost() int { return subtypeRules[s].apCost }

// EndsTurn reports whether attacking with this subtype ends the attacker's turn.
func (s WeaponSubtype) EndsTurn() bool { return subtypeRules[s].endsTurn }

// IsLight reports whether the subtype counts against MaxLightAttacks.
func (s WeaponSubtype) IsLight() bool { return subtypeRules[s].light }

// RequiresLineOfSight reports whether single-target attacks need a clear line.
func (s WeaponSubtype) RequiresLineOfSight() bool { return subtypeRules[s].requiresLOS }

// IsArea reports whether the subtype attacks through AreaAttack only.
func (s WeaponSubtype) IsArea() bool { return subtypeRules[s].area }

// AreaProfile describes the tiles an area attack hits and how it treats allies.
type AreaProfile struct {
	Pattern                grid.BlastPattern `yaml:"pattern"`
	FriendlyFire           bool              `yaml:"friendly_fire"`
	FriendlyFireMultiplier float64           `yaml:"friendly_fire_multiplier"`
}

var (
	defaultBombArea  = AreaProfile{Pattern: grid.PatternSquare, FriendlyFire: true, FriendlyFireMultiplier: 0.5}
	defaultMagicArea = AreaProfile{Pattern: grid.PatternCross}
)

// Weapon is an equipped weapon definition.
type Weapon struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name"`
	Subtype WeaponSubtype `yaml:"subtype"`
	Damage  int           `yaml:"damage"`
	Range   int           `yaml:"range"`
	// Cleave grants a free follow-up attack on a killing blow (heavy melee only).
	Cleave bool `yaml:"cleave"`
	// ReloadGated makes every other light-ranged shot cost one extra AP.
	ReloadGated bool `yaml:"reload_gated"`
	// ArmorPenetration overrides the subtype's armor penetration fraction.
	ArmorPenetration *float64 `yaml:"armor_penetration"`
	// Area overrides the default cross/no-friendly-fire profile of magic_area weapons.
	Area *AreaProfile `yaml:"area"`
}

func (w *Weapon) armorPenetration() float64 {
	if w.ArmorPenetration != nil {
		return *w.ArmorPenetration
	}
	return subtypeRules[w.Subtype].armorPen
}

func (w *Weapon) areaProfile() AreaProfile {
	if w.Area != nil {
		return *w.Area
	}
	return defaultMagicArea
}

func (w *Weapon) reach() int {
	if w.Range < 1 {
		return 1
	}
	return w.Range
}

// ItemKind classifies a consumable combat item.
type ItemKind string

const (
	ItemMedical ItemKind = "medical"
	ItemBuff    ItemKind = "buff"
	ItemBomb    ItemKind = "bomb"
)

// Default bomb parameters used when an item leaves them unset.
const (
	DefaultBombAPCost = 2
	DefaultBombRange  = 4
)

// UseItemAPCost is the AP cost of UseItem.
const UseItemAPCost = 2

// BuffEffect is the bundle a buff consumable applies. Zero bonuses are skipped.
type BuffEffect struct {
	Attack  int `yaml:"attack"`
	Damage  int `yaml:"damage"`
	Defense int `yaml:"defense"`
	Turns   int `yaml:"turns"`
}

// Item is a consumable combat item definition.
type Item struct {
	ID   string   `yaml:"id"`
	Name string   `yaml:"name"`
	Kind ItemKind `yaml:"kind"`

	// medical
	MinHeal     int     `yaml:"min_heal"`
	HealPercent float64 `yaml:"heal_percent"`

	// buff
	Buff BuffEffect `yaml:"buff"`

	// bomb
	Damage int          `yaml:"damage"`
	Range  int          `yaml:"range"`
	APCost int          `yaml:"ap_cost"`
	Area   *AreaProfile `yaml:"area"`
}

// HealAmount returns the HP a medical item restores on a target with maxHP,
// before clamping to missing HP.
//
// Postcondition: Returns max(MinHeal, floor(maxHP*HealPercent)).
func (it Item) HealAmount(maxHP int) int {
	pct := int(math.Floor(float64(maxHP) * it.HealPercent))
	if pct > it.MinHeal {
		return pct
	}
	return it.MinHeal
}

func (it Item) apCost() int {
	if it.APCost > 0 {
		return it.APCost
	}
	return DefaultBombAPCost
}

func (it Item) reach() int {
	if it.Range > 0 {
		return it.Range
	}
	return DefaultBombRange
}

func (it Item) areaProfile() AreaProfile {
	if it.Area != nil {
		return *it.Area
	}
	return defaultBombArea
}

// ItemStack is an inventory entry: an item and how many remain.
type ItemStack struct {
	Item  Item
	Count int
}
