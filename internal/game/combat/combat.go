// Package combat implements the turn-based, grid-positioned tactical combat
// resolver. All state changes flow through Reducer.Reduce, which consumes one
// Action against a State and returns a new State plus the ordered Events the
// action produced. Identical inputs and Outcomes sequences always produce
// identical outputs.
package combat

import "github.com/cory-johannsen/tactics/internal/game/grid"

// Kind distinguishes the player, the player's companions, and enemies.
type Kind int

const (
	KindPlayer Kind = iota
	KindCompanion
	KindEnemy
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindCompanion:
		return "companion"
	case KindEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// Combatant is one participant in an encounter.
//
// Invariant: IsKnockedOut is true whenever IsIncapacitated or IsDead is true;
// IsIncapacitated and IsDead are never both true.
type Combatant struct {
	ID       string
	Name     string
	Kind     Kind
	Position grid.Position
	Facing   grid.Direction

	Level       int
	CurrentHP   int
	MaxHP       int
	BaseDamage  int
	Defense     int
	Armor       int
	AttackRange int
	Speed       int
	Initiative  int

	// Weapon is nil for an unarmed combatant.
	Weapon *Weapon

	APRemaining  int
	LightAttacks int
	NeedsReload  bool
	IsDefending  bool

	IsKnockedOut    bool
	IsIncapacitated bool
	IsDead          bool

	// LastDamage and LastHeal are display-only and cleared at turn start.
	LastDamage int
	LastHeal   int

	Buffs     BuffBundle
	Inventory []ItemStack
}

// IsPlayerControlled reports whether the combatant fights on the player's side.
func (c *Combatant) IsPlayerControlled() bool { return c.Kind != KindEnemy }

// SameSide reports whether c and o share an allegiance.
func (c *Combatant) SameSide(o *Combatant) bool {
	return c.IsPlayerControlled() == o.IsPlayerControlled()
}

// CanAct reports whether the combatant may take turns.
func (c *Combatant) CanAct() bool { return !c.IsKnockedOut }

// EffectiveWeapon returns the equipped weapon, or an unarmed light-melee
// profile at the combatant's base attack range.
//
// Postcondition: Returns a non-nil Weapon with Range >= 1.
func (c *Combatant) EffectiveWeapon() *Weapon {
	if c.Weapon != nil {
		return c.Weapon
	}
	r := c.AttackRange
	if r < 1 {
		r = 1
	}
	return &Weapon{ID: "unarmed", Name: "Unarmed", Subtype: SubtypeLightMelee, Range: r}
}

// applyDamage reduces CurrentHP by amount, flooring at zero, and records it
// as the most recent damage.
//
// Postcondition: CurrentHP >= 0; returns true iff this call took HP to 0.
func (c *Combatant) applyDamage(amount int) bool {
	if amount <= 0 {
		return false
	}
	before := c.CurrentHP
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
	c.LastDamage = amount
	return before > 0 && c.CurrentHP == 0
}

// stackIndex returns the inventory index of itemID, or -1.
func (c *Combatant) stackIndex(itemID string) int {
	for i, s := range c.Inventory {
		if s.Item.ID == itemID {
			return i
		}
	}
	return -1
}

// consumeItem removes one unit of the stack at idx, dropping the entry when
// it empties.
//
// Precondition: 0 <= idx < len(Inventory) and Inventory[idx].Count > 0.
func (c *Combatant) consumeItem(idx int) int {
	c.Inventory[idx].Count--
	left := c.Inventory[idx].Count
	if left <= 0 {
		c.Inventory = append(c.Inventory[:idx], c.Inventory[idx+1:]...)
		return 0
	}
	return left
}

func (c *Combatant) clone() *Combatant {
	cp := *c
	if c.Weapon != nil {
		w := *c.Weapon
		cp.Weapon = &w
	}
	if c.Inventory != nil {
		cp.Inventory = make([]ItemStack, len(c.Inventory))
		copy(cp.Inventory, c.Inventory)
	}
	return &cp
}

// MaxAP is the action point ceiling reached at level 60.
const MaxAP = 8

// APForLevel returns the per-turn action points for level: 2 AP through
// level 9, one more per additional 10 levels, capped at MaxAP.
//
// Postcondition: 2 <= result <= MaxAP; non-decreasing in level.
func APForLevel(level int) int {
	if level < 1 {
		return 2
	}
	ap := 2 + level/10
	if ap > MaxAP {
		return MaxAP
	}
	return ap
}
