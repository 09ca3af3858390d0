package combat

import "math"

// Hit and damage constants.
const (
	FlankingBonus  = 2
	DefendingBonus = 3
	MinDamage      = 1
	// RevivalFraction is the share of MaxHP restored by post-victory revival.
	RevivalFraction = 0.25
)

// AttackTotal returns d20 + floor(level/2) + flanking bonus + attack buff.
func AttackTotal(d20, level int, flanking bool, attackBuff int) int {
	total := d20 + level/2 + attackBuff
	if flanking {
		total += FlankingBonus
	}
	return total
}

// DefenseTotal returns defense + defending bonus + defense buff.
func DefenseTotal(defense int, defending bool, defenseBuff int) int {
	total := defense + defenseBuff
	if defending {
		total += DefendingBonus
	}
	return total
}

// Hits reports whether an attack total beats or ties a defense total.
func Hits(attackTotal, defenseTotal int) bool { return attackTotal >= defenseTotal }

// RawDamage returns max(1, base + damageBuff + weaponDamage + variance).
func RawDamage(base, damageBuff, weaponDamage, variance int) int {
	d := base + damageBuff + weaponDamage + variance
	if d < MinDamage {
		return MinDamage
	}
	return d
}

// MitigatedDamage subtracts floor(armor * (1 - penetration)) from raw.
//
// Postcondition: Returns >= 1.
func MitigatedDamage(raw, armor int, penetration float64) int {
	if penetration < 0 {
		penetration = 0
	}
	if penetration > 1 {
		penetration = 1
	}
	reduction := int(math.Floor(float64(armor) * (1 - penetration)))
	if reduction < 0 {
		reduction = 0
	}
	d := raw - reduction
	if d < MinDamage {
		return MinDamage
	}
	return d
}

// FriendlyFireDamage scales damage by multiplier, rounding down. It may be 0.
func FriendlyFireDamage(damage int, multiplier float64) int {
	d := int(math.Floor(float64(damage) * multiplier))
	if d < 0 {
		return 0
	}
	return d
}

// RevivalHP returns max(1, floor(maxHP * 0.25)).
func RevivalHP(maxHP int) int {
	hp := int(math.Floor(float64(maxHP) * RevivalFraction))
	if hp < 1 {
		return 1
	}
	return hp
}
