package combat

// BuffStat names one of the three buffable statistics.
type BuffStat int

const (
	BuffAttack BuffStat = iota
	BuffDamage
	BuffDefense
)

// String returns the stat name.
func (s BuffStat) String() string {
	switch s {
	case BuffAttack:
		return "attack"
	case BuffDamage:
		return "damage"
	case BuffDefense:
		return "defense"
	default:
		return "unknown"
	}
}

// Buff is a single timed bonus.
//
// Invariant: Bonus == 0 whenever Turns == 0.
type Buff struct {
	Bonus int
	Turns int
}

// Active reports whether the buff still applies.
func (b Buff) Active() bool { return b.Turns > 0 }

// BuffBundle holds independent attack, damage, and defense buffs.
type BuffBundle struct {
	Attack  Buff
	Damage  Buff
	Defense Buff
}

func (b *BuffBundle) slot(stat BuffStat) *Buff {
	switch stat {
	case BuffAttack:
		return &b.Attack
	case BuffDamage:
		return &b.Damage
	default:
		return &b.Defense
	}
}

// Bonus returns the current bonus for stat, or 0 if it has expired.
func (b BuffBundle) Bonus(stat BuffStat) int {
	s := b.slot(stat)
	if !s.Active() {
		return 0
	}
	return s.Bonus
}

// Apply sets stat to bonus for turns turns, overwriting any existing buff of
// the same stat. A non-positive turns clears the stat.
func (b *BuffBundle) Apply(stat BuffStat, bonus, turns int) {
	s := b.slot(stat)
	if turns <= 0 {
		*s = Buff{}
		return
	}
	*s = Buff{Bonus: bonus, Turns: turns}
}

// Tick decrements every active buff by one turn and zeroes those that reach
// zero.
//
// Postcondition: returns the stats that expired on this tick, in
// attack, damage, defense order.
func (b *BuffBundle) Tick() []BuffStat {
	var expired []BuffStat
	for _, stat := range []BuffStat{BuffAttack, BuffDamage, BuffDefense} {
		s := b.slot(stat)
		if !s.Active() {
			continue
		}
		s.Turns--
		if s.Turns == 0 {
			s.Bonus = 0
			expired = append(expired, stat)
		}
	}
	return expired
}
