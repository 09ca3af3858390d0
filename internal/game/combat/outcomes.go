package combat

// DefeatKind is the result of a killing blow.
type DefeatKind int

const (
	DefeatIncapacitated DefeatKind = iota
	DefeatDead
)

// DeathChancePercent is the chance a killing blow on a non-player-controlled
// combatant is fatal.
const DeathChancePercent = 30

// Outcomes is the Random Outcome Source consumed by the Reducer.
type Outcomes interface {
	// RollD20 returns a value in [1, 20].
	RollD20() int
	// RollDamageVariance returns a value in [-3, 3].
	RollDamageVariance() int
	// RollDeathOrIncapacitation returns DefeatDead with DeathChancePercent probability.
	RollDeathOrIncapacitation() DefeatKind
}

// Source is the subset of dice.Source used to drive Outcomes.
// Using a local interface keeps combat free of the dice package.
type Source interface {
	Intn(n int) int
}

type sourceOutcomes struct {
	src Source
}

// NewOutcomes adapts a random Source into Outcomes.
//
// Precondition: src must not be nil.
func NewOutcomes(src Source) Outcomes {
	if src == nil {
		panic("combat.NewOutcomes: src must not be nil")
	}
	return sourceOutcomes{src: src}
}

func (o sourceOutcomes) RollD20() int { return o.src.Intn(20) + 1 }

func (o sourceOutcomes) RollDamageVariance() int { return o.src.Intn(7) - 3 }

func (o sourceOutcomes) RollDeathOrIncapacitation() DefeatKind {
	if o.src.Intn(100) < DeathChancePercent {
		return DefeatDead
	}
	return DefeatIncapacitated
}
