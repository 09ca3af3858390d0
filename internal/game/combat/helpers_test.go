package combat_test

import (
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// scripted is a deterministic Outcomes that replays fixed sequences and
// falls back to neutral values once a sequence is exhausted.
type scripted struct {
	d20      []int
	variance []int
	death    []combat.DefeatKind
}

func (s *scripted) RollD20() int {
	if len(s.d20) == 0 {
		return 10
	}
	v := s.d20[0]
	s.d20 = s.d20[1:]
	return v
}

func (s *scripted) RollDamageVariance() int {
	if len(s.variance) == 0 {
		return 0
	}
	v := s.variance[0]
	s.variance = s.variance[1:]
	return v
}

func (s *scripted) RollDeathOrIncapacitation() combat.DefeatKind {
	if len(s.death) == 0 {
		return combat.DefeatIncapacitated
	}
	v := s.death[0]
	s.death = s.death[1:]
	return v
}

func pos(x, y int) grid.Position { return grid.Position{X: x, Y: y} }

func fighter(id string, kind combat.Kind, x, y int) combat.Combatant {
	return combat.Combatant{
		ID:          id,
		Name:        id,
		Kind:        kind,
		Position:    pos(x, y),
		Level:       1,
		CurrentHP:   20,
		MaxHP:       20,
		BaseDamage:  3,
		Defense:     10,
		AttackRange: 1,
		Speed:       10,
	}
}

// newState lays out cs in the given initiative order and starts the first
// combatant's turn without rolling initiative.
func newState(cs ...combat.Combatant) *combat.State {
	s := &combat.State{
		Combatants: make(map[string]*combat.Combatant, len(cs)),
		Turn:       1,
	}
	for i := range cs {
		c := cs[i]
		s.Combatants[c.ID] = &c
		s.Order = append(s.Order, c.ID)
	}
	first := s.Combatants[s.Order[0]]
	first.APRemaining = combat.APForLevel(first.Level)
	if first.IsPlayerControlled() {
		s.Phase = combat.PhaseAwaitingInput
	} else {
		s.Phase = combat.PhaseResolving
	}
	return s
}

func openField() *grid.Battlefield { return grid.NewBattlefield(8, 8, nil) }

func reducer(rng combat.Outcomes) *combat.Reducer { return combat.NewReducer(rng, nil) }

func knockOut(c combat.Combatant) combat.Combatant {
	c.CurrentHP = 0
	c.IsKnockedOut = true
	c.IsIncapacitated = true
	return c
}
