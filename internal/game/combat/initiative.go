package combat

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// InitiativeFor returns d20 + floor(speed/5).
func InitiativeFor(d20, speed int) int { return d20 + speed/5 }

// NewState builds the starting State for participants, rolls initiative
// (d20 + floor(speed/5)) for each in input order, and starts the first turn.
//
// Initiative ties keep player-controlled combatants first, then input order.
//
// Precondition: participants holds at least one player-controlled and one
// hostile combatant with unique IDs, Level >= 1, 0 < CurrentHP <= MaxHP, and
// distinct positions.
// Postcondition: Returns a State with Turn 1 whose Pending holds the opening
// turn_start event, or an error describing the first invalid participant.
func NewState(participants []Combatant, rng Outcomes) (*State, []Event, error) {
	if rng == nil {
		return nil, nil, fmt.Errorf("combat.NewState: rng must not be nil")
	}
	if err := validateParticipants(participants); err != nil {
		return nil, nil, err
	}

	s := &State{
		Combatants: make(map[string]*Combatant, len(participants)),
		Order:      make([]string, 0, len(participants)),
		Turn:       1,
	}
	for i := range participants {
		c := participants[i].clone()
		c.IsKnockedOut, c.IsIncapacitated, c.IsDead = false, false, false
		c.APRemaining, c.LightAttacks = 0, 0
		c.Initiative = InitiativeFor(rng.RollD20(), c.Speed)
		s.Combatants[c.ID] = c
		s.Order = append(s.Order, c.ID)
	}
	sort.SliceStable(s.Order, func(i, j int) bool {
		a, b := s.Combatants[s.Order[i]], s.Combatants[s.Order[j]]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		return a.IsPlayerControlled() && !b.IsPlayerControlled()
	})
	for _, id := range s.Order {
		c := s.Combatants[id]
		s.Log = append(s.Log, fmt.Sprintf("%s rolls initiative %d.", c.Name, c.Initiative))
	}

	events := startTurn(s, s.Combatants[s.Order[0]])
	s.Pending = events
	return s, events, nil
}

func validateParticipants(participants []Combatant) error {
	if len(participants) < 2 {
		return fmt.Errorf("combat needs at least 2 participants, got %d", len(participants))
	}
	ids := make(map[string]struct{}, len(participants))
	tiles := make(map[grid.Position]string, len(participants))
	allies, enemies := 0, 0
	for _, c := range participants {
		if c.ID == "" {
			return fmt.Errorf("participant %q has no id", c.Name)
		}
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("duplicate participant id %q", c.ID)
		}
		ids[c.ID] = struct{}{}
		if other, taken := tiles[c.Position]; taken {
			return fmt.Errorf("participants %q and %q share tile %v", other, c.ID, c.Position)
		}
		tiles[c.Position] = c.ID
		if c.Level < 1 {
			return fmt.Errorf("participant %q: level must be >= 1", c.ID)
		}
		if c.MaxHP <= 0 || c.CurrentHP <= 0 || c.CurrentHP > c.MaxHP {
			return fmt.Errorf("participant %q: hp %d/%d out of range", c.ID, c.CurrentHP, c.MaxHP)
		}
		if c.Weapon != nil && !c.Weapon.Subtype.Valid() {
			return fmt.Errorf("participant %q: unknown weapon subtype %q", c.ID, c.Weapon.Subtype)
		}
		if c.IsPlayerControlled() {
			allies++
		} else {
			enemies++
		}
	}
	if allies == 0 || enemies == 0 {
		return fmt.Errorf("combat needs both sides, got %d allies and %d enemies", allies, enemies)
	}
	return nil
}
