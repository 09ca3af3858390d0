package combat

import "github.com/cory-johannsen/tactics/internal/game/grid"

// Phase is the combat phase.
type Phase string

const (
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseResolving     Phase = "resolving"
	PhaseVictory       Phase = "victory"
	PhaseDefeat        Phase = "defeat"
)

// IsTerminal reports whether no further actions are accepted.
func (p Phase) IsTerminal() bool { return p == PhaseVictory || p == PhaseDefeat }

// Outcome is how an encounter ended.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeFled    Outcome = "fled"
)

// DefeatedEnemy is the Loot Generator's input record for one hostile.
type DefeatedEnemy struct {
	ID     string `json:"id"`
	Level  int    `json:"level"`
	IsDead bool   `json:"is_dead"`
}

// Revival records one incapacitated ally restored after victory.
type Revival struct {
	ID string `json:"id"`
	// RevivedBy is the companion credited with carrying the player, or empty.
	RevivedBy string `json:"revived_by,omitempty"`
	HP        int    `json:"hp"`
}

// Result is populated once the phase becomes terminal.
type Result struct {
	Outcome   Outcome         `json:"outcome"`
	XP        int             `json:"xp"`
	Gold      int             `json:"gold"`
	Survivors []string        `json:"survivors"`
	Defeated  []DefeatedEnemy `json:"defeated"`
	Revivals  []Revival       `json:"revivals,omitempty"`
}

// State is the complete combat state. It is treated as immutable by the
// Reducer: every accepted action produces a new State.
//
// Invariant: Order[TurnIndex] names a combatant that is not knocked out unless
// every combatant is knocked out.
type State struct {
	Combatants map[string]*Combatant
	// Order is the initiative order, fixed at combat start.
	Order     []string
	TurnIndex int
	// Turn counts completed passes through Order, starting at 1.
	Turn  int
	Phase Phase
	// Log is the append-only mechanical combat log.
	Log []string
	// Pending holds the events of the most recent accepted action.
	Pending []Event
	Result  *Result
	// Version increments on every accepted action.
	Version uint64
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	cp := *s
	cp.Combatants = make(map[string]*Combatant, len(s.Combatants))
	for id, c := range s.Combatants {
		cp.Combatants[id] = c.clone()
	}
	cp.Order = append([]string(nil), s.Order...)
	cp.Log = append([]string(nil), s.Log...)
	cp.Pending = append([]Event(nil), s.Pending...)
	if s.Result != nil {
		r := *s.Result
		r.Survivors = append([]string(nil), s.Result.Survivors...)
		r.Defeated = append([]DefeatedEnemy(nil), s.Result.Defeated...)
		r.Revivals = append([]Revival(nil), s.Result.Revivals...)
		cp.Result = &r
	}
	return &cp
}

// Current returns the initiative holder, or nil when Order is empty.
func (s *State) Current() *Combatant {
	if len(s.Order) == 0 {
		return nil
	}
	return s.Combatants[s.Order[s.TurnIndex]]
}

// Get returns the combatant with id, or nil.
func (s *State) Get(id string) *Combatant { return s.Combatants[id] }

// Ordered returns every combatant in initiative order.
func (s *State) Ordered() []*Combatant {
	out := make([]*Combatant, 0, len(s.Order))
	for _, id := range s.Order {
		out = append(out, s.Combatants[id])
	}
	return out
}

// CombatantsOnTiles returns the combatants that are not knocked out standing
// on any of tiles, in initiative order.
func (s *State) CombatantsOnTiles(tiles []grid.Position) []*Combatant {
	set := make(map[grid.Position]struct{}, len(tiles))
	for _, t := range tiles {
		set[t] = struct{}{}
	}
	var out []*Combatant
	for _, id := range s.Order {
		c := s.Combatants[id]
		if c.IsKnockedOut {
			continue
		}
		if _, ok := set[c.Position]; ok {
			out = append(out, c)
		}
	}
	return out
}

// occupant returns the standing combatant at p, or nil.
func (s *State) occupant(p grid.Position) *Combatant {
	for _, id := range s.Order {
		c := s.Combatants[id]
		if !c.IsKnockedOut && c.Position == p {
			return c
		}
	}
	return nil
}

// DrainEvents returns the pending events and clears the queue.
func (s *State) DrainEvents() []Event {
	ev := s.Pending
	s.Pending = nil
	return ev
}
