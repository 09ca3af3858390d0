package ai

import (
	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// BuildWorldState constructs a WorldState snapshot of s for the combatant actorID.
//
// Precondition: s and g must not be nil; actorID must name a combatant in s.
// Postcondition: ws.Actor.UID == actorID; every combatant is represented in
// initiative order.
func BuildWorldState(s *combat.State, g combat.Grid, actorID string) *WorldState {
	ws := &WorldState{Distance: g.Distance}
	for _, c := range s.Ordered() {
		cs := snapshot(c)
		ws.Combatants = append(ws.Combatants, cs)
		if c.ID == actorID {
			ws.Actor = cs
		}
	}
	return ws
}

func snapshot(c *combat.Combatant) *CombatantState {
	side := SideEnemies
	if c.IsPlayerControlled() {
		side = SideAllies
	}
	return &CombatantState{
		UID:        c.ID,
		Name:       c.Name,
		Kind:       c.Kind.String(),
		Side:       side,
		Position:   c.Position,
		HP:         c.CurrentHP,
		MaxHP:      c.MaxHP,
		KnockedOut: c.IsKnockedOut,
	}
}
