package combat

import "fmt"

// AdvanceToNextTurn returns a copy of s with the initiative passed to the next
// standing combatant, plus the resulting events.
//
// Postcondition: s is not modified; the returned State's current combatant is
// not knocked out unless every combatant is.
func AdvanceToNextTurn(s *State) (*State, []Event) {
	next := s.Clone()
	events := advanceToNextTurn(next)
	return next, events
}

// advanceToNextTurn moves s to the next non-knocked-out slot in initiative
// order, incrementing Turn on wraparound, and starts that combatant's turn.
// It is a no-op when every combatant is knocked out.
func advanceToNextTurn(s *State) []Event {
	n := len(s.Order)
	for step := 1; step <= n; step++ {
		idx := (s.TurnIndex + step) % n
		c := s.Combatants[s.Order[idx]]
		if c.IsKnockedOut {
			continue
		}
		if s.TurnIndex+step >= n {
			s.Turn++
		}
		s.TurnIndex = idx
		return startTurn(s, c)
	}
	return nil
}

// startTurn resets c's per-turn resources, ticks its buffs, and sets the
// phase for its controller.
func startTurn(s *State, c *Combatant) []Event {
	c.APRemaining = APForLevel(c.Level)
	c.IsDefending = false
	c.LastDamage = 0
	c.LastHeal = 0
	c.LightAttacks = 0
	expired := c.Buffs.Tick()

	if c.IsPlayerControlled() {
		s.Phase = PhaseAwaitingInput
	} else {
		s.Phase = PhaseResolving
	}
	s.Log = append(s.Log, fmt.Sprintf("Turn %d: %s acts.", s.Turn, c.Name))

	events := []Event{TurnStarted{Actor: c.ID, Turn: s.Turn, AP: c.APRemaining}}
	for _, stat := range expired {
		events = append(events, BuffExpired{Target: c.ID, Stat: stat})
	}
	return events
}
