package combat

// Reward rates per defeated enemy level.
const (
	XPPerLevelDead          = 10
	XPPerLevelIncapacitated = 5
	GoldPerLevel            = 5
)

func (t *txn) standingAllies() []string {
	out := []string{}
	for _, c := range t.s.Ordered() {
		if c.IsPlayerControlled() && !c.IsKnockedOut {
			out = append(out, c.ID)
		}
	}
	return out
}

func (t *txn) defeatedEnemies() []DefeatedEnemy {
	out := []DefeatedEnemy{}
	for _, c := range t.s.Ordered() {
		if !c.IsPlayerControlled() && c.IsKnockedOut {
			out = append(out, DefeatedEnemy{ID: c.ID, Level: c.Level, IsDead: c.IsDead})
		}
	}
	return out
}

// checkEnd moves the state to a terminal phase when one side has no standing
// combatant. When both sides fall together the encounter is a defeat.
//
// Postcondition: returns true iff the phase is terminal.
func (t *txn) checkEnd() bool {
	if t.s.Phase.IsTerminal() {
		return true
	}
	alliesUp, enemiesUp := false, false
	for _, c := range t.s.Combatants {
		if c.IsKnockedOut {
			continue
		}
		if c.IsPlayerControlled() {
			alliesUp = true
		} else {
			enemiesUp = true
		}
	}
	switch {
	case !alliesUp:
		t.endInDefeat()
	case !enemiesUp:
		t.endInVictory()
	default:
		return false
	}
	return true
}

func (t *txn) endInDefeat() {
	t.s.Phase = PhaseDefeat
	t.s.Result = &Result{
		Outcome:   OutcomeDefeat,
		Survivors: []string{},
		Defeated:  t.defeatedEnemies(),
	}
	t.logf("The party has fallen.")
	t.emit(CombatDefeat{})
}

func (t *txn) endInVictory() {
	res := &Result{Outcome: OutcomeVictory, Defeated: t.defeatedEnemies()}
	for _, d := range res.Defeated {
		if d.IsDead {
			res.XP += XPPerLevelDead * d.Level
		} else {
			res.XP += XPPerLevelIncapacitated * d.Level
		}
		res.Gold += GoldPerLevel * d.Level
	}

	carriers := t.standingCompanions()
	for _, c := range t.s.Ordered() {
		if !c.IsPlayerControlled() || !c.IsIncapacitated || c.IsDead {
			continue
		}
		hp := RevivalHP(c.MaxHP)
		c.CurrentHP = hp
		c.IsKnockedOut = false
		c.IsIncapacitated = false
		c.APRemaining = 0
		if c.Kind == KindPlayer {
			carrier := t.carrierFor(c, carriers)
			res.Revivals = append(res.Revivals, Revival{ID: c.ID, RevivedBy: carrier, HP: hp})
			t.logf("%s is carried from the field and revived with %d HP.", c.Name, hp)
			t.emit(PlayerRevived{Target: c.ID, CarriedBy: carrier, HP: hp})
		} else {
			res.Revivals = append(res.Revivals, Revival{ID: c.ID, HP: hp})
			t.logf("%s recovers with %d HP.", c.Name, hp)
			t.emit(AllyRevived{Target: c.ID, HP: hp})
		}
	}
	res.Survivors = t.standingAllies()

	t.s.Phase = PhaseVictory
	t.s.Result = res
	t.logf("Victory! %d XP, %d gold.", res.XP, res.Gold)
	t.emit(CombatVictory{Outcome: OutcomeVictory, XP: res.XP, Gold: res.Gold})
}

// standingCompanions returns the companions still on their feet, in initiative order.
func (t *txn) standingCompanions() []*Combatant {
	var out []*Combatant
	for _, c := range t.s.Ordered() {
		if c.Kind == KindCompanion && !c.IsKnockedOut {
			out = append(out, c)
		}
	}
	return out
}

// carrierFor returns the companion credited with carrying player: the first
// of companions adjacent to the player, else the first one, else "".
func (t *txn) carrierFor(player *Combatant, companions []*Combatant) string {
	if len(companions) == 0 {
		return ""
	}
	for _, c := range companions {
		if t.g.AreAdjacent(c.Position, player.Position) {
			return c.ID
		}
	}
	return companions[0].ID
}
