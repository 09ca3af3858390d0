package ai

import (
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/scripting"
)

// BindScripts points the engine.combat Lua module of m at the encounter the
// Driver is currently deciding for.
//
// Precondition: m must not be nil.
// Postcondition: m's combat callbacks answer from the state passed to the
// most recent Decide call.
func (d *Driver) BindScripts(m *scripting.Manager) {
	m.GetCombatant = func(uid string) *scripting.CombatantInfo {
		v := d.currentView()
		if v.s == nil {
			return nil
		}
		c := v.s.Get(uid)
		if c == nil {
			return nil
		}
		return combatantInfo(c)
	}
	m.GetCombatants = func(string) []*scripting.CombatantInfo {
		v := d.currentView()
		if v.s == nil {
			return nil
		}
		ordered := v.s.Ordered()
		out := make([]*scripting.CombatantInfo, 0, len(ordered))
		for _, c := range ordered {
			out = append(out, combatantInfo(c))
		}
		return out
	}
	m.Distance = func(a, b string) (int, bool) {
		v := d.currentView()
		ca, cb := v.lookup(a), v.lookup(b)
		if ca == nil || cb == nil {
			return 0, false
		}
		return v.g.Distance(ca.Position, cb.Position), true
	}
	m.HasLineOfSight = func(a, b string) bool {
		v := d.currentView()
		ca, cb := v.lookup(a), v.lookup(b)
		if ca == nil || cb == nil {
			return false
		}
		return v.g.HasLineOfSight(ca.Position, cb.Position)
	}
}

func (d *Driver) currentView() view {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

func (v view) lookup(id string) *combat.Combatant {
	if v.s == nil || v.g == nil {
		return nil
	}
	return v.s.Get(id)
}

func combatantInfo(c *combat.Combatant) *scripting.CombatantInfo {
	side := SideEnemies
	if c.IsPlayerControlled() {
		side = SideAllies
	}
	healing := 0
	for _, st := range c.Inventory {
		if st.Item.Kind == combat.ItemMedical {
			healing += st.Count
		}
	}
	return &scripting.CombatantInfo{
		UID:          c.ID,
		Name:         c.Name,
		Kind:         c.Kind.String(),
		Side:         side,
		Level:        c.Level,
		HP:           c.CurrentHP,
		MaxHP:        c.MaxHP,
		AP:           c.APRemaining,
		Reach:        weaponReach(c.EffectiveWeapon()),
		X:            c.Position.X,
		Y:            c.Position.Y,
		KnockedOut:   c.IsKnockedOut,
		Defending:    c.IsDefending,
		HealingItems: healing,
	}
}
