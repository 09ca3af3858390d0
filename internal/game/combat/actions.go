package combat

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// DefendAPCost is the AP cost of Defend.
const DefendAPCost = 1

// FleeDC is the total a flee roll must reach.
const FleeDC = 12

// move walks actor along a.Path. Every step must be to an adjacent passable
// tile not held by another standing combatant.
func (t *txn) move(actor *Combatant, a Move) error {
	if len(a.Path) < 2 {
		return fmt.Errorf("path needs at least 2 tiles, got %d", len(a.Path))
	}
	if a.Path[0] != actor.Position {
		return fmt.Errorf("path starts at %v, actor at %v", a.Path[0], actor.Position)
	}
	cost := 0
	for i := 1; i < len(a.Path); i++ {
		prev, next := a.Path[i-1], a.Path[i]
		if !t.g.AreAdjacent(prev, next) {
			return fmt.Errorf("step %v -> %v is not adjacent", prev, next)
		}
		c := t.g.TerrainCost(next)
		if c <= 0 {
			return fmt.Errorf("tile %v is impassable", next)
		}
		if occ := t.s.occupant(next); occ != nil && occ.ID != actor.ID {
			return fmt.Errorf("tile %v is occupied by %s", next, occ.ID)
		}
		cost += c
	}
	if cost > actor.APRemaining {
		return fmt.Errorf("path costs %d AP, have %d", cost, actor.APRemaining)
	}

	from := actor.Position
	last := len(a.Path) - 1
	actor.Position = a.Path[last]
	actor.APRemaining -= cost
	actor.Facing = grid.DirectionOf(a.Path[last-1], a.Path[last])
	t.logf("%s moves to (%d,%d).", actor.Name, actor.Position.X, actor.Position.Y)
	t.emit(MoveCompleted{Actor: actor.ID, From: from, To: actor.Position, Facing: actor.Facing, APCost: cost})
	if actor.APRemaining == 0 {
		t.advance()
	}
	return nil
}

func (t *txn) defend(actor *Combatant) error {
	if actor.APRemaining < DefendAPCost {
		return fmt.Errorf("need %d AP, have %d", DefendAPCost, actor.APRemaining)
	}
	actor.APRemaining -= DefendAPCost
	actor.IsDefending = true
	t.logf("%s takes a defensive stance.", actor.Name)
	t.emit(DefendActivated{Actor: actor.ID})
	t.advance()
	return nil
}

func (t *txn) useItem(actor *Combatant, a UseItem) error {
	idx := actor.stackIndex(a.ItemID)
	if idx < 0 || actor.Inventory[idx].Count <= 0 {
		return fmt.Errorf("no %q in inventory", a.ItemID)
	}
	it := actor.Inventory[idx].Item
	if it.Kind != ItemMedical && it.Kind != ItemBuff {
		return fmt.Errorf("item %q cannot be used directly", it.ID)
	}
	if actor.APRemaining < UseItemAPCost {
		return fmt.Errorf("need %d AP, have %d", UseItemAPCost, actor.APRemaining)
	}
	target := actor
	if a.Target != "" && a.Target != actor.ID {
		target = t.s.Get(a.Target)
		if target == nil {
			return fmt.Errorf("unknown target %q", a.Target)
		}
		if target.IsKnockedOut {
			return fmt.Errorf("target %s is down", target.ID)
		}
		if !target.SameSide(actor) {
			return fmt.Errorf("target %s is hostile", target.ID)
		}
		if !t.g.AreAdjacent(actor.Position, target.Position) {
			return fmt.Errorf("target %s is not adjacent", target.ID)
		}
	}

	actor.APRemaining -= UseItemAPCost
	remaining := actor.consumeItem(idx)
	used := ItemUsed{Actor: actor.ID, Target: target.ID, ItemID: it.ID, ItemKind: it.Kind, Remaining: remaining}

	switch it.Kind {
	case ItemMedical:
		heal := it.HealAmount(target.MaxHP)
		if missing := target.MaxHP - target.CurrentHP; heal > missing {
			heal = missing
		}
		target.CurrentHP += heal
		target.LastHeal = heal
		used.Healed = heal
		t.logf("%s uses %s on %s, restoring %d HP.", actor.Name, it.Name, target.Name, heal)
		t.emit(used)
	case ItemBuff:
		t.logf("%s uses %s on %s.", actor.Name, it.Name, target.Name)
		t.emit(used)
		for _, b := range []struct {
			stat  BuffStat
			bonus int
		}{
			{BuffAttack, it.Buff.Attack},
			{BuffDamage, it.Buff.Damage},
			{BuffDefense, it.Buff.Defense},
		} {
			if b.bonus == 0 || it.Buff.Turns <= 0 {
				continue
			}
			target.Buffs.Apply(b.stat, b.bonus, it.Buff.Turns)
			t.emit(BuffApplied{Target: target.ID, Stat: b.stat, Bonus: b.bonus, Turns: it.Buff.Turns})
		}
	}

	if actor.APRemaining == 0 {
		t.advance()
	}
	return nil
}

func (t *txn) flee(actor *Combatant) error {
	if !actor.IsPlayerControlled() {
		return fmt.Errorf("%s cannot flee", actor.ID)
	}
	d20 := t.rng.RollD20()
	bonus := actor.Speed / 5
	total := d20 + bonus
	success := total >= FleeDC
	t.emit(FleeAttempted{Actor: actor.ID, D20: d20, SpeedBonus: bonus, Total: total, Success: success})

	if success {
		t.logf("%s flees the battle (%d+%d=%d).", actor.Name, d20, bonus, total)
		t.s.Phase = PhaseVictory
		t.s.Result = &Result{
			Outcome:   OutcomeFled,
			Survivors: t.standingAllies(),
			Defeated:  []DefeatedEnemy{},
		}
		t.emit(CombatVictory{Outcome: OutcomeFled})
		return nil
	}

	t.logf("%s fails to flee (%d+%d=%d).", actor.Name, d20, bonus, total)
	actor.APRemaining = 0
	if !t.checkEnd() {
		t.advance()
	}
	return nil
}
