package combat

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// attackCost returns the AP an Attack with w costs right now, including the
// reload surcharge of reload-gated light-ranged weapons.
func attackCost(c *Combatant, w *Weapon) int {
	cost := w.Subtype.APCost()
	if reloads(w) && c.NeedsReload {
		cost++
	}
	return cost
}

func reloads(w *Weapon) bool {
	return w.ReloadGated && w.Subtype == SubtypeLightRanged
}

func (t *txn) attack(actor *Combatant, a Attack) error {
	target := t.s.Get(a.Target)
	if target == nil {
		return fmt.Errorf("unknown target %q", a.Target)
	}
	if target.IsKnockedOut {
		return fmt.Errorf("target %s is down", target.ID)
	}
	if actor.SameSide(target) {
		return fmt.Errorf("target %s is an ally", target.ID)
	}
	w := actor.EffectiveWeapon()
	if w.Subtype.IsArea() {
		return fmt.Errorf("%s attacks through area_attack", w.Subtype)
	}
	if w.Subtype.IsLight() && actor.LightAttacks >= MaxLightAttacks {
		return fmt.Errorf("light attack cap reached (%d)", MaxLightAttacks)
	}
	cost := attackCost(actor, w)
	if actor.APRemaining < cost {
		return fmt.Errorf("need %d AP, have %d", cost, actor.APRemaining)
	}
	if d := t.g.Distance(actor.Position, target.Position); d > w.reach() {
		return fmt.Errorf("target at distance %d, range %d", d, w.reach())
	}
	if w.Subtype.RequiresLineOfSight() && !t.g.HasLineOfSight(actor.Position, target.Position) {
		return fmt.Errorf("no line of sight to %s", target.ID)
	}

	actor.APRemaining -= cost
	if w.Subtype.IsLight() {
		actor.LightAttacks++
	}
	if reloads(w) {
		actor.NeedsReload = !actor.NeedsReload
	}
	if actor.Position != target.Position {
		actor.Facing = grid.DirectionOf(actor.Position, target.Position)
	}

	flanking := t.g.IsFlanking(actor.Position, target.Position, t.allyPositions(actor))
	roll, dmg, killed := t.strike(actor, target, w, flanking)
	if roll.Hit {
		t.logf("%s hits %s with %s for %d (%d vs %d).", actor.Name, target.Name, w.Name, dmg, roll.AttackTotal, roll.DefenseTotal)
	} else {
		t.logf("%s misses %s with %s (%d vs %d).", actor.Name, target.Name, w.Name, roll.AttackTotal, roll.DefenseTotal)
	}
	t.emit(AttackResolved{
		Actor:    actor.ID,
		Target:   target.ID,
		WeaponID: w.ID,
		Subtype:  w.Subtype,
		Roll:     roll,
		Flanking: flanking,
		Damage:   dmg,
		TargetHP: target.CurrentHP,
	})
	if killed {
		t.defeat(target, actor)
		if w.Cleave && w.Subtype == SubtypeHeavyMelee {
			t.cleave(actor, target, w)
		}
	}

	if t.checkEnd() {
		return nil
	}
	if w.Subtype.EndsTurn() || actor.APRemaining == 0 {
		t.advance()
	}
	return nil
}

// cleave resolves the free follow-up attack against the first standing enemy
// adjacent to actor in initiative order. It never flanks and never chains.
func (t *txn) cleave(actor, primary *Combatant, w *Weapon) {
	for _, c := range t.s.Ordered() {
		if c.ID == primary.ID || c.IsKnockedOut || actor.SameSide(c) {
			continue
		}
		if !t.g.AreAdjacent(actor.Position, c.Position) {
			continue
		}
		roll, dmg, killed := t.strike(actor, c, w, false)
		if roll.Hit {
			t.logf("%s cleaves into %s for %d.", actor.Name, c.Name, dmg)
		} else {
			t.logf("%s cleaves at %s and misses.", actor.Name, c.Name)
		}
		t.emit(CleaveTriggered{Actor: actor.ID, Target: c.ID, Roll: roll, Damage: dmg, TargetHP: c.CurrentHP})
		if killed {
			t.defeat(c, actor)
		}
		return
	}
}

// areaSource is the resolved origin of an area attack.
type areaSource struct {
	id        string
	name      string
	damage    int
	apCost    int
	reach     int
	profile   AreaProfile
	needsLOS  bool
	stackSlot int
}

func (t *txn) resolveAreaSource(actor *Combatant, a AreaAttack) (areaSource, error) {
	if a.ItemID != "" {
		idx := actor.stackIndex(a.ItemID)
		if idx < 0 || actor.Inventory[idx].Count <= 0 {
			return areaSource{}, fmt.Errorf("no %q in inventory", a.ItemID)
		}
		it := actor.Inventory[idx].Item
		if it.Kind != ItemBomb {
			return areaSource{}, fmt.Errorf("item %q is not a bomb", it.ID)
		}
		return areaSource{
			id:        it.ID,
			name:      it.Name,
			damage:    it.Damage,
			apCost:    it.apCost(),
			reach:     it.reach(),
			profile:   it.areaProfile(),
			needsLOS:  true,
			stackSlot: idx,
		}, nil
	}
	w := actor.Weapon
	if w == nil || !w.Subtype.IsArea() {
		return areaSource{}, fmt.Errorf("no area weapon equipped")
	}
	return areaSource{
		id:        w.ID,
		name:      w.Name,
		damage:    w.Damage,
		apCost:    w.Subtype.APCost(),
		reach:     w.reach(),
		profile:   w.areaProfile(),
		stackSlot: -1,
	}, nil
}

// areaAttack resolves a bomb or area weapon. Damage has no variance and is
// not mitigated by armor; allies inside the blast take the friendly-fire
// share only when the source allows it.
func (t *txn) areaAttack(actor *Combatant, a AreaAttack) error {
	src, err := t.resolveAreaSource(actor, a)
	if err != nil {
		return err
	}
	if actor.APRemaining < src.apCost {
		return fmt.Errorf("need %d AP, have %d", src.apCost, actor.APRemaining)
	}
	if d := t.g.Distance(actor.Position, a.Target); d > src.reach {
		return fmt.Errorf("target tile at distance %d, range %d", d, src.reach)
	}
	if src.needsLOS && !t.g.HasLineOfSight(actor.Position, a.Target) {
		return fmt.Errorf("no line of sight to %v", a.Target)
	}

	actor.APRemaining -= src.apCost
	if src.stackSlot >= 0 {
		actor.consumeItem(src.stackSlot)
	}
	if actor.Position != a.Target {
		actor.Facing = grid.DirectionOf(actor.Position, a.Target)
	}

	tiles := t.g.BlastTiles(a.Target, src.profile.Pattern)
	ev := AreaAttackResolved{
		Actor:    actor.ID,
		SourceID: src.id,
		Center:   a.Target,
		Pattern:  src.profile.Pattern,
		Tiles:    tiles,
	}
	t.logf("%s unleashes %s at (%d,%d).", actor.Name, src.name, a.Target.X, a.Target.Y)

	var downed []*Combatant
	for _, v := range t.s.CombatantsOnTiles(tiles) {
		if v.ID == actor.ID {
			continue
		}
		friendly := actor.SameSide(v)
		if friendly && !src.profile.FriendlyFire {
			continue
		}
		roll := t.opposedRoll(actor, v, false)
		hit := AreaHit{Target: v.ID, Roll: roll, Friendly: friendly}
		if roll.Hit {
			dmg := RawDamage(actor.BaseDamage, actor.Buffs.Bonus(BuffDamage), src.damage, 0)
			if friendly {
				dmg = FriendlyFireDamage(dmg, src.profile.FriendlyFireMultiplier)
			}
			if v.applyDamage(dmg) {
				downed = append(downed, v)
			}
			hit.Damage = dmg
			t.logf("  %s takes %d.", v.Name, dmg)
		} else {
			t.logf("  %s avoids the blast.", v.Name)
		}
		hit.TargetHP = v.CurrentHP
		ev.Hits = append(ev.Hits, hit)
	}
	t.emit(ev)
	for _, v := range downed {
		t.defeat(v, actor)
	}

	if !t.checkEnd() {
		t.advance()
	}
	return nil
}
