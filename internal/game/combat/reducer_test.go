package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
)

func dagger() *combat.Weapon {
	return &combat.Weapon{ID: "dagger", Name: "Dagger", Subtype: combat.SubtypeLightMelee, Damage: 2, Range: 1}
}

func TestReduce_RejectsWrongActor(t *testing.T) {
	s := newState(fighter("hero", combat.KindPlayer, 0, 0), fighter("orc", combat.KindEnemy, 1, 0))
	next, events := reducer(&scripted{}).Reduce(s, combat.Attack{Actor: "orc", Target: "hero"}, openField())
	assert.Same(t, s, next)
	assert.Nil(t, events)
	assert.Equal(t, uint64(0), s.Version)
}

func TestReduce_RejectsUnknownActor(t *testing.T) {
	s := newState(fighter("hero", combat.KindPlayer, 0, 0), fighter("orc", combat.KindEnemy, 1, 0))
	next, events := reducer(&scripted{}).Reduce(s, combat.Defend{Actor: "ghost"}, openField())
	assert.Same(t, s, next)
	assert.Nil(t, events)
}

func TestReduce_RejectionIsLoggedAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := combat.NewReducer(&scripted{}, zap.New(core))
	s := newState(fighter("hero", combat.KindPlayer, 0, 0), fighter("orc", combat.KindEnemy, 1, 0))

	r.Reduce(s, combat.Defend{Actor: "orc"}, openField())

	entries := logs.FilterMessage("action rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "defend", entries[0].ContextMap()["kind"])
	assert.Equal(t, "orc", entries[0].ContextMap()["actor"])
}

func TestReduce_AcceptedActionBumpsVersionAndQueuesEvents(t *testing.T) {
	s := newState(fighter("hero", combat.KindPlayer, 0, 0), fighter("orc", combat.KindEnemy, 3, 3))
	next, events := reducer(&scripted{}).Reduce(s, combat.EndTurn{Actor: "hero"}, openField())

	require.NotSame(t, s, next)
	assert.Equal(t, uint64(1), next.Version)
	assert.Equal(t, events, next.Pending)
	assert.Equal(t, "hero", s.Current().ID, "original state must not change")

	drained := next.DrainEvents()
	assert.Equal(t, events, drained)
	assert.Empty(t, next.Pending)
}

func TestReduce_TerminalPhaseRejectsEverything(t *testing.T) {
	s := newState(fighter("hero", combat.KindPlayer, 0, 0), fighter("orc", combat.KindEnemy, 1, 0))
	s.Phase = combat.PhaseVictory
	next, events := reducer(&scripted{}).Reduce(s, combat.EndTurn{Actor: "hero"}, openField())
	assert.Same(t, s, next)
	assert.Nil(t, events)
}

func TestEndTurn_OtherActorWhenCurrentExhausted(t *testing.T) {
	s := newState(fighter("hero", combat.KindPlayer, 0, 0), fighter("orc", combat.KindEnemy, 3, 3))
	r := reducer(&scripted{})

	next, _ := r.Reduce(s, combat.EndTurn{Actor: "orc"}, openField())
	assert.Same(t, s, next, "current still has AP")

	s.Combatants["hero"].APRemaining = 0
	next, events := r.Reduce(s, combat.EndTurn{Actor: "orc"}, openField())
	require.NotSame(t, s, next)
	assert.Equal(t, "orc", next.Current().ID)
	assert.Equal(t, []combat.EventKind{combat.EventTurnStarted}, combat.EventKinds(events))
}

func TestAttack_LightMeleeCapThenEndTurn(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Level = 10
	hero.Weapon = dagger()
	orc := fighter("orc", combat.KindEnemy, 1, 0)
	orc.Defense = 30
	s := newState(hero, orc)
	r := reducer(&scripted{})
	g := openField()

	s, events := r.Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, g)
	require.Equal(t, []combat.EventKind{combat.EventAttackResolved}, combat.EventKinds(events))
	s, events = r.Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, g)
	require.Equal(t, []combat.EventKind{combat.EventAttackResolved}, combat.EventKinds(events))
	assert.Equal(t, 1, s.Get("hero").APRemaining)
	assert.Equal(t, 2, s.Get("hero").LightAttacks)

	capped, events := r.Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, g)
	assert.Same(t, s, capped)
	assert.Nil(t, events)

	s, events = r.Reduce(s, combat.EndTurn{Actor: "hero"}, g)
	assert.Equal(t, []combat.EventKind{combat.EventTurnStarted}, combat.EventKinds(events))
	assert.Equal(t, "orc", s.Current().ID)
	assert.Equal(t, combat.PhaseResolving, s.Phase)
}

func TestAttack_LightMeleeExhaustingAPAdvancesTurn(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Weapon = dagger()
	orc := fighter("orc", combat.KindEnemy, 1, 0)
	orc.Defense = 30
	s := newState(hero, orc)
	r := reducer(&scripted{})

	s, _ = r.Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	assert.Equal(t, "hero", s.Current().ID)
	s, events := r.Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	assert.Equal(t, []combat.EventKind{combat.EventAttackResolved, combat.EventTurnStarted}, combat.EventKinds(events))
	assert.Equal(t, "orc", s.Current().ID)
}

func TestAttack_HitAppliesDamage(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Weapon = dagger()
	orc := fighter("orc", combat.KindEnemy, 1, 0)
	orc.Armor = 2
	s := newState(hero, orc)

	next, events := reducer(&scripted{d20: []int{15}, variance: []int{1}}).Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	require.Len(t, events, 1)
	ev := events[0].(combat.AttackResolved)
	assert.True(t, ev.Roll.Hit)
	assert.Equal(t, 15, ev.Roll.AttackTotal)
	assert.Equal(t, 10, ev.Roll.DefenseTotal)
	// 3 base + 2 dagger + 1 variance - 2 armor
	assert.Equal(t, 4, ev.Damage)
	assert.Equal(t, 16, next.Get("orc").CurrentHP)
	assert.Equal(t, 4, next.Get("orc").LastDamage)
	assert.Equal(t, grid.East, next.Get("hero").Facing)
	assert.NotEmpty(t, next.Log)
}

func TestAttack_FlankingAddsTwo(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 1, 1)
	hero.Weapon = dagger()
	ally := fighter("ally", combat.KindCompanion, 3, 1)
	orc := fighter("orc", combat.KindEnemy, 2, 1)
	s := newState(hero, orc, ally)

	_, events := reducer(&scripted{d20: []int{10}}).Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	ev := events[0].(combat.AttackResolved)
	assert.True(t, ev.Flanking)
	assert.Equal(t, combat.FlankingBonus, ev.Roll.FlankBonus)
	assert.Equal(t, 12, ev.Roll.AttackTotal)
}

func TestAttack_RejectsAllyOutOfRangeAndDownedTargets(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	ally := fighter("ally", combat.KindCompanion, 1, 0)
	far := fighter("far", combat.KindEnemy, 5, 5)
	down := knockOut(fighter("down", combat.KindEnemy, 0, 1))
	s := newState(hero, ally, far, down)
	r := reducer(&scripted{})

	for _, target := range []string{"ally", "far", "down", "nobody"} {
		next, events := r.Reduce(s, combat.Attack{Actor: "hero", Target: target}, openField())
		assert.Same(t, s, next, target)
		assert.Nil(t, events, target)
	}
}

func TestAttack_ReloadGatedAlternatesCost(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Level = 10
	hero.Weapon = &combat.Weapon{ID: "xbow", Name: "Hand Crossbow", Subtype: combat.SubtypeLightRanged, Range: 5, ReloadGated: true}
	orc := fighter("orc", combat.KindEnemy, 3, 0)
	orc.Defense = 40
	s := newState(hero, orc)
	r := reducer(&scripted{})

	s, _ = r.Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	assert.Equal(t, 2, s.Get("hero").APRemaining)
	assert.True(t, s.Get("hero").NeedsReload)

	s, events := r.Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	assert.Equal(t, []combat.EventKind{combat.EventAttackResolved, combat.EventTurnStarted}, combat.EventKinds(events))
	assert.Equal(t, 0, s.Get("hero").APRemaining)
	assert.False(t, s.Get("hero").NeedsReload)
}

func TestAttack_GunPenetratesHalfArmor(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.BaseDamage = 5
	hero.Weapon = &combat.Weapon{ID: "pistol", Name: "Pistol", Subtype: combat.SubtypeGun, Damage: 10, Range: 5}
	orc := fighter("orc", combat.KindEnemy, 3, 0)
	orc.Armor = 10
	orc.CurrentHP, orc.MaxHP = 50, 50
	s := newState(hero, orc, fighter("orc2", combat.KindEnemy, 7, 7))

	next, events := reducer(&scripted{d20: []int{20}}).Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	assert.Equal(t, 10, events[0].(combat.AttackResolved).Damage)
	assert.Equal(t, 40, next.Get("orc").CurrentHP)
	assert.Equal(t, "orc", next.Current().ID, "gun ends the turn")
}

func TestAttack_LineOfSight(t *testing.T) {
	g := grid.NewBattlefield(6, 3, map[grid.Position]grid.Terrain{pos(2, 0): grid.TerrainWall})
	bow := &combat.Weapon{ID: "bow", Name: "Longbow", Subtype: combat.SubtypeHeavyRanged, Damage: 4, Range: 6}
	bolt := &combat.Weapon{ID: "bolt", Name: "Arcane Bolt", Subtype: combat.SubtypeMagicDirect, Damage: 4, Range: 6}
	orc := fighter("orc", combat.KindEnemy, 4, 0)
	orc.Defense = 40

	archer := fighter("hero", combat.KindPlayer, 0, 0)
	archer.Weapon = bow
	s := newState(archer, orc)
	next, _ := reducer(&scripted{}).Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, g)
	assert.Same(t, s, next, "wall blocks the bow")

	mage := fighter("hero", combat.KindPlayer, 0, 0)
	mage.Weapon = bolt
	s = newState(mage, orc)
	next, events := reducer(&scripted{}).Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, g)
	require.NotSame(t, s, next)
	assert.Equal(t, combat.EventAttackResolved, events[0].Kind())
}

func TestAttack_MagicAreaWeaponRejected(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Level = 10
	hero.Weapon = &combat.Weapon{ID: "staff", Name: "Storm Staff", Subtype: combat.SubtypeMagicArea, Damage: 6, Range: 3}
	s := newState(hero, fighter("orc", combat.KindEnemy, 1, 0))
	next, _ := reducer(&scripted{}).Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	assert.Same(t, s, next)
}

func TestAttack_CleaveEventOrder(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 1, 1)
	hero.Weapon = &combat.Weapon{ID: "axe", Name: "Greataxe", Subtype: combat.SubtypeHeavyMelee, Damage: 8, Range: 1, Cleave: true}
	goblin := fighter("goblin", combat.KindEnemy, 2, 1)
	goblin.CurrentHP = 1
	brute := fighter("brute", combat.KindEnemy, 1, 2)
	brute.CurrentHP, brute.MaxHP = 50, 50
	s := newState(hero, goblin, brute)

	next, events := reducer(&scripted{d20: []int{20, 10}}).Reduce(s, combat.Attack{Actor: "hero", Target: "goblin"}, openField())
	assert.Equal(t, []combat.EventKind{
		combat.EventAttackResolved,
		combat.EventCharacterDefeated,
		combat.EventCleaveTriggered,
		combat.EventTurnStarted,
	}, combat.EventKinds(events))

	cleave := events[2].(combat.CleaveTriggered)
	assert.Equal(t, "brute", cleave.Target)
	assert.Equal(t, 0, cleave.Roll.FlankBonus)
	assert.Equal(t, 11, cleave.Damage)
	assert.Equal(t, 39, next.Get("brute").CurrentHP)
	assert.True(t, next.Get("goblin").IsKnockedOut)
	assert.Equal(t, "brute", next.Current().ID)
}

func TestAttack_CleaveKillCanEndCombat(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 1, 1)
	hero.Weapon = &combat.Weapon{ID: "axe", Name: "Greataxe", Subtype: combat.SubtypeHeavyMelee, Damage: 8, Range: 1, Cleave: true}
	a := fighter("a", combat.KindEnemy, 2, 1)
	a.CurrentHP = 1
	b := fighter("b", combat.KindEnemy, 0, 1)
	b.CurrentHP = 1
	s := newState(hero, a, b)

	next, events := reducer(&scripted{d20: []int{20, 20}}).Reduce(s, combat.Attack{Actor: "hero", Target: "a"}, openField())
	assert.Equal(t, []combat.EventKind{
		combat.EventAttackResolved,
		combat.EventCharacterDefeated,
		combat.EventCleaveTriggered,
		combat.EventCharacterDefeated,
		combat.EventCombatVictory,
	}, combat.EventKinds(events))
	assert.Equal(t, combat.PhaseVictory, next.Phase)
}

func TestAttack_KillingPlayerNeverKills(t *testing.T) {
	orc := fighter("orc", combat.KindEnemy, 1, 0)
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.CurrentHP = 1
	ally := fighter("ally", combat.KindCompanion, 5, 5)
	rng := &scripted{d20: []int{20}, death: []combat.DefeatKind{combat.DefeatDead}}
	s := newState(orc, hero, ally)

	next, events := reducer(rng).Reduce(s, combat.Attack{Actor: "orc", Target: "hero"}, openField())
	require.Contains(t, combat.EventKinds(events), combat.EventCharacterDefeated)
	h := next.Get("hero")
	assert.True(t, h.IsKnockedOut)
	assert.True(t, h.IsIncapacitated)
	assert.False(t, h.IsDead)
	assert.Len(t, rng.death, 1, "no death roll for player-controlled victims")
	assert.Equal(t, "orc", next.Current().ID, "unarmed attacks do not end the turn")
}

func TestAttack_EnemyDeathRoll(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	orc := fighter("orc", combat.KindEnemy, 1, 0)
	orc.CurrentHP = 1
	s := newState(hero, orc, fighter("orc2", combat.KindEnemy, 6, 6))

	next, events := reducer(&scripted{d20: []int{20}, death: []combat.DefeatKind{combat.DefeatDead}}).Reduce(s, combat.Attack{Actor: "hero", Target: "orc"}, openField())
	o := next.Get("orc")
	assert.True(t, o.IsDead)
	assert.False(t, o.IsIncapacitated)
	assert.True(t, o.IsKnockedOut)
	assert.True(t, events[1].(combat.CharacterDefeated).IsDead)
}

func TestAttack_DefeatWhenLastAllyFalls(t *testing.T) {
	orc := fighter("orc", combat.KindEnemy, 1, 0)
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.CurrentHP = 1
	s := newState(orc, hero)

	next, events := reducer(&scripted{d20: []int{20}}).Reduce(s, combat.Attack{Actor: "orc", Target: "hero"}, openField())
	assert.Equal(t, combat.EventCombatDefeat, events[len(events)-1].Kind())
	assert.Equal(t, combat.PhaseDefeat, next.Phase)
	require.NotNil(t, next.Result)
	assert.Equal(t, combat.OutcomeDefeat, next.Result.Outcome)
	assert.Empty(t, next.Result.Survivors)
	assert.Empty(t, next.Result.Defeated)
}

func TestVictory_RewardsAndRevival(t *testing.T) {
	ally := fighter("ally", combat.KindCompanion, 1, 1)
	hero := knockOut(fighter("hero", combat.KindPlayer, 0, 1))
	hero.MaxHP = 30
	buddy := knockOut(fighter("buddy", combat.KindCompanion, 5, 5))
	buddy.MaxHP = 12
	orc := fighter("orc", combat.KindEnemy, 2, 1)
	orc.Level = 3
	orc.CurrentHP = 1
	grunt := knockOut(fighter("grunt", combat.KindEnemy, 6, 6))
	grunt.Level = 2
	s := newState(ally, hero, buddy, orc, grunt)

	next, events := reducer(&scripted{d20: []int{20}, death: []combat.DefeatKind{combat.DefeatDead}}).Reduce(s, combat.Attack{Actor: "ally", Target: "orc"}, openField())

	assert.Equal(t, []combat.EventKind{
		combat.EventAttackResolved,
		combat.EventCharacterDefeated,
		combat.EventPlayerRevived,
		combat.EventAllyRevived,
		combat.EventCombatVictory,
	}, combat.EventKinds(events))
	assert.Equal(t, combat.PhaseVictory, next.Phase)

	res := next.Result
	require.NotNil(t, res)
	assert.Equal(t, combat.OutcomeVictory, res.Outcome)
	// orc dead at level 3, grunt incapacitated at level 2
	assert.Equal(t, 30+10, res.XP)
	assert.Equal(t, 15+10, res.Gold)
	assert.ElementsMatch(t, []combat.DefeatedEnemy{
		{ID: "orc", Level: 3, IsDead: true},
		{ID: "grunt", Level: 2, IsDead: false},
	}, res.Defeated)
	assert.Equal(t, []string{"ally", "hero", "buddy"}, res.Survivors)

	h := next.Get("hero")
	assert.Equal(t, 7, h.CurrentHP)
	assert.False(t, h.IsKnockedOut)
	assert.False(t, h.IsIncapacitated)
	assert.Equal(t, 3, next.Get("buddy").CurrentHP)
	assert.Equal(t, "ally", events[2].(combat.PlayerRevived).CarriedBy)
	assert.Equal(t, combat.CombatVictory{Outcome: combat.OutcomeVictory, XP: 40, Gold: 25}, events[4])
}

func TestVictory_EachPlayerCarriedByNearestCompanion(t *testing.T) {
	medic := fighter("medic", combat.KindCompanion, 0, 0)
	scout := fighter("scout", combat.KindCompanion, 6, 0)
	first := knockOut(fighter("first", combat.KindPlayer, 1, 0))
	second := knockOut(fighter("second", combat.KindPlayer, 7, 1))
	orc := fighter("orc", combat.KindEnemy, 0, 1)
	orc.CurrentHP = 1
	s := newState(medic, first, scout, second, orc)

	next, events := reducer(&scripted{d20: []int{20}, death: []combat.DefeatKind{combat.DefeatDead}}).Reduce(s, combat.Attack{Actor: "medic", Target: "orc"}, openField())
	require.Equal(t, combat.PhaseVictory, next.Phase)

	var carried []combat.PlayerRevived
	for _, e := range events {
		if pr, ok := e.(combat.PlayerRevived); ok {
			carried = append(carried, pr)
		}
	}
	require.Len(t, carried, 2)
	assert.Equal(t, "first", carried[0].Target)
	assert.Equal(t, "medic", carried[0].CarriedBy)
	assert.Equal(t, "second", carried[1].Target)
	assert.Equal(t, "scout", carried[1].CarriedBy)
}

func TestAreaAttack_BombFriendlyFire(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.BaseDamage = 5
	hero.Inventory = []combat.ItemStack{{Item: combat.Item{ID: "frag", Name: "Frag Bomb", Kind: combat.ItemBomb, Damage: 10}, Count: 1}}
	ally := fighter("ally", combat.KindCompanion, 3, 3)
	ally.CurrentHP, ally.MaxHP = 50, 50
	orc := fighter("orc", combat.KindEnemy, 4, 3)
	orc.CurrentHP, orc.MaxHP = 50, 50
	s := newState(hero, ally, orc)

	next, events := reducer(&scripted{d20: []int{20, 20}}).Reduce(s, combat.AreaAttack{Actor: "hero", Target: pos(4, 4), ItemID: "frag"}, openField())
	require.NotSame(t, s, next)
	ev := events[0].(combat.AreaAttackResolved)
	assert.Equal(t, grid.PatternSquare, ev.Pattern)
	require.Len(t, ev.Hits, 2)
	assert.Equal(t, "ally", ev.Hits[0].Target)
	assert.True(t, ev.Hits[0].Friendly)
	assert.Equal(t, 7, ev.Hits[0].Damage)
	assert.Equal(t, "orc", ev.Hits[1].Target)
	assert.Equal(t, 15, ev.Hits[1].Damage)
	assert.Equal(t, 43, next.Get("ally").CurrentHP)
	assert.Equal(t, 35, next.Get("orc").CurrentHP)
	assert.Empty(t, next.Get("hero").Inventory)
	assert.Equal(t, "ally", next.Current().ID, "area attacks end the turn")
	assert.Len(t, s.Get("hero").Inventory, 1, "original state keeps the bomb")
}

func TestAreaAttack_BombNeedsRangeAndSight(t *testing.T) {
	g := grid.NewBattlefield(8, 8, map[grid.Position]grid.Terrain{pos(1, 0): grid.TerrainWall})
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Inventory = []combat.ItemStack{{Item: combat.Item{ID: "frag", Name: "Frag Bomb", Kind: combat.ItemBomb, Damage: 10}, Count: 2}}
	s := newState(hero, fighter("orc", combat.KindEnemy, 7, 7))
	r := reducer(&scripted{})

	next, _ := r.Reduce(s, combat.AreaAttack{Actor: "hero", Target: pos(5, 0), ItemID: "frag"}, openField())
	assert.Same(t, s, next, "beyond default range 4")
	next, _ = r.Reduce(s, combat.AreaAttack{Actor: "hero", Target: pos(3, 0), ItemID: "frag"}, g)
	assert.Same(t, s, next, "wall in the way")
	next, _ = r.Reduce(s, combat.AreaAttack{Actor: "hero", Target: pos(3, 0), ItemID: "potion"}, openField())
	assert.Same(t, s, next, "not carried")

	next, _ = r.Reduce(s, combat.AreaAttack{Actor: "hero", Target: pos(3, 0), ItemID: "frag"}, openField())
	require.NotSame(t, s, next)
	assert.Equal(t, 1, next.Get("hero").Inventory[0].Count)
}

func TestAreaAttack_MagicCrossSparesAllies(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Level = 10
	hero.Weapon = &combat.Weapon{ID: "staff", Name: "Storm Staff", Subtype: combat.SubtypeMagicArea, Damage: 6, Range: 3}
	ally := fighter("ally", combat.KindCompanion, 3, 2)
	orc := fighter("orc", combat.KindEnemy, 2, 2)
	corner := fighter("corner", combat.KindEnemy, 3, 3)
	s := newState(hero, ally, orc, corner)

	next, events := reducer(&scripted{d20: []int{20}}).Reduce(s, combat.AreaAttack{Actor: "hero", Target: pos(2, 2)}, openField())
	require.NotSame(t, s, next)
	ev := events[0].(combat.AreaAttackResolved)
	assert.Equal(t, grid.PatternCross, ev.Pattern)
	require.Len(t, ev.Hits, 1)
	assert.Equal(t, "orc", ev.Hits[0].Target)
	assert.Equal(t, 9, ev.Hits[0].Damage)
	assert.Equal(t, 20, next.Get("ally").CurrentHP)
	assert.Equal(t, 20, next.Get("corner").CurrentHP)
	assert.Equal(t, 0, next.Get("hero").APRemaining)
}

func TestMove_TerrainCostAndFacing(t *testing.T) {
	g := grid.NewBattlefield(6, 6, map[grid.Position]grid.Terrain{pos(1, 0): grid.TerrainDifficult})
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Level = 10
	s := newState(hero, fighter("orc", combat.KindEnemy, 5, 5))

	next, events := reducer(&scripted{}).Reduce(s, combat.Move{Actor: "hero", Path: []grid.Position{pos(0, 0), pos(1, 0), pos(2, 1)}}, g)
	require.NotSame(t, s, next)
	mv := events[0].(combat.MoveCompleted)
	assert.Equal(t, 3, mv.APCost)
	assert.Equal(t, pos(2, 1), next.Get("hero").Position)
	assert.Equal(t, grid.SouthEast, next.Get("hero").Facing)
	assert.Equal(t, []combat.EventKind{combat.EventMoveCompleted, combat.EventTurnStarted}, combat.EventKinds(events))
}

func TestMove_PartialAPKeepsTurn(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	s := newState(hero, fighter("orc", combat.KindEnemy, 5, 5))
	next, events := reducer(&scripted{}).Reduce(s, combat.Move{Actor: "hero", Path: []grid.Position{pos(0, 0), pos(0, 1)}}, openField())
	assert.Equal(t, []combat.EventKind{combat.EventMoveCompleted}, combat.EventKinds(events))
	assert.Equal(t, 1, next.Get("hero").APRemaining)
	assert.Equal(t, grid.South, next.Get("hero").Facing)
}

func TestMove_Rejections(t *testing.T) {
	g := grid.NewBattlefield(6, 6, map[grid.Position]grid.Terrain{pos(0, 2): grid.TerrainWall})
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	s := newState(hero, fighter("orc", combat.KindEnemy, 1, 0))
	r := reducer(&scripted{})

	paths := map[string][]grid.Position{
		"too short":    {pos(0, 0)},
		"wrong start":  {pos(0, 1), pos(0, 2)},
		"jump":         {pos(0, 0), pos(0, 2)},
		"occupied":     {pos(0, 0), pos(1, 0)},
		"wall":         {pos(0, 0), pos(0, 1), pos(0, 2)},
		"too long":     {pos(0, 0), pos(0, 1), pos(1, 1), pos(2, 1)},
		"off the grid": {pos(0, 0), pos(-1, 0)},
	}
	for name, path := range paths {
		next, events := r.Reduce(s, combat.Move{Actor: "hero", Path: path}, g)
		assert.Same(t, s, next, name)
		assert.Nil(t, events, name)
	}
}

func TestDefend_RaisesDefenseUntilNextTurn(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	orc := fighter("orc", combat.KindEnemy, 1, 0)
	s := newState(hero, orc)
	r := reducer(&scripted{d20: []int{12}})

	s, events := r.Reduce(s, combat.Defend{Actor: "hero"}, openField())
	assert.Equal(t, []combat.EventKind{combat.EventDefendActivated, combat.EventTurnStarted}, combat.EventKinds(events))
	assert.True(t, s.Get("hero").IsDefending)
	assert.Equal(t, 1, s.Get("hero").APRemaining)

	s, events = r.Reduce(s, combat.Attack{Actor: "orc", Target: "hero"}, openField())
	ev := events[0].(combat.AttackResolved)
	assert.Equal(t, 13, ev.Roll.DefenseTotal)
	assert.False(t, ev.Roll.Hit)

	s, _ = r.Reduce(s, combat.EndTurn{Actor: "orc"}, openField())
	assert.Equal(t, "hero", s.Current().ID)
	assert.False(t, s.Get("hero").IsDefending)
}

func potion(count int) combat.ItemStack {
	return combat.ItemStack{Item: combat.Item{ID: "potion", Name: "Healing Potion", Kind: combat.ItemMedical, MinHeal: 5, HealPercent: 0.5}, Count: count}
}

func TestUseItem_HealsAndClamps(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Level = 20
	hero.CurrentHP = 5
	hero.Inventory = []combat.ItemStack{potion(2)}
	s := newState(hero, fighter("orc", combat.KindEnemy, 5, 5))
	r := reducer(&scripted{})

	s, events := r.Reduce(s, combat.UseItem{Actor: "hero", ItemID: "potion"}, openField())
	used := events[0].(combat.ItemUsed)
	assert.Equal(t, combat.ItemMedical, used.ItemKind)
	assert.Equal(t, combat.EventItemUsed, used.Kind())
	assert.Equal(t, 10, used.Healed)
	assert.Equal(t, 1, used.Remaining)
	assert.Equal(t, 15, s.Get("hero").CurrentHP)
	assert.Equal(t, 10, s.Get("hero").LastHeal)
	assert.Equal(t, "hero", s.Current().ID, "item use does not end the turn")

	s, events = r.Reduce(s, combat.UseItem{Actor: "hero", ItemID: "potion"}, openField())
	assert.Equal(t, 5, events[0].(combat.ItemUsed).Healed)
	assert.Equal(t, 20, s.Get("hero").CurrentHP)
	assert.Empty(t, s.Get("hero").Inventory)

	next, _ := r.Reduce(s, combat.UseItem{Actor: "hero", ItemID: "potion"}, openField())
	assert.Same(t, s, next, "empty stack")
}

func TestUseItem_TargetMustBeAdjacentAlly(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Inventory = []combat.ItemStack{potion(3)}
	near := fighter("near", combat.KindCompanion, 1, 1)
	near.CurrentHP = 2
	far := fighter("far", combat.KindCompanion, 4, 4)
	orc := fighter("orc", combat.KindEnemy, 0, 1)
	s := newState(hero, near, far, orc)
	r := reducer(&scripted{})

	for _, target := range []string{"far", "orc", "ghost"} {
		next, _ := r.Reduce(s, combat.UseItem{Actor: "hero", ItemID: "potion", Target: target}, openField())
		assert.Same(t, s, next, target)
	}
	next, events := r.Reduce(s, combat.UseItem{Actor: "hero", ItemID: "potion", Target: "near"}, openField())
	require.NotSame(t, s, next)
	assert.Equal(t, 12, next.Get("near").CurrentHP)
	assert.Equal(t, []combat.EventKind{combat.EventItemUsed, combat.EventTurnStarted}, combat.EventKinds(events))
}

func TestUseItem_BuffAppliesBundle(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Inventory = []combat.ItemStack{{Item: combat.Item{ID: "rage", Name: "Rage Draught", Kind: combat.ItemBuff, Buff: combat.BuffEffect{Attack: 2, Damage: 3, Turns: 2}}, Count: 1}}
	s := newState(hero, fighter("orc", combat.KindEnemy, 5, 5))

	next, events := reducer(&scripted{}).Reduce(s, combat.UseItem{Actor: "hero", ItemID: "rage"}, openField())
	assert.Equal(t, []combat.EventKind{
		combat.EventItemUsed,
		combat.EventBuffApplied,
		combat.EventBuffApplied,
		combat.EventTurnStarted,
	}, combat.EventKinds(events))
	b := next.Get("hero").Buffs
	assert.Equal(t, combat.Buff{Bonus: 2, Turns: 2}, b.Attack)
	assert.Equal(t, combat.Buff{Bonus: 3, Turns: 2}, b.Damage)
	assert.Equal(t, combat.Buff{}, b.Defense)
}

func TestUseItem_BombIsNotUsable(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Inventory = []combat.ItemStack{{Item: combat.Item{ID: "frag", Kind: combat.ItemBomb, Damage: 5}, Count: 1}}
	s := newState(hero, fighter("orc", combat.KindEnemy, 5, 5))
	next, _ := reducer(&scripted{}).Reduce(s, combat.UseItem{Actor: "hero", ItemID: "frag"}, openField())
	assert.Same(t, s, next)
}

func TestFlee_Success(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Speed = 25
	ally := fighter("ally", combat.KindCompanion, 0, 1)
	s := newState(hero, ally, fighter("orc", combat.KindEnemy, 5, 5))

	next, events := reducer(&scripted{d20: []int{15}}).Reduce(s, combat.Flee{Actor: "hero"}, openField())
	require.Equal(t, []combat.EventKind{combat.EventFleeAttempted, combat.EventCombatVictory}, combat.EventKinds(events))
	flee := events[0].(combat.FleeAttempted)
	assert.Equal(t, 15, flee.D20)
	assert.Equal(t, 5, flee.SpeedBonus)
	assert.Equal(t, 20, flee.Total)
	assert.True(t, flee.Success)

	assert.Equal(t, combat.PhaseVictory, next.Phase)
	require.NotNil(t, next.Result)
	assert.Equal(t, combat.OutcomeFled, next.Result.Outcome)
	assert.Empty(t, next.Result.Defeated)
	assert.NotNil(t, next.Result.Defeated)
	assert.Equal(t, []string{"hero", "ally"}, next.Result.Survivors)
	assert.Zero(t, next.Result.XP)
}

func TestFlee_FailureForfeitsTurn(t *testing.T) {
	hero := fighter("hero", combat.KindPlayer, 0, 0)
	hero.Speed = 0
	s := newState(hero, fighter("orc", combat.KindEnemy, 5, 5))

	next, events := reducer(&scripted{d20: []int{11}}).Reduce(s, combat.Flee{Actor: "hero"}, openField())
	assert.Equal(t, []combat.EventKind{combat.EventFleeAttempted, combat.EventTurnStarted}, combat.EventKinds(events))
	assert.False(t, events[0].(combat.FleeAttempted).Success)
	assert.Equal(t, 0, next.Get("hero").APRemaining)
	assert.Equal(t, "orc", next.Current().ID)
}

func TestFlee_EnemiesCannotFlee(t *testing.T) {
	s := newState(fighter("orc", combat.KindEnemy, 5, 5), fighter("hero", combat.KindPlayer, 0, 0))
	next, _ := reducer(&scripted{d20: []int{20}}).Reduce(s, combat.Flee{Actor: "orc"}, openField())
	assert.Same(t, s, next)
}
