package ai_test

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// mockScriptCaller always returns the given value for any hook call.
type mockScriptCaller struct{ returnVal lua.LValue }

func (m *mockScriptCaller) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	if m.returnVal == nil {
		return lua.LNil, nil
	}
	return m.returnVal, nil
}

// hooks answers true for the named preconditions and false otherwise.
type hooks map[string]bool

func (h hooks) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	return lua.LBool(h[hook]), nil
}

func skirmisherDomain() *ai.Domain {
	return &ai.Domain{
		ID: "skirmisher",
		Tasks: []*ai.Task{
			{ID: "behave"},
			{ID: "engage"},
		},
		Methods: []*ai.Method{
			{TaskID: "behave", ID: "patch_up", Precondition: "should_heal", Subtasks: []string{"heal_self"}},
			{TaskID: "behave", ID: "fight", Precondition: "has_enemy", Subtasks: []string{"engage"}},
			{TaskID: "behave", ID: "idle", Subtasks: []string{"wait"}},
			{TaskID: "engage", ID: "strike", Precondition: "enemy_in_reach", Subtasks: []string{"attack_nearest"}},
			{TaskID: "engage", ID: "close_in", Subtasks: []string{"approach_nearest", "attack_nearest"}},
		},
		Operators: []*ai.Operator{
			{ID: "heal_self", Action: ai.ActionUseItem, Target: "self", Item: "medical"},
			{ID: "attack_nearest", Action: ai.ActionAttack, Target: "nearest_enemy"},
			{ID: "approach_nearest", Action: ai.ActionApproach, Target: "nearest_enemy"},
			{ID: "wait", Action: ai.ActionEndTurn},
		},
	}
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

// stateOf lays out cs in initiative order and gives the first combatant its turn.
func stateOf(cs ...combat.Combatant) *combat.State {
	s := &combat.State{
		Combatants: make(map[string]*combat.Combatant, len(cs)),
		Turn:       1,
		Phase:      combat.PhaseResolving,
	}
	for i := range cs {
		c := cs[i]
		s.Combatants[c.ID] = &c
		s.Order = append(s.Order, c.ID)
	}
	s.Combatants[s.Order[0]].APRemaining = combat.APForLevel(1)
	return s
}

func openField() *grid.Battlefield { return grid.NewBattlefield(8, 8, nil) }

func medkit(n int) combat.ItemStack {
	return combat.ItemStack{
		Item:  combat.Item{ID: "medkit", Name: "Medkit", Kind: combat.ItemMedical, MinHeal: 5},
		Count: n,
	}
}

func grenade(n int) combat.ItemStack {
	return combat.ItemStack{
		Item:  combat.Item{ID: "grenade", Name: "Grenade", Kind: combat.ItemBomb, Damage: 6},
		Count: n,
	}
}
