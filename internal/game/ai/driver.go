package ai

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// DefaultMaxActions bounds Run when the caller passes no cap.
const DefaultMaxActions = 2000

// Submitter is the subset of *combat.Engine the Driver needs.
type Submitter interface {
	Get(id string) (*combat.State, error)
	Submit(ctx context.Context, id string, a combat.Action) (*combat.State, []combat.Event, bool, error)
}

var _ Submitter = (*combat.Engine)(nil)

// view is the encounter the Driver is currently deciding for.
type view struct {
	s *combat.State
	g combat.Grid
}

// Driver chooses Combat Actions for computer-controlled combatants by planning
// with their HTN domain and translating the first executable step of the plan.
type Driver struct {
	registry *Registry
	fallback string
	logger   *zap.Logger

	mu      sync.RWMutex
	domains map[string]string
	current view
}

// NewDriver creates a Driver. Combatants without an assigned domain plan with
// fallbackDomain.
//
// Precondition: registry must not be nil. A nil logger is replaced by zap.NewNop().
func NewDriver(registry *Registry, fallbackDomain string, logger *zap.Logger) *Driver {
	if registry == nil {
		panic("ai.NewDriver: registry must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		registry: registry,
		fallback: fallbackDomain,
		logger:   logger,
		domains:  make(map[string]string),
	}
}

// Assign sets the domain used for combatantID.
func (d *Driver) Assign(combatantID, domainID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.domains[combatantID] = domainID
}

func (d *Driver) plannerFor(combatantID string) (*Planner, bool) {
	d.mu.RLock()
	domainID, ok := d.domains[combatantID]
	d.mu.RUnlock()
	if !ok {
		domainID = d.fallback
	}
	return d.registry.PlannerFor(domainID)
}

// Decide returns the next action for the current combatant of s.
//
// Precondition: s and g must not be nil.
// Postcondition: Returns nil iff s is terminal or has no current combatant;
// otherwise returns an action whose actor is the current combatant. When no
// planned step is executable the action is EndTurn.
func (d *Driver) Decide(s *combat.State, g combat.Grid) combat.Action {
	if s.Phase.IsTerminal() {
		return nil
	}
	actor := s.Current()
	if actor == nil {
		return nil
	}
	endTurn := combat.EndTurn{Actor: actor.ID}

	planner, ok := d.plannerFor(actor.ID)
	if !ok {
		d.logger.Debug("no planner for combatant", zap.String("actor", actor.ID))
		return endTurn
	}

	d.mu.Lock()
	d.current = view{s: s, g: g}
	d.mu.Unlock()

	ws := BuildWorldState(s, g, actor.ID)
	plan, err := planner.Plan(ws)
	if err != nil {
		d.logger.Warn("planning failed", zap.String("actor", actor.ID), zap.Error(err))
		return endTurn
	}
	for _, step := range plan {
		if a := translate(step, s, g, actor); a != nil {
			d.logger.Debug("planned action",
				zap.String("actor", actor.ID),
				zap.String("operator", step.Operator),
				zap.String("kind", string(a.Kind())),
			)
			return a
		}
	}
	return endTurn
}

// Run drives encounter id to a terminal phase, deciding every turn with Decide.
// A rejected decision is replaced by EndTurn so the encounter always advances.
// onEvents, when non-nil, receives the events of every accepted action.
//
// Precondition: maxActions >= 0; 0 uses DefaultMaxActions.
// Postcondition: Returns the terminal state, or an error when the cap is
// reached first, ctx is cancelled, or the engine fails.
func (d *Driver) Run(ctx context.Context, eng Submitter, id string, g combat.Grid, maxActions int, onEvents func([]combat.Event)) (*combat.State, error) {
	if maxActions <= 0 {
		maxActions = DefaultMaxActions
	}
	s, err := eng.Get(id)
	if err != nil {
		return nil, err
	}
	for n := 0; !s.Phase.IsTerminal(); n++ {
		if n >= maxActions {
			return s, fmt.Errorf("ai: encounter %q not finished after %d actions", id, maxActions)
		}
		if err := ctx.Err(); err != nil {
			return s, err
		}
		a := d.Decide(s, g)
		if a == nil {
			return s, fmt.Errorf("ai: encounter %q has no current combatant", id)
		}
		next, events, accepted, err := eng.Submit(ctx, id, a)
		if err != nil {
			return next, err
		}
		if !accepted {
			d.logger.Debug("decision rejected, ending turn",
				zap.String("actor", a.ActorID()),
				zap.String("kind", string(a.Kind())),
			)
			next, events, accepted, err = eng.Submit(ctx, id, combat.EndTurn{Actor: a.ActorID()})
			if err != nil {
				return next, err
			}
			if !accepted {
				return next, fmt.Errorf("ai: encounter %q rejected end_turn for %q", id, a.ActorID())
			}
		}
		if onEvents != nil && len(events) > 0 {
			onEvents(events)
		}
		s = next
	}
	return s, nil
}

// translate maps one planned step onto a Combat Action, or nil when the step
// cannot execute in s.
func translate(step PlannedAction, s *combat.State, g combat.Grid, actor *combat.Combatant) combat.Action {
	switch step.Action {
	case ActionAttack:
		return attackAction(s, g, actor, step.Target)
	case ActionApproach:
		return approachAction(s, g, actor, step.Target)
	case ActionDefend:
		if actor.IsDefending || actor.APRemaining < combat.DefendAPCost {
			return nil
		}
		return combat.Defend{Actor: actor.ID}
	case ActionUseItem:
		return useItemAction(s, g, actor, step)
	case ActionThrow:
		return throwAction(s, g, actor, step)
	case ActionFlee:
		return combat.Flee{Actor: actor.ID}
	case ActionEndTurn:
		return combat.EndTurn{Actor: actor.ID}
	}
	return nil
}

func standingTarget(s *combat.State, id string) *combat.Combatant {
	if id == "" {
		return nil
	}
	c := s.Get(id)
	if c == nil || c.IsKnockedOut {
		return nil
	}
	return c
}

func weaponReach(w *combat.Weapon) int {
	if w.Range < 1 {
		return 1
	}
	return w.Range
}

func attackAction(s *combat.State, g combat.Grid, actor *combat.Combatant, targetID string) combat.Action {
	target := standingTarget(s, targetID)
	if target == nil || target.SameSide(actor) {
		return nil
	}
	w := actor.EffectiveWeapon()
	if g.Distance(actor.Position, target.Position) > weaponReach(w) {
		return nil
	}
	if w.Subtype.RequiresLineOfSight() && !g.HasLineOfSight(actor.Position, target.Position) {
		return nil
	}
	if w.Subtype.IsArea() {
		return combat.AreaAttack{Actor: actor.ID, Target: target.Position}
	}
	if w.Subtype.IsLight() && actor.LightAttacks >= combat.MaxLightAttacks {
		return nil
	}
	return combat.Attack{Actor: actor.ID, Target: target.ID}
}

// approachAction takes the first step of the cheapest route toward a tile
// from which the actor can act on the target: within weapon reach and line of
// sight of an enemy, or adjacent to an ally. Standing combatants block the
// route; when they block every route the search ignores them, and the step is
// taken only if its tile is free.
func approachAction(s *combat.State, g combat.Grid, actor *combat.Combatant, targetID string) combat.Action {
	target := standingTarget(s, targetID)
	if target == nil || target.ID == actor.ID {
		return nil
	}
	friendly := target.SameSide(actor)
	reach := 1
	if !friendly {
		reach = weaponReach(actor.EffectiveWeapon())
	}
	goal := func(p grid.Position) bool {
		if g.Distance(p, target.Position) > reach {
			return false
		}
		return friendly || g.HasLineOfSight(p, target.Position)
	}

	occupied := standingTiles(s, actor.ID)
	next, ok := firstStep(g, actor.Position, occupied, goal)
	if !ok {
		if next, ok = firstStep(g, actor.Position, nil, goal); !ok || occupied[next] {
			return nil
		}
	}
	if g.TerrainCost(next) > actor.APRemaining {
		return nil
	}
	return combat.Move{Actor: actor.ID, Path: []grid.Position{actor.Position, next}}
}

// findStack returns the first inventory item matching ref by ID or kind.
func findStack(actor *combat.Combatant, ref string, kinds ...combat.ItemKind) *combat.Item {
	for i := range actor.Inventory {
		st := &actor.Inventory[i]
		if st.Count <= 0 {
			continue
		}
		if ref != "" && (st.Item.ID == ref || string(st.Item.Kind) == ref) {
			return &st.Item
		}
		if ref == "" {
			for _, k := range kinds {
				if st.Item.Kind == k {
					return &st.Item
				}
			}
		}
	}
	return nil
}

func useItemAction(s *combat.State, g combat.Grid, actor *combat.Combatant, step PlannedAction) combat.Action {
	if actor.APRemaining < combat.UseItemAPCost {
		return nil
	}
	item := findStack(actor, step.Item, combat.ItemMedical)
	if item == nil || item.Kind == combat.ItemBomb {
		return nil
	}
	targetID := step.Target
	if targetID == "" {
		targetID = actor.ID
	}
	target := standingTarget(s, targetID)
	if target == nil || !target.SameSide(actor) {
		return nil
	}
	if target.ID != actor.ID && !g.AreAdjacent(actor.Position, target.Position) {
		return nil
	}
	return combat.UseItem{Actor: actor.ID, ItemID: item.ID, Target: target.ID}
}

func throwAction(s *combat.State, g combat.Grid, actor *combat.Combatant, step PlannedAction) combat.Action {
	item := findStack(actor, step.Item, combat.ItemBomb)
	if item == nil || item.Kind != combat.ItemBomb {
		return nil
	}
	target := standingTarget(s, step.Target)
	if target == nil || target.SameSide(actor) {
		return nil
	}
	cost, reach := item.APCost, item.Range
	if cost <= 0 {
		cost = combat.DefaultBombAPCost
	}
	if reach <= 0 {
		reach = combat.DefaultBombRange
	}
	if actor.APRemaining < cost || g.Distance(actor.Position, target.Position) > reach {
		return nil
	}
	if !g.HasLineOfSight(actor.Position, target.Position) {
		return nil
	}
	return combat.AreaAttack{Actor: actor.ID, Target: target.Position, ItemID: item.ID}
}
