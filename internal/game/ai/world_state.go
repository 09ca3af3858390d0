package ai

import "github.com/cory-johannsen/tactics/internal/game/grid"

// Sides of an encounter as seen by the planner.
const (
	SideAllies  = "allies"
	SideEnemies = "enemies"
)

// CombatantState captures a combatant's planning-relevant state.
type CombatantState struct {
	UID      string
	Name     string
	Kind     string // "player", "companion" or "enemy"
	Side     string // SideAllies or SideEnemies
	Position grid.Position
	HP       int
	MaxHP    int
	// KnockedOut is true for incapacitated and dead combatants.
	KnockedOut bool
}

// HPPercent returns current HP as a percentage of MaxHP; 0 if MaxHP == 0.
func (c *CombatantState) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP) * 100
}

// WoundedThreshold is the HP percentage below which a combatant counts as wounded.
const WoundedThreshold = 50.0

// WorldState is the snapshot passed to the HTN planner for one acting combatant.
//
// Invariant: Actor must not be nil and must appear in Combatants.
type WorldState struct {
	Actor      *CombatantState
	Combatants []*CombatantState // initiative order
	// Distance measures tiles between two positions; nil falls back to Chebyshev distance.
	Distance func(a, b grid.Position) int
}

func (ws *WorldState) distance(a, b grid.Position) int {
	if ws.Distance != nil {
		return ws.Distance(a, b)
	}
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}

// EnemiesOf returns all standing combatants on the opposite side from the actor.
//
// Postcondition: returned slice contains no knocked-out combatants and no same-side combatants.
func (ws *WorldState) EnemiesOf() []*CombatantState {
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if !c.KnockedOut && c.Side != ws.Actor.Side {
			out = append(out, c)
		}
	}
	return out
}

// AlliesOf returns all standing combatants on the actor's side, excluding the actor.
func (ws *WorldState) AlliesOf() []*CombatantState {
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if !c.KnockedOut && c.UID != ws.Actor.UID && c.Side == ws.Actor.Side {
			out = append(out, c)
		}
	}
	return out
}

// HasLivingEnemies reports whether at least one enemy is standing.
func (ws *WorldState) HasLivingEnemies() bool {
	return len(ws.EnemiesOf()) > 0
}

// NearestEnemy returns the standing enemy closest to the actor, or nil.
//
// Postcondition: ties are broken by initiative order.
func (ws *WorldState) NearestEnemy() *CombatantState {
	var best *CombatantState
	bestDist := 0
	for _, e := range ws.EnemiesOf() {
		d := ws.distance(ws.Actor.Position, e.Position)
		if best == nil || d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// WeakestEnemy returns the standing enemy with the lowest HP percentage, or nil.
//
// Postcondition: ties are broken by initiative order.
func (ws *WorldState) WeakestEnemy() *CombatantState {
	enemies := ws.EnemiesOf()
	if len(enemies) == 0 {
		return nil
	}
	weakest := enemies[0]
	for _, e := range enemies[1:] {
		if e.HPPercent() < weakest.HPPercent() {
			weakest = e
		}
	}
	return weakest
}

// WoundedAlly returns the most injured standing combatant on the actor's side,
// the actor included, whose HP is below WoundedThreshold; nil if none is.
func (ws *WorldState) WoundedAlly() *CombatantState {
	var worst *CombatantState
	for _, c := range append([]*CombatantState{ws.Actor}, ws.AlliesOf()...) {
		if c.HPPercent() >= WoundedThreshold {
			continue
		}
		if worst == nil || c.HPPercent() < worst.HPPercent() {
			worst = c
		}
	}
	return worst
}

// ResolveTarget maps a target token to a combatant UID.
//
// Postcondition: tokens "nearest_enemy", "weakest_enemy", "wounded_ally" and
// "self" are resolved to UIDs; unknown tokens are returned as-is; empty string
// is returned when a token resolves to nobody.
func (ws *WorldState) ResolveTarget(token string) string {
	var c *CombatantState
	switch token {
	case "nearest_enemy":
		c = ws.NearestEnemy()
	case "weakest_enemy":
		c = ws.WeakestEnemy()
	case "wounded_ally":
		c = ws.WoundedAlly()
	case "self":
		c = ws.Actor
	default:
		return token
	}
	if c == nil {
		return ""
	}
	return c.UID
}
