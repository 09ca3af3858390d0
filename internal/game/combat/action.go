package combat

import "github.com/cory-johannsen/tactics/internal/game/grid"

// ActionKind names an Action variant.
type ActionKind string

const (
	ActionMove       ActionKind = "move"
	ActionAttack     ActionKind = "attack"
	ActionDefend     ActionKind = "defend"
	ActionFlee       ActionKind = "flee"
	ActionUseItem    ActionKind = "use_item"
	ActionAreaAttack ActionKind = "area_attack"
	ActionEndTurn    ActionKind = "end_turn"
)

// Action is a combat command submitted for the current initiative holder.
// The set of variants is closed; see Move, Attack, Defend, Flee, UseItem,
// AreaAttack, and EndTurn.
type Action interface {
	ActorID() string
	Kind() ActionKind
	isAction()
}

// Move walks the actor along Path. Path[0] must be the actor's position.
type Move struct {
	Actor string
	Path  []grid.Position
}

// Attack is a single-target weapon attack.
type Attack struct {
	Actor  string
	Target string
}

// Defend raises the actor's defense by 3 until its next turn and ends the turn.
type Defend struct{ Actor string }

// Flee attempts to leave combat. Only player-controlled actors may flee.
type Flee struct{ Actor string }

// UseItem consumes one unit of ItemID. An empty Target means the actor.
type UseItem struct {
	Actor  string
	ItemID string
	Target string
}

// AreaAttack throws the bomb ItemID at Target, or casts the equipped
// magic_area weapon when ItemID is empty.
type AreaAttack struct {
	Actor  string
	Target grid.Position
	ItemID string
}

// EndTurn passes the initiative to the next combatant.
type EndTurn struct{ Actor string }

func (a Move) ActorID() string       { return a.Actor }
func (a Attack) ActorID() string     { return a.Actor }
func (a Defend) ActorID() string     { return a.Actor }
func (a Flee) ActorID() string       { return a.Actor }
func (a UseItem) ActorID() string    { return a.Actor }
func (a AreaAttack) ActorID() string { return a.Actor }
func (a EndTurn) ActorID() string    { return a.Actor }

func (Move) Kind() ActionKind       { return ActionMove }
func (Attack) Kind() ActionKind     { return ActionAttack }
func (Defend) Kind() ActionKind     { return ActionDefend }
func (Flee) Kind() ActionKind       { return ActionFlee }
func (UseItem) Kind() ActionKind    { return ActionUseItem }
func (AreaAttack) Kind() ActionKind { return ActionAreaAttack }
func (EndTurn) Kind() ActionKind    { return ActionEndTurn }

func (Move) isAction()       {}
func (Attack) isAction()     {}
func (Defend) isAction()     {}
func (Flee) isAction()       {}
func (UseItem) isAction()    {}
func (AreaAttack) isAction() {}
func (EndTurn) isAction()    {}
