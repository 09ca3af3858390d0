package combat

import "github.com/cory-johannsen/tactics/internal/game/grid"

// EventKind names an Event variant.
type EventKind string

const (
	EventTurnStarted        EventKind = "turn_start"
	EventMoveCompleted      EventKind = "move_completed"
	EventAttackResolved     EventKind = "attack_resolved"
	EventCleaveTriggered    EventKind = "cleave_triggered"
	EventAreaAttackResolved EventKind = "area_attack_resolved"
	EventItemUsed           EventKind = "item_used"
	EventBuffApplied        EventKind = "buff_applied"
	EventBuffExpired        EventKind = "buff_expired"
	EventDefendActivated    EventKind = "defend_activated"
	EventFleeAttempted      EventKind = "flee_attempted"
	EventCharacterDefeated  EventKind = "character_defeated"
	EventAllyRevived        EventKind = "ally_revived"
	EventPlayerRevived      EventKind = "player_revived"
	EventCombatVictory      EventKind = "combat_victory"
	EventCombatDefeat       EventKind = "combat_defeat"
)

// Event is display-model data describing one occurrence. The Reducer never
// reads events back.
type Event interface {
	Kind() EventKind
	isEvent()
}

// AttackRoll is the breakdown of one opposed roll.
type AttackRoll struct {
	D20          int
	LevelBonus   int
	FlankBonus   int
	AttackBuff   int
	AttackTotal  int
	DefenseTotal int
	Hit          bool
}

// TurnStarted is emitted when a combatant becomes the initiative holder.
type TurnStarted struct {
	Actor string
	Turn  int
	AP    int
}

// MoveCompleted is emitted after a successful move.
type MoveCompleted struct {
	Actor  string
	From   grid.Position
	To     grid.Position
	Facing grid.Direction
	APCost int
}

// AttackResolved is emitted for every single-target attack, hit or miss.
type AttackResolved struct {
	Actor    string
	Target   string
	WeaponID string
	Subtype  WeaponSubtype
	Roll     AttackRoll
	Flanking bool
	// Damage is 0 on a miss.
	Damage   int
	TargetHP int
}

// CleaveTriggered is emitted for the free follow-up attack after a kill.
type CleaveTriggered struct {
	Actor    string
	Target   string
	Roll     AttackRoll
	Damage   int
	TargetHP int
}

// AreaHit is one victim's outcome inside an area attack.
type AreaHit struct {
	Target   string
	Roll     AttackRoll
	Friendly bool
	Damage   int
	TargetHP int
}

// AreaAttackResolved is emitted once per area attack with every victim's roll.
type AreaAttackResolved struct {
	Actor    string
	SourceID string
	Center   grid.Position
	Pattern  grid.BlastPattern
	Tiles    []grid.Position
	Hits     []AreaHit
}

// ItemUsed is emitted when a consumable is applied.
type ItemUsed struct {
	Actor     string
	Target    string
	ItemID    string
	ItemKind  ItemKind
	Healed    int
	Remaining int
}

// BuffApplied is emitted per stat a buff item sets.
type BuffApplied struct {
	Target string
	Stat   BuffStat
	Bonus  int
	Turns  int
}

// BuffExpired is emitted per stat that reaches zero turns on a turn start.
type BuffExpired struct {
	Target string
	Stat   BuffStat
}

// DefendActivated is emitted when a combatant takes the defend stance.
type DefendActivated struct {
	Actor string
}

// FleeAttempted carries the flee roll breakdown.
type FleeAttempted struct {
	Actor      string
	D20        int
	SpeedBonus int
	Total      int
	Success    bool
}

// CharacterDefeated is emitted when a killing blow lands.
type CharacterDefeated struct {
	Target string
	By     string
	IsDead bool
}

// AllyRevived is emitted for each companion revived after victory.
type AllyRevived struct {
	Target string
	HP     int
}

// PlayerRevived is emitted when the player is revived after victory.
// CarriedBy is the companion credited with carrying the player, or empty.
type PlayerRevived struct {
	Target    string
	CarriedBy string
	HP        int
}

// CombatVictory is the final event of a won or fled encounter.
type CombatVictory struct {
	Outcome Outcome
	XP      int
	Gold    int
}

// CombatDefeat is the final event of a lost encounter.
type CombatDefeat struct{}

func (TurnStarted) Kind() EventKind        { return EventTurnStarted }
func (MoveCompleted) Kind() EventKind      { return EventMoveCompleted }
func (AttackResolved) Kind() EventKind     { return EventAttackResolved }
func (CleaveTriggered) Kind() EventKind    { return EventCleaveTriggered }
func (AreaAttackResolved) Kind() EventKind { return EventAreaAttackResolved }
func (ItemUsed) Kind() EventKind           { return EventItemUsed }
func (BuffApplied) Kind() EventKind        { return EventBuffApplied }
func (BuffExpired) Kind() EventKind        { return EventBuffExpired }
func (DefendActivated) Kind() EventKind    { return EventDefendActivated }
func (FleeAttempted) Kind() EventKind      { return EventFleeAttempted }
func (CharacterDefeated) Kind() EventKind  { return EventCharacterDefeated }
func (AllyRevived) Kind() EventKind        { return EventAllyRevived }
func (PlayerRevived) Kind() EventKind      { return EventPlayerRevived }
func (CombatVictory) Kind() EventKind      { return EventCombatVictory }
func (CombatDefeat) Kind() EventKind       { return EventCombatDefeat }

func (TurnStarted) isEvent()        {}
func (MoveCompleted) isEvent()      {}
func (AttackResolved) isEvent()     {}
func (CleaveTriggered) isEvent()    {}
func (AreaAttackResolved) isEvent() {}
func (ItemUsed) isEvent()           {}
func (BuffApplied) isEvent()        {}
func (BuffExpired) isEvent()        {}
func (DefendActivated) isEvent()    {}
func (FleeAttempted) isEvent()      {}
func (CharacterDefeated) isEvent()  {}
func (AllyRevived) isEvent()        {}
func (PlayerRevived) isEvent()      {}
func (CombatVictory) isEvent()      {}
func (CombatDefeat) isEvent()       {}

// EventKinds returns the kinds of events in order.
func EventKinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind()
	}
	return out
}
