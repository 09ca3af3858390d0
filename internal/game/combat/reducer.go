package combat

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"go.uber.org/zap"
)

// Reducer applies Actions to States. It is safe for concurrent use only if
// its Outcomes is.
type Reducer struct {
	rng    Outcomes
	logger *zap.Logger
}

// NewReducer creates a Reducer drawing randomness from rng.
//
// Precondition: rng must not be nil. A nil logger is replaced by zap.NewNop().
// Postcondition: Returns a non-nil Reducer.
func NewReducer(rng Outcomes, logger *zap.Logger) *Reducer {
	if rng == nil {
		panic("combat.NewReducer: rng must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reducer{rng: rng, logger: logger}
}

// Outcomes returns the reducer's random outcome source.
func (r *Reducer) Outcomes() Outcomes { return r.rng }

// Reduce applies a to s using g for geometry queries.
//
// An ineligible action (wrong actor, terminal phase, insufficient AP, out of
// range, blocked line of sight, illegal target, missing item) is silently
// rejected: Reduce returns s itself and nil events, and s is left untouched.
// An accepted action returns a new State whose Version is s.Version+1 and
// whose Pending holds the returned events.
//
// Precondition: g must not be nil.
func (r *Reducer) Reduce(s *State, a Action, g Grid) (*State, []Event) {
	if s == nil || a == nil {
		return s, nil
	}
	if err := admit(s, a); err != nil {
		r.reject(a, err)
		return s, nil
	}

	t := &txn{s: s.Clone(), g: g, rng: r.rng}
	actor := t.s.Get(a.ActorID())

	var err error
	switch act := a.(type) {
	case Move:
		err = t.move(actor, act)
	case Attack:
		err = t.attack(actor, act)
	case AreaAttack:
		err = t.areaAttack(actor, act)
	case Defend:
		err = t.defend(actor)
	case UseItem:
		err = t.useItem(actor, act)
	case Flee:
		err = t.flee(actor)
	case EndTurn:
		t.advance()
	default:
		err = fmt.Errorf("unsupported action %T", a)
	}
	if err != nil {
		r.reject(a, err)
		return s, nil
	}

	t.s.Version++
	t.s.Pending = t.events
	return t.s, t.events
}

func (r *Reducer) reject(a Action, err error) {
	r.logger.Debug("action rejected",
		zap.String("kind", string(a.Kind())),
		zap.String("actor", a.ActorID()),
		zap.Error(err),
	)
}

// admit checks the turn-ownership rules shared by every action.
func admit(s *State, a Action) error {
	if s.Phase.IsTerminal() {
		return fmt.Errorf("combat is over (%s)", s.Phase)
	}
	actor := s.Get(a.ActorID())
	if actor == nil {
		return fmt.Errorf("unknown actor %q", a.ActorID())
	}
	cur := s.Current()
	if cur == nil {
		return fmt.Errorf("no current combatant")
	}
	if cur.ID == actor.ID {
		return nil
	}
	if _, ok := a.(EndTurn); ok && cur.APRemaining == 0 {
		return nil
	}
	return fmt.Errorf("not %s's turn (current %s)", actor.ID, cur.ID)
}

// txn is one in-flight action against a cloned State.
type txn struct {
	s      *State
	g      Grid
	rng    Outcomes
	events []Event
}

func (t *txn) emit(e ...Event) { t.events = append(t.events, e...) }

func (t *txn) logf(format string, args ...any) {
	t.s.Log = append(t.s.Log, fmt.Sprintf(format, args...))
}

// advance moves the initiative to the next standing combatant.
func (t *txn) advance() { t.emit(advanceToNextTurn(t.s)...) }

// allyPositions returns the positions of actor's standing allies other than
// actor, in initiative order.
func (t *txn) allyPositions(actor *Combatant) []grid.Position {
	var out []grid.Position
	for _, c := range t.s.Ordered() {
		if c.ID == actor.ID || c.IsKnockedOut || !c.SameSide(actor) {
			continue
		}
		out = append(out, c.Position)
	}
	return out
}

// opposedRoll rolls actor's attack against target's defense.
func (t *txn) opposedRoll(actor, target *Combatant, flanking bool) AttackRoll {
	d20 := t.rng.RollD20()
	roll := AttackRoll{
		D20:          d20,
		LevelBonus:   actor.Level / 2,
		AttackBuff:   actor.Buffs.Bonus(BuffAttack),
		AttackTotal:  AttackTotal(d20, actor.Level, flanking, actor.Buffs.Bonus(BuffAttack)),
		DefenseTotal: DefenseTotal(target.Defense, target.IsDefending, target.Buffs.Bonus(BuffDefense)),
	}
	if flanking {
		roll.FlankBonus = FlankingBonus
	}
	roll.Hit = Hits(roll.AttackTotal, roll.DefenseTotal)
	return roll
}

// strike resolves one weapon attack with damage variance and armor
// mitigation.
//
// Postcondition: damage >= 1 when roll.Hit; killed is true iff this strike
// took target to 0 HP.
func (t *txn) strike(actor, target *Combatant, w *Weapon, flanking bool) (roll AttackRoll, damage int, killed bool) {
	roll = t.opposedRoll(actor, target, flanking)
	if !roll.Hit {
		return roll, 0, false
	}
	raw := RawDamage(actor.BaseDamage, actor.Buffs.Bonus(BuffDamage), w.Damage, t.rng.RollDamageVariance())
	damage = MitigatedDamage(raw, target.Armor, w.armorPenetration())
	killed = target.applyDamage(damage)
	return roll, damage, killed
}

// defeat marks target as knocked out after a killing blow by by.
// Player-controlled victims are always incapacitated.
func (t *txn) defeat(target, by *Combatant) {
	kind := DefeatIncapacitated
	if !target.IsPlayerControlled() {
		kind = t.rng.RollDeathOrIncapacitation()
	}
	target.IsKnockedOut = true
	target.IsDefending = false
	target.APRemaining = 0
	if kind == DefeatDead {
		target.IsDead = true
		t.logf("%s is slain by %s.", target.Name, by.Name)
	} else {
		target.IsIncapacitated = true
		t.logf("%s is incapacitated by %s.", target.Name, by.Name)
	}
	t.emit(CharacterDefeated{Target: target.ID, By: by.ID, IsDead: kind == DefeatDead})
}
