package combat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrEncounterNotFound is returned for an unknown encounter id.
	ErrEncounterNotFound = errors.New("encounter not found")
	// ErrEncounterExists is returned when starting an id already in use.
	ErrEncounterExists = errors.New("encounter already exists")
)

// Archiver persists a finished encounter.
type Archiver interface {
	Archive(ctx context.Context, encounterID string, s *State) error
}

// Encounter is one live combat and its battlefield.
type Encounter struct {
	ID    string
	Grid  Grid
	State *State
}

// Engine manages all live encounters, keyed by encounter ID, and serializes
// action submission per encounter.
// All methods are safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	encounters map[string]*Encounter
	reducer    *Reducer
	archiver   Archiver
	logger     *zap.Logger
}

// NewEngine creates an empty Engine.
//
// Precondition: reducer must not be nil.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(reducer *Reducer, logger *zap.Logger) *Engine {
	if reducer == nil {
		panic("combat.NewEngine: reducer must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		encounters: make(map[string]*Encounter),
		reducer:    reducer,
		logger:     logger,
	}
}

// SetArchiver installs a hook invoked once when an encounter ends.
func (e *Engine) SetArchiver(a Archiver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.archiver = a
}

// Start creates encounter id from participants on g.
//
// Precondition: g must not be nil.
// Postcondition: Returns the opening State and events, or ErrEncounterExists,
// or a participant validation error.
func (e *Engine) Start(id string, g Grid, participants []Combatant) (*State, []Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.encounters[id]; ok {
		return nil, nil, fmt.Errorf("starting %q: %w", id, ErrEncounterExists)
	}
	s, events, err := NewState(participants, e.reducer.Outcomes())
	if err != nil {
		return nil, nil, fmt.Errorf("starting %q: %w", id, err)
	}
	e.encounters[id] = &Encounter{ID: id, Grid: g, State: s}
	e.logger.Info("encounter started",
		zap.String("encounter", id),
		zap.Int("participants", len(participants)),
		zap.String("first", s.Order[s.TurnIndex]),
	)
	return s, events, nil
}

// Submit applies a to encounter id. accepted is false when the reducer
// silently rejected the action. When the action ends the encounter the
// Archiver, if any, is invoked before Submit returns; an archive failure is
// returned alongside the new state.
func (e *Engine) Submit(ctx context.Context, id string, a Action) (s *State, events []Event, accepted bool, err error) {
	e.mu.Lock()
	enc, ok := e.encounters[id]
	if !ok {
		e.mu.Unlock()
		return nil, nil, false, fmt.Errorf("submitting to %q: %w", id, ErrEncounterNotFound)
	}
	before := enc.State
	next, events := e.reducer.Reduce(before, a, enc.Grid)
	enc.State = next
	archiver := e.archiver
	e.mu.Unlock()

	accepted = next != before
	if !accepted || before.Phase.IsTerminal() || !next.Phase.IsTerminal() {
		return next, events, accepted, nil
	}

	e.logger.Info("encounter ended",
		zap.String("encounter", id),
		zap.String("outcome", string(next.Result.Outcome)),
		zap.Int("turns", next.Turn),
	)
	if archiver != nil {
		if aerr := archiver.Archive(ctx, id, next); aerr != nil {
			return next, events, true, fmt.Errorf("archiving %q: %w", id, aerr)
		}
	}
	return next, events, true, nil
}

// Get returns the current state of encounter id.
func (e *Engine) Get(id string) (*State, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enc, ok := e.encounters[id]
	if !ok {
		return nil, fmt.Errorf("getting %q: %w", id, ErrEncounterNotFound)
	}
	return enc.State, nil
}

// End removes encounter id and returns its final state.
func (e *Engine) End(id string) (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc, ok := e.encounters[id]
	if !ok {
		return nil, fmt.Errorf("ending %q: %w", id, ErrEncounterNotFound)
	}
	delete(e.encounters, id)
	return enc.State, nil
}

// Len returns the number of live encounters.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.encounters)
}
