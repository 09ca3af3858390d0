package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// ErrArchiveNotFound is returned when an archive lookup yields no results.
var ErrArchiveNotFound = errors.New("combat archive not found")

// ErrArchiveExists is returned when saving an encounter ID that is already archived.
var ErrArchiveExists = errors.New("combat archive already exists")

// CombatArchive is the persisted summary of one finished encounter.
type CombatArchive struct {
	EncounterID string
	Outcome     combat.Outcome
	Turns       int
	XP          int
	Gold        int
	Result      combat.Result
	Log         []string
	ArchivedAt  time.Time
}

// ArchiveFromState builds the archive record for a finished encounter.
//
// Precondition: s must be in a terminal phase with Result set.
// Postcondition: Returns a record whose Log is a copy of s.Log, or an error.
func ArchiveFromState(encounterID string, s *combat.State) (*CombatArchive, error) {
	if encounterID == "" {
		return nil, errors.New("encounter id must not be empty")
	}
	if s == nil || !s.Phase.IsTerminal() || s.Result == nil {
		return nil, fmt.Errorf("encounter %q has not ended", encounterID)
	}
	return &CombatArchive{
		EncounterID: encounterID,
		Outcome:     s.Result.Outcome,
		Turns:       s.Turn,
		XP:          s.Result.XP,
		Gold:        s.Result.Gold,
		Result:      *s.Result,
		Log:         append([]string(nil), s.Log...),
	}, nil
}

// CombatArchiveRepository provides combat archive persistence operations.
type CombatArchiveRepository struct {
	db *pgxpool.Pool
}

// NewCombatArchiveRepository creates a CombatArchiveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatArchiveRepository(db *pgxpool.Pool) *CombatArchiveRepository {
	return &CombatArchiveRepository{db: db}
}

// Save inserts a into combat_archives.
//
// Precondition: a.EncounterID must be non-empty.
// Postcondition: Returns the stored record with ArchivedAt set, or
// ErrArchiveExists when the encounter was already archived.
func (r *CombatArchiveRepository) Save(ctx context.Context, a *CombatArchive) (*CombatArchive, error) {
	result, err := json.Marshal(a.Result)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	log, err := json.Marshal(a.Log)
	if err != nil {
		return nil, fmt.Errorf("encoding combat log: %w", err)
	}

	out := *a
	err = r.db.QueryRow(ctx, `
		INSERT INTO combat_archives (encounter_id, outcome, turns, xp, gold, result, combat_log)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING archived_at`,
		a.EncounterID, string(a.Outcome), a.Turns, a.XP, a.Gold, result, log,
	).Scan(&out.ArchivedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrArchiveExists
		}
		return nil, fmt.Errorf("inserting combat archive: %w", err)
	}
	return &out, nil
}

// Get returns the archive for encounterID.
//
// Postcondition: Returns the record or ErrArchiveNotFound.
func (r *CombatArchiveRepository) Get(ctx context.Context, encounterID string) (*CombatArchive, error) {
	row := r.db.QueryRow(ctx, `
		SELECT encounter_id, outcome, turns, xp, gold, result, combat_log, archived_at
		FROM combat_archives WHERE encounter_id = $1`,
		encounterID,
	)
	a, err := scanArchive(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArchiveNotFound
		}
		return nil, fmt.Errorf("querying combat archive: %w", err)
	}
	return a, nil
}

// ListRecent returns up to limit archives, newest first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CombatArchiveRepository) ListRecent(ctx context.Context, limit int) ([]*CombatArchive, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0, got %d", limit)
	}
	rows, err := r.db.Query(ctx, `
		SELECT encounter_id, outcome, turns, xp, gold, result, combat_log, archived_at
		FROM combat_archives ORDER BY archived_at DESC, encounter_id ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing combat archives: %w", err)
	}
	defer rows.Close()

	var out []*CombatArchive
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning combat archive: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating combat archives: %w", err)
	}
	return out, nil
}

func scanArchive(row pgx.Row) (*CombatArchive, error) {
	var (
		a              CombatArchive
		outcome        string
		result, logRaw []byte
	)
	if err := row.Scan(&a.EncounterID, &outcome, &a.Turns, &a.XP, &a.Gold, &result, &logRaw, &a.ArchivedAt); err != nil {
		return nil, err
	}
	a.Outcome = combat.Outcome(outcome)
	if err := json.Unmarshal(result, &a.Result); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	if err := json.Unmarshal(logRaw, &a.Log); err != nil {
		return nil, fmt.Errorf("decoding combat log: %w", err)
	}
	return &a, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

// ArchiveStore is the persistence surface the Archiver writes to.
type ArchiveStore interface {
	Save(ctx context.Context, a *CombatArchive) (*CombatArchive, error)
}

// Archiver adapts an ArchiveStore to the combat engine's end-of-encounter hook.
type Archiver struct {
	store   ArchiveStore
	timeout time.Duration
	logger  *zap.Logger
}

var _ combat.Archiver = (*Archiver)(nil)

// NewArchiver creates an Archiver that bounds each save by timeout.
//
// Precondition: store must not be nil; timeout must be > 0.
func NewArchiver(store ArchiveStore, timeout time.Duration, logger *zap.Logger) *Archiver {
	if store == nil {
		panic("postgres.NewArchiver: store must not be nil")
	}
	if timeout <= 0 {
		panic("postgres.NewArchiver: timeout must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{store: store, timeout: timeout, logger: logger}
}

// Archive persists the finished encounter s.
//
// Postcondition: Returns nil once the record is stored.
func (a *Archiver) Archive(ctx context.Context, encounterID string, s *combat.State) error {
	rec, err := ArchiveFromState(encounterID, s)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	if _, err := a.store.Save(ctx, rec); err != nil {
		return err
	}
	a.logger.Info("encounter archived",
		zap.String("encounter", encounterID),
		zap.String("outcome", string(rec.Outcome)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
