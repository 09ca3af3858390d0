// Package main runs one scripted encounter to completion with AI control on
// every side and prints the event stream, the result, and the loot.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/inventory"
	"github.com/cory-johannsen/tactics/internal/game/loot"
	"github.com/cory-johannsen/tactics/internal/game/scenario"
	"github.com/cory-johannsen/tactics/internal/observability"
	"github.com/cory-johannsen/tactics/internal/scripting"
	"github.com/cory-johannsen/tactics/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "content/scenarios/ruined_crossing.yaml", "path to the scenario YAML file")
	seed := flag.Uint64("seed", 0, "outcome seed; overrides combat.seed when non-zero")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Combat.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	encounterID := uuid.NewString()
	logger = observability.ForEncounter(logger, encounterID)

	var archiver combat.Archiver
	if cfg.Archive.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		archiver = postgres.NewArchiver(pool.Archives(), cfg.Archive.Timeout, logger)
		logger.Info("archiving enabled", zap.String("host", cfg.Database.Host))
	}

	if err := run(ctx, cfg, *scenarioPath, encounterID, archiver, os.Stdout, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
	logger.Info("simulation complete", zap.Duration("elapsed", time.Since(start)))
}

// run loads content and the scenario, drives the encounter with the AI until
// it ends or cfg.Combat.MaxActions is exhausted, and writes a report to out.
//
// Precondition: cfg must have passed Validate.
// Postcondition: Returns nil once the report is written, or the first
// loading, driving, or archiving error.
func run(ctx context.Context, cfg config.Config, scenarioPath, encounterID string, archiver combat.Archiver, out io.Writer, logger *zap.Logger) error {
	reg, err := inventory.LoadDirectory(cfg.Combat.ContentDir)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	table, err := loot.LoadTable(filepath.Join(cfg.Combat.ContentDir, "loot.yaml"))
	if err != nil {
		return fmt.Errorf("loading loot table: %w", err)
	}
	for _, id := range table.Items() {
		if _, ok := reg.Item(id); !ok {
			return fmt.Errorf("loot table references unknown item %q", id)
		}
	}

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	bf, err := sc.LoadBattlefield()
	if err != nil {
		return fmt.Errorf("scenario %q: %w", sc.ID, err)
	}
	participants, err := sc.Combatants(reg)
	if err != nil {
		return err
	}

	var src dice.Source
	if cfg.Combat.Seed > 0 {
		src = dice.NewSeededSource(cfg.Combat.Seed)
	} else {
		src = dice.NewCryptoSource()
	}
	roller := dice.NewLoggedRoller(src, logger)

	scripts := scripting.NewManager(roller, logger)
	defer scripts.Close()
	if err := scripts.LoadGlobal(cfg.Combat.ScriptsDir, cfg.Combat.InstructionLimit); err != nil {
		return fmt.Errorf("loading AI scripts: %w", err)
	}
	domains, err := ai.LoadDomains(cfg.Combat.AIDir)
	if err != nil {
		return err
	}
	planners := ai.NewRegistry()
	if err := planners.RegisterAll(domains, scripts, scripting.GlobalScope); err != nil {
		return err
	}
	if _, ok := planners.PlannerFor(cfg.Combat.DefaultDomain); !ok {
		return fmt.Errorf("default AI domain %q is not loaded (have %v)", cfg.Combat.DefaultDomain, planners.IDs())
	}
	driver := ai.NewDriver(planners, cfg.Combat.DefaultDomain, logger)
	for id, domain := range sc.Domains() {
		if _, ok := planners.PlannerFor(domain); !ok {
			return fmt.Errorf("scenario %q: participant %q uses unknown AI domain %q (have %v)", sc.ID, id, domain, planners.IDs())
		}
		driver.Assign(id, domain)
	}
	driver.BindScripts(scripts)

	engine := combat.NewEngine(combat.NewReducer(combat.NewOutcomes(roller), logger), logger)
	if archiver != nil {
		engine.SetArchiver(archiver)
	}

	fmt.Fprintf(out, "== %s (%s) ==\n", sc.Name, encounterID)
	_, opening, err := engine.Start(encounterID, bf, participants)
	if err != nil {
		return err
	}
	printEvents(out, opening)

	final, err := driver.Run(ctx, engine, encounterID, bf, cfg.Combat.MaxActions, func(events []combat.Event) {
		printEvents(out, events)
	})
	if err != nil {
		return err
	}
	if _, err := engine.End(encounterID); err != nil {
		return err
	}

	printResult(out, final)
	if final.Phase == combat.PhaseVictory {
		drops := loot.NewGenerator(table, reg, src, logger).Generate(final.Result.Defeated)
		printLoot(out, reg, drops)
	}
	return nil
}

func printEvents(out io.Writer, events []combat.Event) {
	for _, e := range events {
		fmt.Fprintf(out, "  %-22s %+v\n", e.Kind(), e)
	}
}

func printResult(out io.Writer, s *combat.State) {
	if s.Result == nil {
		fmt.Fprintf(out, "-- unfinished after %d turns (phase %s)\n", s.Turn, s.Phase)
		return
	}
	r := s.Result
	fmt.Fprintf(out, "-- outcome: %s after %d turns\n", r.Outcome, s.Turn)
	fmt.Fprintf(out, "   xp: %d  gold: %d\n", r.XP, r.Gold)
	fmt.Fprintf(out, "   survivors: %v\n", r.Survivors)
	for _, d := range r.Defeated {
		state := "incapacitated"
		if d.IsDead {
			state = "dead"
		}
		fmt.Fprintf(out, "   defeated: %s (level %d, %s)\n", d.ID, d.Level, state)
	}
	for _, rv := range r.Revivals {
		fmt.Fprintf(out, "   revived: %s at %d HP\n", rv.ID, rv.HP)
	}
}

func printLoot(out io.Writer, reg *inventory.Registry, drops []loot.Drop) {
	if len(drops) == 0 {
		fmt.Fprintln(out, "-- loot: nothing")
		return
	}
	fmt.Fprintln(out, "-- loot:")
	for _, d := range drops {
		name := d.ItemID
		if def, ok := reg.Item(d.ItemID); ok {
			name = def.Name
		}
		fmt.Fprintf(out, "   %dx %s\n", d.Quantity, name)
	}
}
