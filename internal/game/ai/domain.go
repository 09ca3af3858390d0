// Package ai implements the Hierarchical Task Network (HTN) planner that
// chooses actions for computer-controlled combatants.
//
// HTN planning decomposes abstract tasks into primitive operators via ordered methods.
// Method preconditions are evaluated as Lua hooks; operators map to combat actions.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RootTask is the task every plan starts from.
const RootTask = "behave"

// Task is an abstract goal that can be decomposed by methods.
//
// Precondition: ID must be non-empty.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method decomposes a task into an ordered list of subtasks or operator IDs.
//
// Precondition: TaskID, ID, and Subtasks must be non-empty.
// Precondition: Precondition is a Lua function name; empty means always applicable.
type Method struct {
	TaskID       string   `yaml:"task"`
	ID           string   `yaml:"id"`
	Precondition string   `yaml:"precondition"` // Lua function name; empty = always applicable
	Subtasks     []string `yaml:"subtasks"`
}

// Operator actions understood by the Driver.
const (
	ActionAttack   = "attack"
	ActionApproach = "approach"
	ActionDefend   = "defend"
	ActionUseItem  = "use_item"
	ActionThrow    = "throw"
	ActionFlee     = "flee"
	ActionEndTurn  = "end_turn"
)

var knownActions = map[string]bool{
	ActionAttack: true, ActionApproach: true, ActionDefend: true, ActionUseItem: true,
	ActionThrow: true, ActionFlee: true, ActionEndTurn: true,
}

// Operator is a primitive action that maps directly to a combat action.
//
// Precondition: ID and Action must be non-empty.
type Operator struct {
	ID     string `yaml:"id"`
	Action string `yaml:"action"`
	// Target is "nearest_enemy", "weakest_enemy", "wounded_ally", "self", or a literal combatant ID.
	Target string `yaml:"target"`
	// Item is an item ID or item kind ("medical", "buff", "bomb") for use_item and throw.
	Item string `yaml:"item"`
}

// Domain holds the full HTN domain loaded from a YAML file.
//
// Invariant: all Task, Method, and Operator IDs are unique within their slice.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// Validate reports every structural problem in d, joined into one error.
//
// Postcondition: nil means d has an ID and the root task, every task, method,
// and operator is identified and unique within its kind, every operator names
// a known action, and every method belongs to a declared task and expands only
// into declared tasks or operators.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("domain: id is required")
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("domain %q: "+format, append([]any{d.ID}, args...)...))
	}

	tasks := make(map[string]bool, len(d.Tasks))
	for i, t := range d.Tasks {
		switch {
		case t.ID == "":
			fail("tasks[%d] has no id", i)
		case tasks[t.ID]:
			fail("task %q declared twice", t.ID)
		}
		tasks[t.ID] = true
	}
	if !tasks[RootTask] {
		fail("root task %q is not declared", RootTask)
	}

	ops := make(map[string]bool, len(d.Operators))
	for i, op := range d.Operators {
		switch {
		case op.ID == "":
			fail("operators[%d] has no id", i)
		case ops[op.ID]:
			fail("operator %q declared twice", op.ID)
		case !knownActions[op.Action]:
			fail("operator %q: action %q is not one of attack, approach, defend, use_item, throw, flee, end_turn", op.ID, op.Action)
		}
		ops[op.ID] = true
	}

	methods := make(map[string]bool, len(d.Methods))
	for i, m := range d.Methods {
		if m.ID == "" {
			fail("methods[%d] has no id", i)
			continue
		}
		if methods[m.ID] {
			fail("method %q declared twice", m.ID)
		}
		methods[m.ID] = true
		if !tasks[m.TaskID] {
			fail("method %q decomposes undeclared task %q", m.ID, m.TaskID)
		}
		if len(m.Subtasks) == 0 {
			fail("method %q expands into nothing", m.ID)
		}
		for _, sub := range m.Subtasks {
			if !tasks[sub] && !ops[sub] {
				fail("method %q: step %q names no task or operator", m.ID, sub)
			}
		}
	}
	return errors.Join(errs...)
}

// OperatorByID returns the operator with the given ID, or false if not found.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	for _, op := range d.Operators {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// MethodsForTask returns all methods that decompose taskID, in declaration order.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

// domainFile is the on-disk shape of a domain: a single top-level "domain" key.
type domainFile struct {
	Domain *Domain `yaml:"domain"`
}

func isDomainFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// LoadDomains parses and validates every .yaml or .yml file directly inside dir,
// in file name order.
//
// Precondition: dir must be a readable directory.
// Postcondition: the first unreadable, malformed, or invalid file fails the
// whole load. An empty result with a nil error means dir held no domain files.
func LoadDomains(dir string) ([]*Domain, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading ai domains: %w", err)
	}
	var domains []*Domain
	for _, e := range entries {
		if e.IsDir() || !isDomainFile(e.Name()) {
			continue
		}
		d, err := loadDomain(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, nil
}

func loadDomain(path string) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading ai domain: %w", err)
	}
	var f domainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ai domain %s: %w", path, err)
	}
	if f.Domain == nil {
		return nil, fmt.Errorf("ai domain %s: no top-level domain key", path)
	}
	if err := f.Domain.Validate(); err != nil {
		return nil, fmt.Errorf("ai domain %s: %w", path, err)
	}
	return f.Domain, nil
}
