package ai

import (
	"fmt"
	"sort"
)

// Registry maps domain IDs to their Planners. It is built once at startup
// and only read afterwards.
type Registry struct {
	planners map[string]*Planner
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{planners: make(map[string]*Planner)}
}

// Register plans domain with caller's hooks in scope.
//
// Precondition: domain and caller must not be nil.
// Postcondition: Returns an error when domain.ID is already registered.
func (r *Registry) Register(domain *Domain, caller ScriptCaller, scope string) error {
	if _, dup := r.planners[domain.ID]; dup {
		return fmt.Errorf("ai: domain %q registered twice", domain.ID)
	}
	r.planners[domain.ID] = NewPlanner(domain, caller, scope)
	return nil
}

// RegisterAll registers domains in order, stopping at the first collision.
func (r *Registry) RegisterAll(domains []*Domain, caller ScriptCaller, scope string) error {
	for _, d := range domains {
		if err := r.Register(d, caller, scope); err != nil {
			return err
		}
	}
	return nil
}

// PlannerFor looks up the Planner for domainID.
func (r *Registry) PlannerFor(domainID string) (*Planner, bool) {
	p, ok := r.planners[domainID]
	return p, ok
}

// IDs returns the registered domain IDs in lexical order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.planners))
	for id := range r.planners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
