package inventory

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// Registry holds all loaded weapon and item definitions indexed by ID.
type Registry struct {
	weapons map[string]*WeaponDef
	items   map[string]*ItemDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		weapons: make(map[string]*WeaponDef),
		items:   make(map[string]*ItemDef),
	}
}

// LoadDirectory builds a Registry from root/weapons and root/items, then
// checks that every weapon-category item references a loaded weapon.
//
// Precondition: root contains readable weapons and items subdirectories.
// Postcondition: Returns a fully cross-referenced Registry or an error.
func LoadDirectory(root string) (*Registry, error) {
	r := NewRegistry()
	weapons, err := LoadWeapons(filepath.Join(root, "weapons"))
	if err != nil {
		return nil, err
	}
	for _, w := range weapons {
		if err := r.RegisterWeapon(w); err != nil {
			return nil, err
		}
	}
	items, err := LoadItems(filepath.Join(root, "items"))
	if err != nil {
		return nil, err
	}
	for _, d := range items {
		if err := r.RegisterItem(d); err != nil {
			return nil, err
		}
	}
	for _, d := range r.items {
		if d.Category == CategoryWeapon && r.weapons[d.WeaponRef] == nil {
			return nil, fmt.Errorf("inventory: item %q references unknown weapon %q", d.ID, d.WeaponRef)
		}
	}
	return r, nil
}

// RegisterWeapon adds w to the registry.
//
// Precondition:  w must not be nil.
// Postcondition: Weapon(w.ID) returns w; returns error if w.ID already registered.
func (r *Registry) RegisterWeapon(w *WeaponDef) error {
	if _, exists := r.weapons[w.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterWeapon: weapon ID %q already registered", w.ID)
	}
	r.weapons[w.ID] = w
	return nil
}

// RegisterItem adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Item(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) RegisterItem(d *ItemDef) error {
	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterItem: item ID %q already registered", d.ID)
	}
	r.items[d.ID] = d
	return nil
}

// Weapon returns the WeaponDef for the given id, or nil if not found.
func (r *Registry) Weapon(id string) *WeaponDef {
	return r.weapons[id]
}

// Item returns the ItemDef for the given id and whether it was found.
//
// Postcondition: ok is true iff the id is registered.
func (r *Registry) Item(id string) (*ItemDef, bool) {
	d, ok := r.items[id]
	return d, ok
}

// MaxStack returns the stack cap of itemID, or 1 for unknown items.
func (r *Registry) MaxStack(itemID string) int {
	if d, ok := r.items[itemID]; ok {
		return d.MaxStack
	}
	return 1
}

// AllItems returns all registered ItemDefs sorted by ID.
func (r *Registry) AllItems() []*ItemDef {
	out := make([]*ItemDef, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllWeapons returns all registered WeaponDefs sorted by ID.
func (r *Registry) AllWeapons() []*WeaponDef {
	out := make([]*WeaponDef, 0, len(r.weapons))
	for _, w := range r.weapons {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CombatWeapon returns the combat equipment for weapon id.
func (r *Registry) CombatWeapon(id string) (*combat.Weapon, error) {
	w := r.weapons[id]
	if w == nil {
		return nil, fmt.Errorf("inventory: unknown weapon %q", id)
	}
	return w.ToCombat(), nil
}

// Stack returns a combat inventory stack of count units of item id, capped
// at the item's MaxStack.
//
// Postcondition: returns an error if id is unknown, not usable in combat, or count < 1.
func (r *Registry) Stack(id string, count int) (combat.ItemStack, error) {
	d, ok := r.items[id]
	if !ok {
		return combat.ItemStack{}, fmt.Errorf("inventory: unknown item %q", id)
	}
	if !d.UsableInCombat() {
		return combat.ItemStack{}, fmt.Errorf("inventory: item %q (%s) cannot be carried into combat", id, d.Category)
	}
	if count < 1 {
		return combat.ItemStack{}, fmt.Errorf("inventory: item %q count must be >= 1, got %d", id, count)
	}
	if count > d.MaxStack {
		count = d.MaxStack
	}
	return combat.ItemStack{Item: d.ToCombat(), Count: count}, nil
}
