package loot

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// Catalog supplies the stack cap of an item.
type Catalog interface {
	MaxStack(itemID string) int
}

// Drop is one merged reward stack.
type Drop struct {
	ItemID     string `json:"item_id"`
	InstanceID string `json:"instance_id"`
	Quantity   int    `json:"quantity"`
}

// Generator rolls loot for defeated enemies.
type Generator struct {
	table   *Table
	catalog Catalog
	src     dice.Source
	newID   func() string
	logger  *zap.Logger
}

// NewGenerator creates a Generator.
//
// Precondition: table must have passed Validate; catalog and src must not be nil.
// A nil logger is replaced by zap.NewNop().
func NewGenerator(table *Table, catalog Catalog, src dice.Source, logger *zap.Logger) *Generator {
	if table == nil || catalog == nil || src == nil {
		panic("loot.NewGenerator: table, catalog, and src must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{table: table, catalog: catalog, src: src, newID: uuid.NewString, logger: logger}
}

// SetIDFunc replaces the instance-id generator (uuid.NewString by default).
func (g *Generator) SetIDFunc(fn func() string) { g.newID = fn }

// Generate rolls each defeated enemy's tier once, subject to the dead or
// incapacitated drop chance, adds the tier's guaranteed rare and bonus roll
// where configured, and merges identical items.
//
// Postcondition: every Drop has a distinct ItemID and
// 1 <= Quantity <= catalog.MaxStack(ItemID); drops appear in first-rolled order.
func (g *Generator) Generate(defeated []combat.DefeatedEnemy) []Drop {
	var drops []Drop
	for _, enemy := range defeated {
		tier := g.table.TierFor(enemy.Level)
		if tier == nil {
			g.logger.Debug("no loot tier", zap.String("enemy", enemy.ID), zap.Int("level", enemy.Level))
			continue
		}
		chance := g.table.IncapacitatedDropChance
		if enemy.IsDead {
			chance = g.table.DeadDropChance
		}
		if g.chance(chance) {
			drops = g.rollInto(drops, tier.Entries)
		}
		if len(tier.GuaranteedRare) > 0 {
			drops = g.rollInto(drops, tier.GuaranteedRare)
		}
		if g.chance(tier.BonusChance) {
			drops = g.rollInto(drops, tier.Entries)
		}
	}

	for i := range drops {
		if limit := g.catalog.MaxStack(drops[i].ItemID); drops[i].Quantity > limit {
			g.logger.Debug("loot stack capped",
				zap.String("item", drops[i].ItemID),
				zap.Int("rolled", drops[i].Quantity),
				zap.Int("max_stack", limit),
			)
			drops[i].Quantity = limit
		}
		drops[i].InstanceID = g.newID()
	}
	return drops
}

func (g *Generator) rollInto(drops []Drop, entries []Entry) []Drop {
	e := g.pick(entries)
	if e == nil || e.isNothing() {
		return drops
	}
	qty := 1
	if e.Quantity != "" {
		r, err := dice.RollExpr(e.Quantity, g.src)
		if err != nil {
			g.logger.Warn("invalid loot quantity", zap.String("item", e.Item), zap.Error(err))
			return drops
		}
		qty = r.Total()
	}
	if qty <= 0 {
		return drops
	}
	return appendOrStack(drops, Drop{ItemID: e.Item, Quantity: qty})
}

// pick selects an entry by weight.
func (g *Generator) pick(entries []Entry) *Entry {
	total := 0
	for _, e := range entries {
		total += e.Weight
	}
	if total <= 0 {
		return nil
	}
	roll := g.src.Intn(total)
	cumulative := 0
	for i := range entries {
		cumulative += entries[i].Weight
		if roll < cumulative {
			return &entries[i]
		}
	}
	return &entries[len(entries)-1]
}

// chance reports success with probability p. Certain outcomes draw nothing
// from the source.
func (g *Generator) chance(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return g.src.Intn(10000) < int(p*10000)
}

// appendOrStack adds a drop to the list, stacking onto an existing entry of the same item.
func appendOrStack(drops []Drop, drop Drop) []Drop {
	for i := range drops {
		if drops[i].ItemID == drop.ItemID {
			drops[i].Quantity += drop.Quantity
			return drops
		}
	}
	return append(drops, drop)
}
