package combat

import "github.com/cory-johannsen/tactics/internal/game/grid"

// Grid is the battlefield geometry the Reducer queries. It must be pure:
// identical arguments always yield identical answers.
// *grid.Battlefield is the reference implementation.
type Grid interface {
	Distance(a, b grid.Position) int
	HasLineOfSight(a, b grid.Position) bool
	IsFlanking(attacker, target grid.Position, allies []grid.Position) bool
	BlastTiles(center grid.Position, pattern grid.BlastPattern) []grid.Position
	AreAdjacent(a, b grid.Position) bool
	// TerrainCost returns the AP to enter p, or 0 when p is impassable.
	TerrainCost(p grid.Position) int
}

var _ Grid = (*grid.Battlefield)(nil)
