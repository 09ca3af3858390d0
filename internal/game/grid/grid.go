// Package grid provides the tile-level geometry used by the tactical combat
// engine: positions, facing, terrain, and blast patterns, plus a reference
// Battlefield that answers distance, line-of-sight, flanking, and blast queries.
package grid

// Position is an integer tile coordinate on the battlefield.
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Add returns p translated by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the vector from o to p.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// Direction is one of the eight compass facings.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// String returns the compass abbreviation of d.
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case NorthEast:
		return "NE"
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case South:
		return "S"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	default:
		return "?"
	}
}

// DirectionOf returns the facing of a step from `from` to `to`.
// Y grows southward. A zero-length step faces North.
//
// Postcondition: Returns one of the eight Direction constants.
func DirectionOf(from, to Position) Direction {
	dx := sign(to.X - from.X)
	dy := sign(to.Y - from.Y)
	switch {
	case dx == 0 && dy < 0:
		return North
	case dx > 0 && dy < 0:
		return NorthEast
	case dx > 0 && dy == 0:
		return East
	case dx > 0 && dy > 0:
		return SouthEast
	case dx == 0 && dy > 0:
		return South
	case dx < 0 && dy > 0:
		return SouthWest
	case dx < 0 && dy == 0:
		return West
	case dx < 0 && dy < 0:
		return NorthWest
	default:
		return North
	}
}

// Terrain classifies a tile for movement and sight.
type Terrain string

const (
	TerrainNormal    Terrain = "normal"
	TerrainDifficult Terrain = "difficult"
	// TerrainWall blocks movement and line of sight.
	TerrainWall Terrain = "wall"
)

// Cost returns the AP cost of entering a tile of this terrain, or 0 when the
// tile cannot be entered.
func (t Terrain) Cost() int {
	switch t {
	case TerrainDifficult:
		return 2
	case TerrainWall:
		return 0
	default:
		return 1
	}
}

// BlastPattern names the tile shape affected by an area attack.
type BlastPattern string

const (
	// PatternSquare is the 3x3 block centred on the target tile.
	PatternSquare BlastPattern = "square"
	// PatternCross is the target tile plus its four orthogonal neighbours.
	PatternCross BlastPattern = "cross"
)

// Offsets returns the tile offsets of the pattern relative to its centre,
// in row-major order.
func (b BlastPattern) Offsets() []Position {
	switch b {
	case PatternCross:
		return []Position{{0, -1}, {-1, 0}, {0, 0}, {1, 0}, {0, 1}}
	case PatternSquare:
		out := make([]Position, 0, 9)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				out = append(out, Position{dx, dy})
			}
		}
		return out
	default:
		return []Position{{0, 0}}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
